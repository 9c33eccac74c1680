package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/authguard/authguard-api/internal/domain"
)

// BranchRepository works against the branch table of one tenant schema; the
// connection it is built on decides which schema that is.
type BranchRepository struct {
	conn *gorm.DB
}

func NewBranchRepository(conn *gorm.DB) *BranchRepository {
	return &BranchRepository{conn: conn}
}

func (r *BranchRepository) Create(ctx context.Context, branch *domain.Branch) (*domain.Branch, error) {
	if err := r.conn.WithContext(ctx).Create(branch).Error; err != nil {
		return nil, err
	}
	return branch, nil
}

func (r *BranchRepository) GetByName(ctx context.Context, name string) (*domain.Branch, error) {
	var branch domain.Branch
	if err := r.conn.WithContext(ctx).First(&branch, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

func (r *BranchRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.conn.WithContext(ctx).
		Model(&domain.Branch{}).
		Where("slug = ? AND is_active = true", slug).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *BranchRepository) ListByMatrix(ctx context.Context, matrixTenantID string) ([]domain.Branch, error) {
	var branches []domain.Branch
	if err := r.conn.WithContext(ctx).
		Where("matrix_tenant_id = ? AND is_active = true", matrixTenantID).
		Order("created_at ASC").
		Find(&branches).Error; err != nil {
		return nil, err
	}
	return branches, nil
}

func (r *BranchRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.conn.WithContext(ctx).
		Model(&domain.Branch{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
