package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/authguard/authguard-api/internal/domain"
)

type SoftwareRepository struct {
	db *gorm.DB
}

func NewSoftwareRepository(db *gorm.DB) *SoftwareRepository {
	return &SoftwareRepository{db: db}
}

func (r *SoftwareRepository) GetActiveByCode(ctx context.Context, code string) (*domain.Software, error) {
	var software domain.Software
	if err := r.db.WithContext(ctx).
		First(&software, "code = ? AND is_active = true", code).Error; err != nil {
		return nil, err
	}
	return &software, nil
}

func (r *SoftwareRepository) List(ctx context.Context) ([]domain.Software, error) {
	var softwares []domain.Software
	if err := r.db.WithContext(ctx).Find(&softwares).Error; err != nil {
		return nil, err
	}
	return softwares, nil
}
