package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/authguard/authguard-api/internal/domain"
)

//go:generate mockery --name TenantRepository --output ../mocks
type TenantRepository interface {
	Create(ctx context.Context, tenant *domain.Tenant) (*domain.Tenant, error)
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
	GetByDomain(ctx context.Context, domainName string) (*domain.Tenant, error)
	Update(ctx context.Context, tenant *domain.Tenant) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Tenant, error)
	ListActive(ctx context.Context) ([]domain.Tenant, error)
	ListByParent(ctx context.Context, parentTenantID string) ([]domain.Tenant, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Tenant, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	FindTopLevelByOwnerAndName(ctx context.Context, ownerID, name string) (*domain.Tenant, error)
}

//go:generate mockery --name UserRepository --output ../mocks
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

//go:generate mockery --name SoftwareRepository --output ../mocks
type SoftwareRepository interface {
	GetActiveByCode(ctx context.Context, code string) (*domain.Software, error)
	List(ctx context.Context) ([]domain.Software, error)
}

// BranchRepository operates on the branch table inside one tenant schema. It
// is always constructed against a resolved tenant connection.
//
//go:generate mockery --name BranchRepository --output ../mocks
type BranchRepository interface {
	Create(ctx context.Context, branch *domain.Branch) (*domain.Branch, error)
	GetByName(ctx context.Context, name string) (*domain.Branch, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListByMatrix(ctx context.Context, matrixTenantID string) ([]domain.Branch, error)
	Count(ctx context.Context) (int64, error)
}

// LicenseRepository reads license rows through a tenant connection; the
// search_path falls through to public for the global license table.
//
//go:generate mockery --name LicenseRepository --output ../mocks
type LicenseRepository interface {
	GetActive(ctx context.Context, tenantID, softwareID string) (*domain.SoftwareLicense, error)
}

//go:generate mockery --name Repository --output ../mocks
type Repository interface {
	Tenant() TenantRepository
	User() UserRepository
	Software() SoftwareRepository

	// Branches and Licenses bind schema-scoped repositories to a connection
	// resolved by the registry.
	Branches(conn *gorm.DB) BranchRepository
	Licenses(conn *gorm.DB) LicenseRepository
}
