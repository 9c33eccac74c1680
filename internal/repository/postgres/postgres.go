package postgres

import (
	"gorm.io/gorm"

	"github.com/authguard/authguard-api/internal/repository"
)

type postgresRepository struct {
	db           *gorm.DB
	tenantRepo   repository.TenantRepository
	userRepo     repository.UserRepository
	softwareRepo repository.SoftwareRepository
}

// NewPostgresRepository wires the global-schema repositories onto the public
// connection. Schema-scoped repositories are bound per call via Branches and
// Licenses.
func NewPostgresRepository(db *gorm.DB) repository.Repository {
	return &postgresRepository{
		db:           db,
		tenantRepo:   NewTenantRepository(db),
		userRepo:     NewUserRepository(db),
		softwareRepo: NewSoftwareRepository(db),
	}
}

func (r *postgresRepository) Tenant() repository.TenantRepository {
	return r.tenantRepo
}

func (r *postgresRepository) User() repository.UserRepository {
	return r.userRepo
}

func (r *postgresRepository) Software() repository.SoftwareRepository {
	return r.softwareRepo
}

func (r *postgresRepository) Branches(conn *gorm.DB) repository.BranchRepository {
	return NewBranchRepository(conn)
}

func (r *postgresRepository) Licenses(conn *gorm.DB) repository.LicenseRepository {
	return NewLicenseRepository(conn)
}
