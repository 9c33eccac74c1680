package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/authguard/authguard-api/internal/domain"
)

// LicenseRepository reads license rows over a tenant connection. The license
// table lives in public; the tenant search_path falls through to it.
type LicenseRepository struct {
	conn *gorm.DB
}

func NewLicenseRepository(conn *gorm.DB) *LicenseRepository {
	return &LicenseRepository{conn: conn}
}

func (r *LicenseRepository) GetActive(ctx context.Context, tenantID, softwareID string) (*domain.SoftwareLicense, error) {
	var license domain.SoftwareLicense
	if err := r.conn.WithContext(ctx).
		First(&license, "tenant_id = ? AND software_id = ? AND status = ?",
			tenantID, softwareID, domain.LicenseStatusActive).Error; err != nil {
		return nil, err
	}
	return &license, nil
}
