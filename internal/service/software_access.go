package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/authguard/authguard-api/internal/domain"
	"github.com/authguard/authguard-api/internal/repository"
	"github.com/authguard/authguard-api/internal/schema"
	"github.com/authguard/authguard-api/pkg/logger"
)

// AccessContext is everything a request handler needs once a software access
// check has passed: the validated entities plus the connections for both the
// tenant schema and the composite software schema.
type AccessContext struct {
	Software     *domain.Software
	Tenant       *domain.Tenant
	User         *domain.User
	License      *domain.SoftwareLicense
	TenantConn   *gorm.DB
	SoftwareConn *gorm.DB
}

// SoftwareAccessService validates that a user of a tenant may use a software
// product, and resolves the composite software_<code>_<slug> schema on
// success. First access provisions the composite schema lazily through the
// software registry.
type SoftwareAccessService struct {
	repo             repository.Repository
	tenantRegistry   ConnectionResolver
	softwareRegistry ConnectionResolver
	logger           *logger.Logger
	now              func() time.Time
}

func NewSoftwareAccessService(
	repo repository.Repository,
	tenantRegistry ConnectionResolver,
	softwareRegistry ConnectionResolver,
	logger *logger.Logger,
) *SoftwareAccessService {
	return &SoftwareAccessService{
		repo:             repo,
		tenantRegistry:   tenantRegistry,
		softwareRegistry: softwareRegistry,
		logger:           logger,
		now:              time.Now,
	}
}

// ValidateAccess runs the full gate: software active, tenant active, user
// known, license valid. Checks run in that order so the cheapest global
// lookups fail before any tenant connection is opened.
func (s *SoftwareAccessService) ValidateAccess(ctx context.Context, softwareCode, tenantSlug, userID string) (*AccessContext, error) {
	software, err := s.repo.Software().GetActiveByCode(ctx, softwareCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSoftwareNotFound
		}
		return nil, err
	}

	tenant, err := s.repo.Tenant().GetBySlug(ctx, tenantSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	if !tenant.IsActive() {
		return nil, ErrTenantNotActive
	}

	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	tenantConn, err := s.tenantRegistry.Resolve(ctx, tenant.Slug)
	if err != nil {
		return nil, err
	}

	license, err := s.repo.Licenses(tenantConn).GetActive(ctx, tenant.ID, software.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLicenseNotFound
		}
		return nil, err
	}
	if !license.IsValid(s.now()) {
		return nil, ErrLicenseExpired
	}

	softwareConn, err := s.softwareRegistry.Resolve(ctx, schema.SoftwareSchemaName(software.Code, tenant.Slug))
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Software access granted",
		zap.String("software", software.Code),
		zap.String("tenant", tenant.Slug),
		zap.String("user_id", user.ID))

	return &AccessContext{
		Software:     software,
		Tenant:       tenant,
		User:         user,
		License:      license,
		TenantConn:   tenantConn,
		SoftwareConn: softwareConn,
	}, nil
}
