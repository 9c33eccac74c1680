package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/authguard/authguard-api/internal/api/dto"
	"github.com/authguard/authguard-api/internal/domain"
	"github.com/authguard/authguard-api/internal/repository"
	"github.com/authguard/authguard-api/internal/schema"
	"github.com/authguard/authguard-api/internal/service/pubsub"
	"github.com/authguard/authguard-api/pkg/logger"
)

// ConnectionResolver yields the pooled connection bound to one schema.
//
//go:generate mockery --name ConnectionResolver --output ../mocks
type ConnectionResolver interface {
	Resolve(ctx context.Context, schemaName string) (*gorm.DB, error)
	Invalidate(schemaName string)
}

// SchemaDropper destroys a schema and everything in it.
//
//go:generate mockery --name SchemaDropper --output ../mocks
type SchemaDropper interface {
	DropSchema(ctx context.Context, schemaName string) error
}

// EventPublisher broadcasts tenant lifecycle events. Publishing is
// best-effort; failures are logged, never surfaced to callers.
//
//go:generate mockery --name EventPublisher --output ../mocks
type EventPublisher interface {
	PublishTenantEvent(ctx context.Context, event pubsub.TenantEvent) error
}

// TenantService orchestrates tenant, sub-tenant and branch lifecycles:
// slug generation, global-row persistence, schema provisioning and the
// compensation policy when provisioning fails.
type TenantService struct {
	repo        repository.Repository
	provisioner schema.Provisioner
	registry    ConnectionResolver
	schemas     SchemaDropper
	events      EventPublisher
	logger      *logger.Logger
}

func NewTenantService(
	repo repository.Repository,
	provisioner schema.Provisioner,
	registry ConnectionResolver,
	schemas SchemaDropper,
	events EventPublisher,
	logger *logger.Logger,
) *TenantService {
	return &TenantService{
		repo:        repo,
		provisioner: provisioner,
		registry:    registry,
		schemas:     schemas,
		events:      events,
		logger:      logger,
	}
}

func validateTenantName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < 2 {
		return "", &ValidationError{Field: "name", Message: "must be at least 2 characters"}
	}
	if len(trimmed) > 100 {
		return "", &ValidationError{Field: "name", Message: "must be at most 100 characters"}
	}
	if schema.Sanitize(trimmed) == "" {
		return "", &ValidationError{Field: "name", Message: "must contain letters or digits"}
	}
	return trimmed, nil
}

// CreateMatrixTenant creates a top-level tenant for ownerID: global row
// first, then schema provisioning. If provisioning fails the row is marked
// provisioning_failed rather than left ambiguously pending, and the error
// propagates.
func (s *TenantService) CreateMatrixTenant(ctx context.Context, ownerID string, req dto.CreateTenantRequest) (*domain.Tenant, error) {
	name, err := validateTenantName(req.Name)
	if err != nil {
		return nil, err
	}

	owner, err := s.repo.User().GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	_, err = s.repo.Tenant().FindTopLevelByOwnerAndName(ctx, owner.ID, name)
	if err == nil {
		return nil, ErrTenantNameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	slug, err := schema.UniqueTenantSlug(ctx, name, s.repo.Tenant().ExistsBySlug)
	if err != nil {
		return nil, err
	}

	tenant := &domain.Tenant{
		Name:    name,
		Slug:    slug,
		Domain:  req.Domain,
		Type:    domain.TenantTypeMatrix,
		Status:  domain.TenantStatusPending,
		OwnerID: owner.ID,
	}

	created, err := s.repo.Tenant().Create(ctx, tenant)
	if err != nil {
		return nil, err
	}
	s.publishCreated(ctx, created)

	return s.provisionTenant(ctx, created)
}

// CreateSubTenant creates a child tenant under a matrix parent. Sub-tenants
// get a full physical schema of their own, unlike branches.
func (s *TenantService) CreateSubTenant(ctx context.Context, parentTenantID string, req dto.CreateSubTenantRequest) (*domain.Tenant, error) {
	name, err := validateTenantName(req.Name)
	if err != nil {
		return nil, err
	}

	parent, err := s.repo.Tenant().GetByID(ctx, parentTenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	if !parent.IsMatrix() {
		return nil, ErrNotMatrixTenant
	}

	slug, err := schema.UniqueTenantSlug(ctx, name, s.repo.Tenant().ExistsBySlug)
	if err != nil {
		return nil, err
	}

	subTenant := &domain.Tenant{
		Name:           name,
		Slug:           slug,
		Domain:         req.Domain,
		Type:           domain.TenantTypeSubTenant,
		Status:         domain.TenantStatusPending,
		ParentTenantID: &parent.ID,
		OwnerID:        parent.OwnerID,
	}

	created, err := s.repo.Tenant().Create(ctx, subTenant)
	if err != nil {
		return nil, err
	}
	s.publishCreated(ctx, created)

	return s.provisionTenant(ctx, created)
}

// publishCreated announces a freshly persisted tenant row, before the
// provisioning outcome is known.
func (s *TenantService) publishCreated(ctx context.Context, tenant *domain.Tenant) {
	s.publish(ctx, pubsub.TenantEvent{
		Type:     pubsub.EventTenantCreated,
		TenantID: tenant.ID,
		Slug:     tenant.Slug,
		Status:   string(tenant.Status),
	})
}

// provisionTenant runs the schema creation/migration for a freshly persisted
// tenant row and applies the compensation policy on failure.
func (s *TenantService) provisionTenant(ctx context.Context, tenant *domain.Tenant) (*domain.Tenant, error) {
	if err := s.provisioner.Provision(ctx, tenant.Slug); err != nil {
		tenant.Status = domain.TenantStatusProvisioningFailed
		if updateErr := s.repo.Tenant().Update(ctx, tenant); updateErr != nil {
			s.logger.Error("Failed to mark tenant provisioning_failed", updateErr,
				zap.String("tenant_id", tenant.ID), zap.String("slug", tenant.Slug))
		}
		s.publish(ctx, pubsub.TenantEvent{
			Type:     pubsub.EventTenantProvisioningFailed,
			TenantID: tenant.ID,
			Slug:     tenant.Slug,
			Status:   string(tenant.Status),
		})
		return nil, fmt.Errorf("provision tenant %s: %w", tenant.Slug, err)
	}

	tenant.Status = domain.TenantStatusActive
	if err := s.repo.Tenant().Update(ctx, tenant); err != nil {
		return nil, err
	}

	s.publish(ctx, pubsub.TenantEvent{
		Type:     pubsub.EventTenantProvisioned,
		TenantID: tenant.ID,
		Slug:     tenant.Slug,
		Status:   string(tenant.Status),
	})

	s.logger.Info("Tenant created",
		zap.String("tenant_id", tenant.ID),
		zap.String("slug", tenant.Slug),
		zap.String("type", string(tenant.Type)))
	return tenant, nil
}

// CreateBranch inserts a branch row inside the matrix tenant's own schema.
// No schema is created; a global reference row points back at the matrix for
// discoverability.
func (s *TenantService) CreateBranch(ctx context.Context, matrixTenantID, callerID string, req dto.CreateBranchRequest) (*domain.Branch, error) {
	name, err := validateTenantName(req.Name)
	if err != nil {
		return nil, err
	}

	matrix, err := s.repo.Tenant().GetByID(ctx, matrixTenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	if !matrix.IsMatrix() {
		return nil, ErrNotMatrixTenant
	}
	if matrix.OwnerID != callerID {
		return nil, ErrNotTenantOwner
	}

	conn, err := s.registry.Resolve(ctx, matrix.Slug)
	if err != nil {
		return nil, err
	}
	branches := s.repo.Branches(conn)

	_, err = branches.GetByName(ctx, name)
	if err == nil {
		return nil, ErrBranchNameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	branchSlug, err := schema.UniqueBranchSlug(ctx, name, branches.SlugExists)
	if err != nil {
		return nil, err
	}

	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Branch of %s", matrix.Name)
	}

	branch, err := branches.Create(ctx, &domain.Branch{
		Name:           name,
		Slug:           branchSlug,
		Description:    description,
		MatrixTenantID: matrix.ID,
		IsActive:       true,
	})
	if err != nil {
		return nil, err
	}

	// Reference row in the global store. Its slug must stay globally unique
	// even though the branch slug is only unique within the matrix schema.
	refSlug, err := schema.UniqueSlug(ctx, domain.BranchRefPrefix+branchSlug, s.repo.Tenant().ExistsBySlug)
	if err != nil {
		return nil, err
	}
	_, err = s.repo.Tenant().Create(ctx, &domain.Tenant{
		Name:           name,
		Slug:           refSlug,
		Type:           domain.TenantTypeSubTenant,
		Status:         domain.TenantStatusActive,
		ParentTenantID: &matrix.ID,
		OwnerID:        matrix.OwnerID,
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, pubsub.TenantEvent{
		Type:     pubsub.EventBranchCreated,
		TenantID: matrix.ID,
		Slug:     branchSlug,
	})

	s.logger.Info("Branch created",
		zap.String("matrix_tenant_id", matrix.ID),
		zap.String("schema", matrix.Slug),
		zap.String("branch_slug", branchSlug))
	return branch, nil
}

// DeleteTenant drops the tenant's schema and soft-deletes its row. Tenants
// with live sub-tenants are refused.
func (s *TenantService) DeleteTenant(ctx context.Context, tenantID string) error {
	tenant, err := s.repo.Tenant().GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTenantNotFound
		}
		return err
	}

	subTenants, err := s.repo.Tenant().ListByParent(ctx, tenant.ID)
	if err != nil {
		return err
	}
	if len(subTenants) > 0 {
		return ErrHasSubTenants
	}

	// Branch reference rows never owned a schema.
	if !tenant.IsBranchRef() {
		if err := s.schemas.DropSchema(ctx, tenant.Slug); err != nil {
			return err
		}
		s.registry.Invalidate(tenant.Slug)
	}

	if err := s.repo.Tenant().Delete(ctx, tenant.ID); err != nil {
		return err
	}

	s.publish(ctx, pubsub.TenantEvent{
		Type:     pubsub.EventTenantDeleted,
		TenantID: tenant.ID,
		Slug:     tenant.Slug,
	})

	s.logger.Info("Tenant deleted",
		zap.String("tenant_id", tenant.ID), zap.String("slug", tenant.Slug))
	return nil
}

// UpdateTenantStatus transitions the status field only; the schema is left
// untouched.
func (s *TenantService) UpdateTenantStatus(ctx context.Context, tenantID string, status domain.TenantStatus) (*domain.Tenant, error) {
	switch status {
	case domain.TenantStatusActive, domain.TenantStatusInactive,
		domain.TenantStatusSuspended, domain.TenantStatusPending:
	default:
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", status)}
	}

	tenant, err := s.repo.Tenant().GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}

	tenant.Status = status
	if err := s.repo.Tenant().Update(ctx, tenant); err != nil {
		return nil, err
	}

	s.publish(ctx, pubsub.TenantEvent{
		Type:     pubsub.EventTenantStatusChanged,
		TenantID: tenant.ID,
		Slug:     tenant.Slug,
		Status:   string(status),
	})
	return tenant, nil
}

func (s *TenantService) GetByID(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	tenant, err := s.repo.Tenant().GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return tenant, nil
}

func (s *TenantService) List(ctx context.Context) ([]domain.Tenant, error) {
	return s.repo.Tenant().List(ctx)
}

// GetHierarchy returns a tenant with its parent and direct children.
func (s *TenantService) GetHierarchy(ctx context.Context, tenantID string) (*domain.Tenant, *domain.Tenant, []domain.Tenant, error) {
	tenant, err := s.GetByID(ctx, tenantID)
	if err != nil {
		return nil, nil, nil, err
	}

	var parent *domain.Tenant
	if tenant.ParentTenantID != nil {
		parent, err = s.repo.Tenant().GetByID(ctx, *tenant.ParentTenantID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, err
		}
	}

	subTenants, err := s.repo.Tenant().ListByParent(ctx, tenant.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	return tenant, parent, subTenants, nil
}

// ListBranches returns the active branches stored inside a matrix tenant's
// schema.
func (s *TenantService) ListBranches(ctx context.Context, matrixTenantID string) ([]domain.Branch, error) {
	matrix, err := s.GetByID(ctx, matrixTenantID)
	if err != nil {
		return nil, err
	}
	if !matrix.IsMatrix() {
		return nil, ErrNotMatrixTenant
	}

	conn, err := s.registry.Resolve(ctx, matrix.Slug)
	if err != nil {
		return nil, err
	}
	return s.repo.Branches(conn).ListByMatrix(ctx, matrix.ID)
}

// Stats reports sub-tenant and branch counts for one tenant.
func (s *TenantService) Stats(ctx context.Context, tenantID string) (*dto.TenantStatsResponse, error) {
	tenant, err := s.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	subTenants, err := s.repo.Tenant().ListByParent(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}

	stats := &dto.TenantStatsResponse{SubTenants: len(subTenants)}
	if tenant.IsMatrix() {
		conn, err := s.registry.Resolve(ctx, tenant.Slug)
		if err != nil {
			return nil, err
		}
		branches, err := s.repo.Branches(conn).ListByMatrix(ctx, tenant.ID)
		if err != nil {
			return nil, err
		}
		stats.Branches = len(branches)
	}
	return stats, nil
}

func (s *TenantService) publish(ctx context.Context, event pubsub.TenantEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTenantEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish tenant event",
			zap.String("type", event.Type),
			zap.String("tenant_id", event.TenantID),
			zap.Error(err))
	}
}
