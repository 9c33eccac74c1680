package schema

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/authguard/authguard-api/internal/domain"
	"github.com/authguard/authguard-api/pkg/logger"
)

// Status classifies the state a tenant schema was found in, before repair.
type Status string

const (
	StatusOK            Status = "OK"
	StatusMissingSchema Status = "MISSING_SCHEMA"
	StatusHasDuplicates Status = "HAS_DUPLICATES"
	StatusMissingTables Status = "MISSING_TABLES"
	StatusError         Status = "ERROR"
)

// GlobalTables must only exist in public. Finding one inside a tenant schema
// means a past migration leaked global structure; the auditor drops it.
var GlobalTables = []string{"tenant", "user", "software", "software_license", "software_licenses"}

// RequiredTenantTables must exist in every tenant schema.
var RequiredTenantTables = []string{"branch", "branch_data", "branch_permission"}

// Inspector is the structural view the auditor works against.
type Inspector interface {
	SchemaExists(ctx context.Context, schemaName string) (bool, error)
	ListTables(ctx context.Context, schemaName string) ([]string, error)
	CreateSchema(ctx context.Context, schemaName string) error
	DropTable(ctx context.Context, schemaName, tableName string) error
}

// TenantSource lists the tenants whose schemas the auditor sweeps.
type TenantSource interface {
	ListActive(ctx context.Context) ([]domain.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
}

// Report is the per-tenant verdict of one audit pass. Status reflects the
// condition found before any repair; Repaired says whether a fix was applied.
type Report struct {
	TenantID        string   `json:"tenant_id"`
	Name            string   `json:"name"`
	Slug            string   `json:"slug"`
	Status          Status   `json:"status"`
	SchemaExists    bool     `json:"schema_exists"`
	Tables          []string `json:"tables,omitempty"`
	TableCount      int      `json:"table_count"`
	DuplicateTables []string `json:"duplicate_tables,omitempty"`
	MissingTables   []string `json:"missing_tables,omitempty"`
	Repaired        bool     `json:"repaired"`
	Error           string   `json:"error,omitempty"`
}

// Auditor sweeps tenant schemas for drift: schemas that vanished, global
// tables duplicated into tenant schemas, and required tables that are
// missing. Failures on one tenant never abort the sweep for the rest.
type Auditor struct {
	tenants   TenantSource
	inspector Inspector
	migrator  Migrator
	logger    *logger.Logger
}

func NewAuditor(tenants TenantSource, inspector Inspector, migrator Migrator, logger *logger.Logger) *Auditor {
	return &Auditor{
		tenants:   tenants,
		inspector: inspector,
		migrator:  migrator,
		logger:    logger,
	}
}

// Sweep audits and repairs every active tenant schema. The returned error
// covers only the tenant listing itself; per-tenant failures are recorded in
// the reports.
func (a *Auditor) Sweep(ctx context.Context) ([]Report, error) {
	tenants, err := a.tenants.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}

	a.logger.Info("Starting tenant schema audit", zap.Int("tenants", len(tenants)))

	reports := make([]Report, 0, len(tenants))
	for _, tenant := range tenants {
		report := a.auditTenant(ctx, tenant, true)
		if report.Status != StatusOK {
			a.logger.Warn("Tenant schema drift",
				zap.String("slug", tenant.Slug),
				zap.String("status", string(report.Status)),
				zap.Bool("repaired", report.Repaired))
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Inspect reports the state of every active tenant schema without repairing.
func (a *Auditor) Inspect(ctx context.Context) ([]Report, error) {
	tenants, err := a.tenants.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}

	reports := make([]Report, 0, len(tenants))
	for _, tenant := range tenants {
		reports = append(reports, a.auditTenant(ctx, tenant, false))
	}
	return reports, nil
}

// Fix audits and repairs a single tenant's schema by slug.
func (a *Auditor) Fix(ctx context.Context, slug string) (Report, error) {
	tenant, err := a.tenants.GetBySlug(ctx, slug)
	if err != nil {
		return Report{Slug: slug, Status: StatusError, Error: err.Error()}, err
	}
	report := a.auditTenant(ctx, *tenant, true)
	if report.Status == StatusError {
		return report, fmt.Errorf("fix schema %s: %s", slug, report.Error)
	}
	return report, nil
}

func (a *Auditor) auditTenant(ctx context.Context, tenant domain.Tenant, repair bool) Report {
	report := Report{
		TenantID: tenant.ID,
		Name:     tenant.Name,
		Slug:     tenant.Slug,
		Status:   StatusOK,
	}

	// Branch reference rows have no schema of their own.
	if tenant.IsBranchRef() {
		return report
	}

	exists, err := a.inspector.SchemaExists(ctx, tenant.Slug)
	if err != nil {
		return errorReport(report, err)
	}
	report.SchemaExists = exists

	if !exists {
		report.Status = StatusMissingSchema
		if !repair {
			return report
		}
		if err := a.inspector.CreateSchema(ctx, tenant.Slug); err != nil {
			return errorReport(report, err)
		}
		if err := a.migrator.Migrate(ctx, tenant.Slug); err != nil {
			return errorReport(report, err)
		}
		report.Repaired = true
		report.SchemaExists = true
		return report
	}

	tables, err := a.inspector.ListTables(ctx, tenant.Slug)
	if err != nil {
		return errorReport(report, err)
	}
	report.Tables = tables
	report.TableCount = len(tables)

	for _, global := range GlobalTables {
		if slices.Contains(tables, global) {
			report.DuplicateTables = append(report.DuplicateTables, global)
		}
	}
	for _, required := range RequiredTenantTables {
		if !slices.Contains(tables, required) {
			report.MissingTables = append(report.MissingTables, required)
		}
	}

	switch {
	case len(report.DuplicateTables) > 0:
		report.Status = StatusHasDuplicates
	case len(report.MissingTables) > 0:
		report.Status = StatusMissingTables
	}

	if !repair || report.Status == StatusOK {
		return report
	}

	for _, table := range report.DuplicateTables {
		if err := a.inspector.DropTable(ctx, tenant.Slug, table); err != nil {
			return errorReport(report, err)
		}
	}
	if len(report.MissingTables) > 0 {
		if err := a.migrator.Migrate(ctx, tenant.Slug); err != nil {
			return errorReport(report, err)
		}
	}
	report.Repaired = true
	return report
}

func errorReport(report Report, err error) Report {
	report.Status = StatusError
	report.Error = err.Error()
	return report
}
