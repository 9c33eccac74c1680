package schema

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/authguard/authguard-api/pkg/logger"
)

// dedupeKeyColumns names the column sets that must stay unique in tables the
// maintenance pass checks for duplicate rows.
var dedupeKeyColumns = map[string][]string{
	"tenant":           {"slug"},
	"user":             {"email"},
	"software":         {"code"},
	"software_license": {"tenant_id", "software_id"},
	"branch":           {"slug"},
}

// Maintenance runs a best-effort sweep over every schema on the server:
// VACUUM ANALYZE, REINDEX, and duplicate-row checks on critical tables.
// Individual statement failures are logged and skipped; VACUUM and REINDEX
// take heavy locks, so work is serialized per schema and the sweep is meant
// for low-traffic windows.
type Maintenance struct {
	db        *gorm.DB
	inspector *SchemaInspector
	logger    *logger.Logger

	mu sync.Mutex
}

func NewMaintenance(db *gorm.DB, inspector *SchemaInspector, logger *logger.Logger) *Maintenance {
	return &Maintenance{
		db:        db,
		inspector: inspector,
		logger:    logger,
	}
}

// Run sweeps all schemas. Only the schema listing itself can fail the run.
func (m *Maintenance) Run(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	schemas, err := m.inspector.ListSchemas(ctx)
	if err != nil {
		return err
	}

	m.logger.Info("Starting database maintenance", zap.Int("schemas", len(schemas)))
	for _, schemaName := range schemas {
		m.maintainSchema(ctx, schemaName)
	}
	return nil
}

func (m *Maintenance) maintainSchema(ctx context.Context, schemaName string) {
	if !ValidIdentifier(schemaName) {
		m.logger.Warn("Skipping schema with unsafe name", zap.String("schema", schemaName))
		return
	}

	tables, err := m.inspector.ListTables(ctx, schemaName)
	if err != nil {
		m.logger.Warn("Failed to list tables for maintenance",
			zap.String("schema", schemaName), zap.Error(err))
		return
	}

	for _, table := range tables {
		if !ValidIdentifier(table) {
			continue
		}
		m.vacuumAnalyze(ctx, schemaName, table)
		m.reindex(ctx, schemaName, table)
		m.checkDuplicateRows(ctx, schemaName, table)
	}
}

func (m *Maintenance) vacuumAnalyze(ctx context.Context, schemaName, table string) {
	if err := m.db.WithContext(ctx).
		Exec(fmt.Sprintf(`VACUUM (ANALYZE) %q.%q`, schemaName, table)).Error; err != nil {
		m.logger.Warn("VACUUM ANALYZE failed",
			zap.String("schema", schemaName), zap.String("table", table), zap.Error(err))
	}
}

func (m *Maintenance) reindex(ctx context.Context, schemaName, table string) {
	if err := m.db.WithContext(ctx).
		Exec(fmt.Sprintf(`REINDEX TABLE %q.%q`, schemaName, table)).Error; err != nil {
		m.logger.Warn("REINDEX failed",
			zap.String("schema", schemaName), zap.String("table", table), zap.Error(err))
	}
}

func (m *Maintenance) checkDuplicateRows(ctx context.Context, schemaName, table string) {
	columns, ok := dedupeKeyColumns[table]
	if !ok {
		return
	}

	groupBy := ""
	for i, c := range columns {
		if i > 0 {
			groupBy += ", "
		}
		groupBy += fmt.Sprintf("%q", c)
	}

	var count int64
	err := m.db.WithContext(ctx).
		Raw(fmt.Sprintf(
			`SELECT COUNT(*) FROM (
				SELECT %s FROM %q.%q GROUP BY %s HAVING COUNT(*) > 1
			) dup`, groupBy, schemaName, table, groupBy)).
		Scan(&count).Error
	if err != nil {
		m.logger.Warn("Duplicate-row check failed",
			zap.String("schema", schemaName), zap.String("table", table), zap.Error(err))
		return
	}
	if count > 0 {
		m.logger.Warn("Duplicate rows found",
			zap.String("schema", schemaName),
			zap.String("table", table),
			zap.Int64("duplicate_groups", count))
	}
}
