package schema

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/authguard/authguard-api/pkg/logger"
)

// Migration is one structural change, applied inside a target schema and
// recorded in its migrations table so re-runs are no-ops.
type Migration struct {
	ID         string
	Statements []string
}

// tenantMigrations is the fixed, ordered structural contract every tenant
// schema must satisfy. IDs are timestamped so ordering is deterministic.
var tenantMigrations = []Migration{
	{
		ID: "20240115000001_create_branch",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS branch (
				id SERIAL PRIMARY KEY,
				name VARCHAR(100) NOT NULL,
				slug VARCHAR(50) NOT NULL UNIQUE,
				description TEXT,
				matrix_tenant_id UUID NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT true,
				settings JSONB,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
			)`,
		},
	},
	{
		ID: "20240115000002_create_branch_data",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS branch_data (
				id SERIAL PRIMARY KEY,
				branch_id INTEGER NOT NULL REFERENCES branch(id) ON DELETE CASCADE,
				key VARCHAR(100) NOT NULL,
				value JSONB,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_branch_data_branch_id ON branch_data (branch_id)`,
		},
	},
	{
		ID: "20240115000003_create_branch_permission",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS branch_permission (
				id SERIAL PRIMARY KEY,
				branch_id INTEGER NOT NULL REFERENCES branch(id) ON DELETE CASCADE,
				user_id UUID NOT NULL,
				role VARCHAR(50) NOT NULL DEFAULT 'member',
				created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_branch_permission_branch_id ON branch_permission (branch_id)`,
		},
	},
}

// softwareMigrations holds the starter structure per software code for the
// composite software_<code>_tenant_<slug> schemas.
var softwareMigrations = map[string][]Migration{
	"erp": {
		{
			ID: "20240201000001_create_branches",
			Statements: []string{
				`CREATE TABLE IF NOT EXISTS branches (
					id SERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					code VARCHAR(50) UNIQUE NOT NULL,
					is_active BOOLEAN DEFAULT true,
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				)`,
			},
		},
		{
			ID: "20240201000002_create_departments",
			Statements: []string{
				`CREATE TABLE IF NOT EXISTS departments (
					id SERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					code VARCHAR(50) UNIQUE NOT NULL,
					is_active BOOLEAN DEFAULT true,
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				)`,
			},
		},
	},
	"crm": {
		{
			ID: "20240201000001_create_customers",
			Statements: []string{
				`CREATE TABLE IF NOT EXISTS customers (
					id SERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					email VARCHAR(255),
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				)`,
			},
		},
		{
			ID: "20240201000002_create_leads",
			Statements: []string{
				`CREATE TABLE IF NOT EXISTS leads (
					id SERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					status VARCHAR(50),
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				)`,
			},
		},
	},
}

// Runner applies pending migrations to one schema at a time over a dedicated
// short-lived connection, which is closed on every exit path.
type Runner struct {
	open   Opener
	plan   func(schemaName string) ([]Migration, error)
	logger *logger.Logger
}

// NewTenantMigrationRunner builds a runner for the tenant structural set.
func NewTenantMigrationRunner(open Opener, logger *logger.Logger) *Runner {
	return &Runner{
		open: open,
		plan: func(string) ([]Migration, error) {
			return tenantMigrations, nil
		},
		logger: logger,
	}
}

// NewSoftwareMigrationRunner builds a runner that picks the migration set by
// the software code embedded in the composite schema name. Unknown codes get
// only the bookkeeping table.
func NewSoftwareMigrationRunner(open Opener, logger *logger.Logger) *Runner {
	return &Runner{
		open: open,
		plan: func(schemaName string) ([]Migration, error) {
			code, _, err := ParseSoftwareSchemaName(schemaName)
			if err != nil {
				return nil, err
			}
			return softwareMigrations[code], nil
		},
		logger: logger,
	}
}

// Migrate applies all pending migrations for schemaName in order, recording
// each applied step. A failing step halts the sequence and propagates.
func (r *Runner) Migrate(ctx context.Context, schemaName string) error {
	if !ValidIdentifier(schemaName) {
		return fmt.Errorf("invalid schema name %q", schemaName)
	}

	pending, err := r.plan(schemaName)
	if err != nil {
		return err
	}

	db, err := r.open(schemaName)
	if err != nil {
		return fmt.Errorf("%w: open %s for migration: %v", ErrConnection, schemaName, err)
	}
	defer func() {
		if err := closeDB(db); err != nil {
			r.logger.Warn("Failed to close migration connection",
				zap.String("schema", schemaName), zap.Error(err))
		}
	}()

	// The bookkeeping table lives inside the target schema, so each schema
	// tracks its own applied set.
	if err := db.WithContext(ctx).Exec(
		`CREATE TABLE IF NOT EXISTS migrations (
			id VARCHAR(100) PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`).Error; err != nil {
		return fmt.Errorf("create migrations table in %s: %w", schemaName, err)
	}

	applied := 0
	for _, m := range pending {
		var count int64
		if err := db.WithContext(ctx).
			Raw(`SELECT COUNT(*) FROM migrations WHERE id = ?`, m.ID).
			Scan(&count).Error; err != nil {
			return fmt.Errorf("check migration %s in %s: %w", m.ID, schemaName, err)
		}
		if count > 0 {
			continue
		}

		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, stmt := range m.Statements {
				if err := tx.Exec(stmt).Error; err != nil {
					return err
				}
			}
			return tx.Exec(`INSERT INTO migrations (id) VALUES (?)`, m.ID).Error
		})
		if err != nil {
			return fmt.Errorf("apply migration %s in %s: %w", m.ID, schemaName, err)
		}
		applied++
	}

	if applied > 0 {
		r.logger.Info("Schema migrated",
			zap.String("schema", schemaName), zap.Int("applied", applied))
	}
	return nil
}
