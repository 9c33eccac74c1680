package schema

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/authguard/authguard-api/pkg/logger"
)

// ErrProvisioning marks failures while creating or migrating a schema. The
// tenant-creation path must propagate it; only maintenance sweeps may absorb
// it.
var ErrProvisioning = errors.New("schema provisioning failed")

// Migrator brings a schema to the current structural version.
type Migrator interface {
	Migrate(ctx context.Context, schemaName string) error
}

// SchemaProvisioner creates a schema on the shared database server and runs
// its migrations. Provision is idempotent: CREATE SCHEMA IF NOT EXISTS plus
// a migration runner that skips applied steps.
type SchemaProvisioner struct {
	db       *gorm.DB
	migrator Migrator
	logger   *logger.Logger
}

func NewSchemaProvisioner(db *gorm.DB, migrator Migrator, logger *logger.Logger) *SchemaProvisioner {
	return &SchemaProvisioner{
		db:       db,
		migrator: migrator,
		logger:   logger,
	}
}

func (p *SchemaProvisioner) Provision(ctx context.Context, schemaName string) error {
	if !ValidIdentifier(schemaName) {
		return fmt.Errorf("%w: invalid schema name %q", ErrProvisioning, schemaName)
	}

	if err := p.db.WithContext(ctx).
		Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %q`, schemaName)).Error; err != nil {
		// Migration must not run against a schema we failed to create.
		return fmt.Errorf("%w: create schema %s: %v", ErrProvisioning, schemaName, err)
	}

	if err := p.migrator.Migrate(ctx, schemaName); err != nil {
		return fmt.Errorf("%w: migrate schema %s: %v", ErrProvisioning, schemaName, err)
	}

	p.logger.Info("Schema provisioned", zap.String("schema", schemaName))
	return nil
}
