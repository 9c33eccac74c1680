package schema

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// SchemaInspector answers structural questions about schemas and tables via
// information_schema, and issues the DDL the auditor needs for repairs. All
// statements run on the global connection.
type SchemaInspector struct {
	db *gorm.DB
}

func NewSchemaInspector(db *gorm.DB) *SchemaInspector {
	return &SchemaInspector{db: db}
}

func (i *SchemaInspector) SchemaExists(ctx context.Context, schemaName string) (bool, error) {
	var exists bool
	err := i.db.WithContext(ctx).
		Raw(`SELECT EXISTS (
			SELECT FROM information_schema.schemata WHERE schema_name = ?
		)`, schemaName).
		Scan(&exists).Error
	if err != nil {
		return false, fmt.Errorf("check schema %s: %w", schemaName, err)
	}
	return exists, nil
}

func (i *SchemaInspector) ListSchemas(ctx context.Context) ([]string, error) {
	var schemas []string
	err := i.db.WithContext(ctx).
		Raw(`SELECT schema_name FROM information_schema.schemata
			WHERE schema_name NOT LIKE 'pg\_%' AND schema_name != 'information_schema'
			ORDER BY schema_name`).
		Scan(&schemas).Error
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}
	return schemas, nil
}

func (i *SchemaInspector) ListTables(ctx context.Context, schemaName string) ([]string, error) {
	var tables []string
	err := i.db.WithContext(ctx).
		Raw(`SELECT table_name FROM information_schema.tables
			WHERE table_schema = ? AND table_type = 'BASE TABLE'
			ORDER BY table_name`, schemaName).
		Scan(&tables).Error
	if err != nil {
		return nil, fmt.Errorf("list tables in %s: %w", schemaName, err)
	}
	return tables, nil
}

func (i *SchemaInspector) CreateSchema(ctx context.Context, schemaName string) error {
	if !ValidIdentifier(schemaName) {
		return fmt.Errorf("invalid schema name %q", schemaName)
	}
	if err := i.db.WithContext(ctx).
		Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %q`, schemaName)).Error; err != nil {
		return fmt.Errorf("create schema %s: %w", schemaName, err)
	}
	return nil
}

func (i *SchemaInspector) DropSchema(ctx context.Context, schemaName string) error {
	if !ValidIdentifier(schemaName) {
		return fmt.Errorf("invalid schema name %q", schemaName)
	}
	if err := i.db.WithContext(ctx).
		Exec(fmt.Sprintf(`DROP SCHEMA IF EXISTS %q CASCADE`, schemaName)).Error; err != nil {
		return fmt.Errorf("drop schema %s: %w", schemaName, err)
	}
	return nil
}

func (i *SchemaInspector) DropTable(ctx context.Context, schemaName, tableName string) error {
	if !ValidIdentifier(schemaName) {
		return fmt.Errorf("invalid schema name %q", schemaName)
	}
	if !ValidIdentifier(tableName) {
		return fmt.Errorf("invalid table name %q", tableName)
	}
	if err := i.db.WithContext(ctx).
		Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %q.%q CASCADE`, schemaName, tableName)).Error; err != nil {
		return fmt.Errorf("drop table %s.%s: %w", schemaName, tableName, err)
	}
	return nil
}
