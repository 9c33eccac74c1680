package schema

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestTenantMigrations_CoverRequiredTables(t *testing.T) {
	for _, required := range RequiredTenantTables {
		found := false
		for _, m := range tenantMigrations {
			for _, stmt := range m.Statements {
				if strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS "+required+" (") {
					found = true
				}
			}
		}
		assert.True(t, found, "no migration creates required table %s", required)
	}
}

func TestTenantMigrations_NeverCreateGlobalTables(t *testing.T) {
	for _, m := range tenantMigrations {
		for _, stmt := range m.Statements {
			for _, global := range GlobalTables {
				assert.NotContains(t, stmt, "CREATE TABLE IF NOT EXISTS "+global+" (",
					"migration %s creates global table %s inside tenant schemas", m.ID, global)
			}
		}
	}
}

func TestTenantMigrations_UniqueOrderedIDs(t *testing.T) {
	seen := map[string]bool{}
	last := ""
	for _, m := range tenantMigrations {
		require.False(t, seen[m.ID], "duplicate migration id %s", m.ID)
		seen[m.ID] = true
		assert.Greater(t, m.ID, last, "migration ids must be ordered")
		last = m.ID
	}
}

func TestSoftwareMigrations_KnownCodes(t *testing.T) {
	for _, code := range []string{"erp", "crm"} {
		assert.NotEmpty(t, softwareMigrations[code], "no migrations for software code %s", code)
	}
	// Unknown codes fall back to bookkeeping only
	assert.Empty(t, softwareMigrations["unknown"])
}

func TestSoftwarePlan_ParsesCodeFromSchemaName(t *testing.T) {
	runner := NewSoftwareMigrationRunner(nil, testLogger())

	plan, err := runner.plan("software_erp_tenant_acme")
	require.NoError(t, err)
	assert.Equal(t, softwareMigrations["erp"], plan)

	_, err = runner.plan("tenant_acme")
	assert.Error(t, err)
}

func TestRunner_Migrate_RejectsInvalidSchemaName(t *testing.T) {
	runner := NewTenantMigrationRunner(nil, testLogger())

	err := runner.Migrate(context.Background(), `tenant";DROP SCHEMA public`)
	assert.Error(t, err)
}

// stmtPattern turns a DDL statement into a regex matching its head, the way
// sqlmock sees queries after whitespace collapsing.
func stmtPattern(stmt string) string {
	head := stmt
	if i := strings.Index(stmt, "("); i >= 0 {
		head = stmt[:i+1]
	}
	return regexp.QuoteMeta(strings.Join(strings.Fields(head), " "))
}

func expectBookkeepingTable(mock sqlmock.Sqlmock) {
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
}

// expectFullApply scripts a first run: every migration is missing from the
// bookkeeping table and gets applied in its own transaction.
func expectFullApply(mock sqlmock.Sqlmock, migrations []Migration) {
	expectBookkeepingTable(mock)
	for _, m := range migrations {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM migrations WHERE id = \$1`).
			WithArgs(m.ID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectBegin()
		for _, stmt := range m.Statements {
			mock.ExpectExec(stmtPattern(stmt)).
				WillReturnResult(sqlmock.NewResult(0, 0))
		}
		mock.ExpectExec("INSERT INTO migrations").
			WithArgs(m.ID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}
	mock.ExpectClose()
}

// expectSkipAll scripts a re-run: every migration is already recorded, so
// only the bookkeeping checks may touch the database.
func expectSkipAll(mock sqlmock.Sqlmock, migrations []Migration) {
	expectBookkeepingTable(mock)
	for _, m := range migrations {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM migrations WHERE id = \$1`).
			WithArgs(m.ID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	}
	mock.ExpectClose()
}

func TestRunner_MigrateTwiceIsIdempotent(t *testing.T) {
	var mocks []sqlmock.Sqlmock
	runs := 0
	open := func(schemaName string) (*gorm.DB, error) {
		sqlDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		if runs == 0 {
			expectFullApply(mock, tenantMigrations)
		} else {
			expectSkipAll(mock, tenantMigrations)
		}
		runs++
		mocks = append(mocks, mock)

		db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
			Logger: gormlogger.Discard,
		})
		require.NoError(t, err)
		return db, nil
	}

	runner := NewTenantMigrationRunner(open, testLogger())
	ctx := context.Background()

	require.NoError(t, runner.Migrate(ctx, "tenant_acme"))
	require.NoError(t, runner.Migrate(ctx, "tenant_acme"))

	// The scripted expectations allow the second run no DDL and no inserts,
	// so any re-applied migration shows up as an unmet or unexpected call.
	require.Equal(t, 2, runs)
	for _, mock := range mocks {
		assert.NoError(t, mock.ExpectationsWereMet())
	}
}
