package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/authguard/authguard-api/internal/config"
	"github.com/authguard/authguard-api/internal/repository/postgres"
	"github.com/authguard/authguard-api/internal/schema"
	"github.com/authguard/authguard-api/pkg/logger"
)

// One-shot audit and maintenance pass over all tenant schemas. Intended to
// run from cron; exits non-zero only when the pass itself could not run.
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	// Initialize logger
	appLogger := logger.NewLogger(os.Getenv("APP_ENV"))

	globalDB, err := config.NewGlobalDatabase()
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer config.CloseDatabase(globalDB)

	repo := postgres.NewPostgresRepository(globalDB)

	tenantRunner := schema.NewTenantMigrationRunner(config.NewSchemaDatabase, appLogger)
	inspector := schema.NewSchemaInspector(globalDB)
	auditor := schema.NewAuditor(repo.Tenant(), inspector, tenantRunner, appLogger)
	maintenance := schema.NewMaintenance(globalDB, inspector, appLogger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	appLogger.Info("Starting schema audit sweep...")
	reports, err := auditor.Sweep(ctx)
	if err != nil {
		appLogger.Fatal("Schema sweep failed", err)
	}

	repaired := 0
	broken := 0
	for _, report := range reports {
		switch {
		case report.Repaired:
			repaired++
		case report.Status != schema.StatusOK:
			broken++
			appLogger.Warn("Schema still inconsistent",
				zap.String("slug", report.Slug),
				zap.String("status", string(report.Status)),
				zap.String("error", report.Error))
		}
	}
	appLogger.Info("Schema audit complete",
		zap.Int("tenants", len(reports)),
		zap.Int("repaired", repaired),
		zap.Int("unresolved", broken))

	appLogger.Info("Starting schema maintenance...")
	if err := maintenance.Run(ctx); err != nil {
		appLogger.Fatal("Schema maintenance failed", err)
	}
	appLogger.Info("Schema maintenance complete")

	appLogger.Sync()
}
