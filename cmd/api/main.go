package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/authguard/authguard-api/internal/api"
	"github.com/authguard/authguard-api/internal/config"
	"github.com/authguard/authguard-api/internal/middleware"
	"github.com/authguard/authguard-api/internal/repository/postgres"
	"github.com/authguard/authguard-api/internal/schema"
	"github.com/authguard/authguard-api/internal/service"
	"github.com/authguard/authguard-api/internal/service/pubsub"
	"github.com/authguard/authguard-api/pkg/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	// Initialize logger
	appLogger := logger.NewLogger(os.Getenv("APP_ENV"))

	cfg, err := config.Load()
	if err != nil {
		appLogger.Fatal("Failed to load config", err)
	}

	globalDB, err := config.NewGlobalDatabase()
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer config.CloseDatabase(globalDB)

	appLogger.Info("Global database connection established")

	// Initialize Redis
	redisConfig := config.DefaultRedisConfig()
	redisClient, err := redisConfig.GetClient()
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()

	// Initialize Redis pub/sub
	redisPubSub := pubsub.NewRedisPubSub(redisClient, appLogger)

	repo := postgres.NewPostgresRepository(globalDB)

	// Schema plumbing: migration runners, provisioners, connection registries
	tenantRunner := schema.NewTenantMigrationRunner(config.NewSchemaDatabase, appLogger)
	tenantProvisioner := schema.NewSchemaProvisioner(globalDB, tenantRunner, appLogger)
	// Tenant schemas are provisioned explicitly at creation time, so the
	// tenant registry only attaches to schemas that already exist.
	tenantRegistry := schema.NewRegistry("tenant", config.NewSchemaDatabase, nil, appLogger)

	softwareRunner := schema.NewSoftwareMigrationRunner(config.NewSchemaDatabase, appLogger)
	softwareProvisioner := schema.NewSchemaProvisioner(globalDB, softwareRunner, appLogger)
	// Composite software schemas are created lazily on first access.
	softwareRegistry := schema.NewRegistry("software", config.NewSchemaDatabase, softwareProvisioner, appLogger)

	inspector := schema.NewSchemaInspector(globalDB)
	auditor := schema.NewAuditor(repo.Tenant(), inspector, tenantRunner, appLogger)

	// Startup consistency sweep, best-effort
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ProvisionTimeout)
		defer cancel()
		if _, err := auditor.Sweep(ctx); err != nil {
			appLogger.Error("Startup schema sweep failed", err)
		}
	}()

	// Initialize services
	tenantService := service.NewTenantService(repo, tenantProvisioner, tenantRegistry, inspector, redisPubSub, appLogger)
	accessService := service.NewSoftwareAccessService(repo, tenantRegistry, softwareRegistry, appLogger)
	authService := service.NewAuthService(repo, appLogger)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg)
	tenantMiddleware := middleware.NewTenantMiddleware(repo.Tenant(), tenantRegistry, appLogger)
	softwareAccessMiddleware := middleware.NewSoftwareAccessMiddleware(accessService, appLogger)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(redisClient, cfg, appLogger)
	validationMiddleware := middleware.NewValidationMiddleware(appLogger)

	// Initialize server
	server := api.NewServer(
		tenantService,
		auditor,
		repo.Software(),
		authService,
		authMiddleware,
		tenantMiddleware,
		softwareAccessMiddleware,
		rateLimitMiddleware,
		validationMiddleware,
	)

	// Initialize router
	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Setup API routes
	apiGroup := router.Group("/api/v1")
	server.SetupRoutes(apiGroup)

	// Start server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	// Shutdown the HTTP server
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", err)
	}

	// Drain the per-schema connection pools
	if err := tenantRegistry.Shutdown(); err != nil {
		appLogger.Error("Failed to close tenant connections", err)
	}
	if err := softwareRegistry.Shutdown(); err != nil {
		appLogger.Error("Failed to close software connections", err)
	}

	appLogger.Info("Server exiting")
	appLogger.Sync()
}
