package api

import (
	"github.com/gin-gonic/gin"

	"github.com/authguard/authguard-api/internal/middleware"
)

type Server struct {
	tenant         *TenantHandler
	schemas        *SchemaHandler
	software       *SoftwareHandler
	accounts       *AuthHandler
	auth           *middleware.AuthMiddleware
	tenantMW       *middleware.TenantMiddleware
	softwareAccess *middleware.SoftwareAccessMiddleware
	rateLimit      *middleware.RateLimitMiddleware
	validation     *middleware.ValidationMiddleware
}

func NewServer(
	tenantService TenantService,
	auditor SchemaAuditor,
	catalog SoftwareCatalog,
	authService AuthService,
	auth *middleware.AuthMiddleware,
	tenantMW *middleware.TenantMiddleware,
	softwareAccess *middleware.SoftwareAccessMiddleware,
	rateLimit *middleware.RateLimitMiddleware,
	validation *middleware.ValidationMiddleware,
) *Server {
	return &Server{
		tenant:         NewTenantHandler(tenantService),
		schemas:        NewSchemaHandler(auditor),
		software:       NewSoftwareHandler(catalog),
		accounts:       NewAuthHandler(authService, auth),
		auth:           auth,
		tenantMW:       tenantMW,
		softwareAccess: softwareAccess,
		rateLimit:      rateLimit,
		validation:     validation,
	}
}

func (s *Server) SetupRoutes(api *gin.RouterGroup) {
	// Apply security middleware first
	api.Use(s.validation.SanitizeInput())
	api.Use(s.validation.ValidateRequestSize(1 * 1024 * 1024)) // 1MB max
	api.Use(s.validation.ValidateContentType("application/json"))

	// Apply global rate limiting
	api.Use(s.rateLimit.GlobalRateLimit(10000)) // 10k requests per minute per IP

	// Optional tenant resolution for the whole surface
	api.Use(s.tenantMW.Resolver())

	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", s.accounts.Register)
			auth.POST("/login", s.accounts.Login)
		}

		tenants := api.Group("/tenants", s.auth.JWTAuth())
		{
			tenants.POST("", s.tenant.CreateTenant)
			tenants.GET("", s.auth.RequireRole("admin"), s.tenant.ListTenants)
			tenants.GET("/:id", s.tenant.GetTenant)
			tenants.DELETE("/:id", s.auth.RequireRole("admin"), s.tenant.DeleteTenant)
			tenants.PATCH("/:id/status", s.auth.RequireRole("admin"), s.tenant.UpdateStatus)
			tenants.GET("/:id/hierarchy", s.tenant.GetHierarchy)
			tenants.GET("/:id/stats", s.tenant.GetStats)
			tenants.POST("/:id/sub-tenants", s.tenant.CreateSubTenant)
			tenants.POST("/:id/branches", s.tenant.CreateBranch)
			tenants.GET("/:id/branches", s.tenant.ListBranches)
		}

		schemas := api.Group("/schemas", s.auth.JWTAuth(), s.auth.RequireRole("admin"))
		{
			schemas.GET("/status", s.schemas.Status)
			schemas.POST("/:slug/fix", s.schemas.Fix)
		}

		software := api.Group("/software")
		{
			software.GET("", s.auth.JWTAuth(), s.software.ListSoftware)
			software.GET("/access", s.softwareAccess.Gate(), s.software.AccessInfo)
		}

		// Tenant-scoped surface: every request must identify a tenant
		workspace := api.Group("/workspace", s.tenantMW.Guard(), s.rateLimit.TenantRateLimit())
		{
			workspace.GET("/me", s.tenant.WorkspaceInfo)
		}
	}
}
