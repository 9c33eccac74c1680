package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/authguard/authguard-api/internal/domain"
	"github.com/authguard/authguard-api/internal/utils"
	"github.com/authguard/authguard-api/pkg/logger"
)

const (
	HeaderTenantSlug   = "X-Tenant-Slug"
	HeaderTenantID     = "x-tenant-id"
	HeaderTenantSchema = "x-tenant-schema"
	QueryTenantSlug    = "tenant_slug"
)

// TenantStore looks tenants up in the global schema.
//
//go:generate mockery --name TenantStore --output ../mocks
type TenantStore interface {
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
	GetByDomain(ctx context.Context, domainName string) (*domain.Tenant, error)
}

// ConnectionResolver yields a pooled connection for a tenant schema.
//
//go:generate mockery --name ConnectionResolver --output ../mocks
type ConnectionResolver interface {
	Resolve(ctx context.Context, schemaName string) (*gorm.DB, error)
}

type TenantMiddleware struct {
	tenants  TenantStore
	registry ConnectionResolver
	logger   *logger.Logger
}

func NewTenantMiddleware(tenants TenantStore, registry ConnectionResolver, logger *logger.Logger) *TenantMiddleware {
	return &TenantMiddleware{
		tenants:  tenants,
		registry: registry,
		logger:   logger,
	}
}

// Resolver attaches a tenant connection when the request names a tenant via
// the X-Tenant-Slug header or the tenant_slug query parameter. Requests that
// name no tenant pass through untouched; requests that name one and fail to
// resolve are rejected.
func (m *TenantMiddleware) Resolver() gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.GetHeader(HeaderTenantSlug)
		if slug == "" {
			slug = c.Query(QueryTenantSlug)
		}
		if slug == "" {
			c.Next()
			return
		}

		tenant, err := m.tenants.GetBySlug(c.Request.Context(), slug)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unknown tenant"})
			return
		}

		conn, err := m.registry.Resolve(c.Request.Context(), tenant.Slug)
		if err != nil {
			m.logger.Error("Failed to resolve tenant connection", err, zap.String("slug", tenant.Slug))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Tenant unavailable"})
			return
		}

		c.Set(string(utils.CurrentTenantKey), tenant)
		c.Set(string(utils.TenantConnectionKey), conn)
		c.Next()
	}
}

// Guard requires a tenant on every request it wraps. Identification sources
// in priority order: x-tenant-id header, x-tenant-schema header, request
// Host. Unknown tenants get 401, known but non-active tenants get 403.
func (m *TenantMiddleware) Guard() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, err := m.identify(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Tenant identification required"})
			return
		}

		if !tenant.IsActive() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Tenant is not active"})
			return
		}

		conn, err := m.registry.Resolve(c.Request.Context(), tenant.Slug)
		if err != nil {
			m.logger.Error("Failed to resolve tenant connection", err, zap.String("slug", tenant.Slug))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Tenant unavailable"})
			return
		}

		c.Set(string(utils.CurrentTenantKey), tenant)
		c.Set(string(utils.TenantIDKey), tenant.ID)
		c.Set(string(utils.TenantConnectionKey), conn)
		c.Next()
	}
}

func (m *TenantMiddleware) identify(c *gin.Context) (*domain.Tenant, error) {
	ctx := c.Request.Context()

	if id := c.GetHeader(HeaderTenantID); id != "" {
		return m.tenants.GetByID(ctx, id)
	}
	if slug := c.GetHeader(HeaderTenantSchema); slug != "" {
		return m.tenants.GetBySlug(ctx, slug)
	}

	host := c.Request.Host
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return m.tenants.GetByDomain(ctx, host)
}
