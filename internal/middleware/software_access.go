package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authguard/authguard-api/internal/service"
	"github.com/authguard/authguard-api/internal/utils"
	"github.com/authguard/authguard-api/pkg/logger"
)

const (
	HeaderSoftwareCode = "x-software-code"
	HeaderUserID       = "x-user-id"
)

// AccessValidator runs the full software access gate.
//
//go:generate mockery --name AccessValidator --output ../mocks
type AccessValidator interface {
	ValidateAccess(ctx context.Context, softwareCode, tenantSlug, userID string) (*service.AccessContext, error)
}

type SoftwareAccessMiddleware struct {
	validator AccessValidator
	logger    *logger.Logger
}

func NewSoftwareAccessMiddleware(validator AccessValidator, logger *logger.Logger) *SoftwareAccessMiddleware {
	return &SoftwareAccessMiddleware{
		validator: validator,
		logger:    logger,
	}
}

// Gate validates software access from the x-software-code, X-Tenant-Slug and
// x-user-id headers and attaches the validated entities plus both schema
// connections. Missing headers are an authentication problem (401); a known
// caller failing a check is an authorization problem (403).
func (m *SoftwareAccessMiddleware) Gate() gin.HandlerFunc {
	return func(c *gin.Context) {
		softwareCode := c.GetHeader(HeaderSoftwareCode)
		tenantSlug := c.GetHeader(HeaderTenantSlug)
		userID := c.GetHeader(HeaderUserID)
		if softwareCode == "" || tenantSlug == "" || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": "x-software-code, X-Tenant-Slug and x-user-id headers are required"})
			return
		}

		access, err := m.validator.ValidateAccess(c.Request.Context(), softwareCode, tenantSlug, userID)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrSoftwareNotFound),
				errors.Is(err, service.ErrTenantNotFound),
				errors.Is(err, service.ErrUserNotFound),
				errors.Is(err, service.ErrTenantNotActive),
				errors.Is(err, service.ErrLicenseNotFound),
				errors.Is(err, service.ErrLicenseExpired):
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
			default:
				m.logger.Error("Software access validation failed", err)
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Service unavailable"})
			}
			return
		}

		c.Set(string(utils.CurrentSoftwareKey), access.Software)
		c.Set(string(utils.CurrentTenantKey), access.Tenant)
		c.Set(string(utils.CurrentUserKey), access.User)
		c.Set(string(utils.CurrentLicenseKey), access.License)
		c.Set(string(utils.TenantConnectionKey), access.TenantConn)
		c.Set(string(utils.SoftwareConnKey), access.SoftwareConn)

		// Propagate through the request context as well so service-level code
		// receiving a plain context.Context can read the connections back.
		ctx := context.WithValue(c.Request.Context(), utils.CurrentTenantKey, access.Tenant)
		ctx = context.WithValue(ctx, utils.TenantConnectionKey, access.TenantConn)
		ctx = context.WithValue(ctx, utils.SoftwareConnKey, access.SoftwareConn)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
