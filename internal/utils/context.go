package utils

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/authguard/authguard-api/internal/domain"
)

type ContextKey string

const (
	ClaimsKey           ContextKey = "claims"
	UserIDKey           ContextKey = "user_id"
	TenantIDKey         ContextKey = "tenant_id"
	CurrentTenantKey    ContextKey = "currentTenant"
	TenantConnectionKey ContextKey = "tenantConnection"
	CurrentSoftwareKey  ContextKey = "currentSoftware"
	CurrentLicenseKey   ContextKey = "currentLicense"
	CurrentUserKey      ContextKey = "currentUser"
	SoftwareConnKey     ContextKey = "softwareConnection"
)

var (
	ErrNoClaimsInContext     = errors.New("no claims found in context")
	ErrInvalidClaimsType     = errors.New("invalid claims type")
	ErrNoUserIDInClaims      = errors.New("no user_id found in claims")
	ErrInvalidUserIDType     = errors.New("user_id must be a string")
	ErrNoTenantInContext     = errors.New("no tenant found in context")
	ErrNoConnectionInContext = errors.New("no tenant connection found in context")
)

func GetUserIDFromContext(c context.Context) (string, error) {
	claims, ok := c.Value(ClaimsKey).(jwt.MapClaims)
	if !ok {
		return "", ErrNoClaimsInContext
	}

	userID, exists := claims[string(UserIDKey)]
	if !exists {
		return "", ErrNoUserIDInClaims
	}

	userIDStr, ok := userID.(string)
	if !ok {
		return "", ErrInvalidUserIDType
	}
	return userIDStr, nil
}

func GetTenantFromContext(c context.Context) (*domain.Tenant, error) {
	tenant, ok := c.Value(CurrentTenantKey).(*domain.Tenant)
	if !ok || tenant == nil {
		return nil, ErrNoTenantInContext
	}
	return tenant, nil
}

func GetTenantConnectionFromContext(c context.Context) (*gorm.DB, error) {
	conn, ok := c.Value(TenantConnectionKey).(*gorm.DB)
	if !ok || conn == nil {
		return nil, ErrNoConnectionInContext
	}
	return conn, nil
}

func GetSoftwareConnectionFromContext(c context.Context) (*gorm.DB, error) {
	conn, ok := c.Value(SoftwareConnKey).(*gorm.DB)
	if !ok || conn == nil {
		return nil, ErrNoConnectionInContext
	}
	return conn, nil
}
