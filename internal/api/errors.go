package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authguard/authguard-api/internal/api/dto"
	"github.com/authguard/authguard-api/internal/schema"
	"github.com/authguard/authguard-api/internal/service"
)

// writeError maps service errors onto HTTP statuses. Unknown errors are
// reported as 500 without leaking internals.
func writeError(c *gin.Context, err error) {
	var validationErr *service.ValidationError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, dto.Error{Error: validationErr.Error()})
	case errors.Is(err, schema.ErrSlugExhausted):
		c.JSON(http.StatusConflict, dto.Error{Error: err.Error()})
	case errors.Is(err, service.ErrTenantNameTaken),
		errors.Is(err, service.ErrBranchNameTaken),
		errors.Is(err, service.ErrHasSubTenants),
		errors.Is(err, service.ErrNotMatrixTenant),
		errors.Is(err, service.ErrEmailAlreadyExists):
		c.JSON(http.StatusConflict, dto.Error{Error: err.Error()})
	case errors.Is(err, service.ErrTenantNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrSoftwareNotFound):
		c.JSON(http.StatusNotFound, dto.Error{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, dto.Error{Error: err.Error()})
	case errors.Is(err, service.ErrNotTenantOwner),
		errors.Is(err, service.ErrTenantNotActive),
		errors.Is(err, service.ErrUserInactive),
		errors.Is(err, service.ErrLicenseNotFound),
		errors.Is(err, service.ErrLicenseExpired):
		c.JSON(http.StatusForbidden, dto.Error{Error: err.Error()})
	case errors.Is(err, schema.ErrConnection):
		c.JSON(http.StatusServiceUnavailable, dto.Error{Error: "Tenant schema unavailable"})
	case errors.Is(err, schema.ErrProvisioning):
		c.JSON(http.StatusInternalServerError, dto.Error{Error: "Schema provisioning failed"})
	default:
		c.JSON(http.StatusInternalServerError, dto.Error{Error: "Internal server error"})
	}
}
