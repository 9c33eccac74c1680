package service

import (
	"errors"
	"fmt"
)

var (
	// Tenant errors
	ErrTenantNotFound  = errors.New("tenant not found")
	ErrTenantNameTaken = errors.New("a tenant with this name already exists for this owner")
	ErrNotMatrixTenant = errors.New("only matrix tenants can have sub-tenants and branches")
	ErrHasSubTenants   = errors.New("tenant has sub-tenants and cannot be deleted")
	ErrTenantNotActive = errors.New("tenant is not active")

	// Branch errors
	ErrBranchNameTaken = errors.New("a branch with this name already exists in this matrix")
	ErrNotTenantOwner  = errors.New("caller does not own this tenant")

	// User / auth errors
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user account is disabled")

	// Software / license errors
	ErrSoftwareNotFound = errors.New("software not found or inactive")
	ErrLicenseNotFound  = errors.New("no active license for this software")
	ErrLicenseExpired   = errors.New("license has expired")
)

// ValidationError carries field-level detail for malformed input. It is
// raised before any database call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
