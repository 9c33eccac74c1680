package domain

import "slices"

// Role represents a user role in the system
type Role string

const (
	// RoleAdmin can manage users, tenants, software and schema maintenance
	RoleAdmin Role = "admin"

	// RoleOwner can manage the tenants they own, including branches
	RoleOwner Role = "owner"

	// RoleUser has basic access within their tenant
	RoleUser Role = "user"
)

// ValidRoles contains all valid roles in the system
var ValidRoles = []Role{RoleAdmin, RoleOwner, RoleUser}

// IsValidRole checks if a given role is valid
func IsValidRole(role string) bool {
	return slices.Contains(ValidRoles, Role(role))
}

// HasRole checks if a slice of roles contains a specific role
func HasRole(roles []string, role Role) bool {
	return slices.Contains(roles, string(role))
}

// HasAnyRole checks if a slice of roles contains any of the specified roles
func HasAnyRole(roles []string, requiredRoles ...Role) bool {
	for _, required := range requiredRoles {
		if HasRole(roles, required) {
			return true
		}
	}
	return false
}
