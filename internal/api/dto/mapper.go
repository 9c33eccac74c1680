package dto

import (
	"github.com/authguard/authguard-api/internal/domain"
)

func NewTenantResponse(tenant *domain.Tenant) TenantResponse {
	return TenantResponse{
		ID:             tenant.ID,
		Name:           tenant.Name,
		Slug:           tenant.Slug,
		Domain:         tenant.Domain,
		Type:           string(tenant.Type),
		Status:         string(tenant.Status),
		ParentTenantID: tenant.ParentTenantID,
		OwnerID:        tenant.OwnerID,
		Settings:       tenant.Settings,
		CreatedAt:      tenant.CreatedAt,
		UpdatedAt:      tenant.UpdatedAt,
	}
}

func NewTenantResponses(tenants []domain.Tenant) []TenantResponse {
	responses := make([]TenantResponse, len(tenants))
	for i := range tenants {
		responses[i] = NewTenantResponse(&tenants[i])
	}
	return responses
}

func NewBranchResponse(branch *domain.Branch) BranchResponse {
	return BranchResponse{
		ID:             branch.ID,
		Name:           branch.Name,
		Slug:           branch.Slug,
		Description:    branch.Description,
		MatrixTenantID: branch.MatrixTenantID,
		IsActive:       branch.IsActive,
		CreatedAt:      branch.CreatedAt,
		UpdatedAt:      branch.UpdatedAt,
	}
}

func NewBranchResponses(branches []domain.Branch) []BranchResponse {
	responses := make([]BranchResponse, len(branches))
	for i := range branches {
		responses[i] = NewBranchResponse(&branches[i])
	}
	return responses
}

func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Roles:     user.Roles,
		Active:    user.Active,
		CreatedAt: user.CreatedAt,
	}
}
