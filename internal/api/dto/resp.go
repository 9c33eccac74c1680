package dto

import (
	"encoding/json"
	"time"
)

type TenantResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Domain         string          `json:"domain,omitempty"`
	Type           string          `json:"type"`
	Status         string          `json:"status"`
	ParentTenantID *string         `json:"parent_tenant_id,omitempty"`
	OwnerID        string          `json:"owner_id"`
	Settings       json.RawMessage `json:"settings,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type BranchResponse struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Description    string    `json:"description,omitempty"`
	MatrixTenantID string    `json:"matrix_tenant_id"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Roles     []string  `json:"roles"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type TenantHierarchyResponse struct {
	Tenant     TenantResponse   `json:"tenant"`
	Parent     *TenantResponse  `json:"parent,omitempty"`
	SubTenants []TenantResponse `json:"sub_tenants"`
}

type TenantStatsResponse struct {
	SubTenants int `json:"sub_tenants"`
	Branches   int `json:"branches"`
}
