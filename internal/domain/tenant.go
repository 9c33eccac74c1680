package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TenantType string

const (
	TenantTypeMatrix    TenantType = "matrix"
	TenantTypeSubTenant TenantType = "sub_tenant"
)

type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusInactive  TenantStatus = "inactive"
	TenantStatusSuspended TenantStatus = "suspended"
	TenantStatusPending   TenantStatus = "pending"
	// TenantStatusProvisioningFailed marks a tenant whose row was persisted
	// but whose schema creation or migration did not complete.
	TenantStatusProvisioningFailed TenantStatus = "provisioning_failed"
)

// Tenant is a row in the global public schema. A matrix tenant owns a
// dedicated database schema named by Slug; sub-tenants get their own schema
// too, while branch reference rows (slug prefixed "branch_") only point back
// at their matrix and never have a schema of their own.
type Tenant struct {
	ID             string          `gorm:"primaryKey;type:uuid" json:"id"`
	Name           string          `gorm:"type:varchar(100);not null" json:"name"`
	Slug           string          `gorm:"type:varchar(50);not null;uniqueIndex" json:"slug"`
	Domain         string          `gorm:"type:varchar(255)" json:"domain,omitempty"`
	Type           TenantType      `gorm:"type:varchar(20);not null;default:'matrix'" json:"type"`
	Status         TenantStatus    `gorm:"type:varchar(30);not null;default:'pending'" json:"status"`
	ParentTenantID *string         `gorm:"type:uuid" json:"parent_tenant_id,omitempty"`
	OwnerID        string          `gorm:"type:uuid;not null" json:"owner_id"`
	Settings       json.RawMessage `gorm:"type:jsonb" json:"settings,omitempty"`
	CreatedAt      time.Time       `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`

	ParentTenant *Tenant  `gorm:"foreignKey:ParentTenantID" json:"-"`
	SubTenants   []Tenant `gorm:"foreignKey:ParentTenantID" json:"sub_tenants,omitempty"`
}

func (Tenant) TableName() string {
	return "tenant"
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// BranchRefPrefix marks tenant rows that are global references to branches
// living inside a matrix schema.
const BranchRefPrefix = "branch_"

// IsMatrix reports whether the tenant may own sub-tenants and branches.
func (t *Tenant) IsMatrix() bool {
	return t.Type == TenantTypeMatrix
}

// IsBranchRef reports whether this row only references a branch and owns no
// schema of its own.
func (t *Tenant) IsBranchRef() bool {
	return strings.HasPrefix(t.Slug, BranchRefPrefix)
}

// IsActive reports whether the tenant may be served traffic.
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}
