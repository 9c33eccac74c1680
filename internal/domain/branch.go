package domain

import (
	"encoding/json"
	"time"
)

// Branch lives inside a matrix tenant's own schema, never in public. It is a
// logical subdivision only: creating a branch never creates a schema, and its
// slug is unique within the owning schema's branch table, not globally.
type Branch struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Name           string          `gorm:"type:varchar(100);not null" json:"name"`
	Slug           string          `gorm:"type:varchar(50);not null;uniqueIndex" json:"slug"`
	Description    string          `gorm:"type:text" json:"description,omitempty"`
	MatrixTenantID string          `gorm:"type:uuid;not null" json:"matrix_tenant_id"`
	IsActive       bool            `gorm:"not null;default:true" json:"is_active"`
	Settings       json.RawMessage `gorm:"type:jsonb" json:"settings,omitempty"`
	CreatedAt      time.Time       `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Branch) TableName() string {
	return "branch"
}

// BranchData holds free-form per-branch records inside the tenant schema.
type BranchData struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	BranchID  uint            `gorm:"not null;index" json:"branch_id"`
	Key       string          `gorm:"type:varchar(100);not null" json:"key"`
	Value     json.RawMessage `gorm:"type:jsonb" json:"value,omitempty"`
	CreatedAt time.Time       `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time       `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Branch *Branch `gorm:"foreignKey:BranchID" json:"-"`
}

func (BranchData) TableName() string {
	return "branch_data"
}

// BranchPermission grants a global user a role on one branch.
type BranchPermission struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BranchID  uint      `gorm:"not null;index" json:"branch_id"`
	UserID    string    `gorm:"type:uuid;not null" json:"user_id"`
	Role      string    `gorm:"type:varchar(50);not null;default:'member'" json:"role"`
	CreatedAt time.Time `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"created_at"`

	Branch *Branch `gorm:"foreignKey:BranchID" json:"-"`
}

func (BranchPermission) TableName() string {
	return "branch_permission"
}
