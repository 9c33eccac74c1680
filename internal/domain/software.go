package domain

import "time"

// Software is a global product definition. Its code shows up in composite
// schema names (software_<code>_tenant_<slug>), so codes follow the same
// identifier rules as tenant slugs.
type Software struct {
	ID        string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Code      string    `gorm:"type:varchar(30);not null;uniqueIndex" json:"code"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Software) TableName() string {
	return "software"
}

const LicenseStatusActive = "active"

// SoftwareLicense gates a tenant's access to one software product. Rows live
// in the public schema; tenant connections still see the table through the
// search_path fallback.
type SoftwareLicense struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TenantID   string    `gorm:"type:uuid;not null;index" json:"tenant_id"`
	SoftwareID string    `gorm:"type:uuid;not null;index" json:"software_id"`
	Status     string    `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	MaxUsers   int       `gorm:"not null;default:1" json:"max_users"`
	ExpiresAt  time.Time `gorm:"type:timestamp with time zone;not null" json:"expires_at"`
	CreatedAt  time.Time `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (SoftwareLicense) TableName() string {
	return "software_license"
}

// IsValid reports whether the license is active and unexpired at t.
func (l *SoftwareLicense) IsValid(t time.Time) bool {
	return l.Status == LicenseStatusActive && l.ExpiresAt.After(t)
}
