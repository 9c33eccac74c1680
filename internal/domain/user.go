package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           string          `gorm:"primaryKey;type:uuid" json:"id"`
	Email        string          `gorm:"type:text;not null;unique" json:"email"`
	Name         string          `gorm:"type:text;not null" json:"name"`
	PasswordHash string          `gorm:"type:text;not null" json:"-"`
	Roles        []string        `gorm:"serializer:json;type:jsonb" json:"roles"`
	Active       bool            `gorm:"not null;default:true" json:"active"`
	Metadata     json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt    time.Time       `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (User) TableName() string {
	return "user"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if len(u.Roles) == 0 {
		u.Roles = []string{string(RoleUser)}
	}
	return nil
}
