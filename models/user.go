// Package models contains domain entities for campaigns, credits, contacts and support
package models

import (
	"time"

	"github.com/amirphl/Orochi-CRM/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account owning campaigns, payments and contacts.
// EmailLimit is the base send allowance that does not come from payments.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"uuid"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"` // Never serialize password hash
	EmailLimit   int       `gorm:"not null;default:0" json:"email_limit"`
	Plan         string    `gorm:"size:64;not null;default:'free'" json:"plan"`
	IsActive     *bool     `gorm:"default:true;index" json:"is_active"`

	CreatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	Payments []Payment `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UUID == uuid.Nil {
		u.UUID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = utils.UTCNow()
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = utils.UTCNow()
	}
	if u.IsActive == nil {
		u.IsActive = utils.ToPtr(true)
	}
	return nil
}

// UserFilter represents filter criteria for user queries
type UserFilter struct {
	ID       *uint
	UUID     *uuid.UUID
	Email    *string
	IsActive *bool
}
