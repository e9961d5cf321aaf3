package models

import (
	"time"

	"github.com/amirphl/Orochi-CRM/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserSession backs a pair of issued tokens; the UUID travels as the "sid" claim
type UserSession struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UUID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"uuid"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	IPAddress      *string   `gorm:"type:varchar(64)" json:"ip_address,omitempty"`
	UserAgent      *string   `gorm:"type:text" json:"user_agent,omitempty"`
	IsActive       *bool     `gorm:"default:true;index" json:"is_active"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	LastAccessedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"last_accessed_at"`
	ExpiresAt      time.Time `gorm:"not null;index" json:"expires_at"`

	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (UserSession) TableName() string {
	return "user_sessions"
}

func (s *UserSession) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == uuid.Nil {
		s.UUID = uuid.New()
	}
	now := utils.UTCNow()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.LastAccessedAt.IsZero() {
		s.LastAccessedAt = now
	}
	if s.IsActive == nil {
		s.IsActive = utils.ToPtr(true)
	}
	return nil
}

// UserSessionFilter represents filter criteria for session queries
type UserSessionFilter struct {
	ID       *uint
	UUID     *uuid.UUID
	UserID   *uint
	IsActive *bool
}

func (s *UserSession) IsExpired() bool {
	return utils.IsExpired(s.ExpiresAt)
}

func (s *UserSession) IsValid() bool {
	return utils.IsTrue(s.IsActive) && !s.IsExpired()
}
