package models

import (
	"time"

	"github.com/amirphl/Orochi-CRM/utils"
	"gorm.io/gorm"
)

// Contact belongs to one user; an email is unique within the owner's address book
type Contact struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_contacts_user_email,priority:1" json:"user_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_contacts_user_email,priority:2" json:"email"`
	Message   *string   `gorm:"type:text" json:"message,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Contact) TableName() string { return "contacts" }

func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// ContactFilter represents filter criteria for contact queries
type ContactFilter struct {
	ID     *uint
	UserID *uint
	Email  *string
}
