package models

import (
	"time"

	"github.com/amirphl/Orochi-CRM/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SupportMessage is a contact-form message; guests have no UserID
type SupportMessage struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id,omitempty"`
	UserEmail *string   `gorm:"type:varchar(255)" json:"user_email,omitempty"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (SupportMessage) TableName() string { return "support_messages" }

func (m *SupportMessage) BeforeCreate(tx *gorm.DB) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = utils.UTCNow()
	}
	return nil
}

// SupportTicket is a support request with optional attachments
type SupportTicket struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	UserID      *uint     `gorm:"index" json:"user_id,omitempty"`
	UserEmail   *string   `gorm:"type:varchar(255)" json:"user_email,omitempty"`
	Subject     string    `gorm:"type:varchar(255);not null" json:"subject"`
	Description string    `gorm:"type:text;not null" json:"description"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Files []SupportFile `gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE" json:"files,omitempty"`
}

func (SupportTicket) TableName() string { return "support_tickets" }

// BeforeCreate ensures UUID and timestamps are set
func (t *SupportTicket) BeforeCreate(tx *gorm.DB) error {
	if t.UUID == uuid.Nil {
		t.UUID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = utils.UTCNow()
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// SupportFileKind distinguishes regular attachments from screenshots
type SupportFileKind string

const (
	SupportFileKindFile       SupportFileKind = "file"
	SupportFileKindScreenshot SupportFileKind = "screenshot"
)

// SupportFile stores an uploaded attachment inline
type SupportFile struct {
	ID        uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	TicketID  uint            `gorm:"not null;index" json:"ticket_id"`
	Filename  string          `gorm:"type:varchar(255);not null" json:"filename"`
	MimeType  string          `gorm:"type:varchar(255);not null" json:"mime_type"`
	Size      int64           `gorm:"not null" json:"size"`
	Kind      SupportFileKind `gorm:"type:varchar(20);not null;default:'file'" json:"kind"`
	Data      []byte          `gorm:"not null" json:"-"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	Ticket *SupportTicket `gorm:"foreignKey:TicketID;references:ID" json:"-"`
}

func (SupportFile) TableName() string { return "support_files" }

func (f *SupportFile) BeforeCreate(tx *gorm.DB) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = utils.UTCNow()
	}
	if f.Kind == "" {
		f.Kind = SupportFileKindFile
	}
	return nil
}

// SupportTicketFilter represents filter criteria for ticket queries
type SupportTicketFilter struct {
	ID     *uint
	UUID   *uuid.UUID
	UserID *uint
}
