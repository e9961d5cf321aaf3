package models

import (
	"time"

	"github.com/amirphl/Orochi-CRM/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentStatus represents the lifecycle state of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

// Payment is a credit source. Only succeeded payments contribute credits and
// EmailSendCredits is only lowered by the credit ledger.
type Payment struct {
	ID                       uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID                     uuid.UUID     `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	UserID                   uint          `gorm:"not null;index" json:"user_id"`
	Amount                   int64         `gorm:"not null;default:0" json:"amount"` // minor currency units
	Currency                 string        `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	Status                   PaymentStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	EmailSendCredits         int           `gorm:"not null;default:0" json:"email_send_credits"`
	EmailVerificationCredits int           `gorm:"not null;default:0" json:"email_verification_credits"`
	PaymentDate              time.Time     `gorm:"not null;index" json:"payment_date"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	now := utils.UTCNow()
	if p.PaymentDate.IsZero() {
		p.PaymentDate = now
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	return nil
}

// PaymentFilter represents filter criteria for payment queries
type PaymentFilter struct {
	ID     *uint
	UserID *uint
	Status *PaymentStatus
}
