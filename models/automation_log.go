package models

import (
	"errors"
	"time"

	"github.com/amirphl/Orochi-CRM/utils"
	"gorm.io/gorm"
)

// ErrAutomationLogImmutable is returned when an existing log row is updated
var ErrAutomationLogImmutable = errors.New("automation log entries are append-only")

// Automation log statuses
const (
	AutomationLogStatusScheduled = "scheduled"
	AutomationLogStatusSent      = "sent"
	AutomationLogStatusFailed    = "failed"
)

// AutomationLog is an append-only activity record tied to a campaign
type AutomationLog struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	CampaignID   uint      `gorm:"not null;index" json:"campaign_id"`
	CampaignName string    `gorm:"type:varchar(255);not null" json:"campaign_name"`
	Status       string    `gorm:"type:varchar(20);not null" json:"status"`
	Message      string    `gorm:"type:text;not null" json:"message"`
	Error        *string   `gorm:"type:text" json:"error,omitempty"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

func (AutomationLog) TableName() string {
	return "automation_logs"
}

func (l *AutomationLog) BeforeCreate(tx *gorm.DB) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate rejects every update so entries are never mutated after creation
func (l *AutomationLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrAutomationLogImmutable
}

// AutomationLogFilter represents filter criteria for automation log queries
type AutomationLogFilter struct {
	ID         *uint
	UserID     *uint
	CampaignID *uint
	Status     *string
}
