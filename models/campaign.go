package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/amirphl/Orochi-CRM/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CampaignStatus represents the status of a campaign
type CampaignStatus string

const (
	CampaignStatusProcessing CampaignStatus = "processing"
	CampaignStatusScheduled  CampaignStatus = "scheduled"
	CampaignStatusSent       CampaignStatus = "sent"
	CampaignStatusFailed     CampaignStatus = "failed"
)

// String returns the string representation of the status
func (s CampaignStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusProcessing, CampaignStatusScheduled, CampaignStatusSent, CampaignStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed
func (s CampaignStatus) IsTerminal() bool {
	return s == CampaignStatusSent || s == CampaignStatusFailed
}

// CanTransitionTo enforces processing -> {sent, failed} and scheduled -> processing
func (s CampaignStatus) CanTransitionTo(next CampaignStatus) bool {
	switch s {
	case CampaignStatusProcessing:
		return next == CampaignStatusSent || next == CampaignStatusFailed
	case CampaignStatusScheduled:
		return next == CampaignStatusProcessing
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for CampaignStatus
func (s *CampaignStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = CampaignStatus(v)
	case []byte:
		*s = CampaignStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into CampaignStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for CampaignStatus
func (s CampaignStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// ScheduleType selects between immediate sending and persisting for the external scheduler
type ScheduleType string

const (
	ScheduleTypeImmediate ScheduleType = "immediate"
	ScheduleTypeScheduled ScheduleType = "scheduled"
	ScheduleTypeRecurring ScheduleType = "recurring"
)

func (t ScheduleType) String() string {
	return string(t)
}

func (t ScheduleType) Valid() bool {
	switch t {
	case ScheduleTypeImmediate, ScheduleTypeScheduled, ScheduleTypeRecurring:
		return true
	default:
		return false
	}
}

// IsDeferred reports whether the campaign is only persisted at request time
func (t ScheduleType) IsDeferred() bool {
	return t == ScheduleTypeScheduled || t == ScheduleTypeRecurring
}

// InitialStatus is the status a campaign is created with
func (t ScheduleType) InitialStatus() CampaignStatus {
	if t.IsDeferred() {
		return CampaignStatusScheduled
	}
	return CampaignStatusProcessing
}

// Campaign represents one send operation.
// DesignJSON and RecipientsJSON keep the payloads exactly as submitted.
type Campaign struct {
	ID           uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID         uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	UserID       uint           `gorm:"not null;index" json:"user_id"`
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`
	Subject      string         `gorm:"type:varchar(255);not null" json:"subject"`
	FromName     string         `gorm:"type:varchar(255);not null" json:"from_name"`
	FromEmail    string         `gorm:"type:varchar(255);not null" json:"from_email"`
	ScheduleType ScheduleType   `gorm:"type:varchar(20);not null;default:'immediate'" json:"schedule_type"`
	Status       CampaignStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	SentCount    int            `gorm:"not null;default:0" json:"sent_count"`

	DesignJSON     string `gorm:"type:text;not null" json:"design_json"`
	RecipientsJSON string `gorm:"type:text;not null" json:"recipients_json"`

	ScheduledAt        *time.Time     `gorm:"index" json:"scheduled_at,omitempty"`
	Timezone           *string        `gorm:"type:varchar(64)" json:"timezone,omitempty"`
	RecurringFrequency *string        `gorm:"type:varchar(32)" json:"recurring_frequency,omitempty"`
	RecurringDays      StringArray    `json:"recurring_days,omitempty"`
	RecurringEndDate   *time.Time     `json:"recurring_end_date,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Logs []AutomationLog `gorm:"foreignKey:CampaignID" json:"logs,omitempty"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = utils.UTCNow()
	}
	if c.Status == "" {
		c.Status = c.ScheduleType.InitialStatus()
	}
	return nil
}

// CampaignFilter represents filter criteria for campaign queries
type CampaignFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	UserID        *uint
	Status        *CampaignStatus
	ScheduleType  *ScheduleType
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
