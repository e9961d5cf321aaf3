package models

import (
	"time"
)

type AuditLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       *uint     `gorm:"index" json:"user_id,omitempty"`
	Action       string    `gorm:"type:varchar(64);not null;index" json:"action"`
	Description  *string   `gorm:"type:text" json:"description,omitempty"`
	IPAddress    *string   `gorm:"type:varchar(64)" json:"ip_address,omitempty"`
	UserAgent    *string   `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID    *string   `gorm:"size:255;index" json:"request_id,omitempty"`
	Success      *bool     `gorm:"default:true;index" json:"success"`
	ErrorMessage *string   `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants
const (
	AuditActionSignupCompleted   = "signup_completed"
	AuditActionLoginSuccess      = "login_success"
	AuditActionLoginFailed       = "login_failed"
	AuditActionLogout            = "logout"
	AuditActionSessionCreated    = "session_created"
	AuditActionSessionRevoked    = "session_revoked"
	AuditActionTokenRefreshed    = "token_refreshed"
	AuditActionCampaignSent      = "campaign_sent"
	AuditActionCampaignScheduled = "campaign_scheduled"
	AuditActionCampaignDeleted   = "campaign_deleted"
	AuditActionCreditsDeducted   = "credits_deducted"
	AuditActionContactCreated    = "contact_created"
	AuditActionContactUpdated    = "contact_updated"
	AuditActionContactDeleted    = "contact_deleted"
	AuditActionSupportMessage    = "support_message_created"
	AuditActionSupportTicket     = "support_ticket_created"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint
	UserID        *uint
	Action        *string
	Success       *bool
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}

func (a *AuditLog) IsSecurityEvent() bool {
	securityActions := map[string]bool{
		AuditActionLoginSuccess:   true,
		AuditActionLoginFailed:    true,
		AuditActionLogout:         true,
		AuditActionSessionRevoked: true,
	}
	return securityActions[a.Action]
}
