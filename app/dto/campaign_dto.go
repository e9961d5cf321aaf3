package dto

import (
	"encoding/json"
	"time"
)

// SendCampaignRequest is the dashboard's campaign payload; recipients and canvasData are kept raw for storage
type SendCampaignRequest struct {
	UserID             uint            `json:"-"`
	Recipients         json.RawMessage `json:"recipients" swaggertype:"array,object"`
	FromEmail          string          `json:"fromEmail" example:"news@acme.com"`
	FromName           string          `json:"fromName" example:"Acme"`
	Subject            string          `json:"subject" example:"Spring launch"`
	CanvasData         json.RawMessage `json:"canvasData,omitempty" swaggertype:"array,object"`
	ScheduleType       string          `json:"scheduleType,omitempty" example:"immediate"`
	ScheduledDate      string          `json:"scheduledDate,omitempty" example:"2026-11-02"`
	ScheduledTime      string          `json:"scheduledTime,omitempty" example:"09:30"`
	Timezone           string          `json:"timezone,omitempty" example:"Europe/Berlin"`
	RecurringFrequency string          `json:"recurringFrequency,omitempty" example:"weekly"`
	RecurringDays      []string        `json:"recurringDays,omitempty"`
	RecurringEndDate   string          `json:"recurringEndDate,omitempty" example:"2026-12-31"`
}

// RecipientSuccess is one accepted recipient
type RecipientSuccess struct {
	Email string `json:"email"`
}

// RecipientFailure is one rejected or skipped recipient
type RecipientFailure struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

// DispatchResults lists per-recipient outcomes in input order
type DispatchResults struct {
	Success []RecipientSuccess `json:"success"`
	Failed  []RecipientFailure `json:"failed"`
}

// SendCampaignResponse covers both the immediate and the scheduled outcome
type SendCampaignResponse struct {
	Success          bool             `json:"success" example:"true"`
	Message          string           `json:"message" example:"Sent: 3, Failed: 1"`
	CampaignID       uint             `json:"campaignId" example:"42"`
	ScheduledAt      *time.Time       `json:"scheduledAt,omitempty"`
	Results          *DispatchResults `json:"results,omitempty"`
	CreditsUsed      *int             `json:"creditsUsed,omitempty" example:"4"`
	CreditsRemaining *int             `json:"creditsRemaining,omitempty" example:"1"`
}

// CreditsResponse is the /campaigns/credits view
type CreditsResponse struct {
	Success                  bool   `json:"success" example:"true"`
	EmailSendCredits         int    `json:"emailSendCredits" example:"500"`
	EmailVerificationCredits int    `json:"emailVerificationCredits" example:"100"`
	Plan                     string `json:"plan" example:"Based on payments"`
}

// AutomationLogResponse is one campaign activity entry
type AutomationLogResponse struct {
	ID           uint      `json:"id"`
	CampaignID   uint      `json:"campaignId"`
	CampaignName string    `json:"campaignName"`
	Status       string    `json:"status"`
	Message      string    `json:"message"`
	Error        *string   `json:"error,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CampaignResponse is a stored campaign as returned to its owner
type CampaignResponse struct {
	ID                 uint                    `json:"id"`
	UUID               string                  `json:"uuid"`
	UserID             uint                    `json:"userId"`
	Name               string                  `json:"name"`
	Subject            string                  `json:"subject"`
	FromName           string                  `json:"fromName"`
	FromEmail          string                  `json:"fromEmail"`
	ScheduleType       string                  `json:"scheduleType"`
	Status             string                  `json:"status"`
	SentCount          int                     `json:"sentCount"`
	DesignJSON         string                  `json:"designJson"`
	RecipientsJSON     string                  `json:"recipientsJson"`
	ScheduledAt        *time.Time              `json:"scheduledAt,omitempty"`
	Timezone           *string                 `json:"timezone,omitempty"`
	RecurringFrequency *string                 `json:"recurringFrequency,omitempty"`
	RecurringDays      []string                `json:"recurringDays,omitempty"`
	RecurringEndDate   *time.Time              `json:"recurringEndDate,omitempty"`
	CreatedAt          time.Time               `json:"createdAt"`
	UpdatedAt          time.Time               `json:"updatedAt"`
	Logs               []AutomationLogResponse `json:"logs"`
}

// ListCampaignsRequest scopes a listing to its owner
type ListCampaignsRequest struct {
	UserID uint `json:"-"`
	PaginationRequest
}

// DeleteCampaignResponse confirms a deletion
type DeleteCampaignResponse struct {
	Message string `json:"message" example:"Campaign deleted successfully"`
}

// VerifyEmailRequest asks whether a sender address is verified with the provider
type VerifyEmailRequest struct {
	Email string `json:"email" example:"news@acme.com"`
}

// VerifyEmailResponse reports the provider's verdict
type VerifyEmailResponse struct {
	Verified bool   `json:"verified"`
	Email    string `json:"email"`
	Message  string `json:"message"`
}

// CampaignErrorResponse is the flat error body used by campaign endpoints
type CampaignErrorResponse struct {
	Success            bool   `json:"success"`
	Error              string `json:"error"`
	Code               string `json:"code,omitempty"`
	Verified           *bool  `json:"verified,omitempty"`
	Available          *int   `json:"available,omitempty"`
	Required           *int   `json:"required,omitempty"`
	CreditLimitReached bool   `json:"creditLimitReached,omitempty"`
}
