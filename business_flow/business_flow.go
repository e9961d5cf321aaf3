package businessflow

import (
	"context"
	"strings"
	"time"

	"github.com/amirphl/Orochi-CRM/app/dto"
	"github.com/amirphl/Orochi-CRM/models"
	"github.com/amirphl/Orochi-CRM/repository"
	"github.com/amirphl/Orochi-CRM/utils"
)

// ClientMetadata holds all client-related information for audit logging and session tracking
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// SetSessionID sets the session ID
func (cm *ClientMetadata) SetSessionID(sessionID string) {
	cm.SessionID = sessionID
}

// createAuditLog records one audit entry; failures to write it are the caller's to ignore
func createAuditLog(ctx context.Context, auditRepo repository.AuditLogRepository, userID *uint, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	if auditRepo == nil {
		return nil
	}

	ipAddress := ""
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errorMsg,
	}

	// Extract request ID from context if available
	requestID := ctx.Value(utils.RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}
	if audit.RequestID == nil && metadata != nil && metadata.RequestID != "" {
		audit.RequestID = &metadata.RequestID
	}

	return auditRepo.Save(ctx, audit)
}

// ToAuthUserDTO converts a user model for authentication responses
func ToAuthUserDTO(user models.User) dto.AuthUserDTO {
	return dto.AuthUserDTO{
		ID:         user.ID,
		UUID:       user.UUID.String(),
		Name:       user.Name,
		Email:      user.Email,
		Plan:       user.Plan,
		EmailLimit: user.EmailLimit,
		CreatedAt:  user.CreatedAt.Format(time.RFC3339),
	}
}

// ToCampaignResponse converts a campaign and its loaded logs
func ToCampaignResponse(c models.Campaign) dto.CampaignResponse {
	resp := dto.CampaignResponse{
		ID:                 c.ID,
		UUID:               c.UUID.String(),
		UserID:             c.UserID,
		Name:               c.Name,
		Subject:            c.Subject,
		FromName:           c.FromName,
		FromEmail:          c.FromEmail,
		ScheduleType:       c.ScheduleType.String(),
		Status:             c.Status.String(),
		SentCount:          c.SentCount,
		DesignJSON:         c.DesignJSON,
		RecipientsJSON:     c.RecipientsJSON,
		ScheduledAt:        c.ScheduledAt,
		Timezone:           c.Timezone,
		RecurringFrequency: c.RecurringFrequency,
		RecurringDays:      []string(c.RecurringDays),
		RecurringEndDate:   c.RecurringEndDate,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
		Logs:               make([]dto.AutomationLogResponse, 0, len(c.Logs)),
	}

	for _, l := range c.Logs {
		resp.Logs = append(resp.Logs, ToAutomationLogResponse(l))
	}

	return resp
}

func ToAutomationLogResponse(l models.AutomationLog) dto.AutomationLogResponse {
	return dto.AutomationLogResponse{
		ID:           l.ID,
		CampaignID:   l.CampaignID,
		CampaignName: l.CampaignName,
		Status:       l.Status,
		Message:      l.Message,
		Error:        l.Error,
		CreatedAt:    l.CreatedAt,
	}
}

func ToContactResponse(c models.Contact) dto.ContactResponse {
	return dto.ContactResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Message:   c.Message,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ToSessionDTO converts a session; current marks the one the caller authenticated with
func ToSessionDTO(s models.UserSession, currentSessionID string) dto.SessionDTO {
	ip := ""
	if s.IPAddress != nil {
		ip = *s.IPAddress
	}
	ua := ""
	if s.UserAgent != nil {
		ua = *s.UserAgent
	}

	return dto.SessionDTO{
		ID:             s.UUID.String(),
		Device:         deviceLabel(ua),
		IPAddress:      ip,
		CreatedAt:      s.CreatedAt.Format(time.RFC3339),
		LastAccessedAt: s.LastAccessedAt.Format(time.RFC3339),
		ExpiresAt:      s.ExpiresAt.Format(time.RFC3339),
		Current:        s.UUID.String() == currentSessionID,
	}
}

// deviceLabel reduces a user agent to "Browser on OS"
func deviceLabel(userAgent string) string {
	ua := strings.ToLower(userAgent)
	if ua == "" {
		return "Unknown device"
	}

	browser := "Unknown browser"
	switch {
	case strings.Contains(ua, "edg/"):
		browser = "Edge"
	case strings.Contains(ua, "opr/"), strings.Contains(ua, "opera"):
		browser = "Opera"
	case strings.Contains(ua, "firefox/"):
		browser = "Firefox"
	case strings.Contains(ua, "chrome/"):
		browser = "Chrome"
	case strings.Contains(ua, "safari/"):
		browser = "Safari"
	case strings.Contains(ua, "curl/"):
		browser = "curl"
	}

	os := "Unknown OS"
	switch {
	case strings.Contains(ua, "android"):
		os = "Android"
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "ipad"):
		os = "iOS"
	case strings.Contains(ua, "windows"):
		os = "Windows"
	case strings.Contains(ua, "mac os"), strings.Contains(ua, "macintosh"):
		os = "macOS"
	case strings.Contains(ua, "linux"):
		os = "Linux"
	}

	return browser + " on " + os
}
