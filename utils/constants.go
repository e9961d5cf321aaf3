package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Campaign sending constants
const (
	// CampaignSendDelay is the pause applied after every transport call
	CampaignSendDelay = 200 * time.Millisecond

	// CampaignSendTimeout bounds a whole send, detached from the request
	CampaignSendTimeout = 30 * time.Minute

	// CampaignSendLockTTL bounds how long a per-user send lock may be held.
	// It must outlive CampaignSendTimeout or a second send can start before the first deducts.
	CampaignSendLockTTL = CampaignSendTimeout + 5*time.Minute

	// CampaignSendLockKey is formatted with the user ID
	CampaignSendLockKey = "campaign:send:lock:%d"

	DefaultCampaignSubject = "Untitled Campaign"

	CreditLimitReachedMessage = "Credit limit reached"

	PlanBasedOnPayments = "Based on payments"
)

// Support ticket upload limits
const (
	MaxTicketFiles       = 5
	MaxTicketScreenshots = 5
	MaxSupportFileSize   = 10 * 1024 * 1024
)

type contextKey string

// Request-scoped context keys
const (
	RequestIDKey  contextKey = "request_id"
	UserAgentKey  contextKey = "user_agent"
	IPAddressKey  contextKey = "ip_address"
	EndpointKey   contextKey = "endpoint"
	TimeoutKey    contextKey = "timeout"
)
