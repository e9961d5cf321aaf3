package dto

// RegisterRequest represents the request payload for account registration
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255" example:"Jane Doe"`
	Email    string `json:"email" validate:"required,email,max=255" example:"jane@example.com"`
	Password string `json:"password" validate:"required,min=8,max=100,password_strength" example:"SecurePass123!"`
}

// LoginRequest represents the request payload for user login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255" example:"jane@example.com"`
	Password string `json:"password" validate:"required,min=8,max=100" example:"SecurePass123!"`
}

// RefreshTokenRequest exchanges a refresh token for a new pair
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// AuthUserDTO is the user portion of authentication responses
type AuthUserDTO struct {
	ID         uint   `json:"id" example:"123"`
	UUID       string `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name       string `json:"name" example:"Jane Doe"`
	Email      string `json:"email" example:"jane@example.com"`
	Plan       string `json:"plan" example:"free"`
	EmailLimit int    `json:"email_limit" example:"100"`
	CreatedAt  string `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

// TokenPairDTO carries the issued tokens
type TokenPairDTO struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type" example:"Bearer"`
	ExpiresIn    int    `json:"expires_in" example:"86400"`
	SessionID    string `json:"session_id"`
}

// AuthResponse is returned by register, login and refresh
type AuthResponse struct {
	User    AuthUserDTO  `json:"user"`
	Session TokenPairDTO `json:"session"`
}

// SessionDTO describes one active login session
type SessionDTO struct {
	ID             string `json:"id"`
	Device         string `json:"device"`
	IPAddress      string `json:"ipAddress"`
	CreatedAt      string `json:"createdAt"`
	LastAccessedAt string `json:"lastAccessedAt"`
	ExpiresAt      string `json:"expiresAt"`
	Current        bool   `json:"current"`
}

// ListSessionsResponse lists the caller's active sessions
type ListSessionsResponse struct {
	Sessions []SessionDTO `json:"sessions"`
}
