// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/amirphl/Orochi-CRM/app/dto"
	"github.com/amirphl/Orochi-CRM/app/services"
	businessflow "github.com/amirphl/Orochi-CRM/business_flow"
	"github.com/amirphl/Orochi-CRM/utils"
	"github.com/gofiber/fiber/v3"
)

// Locals keys set for authenticated requests
const (
	LocalUserID      = "user_id"
	LocalSessionID   = "session_id"
	LocalTokenClaims = "token_claims"
)

const tokenCheckTimeout = 5 * time.Second

// TokenValidator resolves a bearer token to its claims and live session
type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, token string) (*services.TokenClaims, error)
}

// AuthMiddleware handles JWT token validation for protected endpoints
type AuthMiddleware struct {
	validator TokenValidator
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// Authenticate rejects requests without a valid access token bound to an active session
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, code, message := bearerToken(c.Get("Authorization"))
		if code != "" {
			return unauthorized(c, message, code)
		}

		claims, err := m.validate(c, token)
		if err != nil {
			code, message := classify(err)
			return unauthorized(c, message, code)
		}

		storeClaims(c, claims)
		return c.Next()
	}
}

// OptionalAuthenticate attaches the caller when a valid token is sent and lets guests through otherwise
func (m *AuthMiddleware) OptionalAuthenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, code, _ := bearerToken(c.Get("Authorization"))
		if code == "" {
			if claims, err := m.validate(c, token); err == nil {
				storeClaims(c, claims)
			}
		}
		return c.Next()
	}
}

func (m *AuthMiddleware) validate(c fiber.Ctx, token string) (*services.TokenClaims, error) {
	ctx, cancel := context.WithTimeout(context.Background(), tokenCheckTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))

	return m.validator.ValidateAccessToken(ctx, token)
}

func bearerToken(header string) (token, code, message string) {
	if header == "" {
		return "", "MISSING_AUTHORIZATION_HEADER", "Authorization header is required"
	}
	header = strings.TrimSpace(header)
	// Trailing spaces are dropped by the transport, so "Bearer   " arrives as "Bearer"
	if header == "Bearer" {
		return "", "MISSING_ACCESS_TOKEN", "Access token is required"
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", "INVALID_AUTHORIZATION_FORMAT", "Invalid authorization header format. Expected 'Bearer <token>'"
	}
	token = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", "MISSING_ACCESS_TOKEN", "Access token is required"
	}
	return token, "", ""
}

func classify(err error) (code, message string) {
	switch {
	case errors.Is(err, services.ErrTokenExpired):
		return "TOKEN_EXPIRED", "Access token has expired"
	case businessflow.IsSessionExpired(err), businessflow.IsSessionNotFound(err):
		return "SESSION_INVALID", "Session has expired or was revoked"
	case businessflow.IsInvalidToken(err):
		return "TOKEN_INVALID", "Invalid access token"
	default:
		return "TOKEN_VALIDATION_FAILED", "Token validation failed"
	}
}

func storeClaims(c fiber.Ctx, claims *services.TokenClaims) {
	c.Locals(LocalUserID, claims.UserID)
	c.Locals(LocalSessionID, claims.SessionID)
	c.Locals(LocalTokenClaims, claims)

	if requestID := c.Get("X-Request-ID"); requestID != "" {
		c.Locals("request_id", requestID)
	}
}

func unauthorized(c fiber.Ctx, message, code string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error:   dto.ErrorDetail{Code: code},
	})
}
