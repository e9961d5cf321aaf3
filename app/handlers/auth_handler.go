package handlers

import (
	"log"

	"github.com/amirphl/Orochi-CRM/app/dto"
	businessflow "github.com/amirphl/Orochi-CRM/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// AuthHandlerInterface defines the contract for authentication handlers
type AuthHandlerInterface interface {
	Register(c fiber.Ctx) error
	Login(c fiber.Ctx) error
	Refresh(c fiber.Ctx) error
	Logout(c fiber.Ctx) error
	ListSessions(c fiber.Ctx) error
	RevokeSession(c fiber.Ctx) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authFlow  businessflow.AuthFlow
	validator *validator.Validate
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authFlow businessflow.AuthFlow) *AuthHandler {
	handler := &AuthHandler{
		authFlow:  authFlow,
		validator: validator.New(),
	}

	handler.setupCustomValidations()

	return handler
}

// Register handles account creation
// @Summary Register
// @Description Create an account and sign it in
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration data"
// @Success 201 {object} dto.APIResponse{data=dto.AuthResponse} "Account created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Email already registered"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	ctx, cancel := createRequestContext(c, "/api/v1/auth/register")
	defer cancel()

	result, err := h.authFlow.Register(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsEmailAlreadyExists(err) {
			return ErrorResponse(c, fiber.StatusConflict, businessMessage(err, "Email already exists"), "EMAIL_EXISTS", nil)
		}

		log.Println("Registration failed", err)
		return ErrorResponse(c, fiber.StatusInternalServerError, "Registration failed", "REGISTRATION_FAILED", nil)
	}

	return SuccessResponse(c, fiber.StatusCreated, "Registration successful", result)
}

// Login handles email/password authentication
// @Summary Login
// @Description Authenticate with email and password and open a session
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Login successful"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Invalid credentials"
// @Failure 403 {object} dto.APIResponse "Account inactive"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	ctx, cancel := createRequestContext(c, "/api/v1/auth/login")
	defer cancel()

	result, err := h.authFlow.Login(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsUserNotFound(err) || businessflow.IsIncorrectPassword(err) {
			return ErrorResponse(c, fiber.StatusUnauthorized, "Invalid email or password", "INVALID_CREDENTIALS", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return ErrorResponse(c, fiber.StatusForbidden, "Account is inactive", "ACCOUNT_INACTIVE", nil)
		}

		log.Println("Login failed", err)
		return ErrorResponse(c, fiber.StatusInternalServerError, "Login failed", "LOGIN_FAILED", nil)
	}

	return SuccessResponse(c, fiber.StatusOK, "Login successful", result)
}

// Refresh exchanges a refresh token for a new pair
// @Summary Refresh tokens
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Tokens refreshed"
// @Failure 401 {object} dto.APIResponse "Invalid refresh token or session"
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	var req dto.RefreshTokenRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	ctx, cancel := createRequestContext(c, "/api/v1/auth/refresh")
	defer cancel()

	result, err := h.authFlow.Refresh(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsInvalidToken(err) || businessflow.IsSessionNotFound(err) || businessflow.IsSessionExpired(err) {
			return ErrorResponse(c, fiber.StatusUnauthorized, businessMessage(err, "Invalid or expired refresh token"), businessCode(err, "INVALID_REFRESH_TOKEN"), nil)
		}

		log.Println("Token refresh failed", err)
		return ErrorResponse(c, fiber.StatusInternalServerError, "Token refresh failed", "TOKEN_REFRESH_FAILED", nil)
	}

	return SuccessResponse(c, fiber.StatusOK, "Tokens refreshed", result)
}

// Logout revokes the session the request was authenticated with
// @Summary Logout
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse "Logged out"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	ctx, cancel := createRequestContext(c, "/api/v1/auth/logout")
	defer cancel()

	if err := h.authFlow.Logout(ctx, userID, currentSessionID(c), clientMetadata(c)); err != nil {
		if businessflow.IsSessionNotFound(err) {
			return ErrorResponse(c, fiber.StatusNotFound, "Session not found", "SESSION_NOT_FOUND", nil)
		}

		log.Println("Logout failed", err)
		return ErrorResponse(c, fiber.StatusInternalServerError, "Logout failed", "LOGOUT_FAILED", nil)
	}

	return SuccessResponse(c, fiber.StatusOK, "Logged out successfully", nil)
}

// ListSessions returns the caller's active sessions
// @Summary List sessions
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ListSessionsResponse} "Active sessions"
// @Router /api/v1/auth/sessions [get]
func (h *AuthHandler) ListSessions(c fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	ctx, cancel := createRequestContext(c, "/api/v1/auth/sessions")
	defer cancel()

	result, err := h.authFlow.ListSessions(ctx, userID, currentSessionID(c))
	if err != nil {
		log.Println("List sessions failed", err)
		return ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch sessions", "SESSION_LIST_FAILED", nil)
	}

	return SuccessResponse(c, fiber.StatusOK, "Sessions retrieved successfully", result)
}

// RevokeSession logs out one of the caller's sessions
// @Summary Revoke session
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} dto.APIResponse "Session revoked"
// @Failure 404 {object} dto.APIResponse "Session not found"
// @Router /api/v1/auth/sessions/{id} [delete]
func (h *AuthHandler) RevokeSession(c fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	ctx, cancel := createRequestContext(c, "/api/v1/auth/sessions/:id")
	defer cancel()

	if err := h.authFlow.RevokeSession(ctx, userID, c.Params("id"), clientMetadata(c)); err != nil {
		if businessflow.IsSessionNotFound(err) {
			return ErrorResponse(c, fiber.StatusNotFound, "Session not found", "SESSION_NOT_FOUND", nil)
		}

		log.Println("Session revoke failed", err)
		return ErrorResponse(c, fiber.StatusInternalServerError, "Failed to revoke session", "SESSION_REVOKE_FAILED", nil)
	}

	return SuccessResponse(c, fiber.StatusOK, "Session revoked successfully", nil)
}

func (h *AuthHandler) setupCustomValidations() {
	h.validator.RegisterValidation("password_strength", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()

		hasUpper := false
		hasNumber := false
		for _, char := range value {
			if char >= 'A' && char <= 'Z' {
				hasUpper = true
			}
			if char >= '0' && char <= '9' {
				hasNumber = true
			}
		}

		return hasUpper && hasNumber
	})
}
