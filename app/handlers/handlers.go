// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/Orochi-CRM/app/dto"
	"github.com/amirphl/Orochi-CRM/app/middleware"
	businessflow "github.com/amirphl/Orochi-CRM/business_flow"
	"github.com/amirphl/Orochi-CRM/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

const defaultRequestTimeout = 30 * time.Second

// ErrorResponse writes the standard failure envelope
func ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

// SuccessResponse writes the standard success envelope
func SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// createRequestContext builds a detached context carrying request-scoped values; callers must cancel it
func createRequestContext(c fiber.Ctx, endpoint string) (context.Context, context.CancelFunc) {
	return createRequestContextWithTimeout(c, endpoint, defaultRequestTimeout)
}

func createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	ctx = context.WithValue(ctx, utils.RequestIDKey, requestID(c))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)

	return ctx, cancel
}

func requestID(c fiber.Ctx) string {
	if id := c.Get("X-Request-ID"); id != "" {
		return id
	}
	return string(c.Response().Header.Peek("X-Request-ID"))
}

func clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(requestID(c))
	if sid, ok := c.Locals(middleware.LocalSessionID).(string); ok {
		metadata.SetSessionID(sid)
	}
	return metadata
}

func currentUserID(c fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(middleware.LocalUserID).(uint)
	return id, ok && id != 0
}

func currentSessionID(c fiber.Ctx) string {
	sid, _ := c.Locals(middleware.LocalSessionID).(string)
	return sid
}

// businessMessage returns the user-facing message carried by err, or fallback
func businessMessage(err error, fallback string) string {
	var be *businessflow.BusinessError
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return fallback
}

func businessCode(err error, fallback string) string {
	var be *businessflow.BusinessError
	if errors.As(err, &be) && be.Code != "" {
		return be.Code
	}
	return fallback
}

func validationErrors(err error) []string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(ve))
	for _, fe := range ve {
		out = append(out, getValidationErrorMessage(fe))
	}
	return out
}

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return err.Field() + " must be at least " + err.Param() + " characters"
	case "max":
		return err.Field() + " must be at most " + err.Param() + " characters"
	case "len":
		return err.Field() + " must be exactly " + err.Param() + " characters"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "password_strength":
		return "Password must contain at least 1 uppercase letter and 1 number"
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}
