// Package businessflow contains the core business logic and use cases for campaigns, credits, contacts, support and authentication
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// User-related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrIncorrectPassword  = errors.New("incorrect password")
	ErrEmailAlreadyExists = errors.New("email already exists")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrInvalidToken    = errors.New("invalid or expired token")

	// Campaign-related errors
	ErrNoRecipients             = errors.New("no recipients specified")
	ErrMissingSenderFields      = errors.New("missing sender fields")
	ErrInvalidScheduleType      = errors.New("invalid schedule type")
	ErrScheduleTimeNotPresent   = errors.New("scheduled date and time are required")
	ErrScheduleTimeInvalid      = errors.New("invalid scheduled date or time")
	ErrScheduleTimeInPast       = errors.New("scheduled time is not in the future")
	ErrInvalidCanvas            = errors.New("invalid canvas data")
	ErrInsufficientCredits      = errors.New("insufficient credits")
	ErrTransportNotConfigured   = errors.New("mail transport not configured")
	ErrCampaignNotFound         = errors.New("campaign not found")
	ErrCampaignSendInProgress   = errors.New("campaign send already in progress")
	ErrCampaignAlreadyFinalized = errors.New("campaign is no longer processing")

	// Sender verification errors
	ErrVerifyEmailRequired = errors.New("email address is required")
	ErrVerifyEmailInvalid  = errors.New("invalid email format")

	// Contact errors
	ErrContactNotFound       = errors.New("contact not found")
	ErrContactFieldsRequired = errors.New("name and email are required")
	ErrContactDuplicate      = errors.New("contact email already exists")

	// Support errors
	ErrSupportMessageFieldsRequired = errors.New("name and message are required")
	ErrSupportTicketFieldsRequired  = errors.New("subject and description are required")
	ErrTooManyFiles                 = errors.New("too many attachments")
	ErrFileTooLarge                 = errors.New("attachment is too large")
	ErrSupportFileNotFound          = errors.New("support file not found")
	ErrSupportFileAccessDenied      = errors.New("support file access denied")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

// CreditLimitError reports a send that needs more credits than the account holds
type CreditLimitError struct {
	Available int
	Required  int
}

func (e *CreditLimitError) Error() string {
	return fmt.Sprintf("Insufficient credits. You need %d credits but only have %d.", e.Required, e.Available)
}

func (e *CreditLimitError) Unwrap() error {
	return ErrInsufficientCredits
}

// AsCreditLimitError extracts the capacity details from err
func AsCreditLimitError(err error) (*CreditLimitError, bool) {
	var cle *CreditLimitError
	if errors.As(err, &cle) {
		return cle, true
	}
	return nil, false
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsEmailAlreadyExists(err error) bool {
	return errors.Is(err, ErrEmailAlreadyExists)
}

func IsSessionNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}

func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}

func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}

// IsCampaignValidationError reports request problems that map to 400
func IsCampaignValidationError(err error) bool {
	return errors.Is(err, ErrNoRecipients) ||
		errors.Is(err, ErrMissingSenderFields) ||
		errors.Is(err, ErrInvalidScheduleType) ||
		errors.Is(err, ErrScheduleTimeNotPresent) ||
		errors.Is(err, ErrScheduleTimeInvalid) ||
		errors.Is(err, ErrScheduleTimeInPast) ||
		errors.Is(err, ErrInvalidCanvas)
}

func IsInsufficientCredits(err error) bool {
	return errors.Is(err, ErrInsufficientCredits)
}

func IsTransportNotConfigured(err error) bool {
	return errors.Is(err, ErrTransportNotConfigured)
}

func IsCampaignNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound)
}

func IsCampaignSendInProgress(err error) bool {
	return errors.Is(err, ErrCampaignSendInProgress)
}

func IsVerifyEmailValidationError(err error) bool {
	return errors.Is(err, ErrVerifyEmailRequired) || errors.Is(err, ErrVerifyEmailInvalid)
}

func IsContactNotFound(err error) bool {
	return errors.Is(err, ErrContactNotFound)
}

func IsContactFieldsRequired(err error) bool {
	return errors.Is(err, ErrContactFieldsRequired)
}

func IsContactDuplicate(err error) bool {
	return errors.Is(err, ErrContactDuplicate)
}

// IsSupportValidationError reports support form problems that map to 400
func IsSupportValidationError(err error) bool {
	return errors.Is(err, ErrSupportMessageFieldsRequired) ||
		errors.Is(err, ErrSupportTicketFieldsRequired) ||
		errors.Is(err, ErrTooManyFiles) ||
		errors.Is(err, ErrFileTooLarge)
}

func IsSupportFileNotFound(err error) bool {
	return errors.Is(err, ErrSupportFileNotFound)
}

func IsSupportFileAccessDenied(err error) bool {
	return errors.Is(err, ErrSupportFileAccessDenied)
}
