// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/amirphl/Orochi-CRM/models"
	"github.com/google/uuid"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
}

// UserRepository defines operations for users
type UserRepository interface {
	Repository[models.User, models.UserFilter]
	ByEmail(ctx context.Context, email string) (*models.User, error)
	// ByIDForUpdate locks the user row inside the caller's transaction
	ByIDForUpdate(ctx context.Context, id uint) (*models.User, error)
	UpdateEmailLimit(ctx context.Context, userID uint, emailLimit int) error
	UpdateLastLogin(ctx context.Context, userID uint) error
}

// PaymentRepository defines operations for payments
type PaymentRepository interface {
	Repository[models.Payment, models.PaymentFilter]
	// ListSucceededByUser returns succeeded payments oldest first, locking them when forUpdate is set
	ListSucceededByUser(ctx context.Context, userID uint, forUpdate bool) ([]*models.Payment, error)
	UpdateEmailSendCredits(ctx context.Context, paymentID uint, credits int) error
	SumSucceededCredits(ctx context.Context, userID uint) (sendCredits int, verificationCredits int, err error)
}

// CampaignRepository defines operations for campaigns
type CampaignRepository interface {
	Repository[models.Campaign, models.CampaignFilter]
	ByIDAndUser(ctx context.Context, id, userID uint) (*models.Campaign, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Campaign, error)
	// Finalize moves a processing campaign to a terminal status; it returns false when the row is not processing
	Finalize(ctx context.Context, id uint, sentCount int, status models.CampaignStatus) (bool, error)
	// DeleteByIDAndUser removes an owned campaign and its logs; it returns false when nothing matched
	DeleteByIDAndUser(ctx context.Context, id, userID uint) (bool, error)
}

// AutomationLogRepository defines append-only operations for campaign activity logs
type AutomationLogRepository interface {
	Repository[models.AutomationLog, models.AutomationLogFilter]
	ListByCampaign(ctx context.Context, campaignID uint) ([]*models.AutomationLog, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.AutomationLog, error)
}

// ContactRepository defines operations for contacts
type ContactRepository interface {
	Repository[models.Contact, models.ContactFilter]
	ByIDAndUser(ctx context.Context, id, userID uint) (*models.Contact, error)
	ByUserAndEmail(ctx context.Context, userID uint, email string) (*models.Contact, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Contact, error)
	Update(ctx context.Context, contact *models.Contact) error
	DeleteByIDAndUser(ctx context.Context, id, userID uint) (bool, error)
}

// SupportMessageRepository defines operations for contact-form messages
type SupportMessageRepository interface {
	Save(ctx context.Context, message *models.SupportMessage) error
	ListByUser(ctx context.Context, userID uint) ([]*models.SupportMessage, error)
}

// SupportTicketRepository defines operations for tickets and their attachments
type SupportTicketRepository interface {
	Repository[models.SupportTicket, models.SupportTicketFilter]
	// SaveWithFiles inserts the ticket and its files atomically
	SaveWithFiles(ctx context.Context, ticket *models.SupportTicket, files []*models.SupportFile) error
	FileByID(ctx context.Context, fileID uint) (*models.SupportFile, error)
}

// UserSessionRepository defines operations for login sessions
type UserSessionRepository interface {
	Repository[models.UserSession, models.UserSessionFilter]
	ByUUID(ctx context.Context, id uuid.UUID) (*models.UserSession, error)
	ListActiveByUser(ctx context.Context, userID uint) ([]*models.UserSession, error)
	Touch(ctx context.Context, sessionID uint) error
	// Deactivate revokes a session owned by userID; it returns false when nothing matched
	Deactivate(ctx context.Context, sessionID, userID uint) (bool, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.AuditLog, error)
}
