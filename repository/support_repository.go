package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/Orochi-CRM/models"
	"gorm.io/gorm"
)

// SupportMessageRepositoryImpl implements SupportMessageRepository interface
type SupportMessageRepositoryImpl struct {
	*BaseRepository[models.SupportMessage, struct{}]
}

// NewSupportMessageRepository creates a new support message repository
func NewSupportMessageRepository(db *gorm.DB) SupportMessageRepository {
	return &SupportMessageRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SupportMessage, struct{}](db),
	}
}

func (r *SupportMessageRepositoryImpl) ListByUser(ctx context.Context, userID uint) ([]*models.SupportMessage, error) {
	db := r.getDB(ctx)

	var messages []*models.SupportMessage
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to list support messages: %w", err)
	}

	return messages, nil
}

// SupportTicketRepositoryImpl implements SupportTicketRepository interface
type SupportTicketRepositoryImpl struct {
	*BaseRepository[models.SupportTicket, models.SupportTicketFilter]
}

// NewSupportTicketRepository creates a new support ticket repository
func NewSupportTicketRepository(db *gorm.DB) SupportTicketRepository {
	return &SupportTicketRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SupportTicket, models.SupportTicketFilter](db),
	}
}

func (r *SupportTicketRepositoryImpl) SaveWithFiles(ctx context.Context, ticket *models.SupportTicket, files []*models.SupportFile) error {
	return r.write(ctx, func(db *gorm.DB) error {
		if err := db.Omit("Files").Create(ticket).Error; err != nil {
			return fmt.Errorf("failed to save ticket: %w", err)
		}
		if len(files) == 0 {
			return nil
		}

		for _, f := range files {
			f.TicketID = ticket.ID
		}
		if err := db.CreateInBatches(files, 100).Error; err != nil {
			return fmt.Errorf("failed to save ticket files: %w", err)
		}
		return nil
	})
}

// FileByID retrieves an attachment with its ticket loaded for ownership checks
func (r *SupportTicketRepositoryImpl) FileByID(ctx context.Context, fileID uint) (*models.SupportFile, error) {
	db := r.getDB(ctx)

	var file models.SupportFile
	err := db.Preload("Ticket").First(&file, fileID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find support file %d: %w", fileID, err)
	}

	return &file, nil
}

// ByFilter retrieves tickets based on filter criteria. Attachment metadata is loaded without file contents.
func (r *SupportTicketRepositoryImpl) ByFilter(ctx context.Context, filter models.SupportTicketFilter, orderBy string, limit, offset int) ([]*models.SupportTicket, error) {
	db := r.getDB(ctx)

	var tickets []*models.SupportTicket
	query := paginate(r.applyFilter(db, filter), orderBy, limit, offset).
		Preload("Files", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "ticket_id", "filename", "mime_type", "size", "kind", "created_at")
		})

	if err := query.Find(&tickets).Error; err != nil {
		return nil, err
	}

	return tickets, nil
}

func (r *SupportTicketRepositoryImpl) Count(ctx context.Context, filter models.SupportTicketFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	err := r.applyFilter(db.Model(&models.SupportTicket{}), filter).Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *SupportTicketRepositoryImpl) applyFilter(db *gorm.DB, filter models.SupportTicketFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}

	return db
}
