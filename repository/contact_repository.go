package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/Orochi-CRM/models"
	"github.com/amirphl/Orochi-CRM/utils"
	"gorm.io/gorm"
)

// ContactRepositoryImpl implements ContactRepository interface
type ContactRepositoryImpl struct {
	*BaseRepository[models.Contact, models.ContactFilter]
}

// NewContactRepository creates a new contact repository
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &ContactRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Contact, models.ContactFilter](db),
	}
}

func (r *ContactRepositoryImpl) ByIDAndUser(ctx context.Context, id, userID uint) (*models.Contact, error) {
	db := r.getDB(ctx)

	var contact models.Contact
	err := db.Where("id = ? AND user_id = ?", id, userID).First(&contact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find contact %d: %w", id, err)
	}

	return &contact, nil
}

func (r *ContactRepositoryImpl) ByUserAndEmail(ctx context.Context, userID uint, email string) (*models.Contact, error) {
	filter := models.ContactFilter{UserID: &userID, Email: &email}
	contacts, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find contact by email: %w", err)
	}

	if len(contacts) == 0 {
		return nil, nil
	}

	return contacts[0], nil
}

// ListByUser retrieves the user's contacts, newest first
func (r *ContactRepositoryImpl) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Contact, error) {
	filter := models.ContactFilter{UserID: &userID}
	return r.ByFilter(ctx, filter, "created_at DESC, id DESC", limit, offset)
}

// Update persists name, email and message of an existing contact
func (r *ContactRepositoryImpl) Update(ctx context.Context, contact *models.Contact) error {
	contact.UpdatedAt = utils.UTCNow()

	return r.write(ctx, func(db *gorm.DB) error {
		err := db.Model(&models.Contact{}).
			Where("id = ? AND user_id = ?", contact.ID, contact.UserID).
			Updates(map[string]any{
				"name":       contact.Name,
				"email":      contact.Email,
				"message":    contact.Message,
				"updated_at": contact.UpdatedAt,
			}).Error
		if err != nil {
			return fmt.Errorf("failed to update contact %d: %w", contact.ID, err)
		}
		return nil
	})
}

func (r *ContactRepositoryImpl) DeleteByIDAndUser(ctx context.Context, id, userID uint) (bool, error) {
	var deleted bool
	err := r.write(ctx, func(db *gorm.DB) error {
		result := db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Contact{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete contact %d: %w", id, result.Error)
		}
		deleted = result.RowsAffected > 0
		return nil
	})

	return deleted, err
}

// ByFilter retrieves contacts based on filter criteria
func (r *ContactRepositoryImpl) ByFilter(ctx context.Context, filter models.ContactFilter, orderBy string, limit, offset int) ([]*models.Contact, error) {
	db := r.getDB(ctx)

	var contacts []*models.Contact
	query := paginate(r.applyFilter(db, filter), orderBy, limit, offset)

	if err := query.Find(&contacts).Error; err != nil {
		return nil, err
	}

	return contacts, nil
}

func (r *ContactRepositoryImpl) Count(ctx context.Context, filter models.ContactFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	err := r.applyFilter(db.Model(&models.Contact{}), filter).Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *ContactRepositoryImpl) applyFilter(db *gorm.DB, filter models.ContactFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.Email != nil {
		db = db.Where("email = ?", *filter.Email)
	}

	return db
}
