package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/Orochi-CRM/models"
	"github.com/amirphl/Orochi-CRM/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserSessionRepositoryImpl implements UserSessionRepository interface
type UserSessionRepositoryImpl struct {
	*BaseRepository[models.UserSession, models.UserSessionFilter]
}

// NewUserSessionRepository creates a new user session repository
func NewUserSessionRepository(db *gorm.DB) UserSessionRepository {
	return &UserSessionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.UserSession, models.UserSessionFilter](db),
	}
}

func (r *UserSessionRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.UserSession, error) {
	filter := models.UserSessionFilter{UUID: &id}
	sessions, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find session by uuid: %w", err)
	}

	if len(sessions) == 0 {
		return nil, nil
	}

	return sessions[0], nil
}

// ListActiveByUser retrieves all active, unexpired sessions for a user
func (r *UserSessionRepositoryImpl) ListActiveByUser(ctx context.Context, userID uint) ([]*models.UserSession, error) {
	db := r.getDB(ctx)

	var sessions []*models.UserSession
	err := db.Where("user_id = ? AND is_active = ? AND expires_at > ?", userID, true, utils.UTCNow()).
		Order("last_accessed_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions by user: %w", err)
	}

	return sessions, nil
}

func (r *UserSessionRepositoryImpl) Touch(ctx context.Context, sessionID uint) error {
	return r.write(ctx, func(db *gorm.DB) error {
		return db.Model(&models.UserSession{}).
			Where("id = ?", sessionID).
			Update("last_accessed_at", utils.UTCNow()).Error
	})
}

func (r *UserSessionRepositoryImpl) Deactivate(ctx context.Context, sessionID, userID uint) (bool, error) {
	var revoked bool
	err := r.write(ctx, func(db *gorm.DB) error {
		result := db.Model(&models.UserSession{}).
			Where("id = ? AND user_id = ? AND is_active = ?", sessionID, userID, true).
			Update("is_active", false)
		if result.Error != nil {
			return fmt.Errorf("failed to deactivate session %d: %w", sessionID, result.Error)
		}
		revoked = result.RowsAffected > 0
		return nil
	})

	return revoked, err
}

// ByFilter retrieves sessions based on filter criteria
func (r *UserSessionRepositoryImpl) ByFilter(ctx context.Context, filter models.UserSessionFilter, orderBy string, limit, offset int) ([]*models.UserSession, error) {
	db := r.getDB(ctx)

	var sessions []*models.UserSession
	query := paginate(r.applyFilter(db, filter), orderBy, limit, offset)

	if err := query.Find(&sessions).Error; err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *UserSessionRepositoryImpl) Count(ctx context.Context, filter models.UserSessionFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	err := r.applyFilter(db.Model(&models.UserSession{}), filter).Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *UserSessionRepositoryImpl) applyFilter(db *gorm.DB, filter models.UserSessionFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}

	return db
}
