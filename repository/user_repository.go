package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/Orochi-CRM/models"
	"github.com/amirphl/Orochi-CRM/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepositoryImpl implements UserRepository interface
type UserRepositoryImpl struct {
	*BaseRepository[models.User, models.UserFilter]
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{
		BaseRepository: NewBaseRepository[models.User, models.UserFilter](db),
	}
}

// ByEmail retrieves a user by normalized email address
func (r *UserRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.User, error) {
	normalized := utils.NormalizeEmail(email)
	filter := models.UserFilter{Email: &normalized}
	users, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	if len(users) == 0 {
		return nil, nil
	}

	return users[0], nil
}

func (r *UserRepositoryImpl) ByIDForUpdate(ctx context.Context, id uint) (*models.User, error) {
	db := r.getDB(ctx)

	var user models.User
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock user %d: %w", id, err)
	}

	return &user, nil
}

func (r *UserRepositoryImpl) UpdateEmailLimit(ctx context.Context, userID uint, emailLimit int) error {
	return r.write(ctx, func(db *gorm.DB) error {
		err := db.Model(&models.User{}).
			Where("id = ?", userID).
			Updates(map[string]any{
				"email_limit": emailLimit,
				"updated_at":  utils.UTCNow(),
			}).Error
		if err != nil {
			return fmt.Errorf("failed to update email limit: %w", err)
		}
		return nil
	})
}

func (r *UserRepositoryImpl) UpdateLastLogin(ctx context.Context, userID uint) error {
	return r.write(ctx, func(db *gorm.DB) error {
		return db.Model(&models.User{}).
			Where("id = ?", userID).
			Update("last_login_at", utils.UTCNow()).Error
	})
}

// ByFilter retrieves users based on filter criteria
func (r *UserRepositoryImpl) ByFilter(ctx context.Context, filter models.UserFilter, orderBy string, limit, offset int) ([]*models.User, error) {
	db := r.getDB(ctx)

	var users []*models.User
	query := paginate(r.applyFilter(db, filter), orderBy, limit, offset)

	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

// Count returns the number of users matching the filter
func (r *UserRepositoryImpl) Count(ctx context.Context, filter models.UserFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	err := r.applyFilter(db.Model(&models.User{}), filter).Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *UserRepositoryImpl) applyFilter(db *gorm.DB, filter models.UserFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.Email != nil {
		db = db.Where("email = ?", *filter.Email)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}

	return db
}
