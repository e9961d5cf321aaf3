package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/Orochi-CRM/models"
	"github.com/amirphl/Orochi-CRM/utils"
	"gorm.io/gorm"
)

// CampaignRepositoryImpl implements the CampaignRepository interface
type CampaignRepositoryImpl struct {
	*BaseRepository[models.Campaign, models.CampaignFilter]
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &CampaignRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Campaign, models.CampaignFilter](db),
	}
}

// ByIDAndUser retrieves an owned campaign with its activity log, oldest entry first
func (r *CampaignRepositoryImpl) ByIDAndUser(ctx context.Context, id, userID uint) (*models.Campaign, error) {
	db := r.getDB(ctx)

	var campaign models.Campaign
	err := db.Where("id = ? AND user_id = ?", id, userID).
		Preload("Logs", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		First(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find campaign %d: %w", id, err)
	}

	return &campaign, nil
}

// ListByUser retrieves the user's campaigns, newest first
func (r *CampaignRepositoryImpl) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Campaign, error) {
	filter := models.CampaignFilter{UserID: &userID}
	return r.ByFilter(ctx, filter, "created_at DESC, id DESC", limit, offset)
}

func (r *CampaignRepositoryImpl) Finalize(ctx context.Context, id uint, sentCount int, status models.CampaignStatus) (bool, error) {
	if !models.CampaignStatusProcessing.CanTransitionTo(status) {
		return false, fmt.Errorf("invalid final campaign status %q", status)
	}

	var updated bool
	err := r.write(ctx, func(db *gorm.DB) error {
		result := db.Model(&models.Campaign{}).
			Where("id = ? AND status = ?", id, models.CampaignStatusProcessing).
			Updates(map[string]any{
				"status":     status,
				"sent_count": sentCount,
				"updated_at": utils.UTCNow(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to finalize campaign %d: %w", id, result.Error)
		}
		updated = result.RowsAffected > 0
		return nil
	})

	return updated, err
}

func (r *CampaignRepositoryImpl) DeleteByIDAndUser(ctx context.Context, id, userID uint) (bool, error) {
	var deleted bool
	err := r.write(ctx, func(db *gorm.DB) error {
		result := db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Campaign{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete campaign %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}
		deleted = true

		if err := db.Where("campaign_id = ?", id).Delete(&models.AutomationLog{}).Error; err != nil {
			return fmt.Errorf("failed to delete logs of campaign %d: %w", id, err)
		}
		return nil
	})

	return deleted, err
}

// ByFilter retrieves campaigns based on filter criteria
func (r *CampaignRepositoryImpl) ByFilter(ctx context.Context, filter models.CampaignFilter, orderBy string, limit, offset int) ([]*models.Campaign, error) {
	db := r.getDB(ctx)

	var campaigns []*models.Campaign
	query := paginate(r.applyFilter(db, filter), orderBy, limit, offset)

	if err := query.Find(&campaigns).Error; err != nil {
		return nil, err
	}

	return campaigns, nil
}

// Count returns the number of campaigns matching the filter
func (r *CampaignRepositoryImpl) Count(ctx context.Context, filter models.CampaignFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var campaign models.Campaign
	query := r.applyFilter(db.Model(&campaign), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *CampaignRepositoryImpl) applyFilter(db *gorm.DB, filter models.CampaignFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.ScheduleType != nil {
		db = db.Where("schedule_type = ?", *filter.ScheduleType)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", *filter.CreatedBefore)
	}

	return db
}
