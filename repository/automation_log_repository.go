package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/Orochi-CRM/models"
	"gorm.io/gorm"
)

// AutomationLogRepositoryImpl implements AutomationLogRepository. It only ever inserts.
type AutomationLogRepositoryImpl struct {
	*BaseRepository[models.AutomationLog, models.AutomationLogFilter]
}

// NewAutomationLogRepository creates a new automation log repository
func NewAutomationLogRepository(db *gorm.DB) AutomationLogRepository {
	return &AutomationLogRepositoryImpl{
		BaseRepository: NewBaseRepository[models.AutomationLog, models.AutomationLogFilter](db),
	}
}

func (r *AutomationLogRepositoryImpl) ListByCampaign(ctx context.Context, campaignID uint) ([]*models.AutomationLog, error) {
	filter := models.AutomationLogFilter{CampaignID: &campaignID}
	logs, err := r.ByFilter(ctx, filter, "created_at ASC, id ASC", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs by campaign: %w", err)
	}
	return logs, nil
}

func (r *AutomationLogRepositoryImpl) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.AutomationLog, error) {
	filter := models.AutomationLogFilter{UserID: &userID}
	logs, err := r.ByFilter(ctx, filter, "created_at DESC, id DESC", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs by user: %w", err)
	}
	return logs, nil
}

// ByFilter retrieves automation logs based on filter criteria
func (r *AutomationLogRepositoryImpl) ByFilter(ctx context.Context, filter models.AutomationLogFilter, orderBy string, limit, offset int) ([]*models.AutomationLog, error) {
	db := r.getDB(ctx)

	var logs []*models.AutomationLog
	query := paginate(r.applyFilter(db, filter), orderBy, limit, offset)

	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}

	return logs, nil
}

func (r *AutomationLogRepositoryImpl) Count(ctx context.Context, filter models.AutomationLogFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	err := r.applyFilter(db.Model(&models.AutomationLog{}), filter).Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *AutomationLogRepositoryImpl) applyFilter(db *gorm.DB, filter models.AutomationLogFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.CampaignID != nil {
		db = db.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}

	return db
}
