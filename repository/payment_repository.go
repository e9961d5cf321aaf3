package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/Orochi-CRM/models"
	"github.com/amirphl/Orochi-CRM/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentRepositoryImpl implements PaymentRepository interface
type PaymentRepositoryImpl struct {
	*BaseRepository[models.Payment, models.PaymentFilter]
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &PaymentRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Payment, models.PaymentFilter](db),
	}
}

func (r *PaymentRepositoryImpl) ListSucceededByUser(ctx context.Context, userID uint, forUpdate bool) ([]*models.Payment, error) {
	db := r.getDB(ctx)

	query := db.Where("user_id = ? AND status = ?", userID, models.PaymentStatusSucceeded).
		Order("payment_date ASC").
		Order("id ASC")
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var payments []*models.Payment
	if err := query.Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to list succeeded payments: %w", err)
	}

	return payments, nil
}

func (r *PaymentRepositoryImpl) UpdateEmailSendCredits(ctx context.Context, paymentID uint, credits int) error {
	if credits < 0 {
		credits = 0
	}

	return r.write(ctx, func(db *gorm.DB) error {
		err := db.Model(&models.Payment{}).
			Where("id = ?", paymentID).
			Updates(map[string]any{
				"email_send_credits": credits,
				"updated_at":         utils.UTCNow(),
			}).Error
		if err != nil {
			return fmt.Errorf("failed to update payment credits: %w", err)
		}
		return nil
	})
}

func (r *PaymentRepositoryImpl) SumSucceededCredits(ctx context.Context, userID uint) (int, int, error) {
	db := r.getDB(ctx)

	var totals struct {
		SendCredits         int64
		VerificationCredits int64
	}
	err := db.Model(&models.Payment{}).
		Select("COALESCE(SUM(email_send_credits), 0) AS send_credits, COALESCE(SUM(email_verification_credits), 0) AS verification_credits").
		Where("user_id = ? AND status = ?", userID, models.PaymentStatusSucceeded).
		Scan(&totals).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum payment credits: %w", err)
	}

	return int(totals.SendCredits), int(totals.VerificationCredits), nil
}

// ByFilter retrieves payments based on filter criteria
func (r *PaymentRepositoryImpl) ByFilter(ctx context.Context, filter models.PaymentFilter, orderBy string, limit, offset int) ([]*models.Payment, error) {
	db := r.getDB(ctx)

	var payments []*models.Payment
	query := paginate(r.applyFilter(db, filter), orderBy, limit, offset)

	if err := query.Find(&payments).Error; err != nil {
		return nil, err
	}

	return payments, nil
}

// Count returns the number of payments matching the filter
func (r *PaymentRepositoryImpl) Count(ctx context.Context, filter models.PaymentFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	err := r.applyFilter(db.Model(&models.Payment{}), filter).Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *PaymentRepositoryImpl) applyFilter(db *gorm.DB, filter models.PaymentFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}

	return db
}
