package businessflow

import (
	"context"
	"fmt"

	"github.com/amirphl/Orochi-CRM/repository"
	"gorm.io/gorm"
)

// CreditSummary is the accumulated balance of succeeded payments
type CreditSummary struct {
	EmailSendCredits         int
	EmailVerificationCredits int
}

// CreditLedger owns every read and write of send credits
type CreditLedger interface {
	// ComputeAvailable is the user's base allowance plus the send credits of succeeded payments
	ComputeAvailable(ctx context.Context, userID uint) (int, error)
	// Deduct consumes credits oldest payment first, then from the base allowance, and returns the new total.
	// Amounts larger than the balance are clamped.
	Deduct(ctx context.Context, userID uint, amount int) (int, error)
	Summary(ctx context.Context, userID uint) (*CreditSummary, error)
}

// CreditLedgerImpl implements CreditLedger on top of the payment and user repositories
type CreditLedgerImpl struct {
	userRepo    repository.UserRepository
	paymentRepo repository.PaymentRepository
	db          *gorm.DB
}

// NewCreditLedger creates a new credit ledger
func NewCreditLedger(userRepo repository.UserRepository, paymentRepo repository.PaymentRepository, db *gorm.DB) CreditLedger {
	return &CreditLedgerImpl{
		userRepo:    userRepo,
		paymentRepo: paymentRepo,
		db:          db,
	}
}

func (l *CreditLedgerImpl) ComputeAvailable(ctx context.Context, userID uint) (int, error) {
	user, err := l.userRepo.ByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, ErrUserNotFound
	}

	sendCredits, _, err := l.paymentRepo.SumSucceededCredits(ctx, userID)
	if err != nil {
		return 0, err
	}

	return max(user.EmailLimit, 0) + sendCredits, nil
}

func (l *CreditLedgerImpl) Deduct(ctx context.Context, userID uint, amount int) (int, error) {
	var remaining int

	err := repository.WithTransaction(ctx, l.db, func(txCtx context.Context) error {
		user, err := l.userRepo.ByIDForUpdate(txCtx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		payments, err := l.paymentRepo.ListSucceededByUser(txCtx, userID, true)
		if err != nil {
			return err
		}

		toDeduct := max(amount, 0)
		paymentTotal := 0

		for _, p := range payments {
			current := max(p.EmailSendCredits, 0)
			take := min(current, toDeduct)
			if take > 0 {
				if err := l.paymentRepo.UpdateEmailSendCredits(txCtx, p.ID, current-take); err != nil {
					return err
				}
				toDeduct -= take
			}
			paymentTotal += current - take
		}

		emailLimit := max(user.EmailLimit-toDeduct, 0)
		if emailLimit != user.EmailLimit {
			if err := l.userRepo.UpdateEmailLimit(txCtx, userID, emailLimit); err != nil {
				return err
			}
		}

		remaining = paymentTotal + emailLimit
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to deduct credits: %w", err)
	}

	return remaining, nil
}

func (l *CreditLedgerImpl) Summary(ctx context.Context, userID uint) (*CreditSummary, error) {
	send, verification, err := l.paymentRepo.SumSucceededCredits(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &CreditSummary{
		EmailSendCredits:         send,
		EmailVerificationCredits: verification,
	}, nil
}
