// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file covers subscription plans and the purchase
// transactions that entitle a user to extra daily messages.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-mindcare-backend/internal/domain"
)

// CreatePlan inserts a subscription plan.
func CreatePlan(ctx context.Context, db *gorm.DB, name string, dailyLimit, durationDays int) (*domain.SubscriptionPlan, error) {
	p := &domain.SubscriptionPlan{
		ID:                uuid.NewString(),
		Name:              name,
		DailyMessageLimit: dailyLimit,
		DurationDays:      durationDays,
		CreatedAt:         time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// CreateTransaction records a plan purchase with the given status and window.
func CreateTransaction(ctx context.Context, db *gorm.DB, userID, planID, status string, start, end time.Time) (*domain.Transaction, error) {
	now := time.Now().UTC()
	tx := &domain.Transaction{
		ID:            uuid.NewString(),
		UserID:        userID,
		PlanID:        planID,
		PaymentStatus: status,
		StartDate:     start.UTC(),
		EndDate:       end.UTC(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := db.WithContext(ctx).Create(tx).Error; err != nil {
		return nil, err
	}
	return tx, nil
}

// ListPaidTransactions returns userID's confirmed transactions with their
// plan loaded, newest start first. Window filtering is left to the caller so
// that a single clock decides what is active.
func ListPaidTransactions(ctx context.Context, db *gorm.DB, userID string) ([]domain.Transaction, error) {
	var out []domain.Transaction
	err := db.WithContext(ctx).
		Preload("Plan").
		Where("user_id = ? AND payment_status = ?", userID, domain.PaymentPaid).
		Order("start_date DESC, id DESC").
		Find(&out).Error
	return out, err
}
