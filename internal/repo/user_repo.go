// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file holds the user lookups and the daily message
// counter updates.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-mindcare-backend/internal/domain"
)

// GetUser fetches a user by id, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user with an empty counter.
func CreateUser(ctx context.Context, db *gorm.DB, id, displayName string, now time.Time) (*domain.User, error) {
	u := &domain.User{
		ID:          id,
		DisplayName: displayName,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// ConsumeDailyMessage admits one message for userID against limit on the UTC
// calendar day today (YYYY-MM-DD) and returns the resulting count.
//
// Inside one transaction it:
//  1. resets the counter when the stored day differs from today, so a day
//     written by a clock running ahead cannot lock the user out
//  2. increments the counter only while it is below limit
//  3. reads the counter back, which also detects a missing user
//
// The increment is a single conditional UPDATE, so concurrent callers can
// never push the counter past limit. admitted is false when the row was
// already at or over limit. A missing user yields ErrNotFound.
func ConsumeDailyMessage(ctx context.Context, db *gorm.DB, userID, today string, limit int) (admitted bool, count int, err error) {
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Writes come first so SQLite takes the write lock up front
		// instead of upgrading a read lock mid-transaction.
		if err := tx.Model(&domain.User{}).
			Where("id = ? AND last_reset_date <> ?", userID, today).
			UpdateColumns(map[string]any{
				"messages_sent_today": 0,
				"last_reset_date":     today,
			}).Error; err != nil {
			return err
		}

		res := tx.Model(&domain.User{}).
			Where("id = ? AND last_reset_date = ? AND messages_sent_today < ?", userID, today, limit).
			UpdateColumn("messages_sent_today", gorm.Expr("messages_sent_today + 1"))
		if res.Error != nil {
			return res.Error
		}
		admitted = res.RowsAffected == 1

		var u domain.User
		if err := tx.Select("id", "messages_sent_today").Where("id = ?", userID).First(&u).Error; err != nil {
			return err
		}
		count = u.MessagesSentToday
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	return admitted, count, nil
}

// MessagesSentOn returns the user's counter as it applies to today: a
// counter recorded on any other day reads as zero. Nothing is written.
func MessagesSentOn(ctx context.Context, db *gorm.DB, userID, today string) (int, error) {
	u, err := GetUser(ctx, db, userID)
	if err != nil {
		return 0, err
	}
	if u.LastResetDate != today {
		return 0, nil
	}
	return u.MessagesSentToday, nil
}
