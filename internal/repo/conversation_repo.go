// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Conversation model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only
// persistence and query composition.
//
// Ownership is part of every query: a conversation owned by another user is
// indistinguishable from a missing one, and both surface as ErrNotFound.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-mindcare-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateConversation inserts a new conversation owned by userID.
func CreateConversation(ctx context.Context, db *gorm.DB, userID, title string, now time.Time) (*domain.Conversation, error) {
	c := &domain.Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// CountConversations returns the number of live conversations owned by userID.
func CountConversations(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Count(&total).Error
	return total, err
}

// ListConversationsPage returns live conversations for userID, newest first.
// A limit <= 0 returns every row.
func ListConversationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Conversation, error) {
	var out []domain.Conversation
	q := db.WithContext(ctx).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// GetConversation fetches a live conversation by id and owner.
func GetConversation(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Conversation, error) {
	var c domain.Conversation
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND is_deleted = ?", id, userID, false).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SoftDeleteConversation flags the conversation as deleted. Deleting an
// already-deleted conversation succeeds; a conversation that does not exist
// or belongs to someone else yields ErrNotFound.
func SoftDeleteConversation(ctx context.Context, db *gorm.DB, id, userID string, now time.Time) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c domain.Conversation
		if err := tx.Select("id", "is_deleted").
			Where("id = ? AND user_id = ?", id, userID).
			First(&c).Error; err != nil {
			return err
		}
		if c.IsDeleted {
			return nil
		}
		return tx.Model(&domain.Conversation{}).
			Where("id = ?", id).
			Updates(map[string]any{"is_deleted": true, "updated_at": now.UTC()}).Error
	})
}

// TouchConversation bumps UpdatedAt, which feeds the list ETag.
func TouchConversation(ctx context.Context, db *gorm.DB, id string, now time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", now.UTC()).Error
}

// ListConversationsSince returns conversations userID created at or after
// since (deleted ones excluded), newest first, capped at limit.
func ListConversationsSince(ctx context.Context, db *gorm.DB, userID string, since time.Time, limit int) ([]domain.Conversation, error) {
	var out []domain.Conversation
	err := db.WithContext(ctx).
		Where("user_id = ? AND is_deleted = ? AND created_at >= ?", userID, false, since.UTC()).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
