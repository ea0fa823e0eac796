// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-mindcare-backend/internal/domain"
)

// NewMessage describes a message to insert.
type NewMessage struct {
	SenderType string
	Content    string
	IsCrisis   bool
	SentAt     time.Time
}

// CreateMessages inserts msgs into conversationID in one transaction and
// bumps the conversation's UpdatedAt to the last SentAt.
func CreateMessages(ctx context.Context, db *gorm.DB, conversationID string, msgs ...NewMessage) ([]domain.Message, error) {
	if len(msgs) == 0 {
		return nil, nil
	}
	out := make([]domain.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, domain.Message{
			ID:             uuid.NewString(),
			ConversationID: conversationID,
			SenderType:     m.SenderType,
			Content:        m.Content,
			IsCrisis:       m.IsCrisis,
			SentAt:         m.SentAt.UTC(),
		})
	}
	last := out[len(out)-1].SentAt

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&out).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Conversation{}).
			Where("id = ?", conversationID).
			UpdateColumn("updated_at", last).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListMessages returns live messages ordered deterministically (SentAt ASC, ID ASC).
func ListMessages(ctx context.Context, db *gorm.DB, conversationID string) ([]domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Where("conversation_id = ? AND is_deleted = ?", conversationID, false).
		Order("sent_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// LatestMessages returns the most recent live message of each conversation
// in ids, keyed by conversation id. Conversations without messages are absent.
func LatestMessages(ctx context.Context, db *gorm.DB, ids []string) (map[string]domain.Message, error) {
	out := make(map[string]domain.Message, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.Message
	err := db.WithContext(ctx).
		Where("conversation_id IN ? AND is_deleted = ?", ids, false).
		Where(`id = (SELECT m2.id FROM messages m2
			WHERE m2.conversation_id = messages.conversation_id AND m2.is_deleted = ?
			ORDER BY m2.sent_at DESC, m2.id DESC LIMIT 1)`, false).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, m := range rows {
		out[m.ConversationID] = m
	}
	return out, nil
}

// ListCrisisMessages returns crisis-flagged user messages in userID's live
// conversations sent at or after since, newest first, capped at limit.
func ListCrisisMessages(ctx context.Context, db *gorm.DB, userID string, since time.Time, limit int) ([]domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Select("messages.*").
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("conversations.user_id = ? AND conversations.is_deleted = ?", userID, false).
		Where("messages.is_crisis = ? AND messages.is_deleted = ? AND messages.sent_at >= ?", true, false, since.UTC()).
		Order("messages.sent_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
