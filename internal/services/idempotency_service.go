// Package services – IdempotencyService
//
// This file stores and replays the responses of conversation-bound sends
// keyed by (user, conversation, Idempotency-Key), so a retried request does
// not consume quota or call the provider a second time.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-mindcare-backend/internal/domain"
	"github.com/tbourn/go-mindcare-backend/internal/repo"
)

// DefaultIdempotencyTTL is how long a stored response can be replayed.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyService persists replayable responses.
type IdempotencyService struct {
	DB  *gorm.DB
	TTL time.Duration

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// NewIdempotencyService returns a service whose records live for ttl
// (DefaultIdempotencyTTL when ttl <= 0).
func NewIdempotencyService(db *gorm.DB, ttl time.Duration) *IdempotencyService {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyService{DB: db, TTL: ttl}
}

func (s *IdempotencyService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Lookup returns the live record for the tuple, or nil when there is none.
func (s *IdempotencyService) Lookup(ctx context.Context, userID, conversationID, key string) (*domain.Idempotency, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, userID, conversationID, key, s.now())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

// Exists reports whether a live record exists at now.
func (s *IdempotencyService) Exists(ctx context.Context, userID, conversationID, key string, now time.Time) (bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, userID, conversationID, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return rec != nil, err
}

// Save stores a response. A concurrent save of the same tuple wins and this
// one is dropped silently.
func (s *IdempotencyService) Save(ctx context.Context, userID, conversationID, key string, status int, body []byte) error {
	_, err := repo.CreateIdempotency(ctx, s.DB, userID, conversationID, key, status, body, s.TTL)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// Purge removes expired records.
func (s *IdempotencyService) Purge(ctx context.Context) (int64, error) {
	return repo.PurgeExpiredIdempotency(ctx, s.DB, s.now())
}
