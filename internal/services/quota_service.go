// Package services – QuotaService
//
// This file implements the daily message allowance. Registered users have a
// counter on their user row that resets on the first request of each UTC
// calendar day; their limit is the base allowance plus the limits of every
// paid plan whose window contains the current instant. Guests get a smaller
// fixed allowance tracked in process memory per guest session.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-mindcare-backend/internal/domain"
	"github.com/tbourn/go-mindcare-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Quota is the outcome of an admission attempt or a status read.
type Quota struct {
	Admitted     bool   `json:"admitted"`
	Used         int    `json:"used"`
	Limit        int    `json:"limit"`
	Remaining    int    `json:"remaining"`
	DenialReason string `json:"denial_reason,omitempty"`
}

// denialReason is shown to a user who has used today's allowance.
func denialReason(limit int) string {
	return fmt.Sprintf("Bạn đã dùng hết %d tin nhắn cho hôm nay. Hạn mức sẽ được làm mới vào 0 giờ (UTC) ngày mai, hoặc bạn có thể nâng cấp gói để tiếp tục trò chuyện.", limit)
}

// QuotaService enforces the per-user daily allowance.
type QuotaService struct {
	DB *gorm.DB

	// BaseDailyLimit applies to every registered user before entitlements.
	BaseDailyLimit int

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// NewQuotaService returns a QuotaService with the given base allowance.
func NewQuotaService(db *gorm.DB, baseDailyLimit int) *QuotaService {
	return &QuotaService{DB: db, BaseDailyLimit: baseDailyLimit}
}

func (s *QuotaService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// EffectiveDailyLimit returns the base allowance plus the daily limit of every
// paid plan active right now. Overlapping plans stack.
func (s *QuotaService) EffectiveDailyLimit(ctx context.Context, userID string) (int, error) {
	tr := otel.Tracer("services/QuotaService")
	ctx, span := tr.Start(ctx, "EffectiveDailyLimit",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	return s.limitAt(ctx, userID, s.now())
}

func (s *QuotaService) limitAt(ctx context.Context, userID string, now time.Time) (int, error) {
	txs, err := repo.ListPaidTransactions(ctx, s.DB, userID)
	if err != nil {
		return 0, err
	}
	limit := s.BaseDailyLimit
	for _, tx := range txs {
		if tx.ActiveAt(now) {
			limit += tx.Plan.DailyMessageLimit
		}
	}
	return limit, nil
}

// TryConsume admits one message for userID if today's allowance is not used
// up. A denial is not an error: Admitted is false, Remaining is 0 and
// DenialReason is set. An unknown user yields ErrUserNotFound.
func (s *QuotaService) TryConsume(ctx context.Context, userID string) (Quota, error) {
	tr := otel.Tracer("services/QuotaService")
	ctx, span := tr.Start(ctx, "TryConsume",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	now := s.now()
	limit, err := s.limitAt(ctx, userID, now)
	if err != nil {
		return Quota{}, err
	}

	admitted, count, err := repo.ConsumeDailyMessage(ctx, s.DB, userID, now.Format(domain.DateLayout), limit)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return Quota{}, ErrUserNotFound
		}
		return Quota{}, err
	}
	span.SetAttributes(
		attribute.Bool("quota.admitted", admitted),
		attribute.Int("quota.used", count),
		attribute.Int("quota.limit", limit),
	)

	if !admitted {
		return Quota{Used: count, Limit: limit, DenialReason: denialReason(limit)}, nil
	}
	return Quota{Admitted: true, Used: count, Limit: limit, Remaining: max(limit-count, 0)}, nil
}

// Status reports today's usage without consuming anything.
func (s *QuotaService) Status(ctx context.Context, userID string) (Quota, error) {
	tr := otel.Tracer("services/QuotaService")
	ctx, span := tr.Start(ctx, "Status",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	now := s.now()
	used, err := repo.MessagesSentOn(ctx, s.DB, userID, now.Format(domain.DateLayout))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return Quota{}, ErrUserNotFound
		}
		return Quota{}, err
	}
	limit, err := s.limitAt(ctx, userID, now)
	if err != nil {
		return Quota{}, err
	}
	q := Quota{Used: used, Limit: limit, Remaining: max(limit-used, 0)}
	if q.Remaining == 0 {
		q.DenialReason = denialReason(limit)
	}
	return q, nil
}

// GuestAllowance is the in-memory daily allowance for guest sessions. All
// counters are dropped when the UTC day changes, which bounds memory to the
// sessions seen today.
type GuestAllowance struct {
	Limit int

	// Now is the clock; nil means time.Now.
	Now func() time.Time

	mu   sync.Mutex
	day  string
	used map[string]int
}

// NewGuestAllowance returns an allowance of limit messages per guest session
// per UTC day.
func NewGuestAllowance(limit int) *GuestAllowance {
	return &GuestAllowance{Limit: limit, used: make(map[string]int)}
}

// TryConsume admits one message for the guest session if its allowance is
// not used up.
func (g *GuestAllowance) TryConsume(sessionID string) Quota {
	now := time.Now()
	if g.Now != nil {
		now = g.Now()
	}
	today := now.UTC().Format(domain.DateLayout)

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.day != today || g.used == nil {
		g.day = today
		g.used = make(map[string]int)
	}
	n := g.used[sessionID]
	if n >= g.Limit {
		return Quota{Used: n, Limit: g.Limit, DenialReason: denialReason(g.Limit)}
	}
	n++
	g.used[sessionID] = n
	return Quota{Admitted: true, Used: n, Limit: g.Limit, Remaining: g.Limit - n}
}
