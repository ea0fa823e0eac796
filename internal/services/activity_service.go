// Package services – ActivityService
//
// This file merges differently shaped records into one recent-activity feed.
// Each record kind is its own type behind the ActivityItem interface; the feed
// is ordered by the common At timestamp.
package services

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-mindcare-backend/internal/repo"
	"github.com/tbourn/go-mindcare-backend/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Activity kinds.
const (
	KindConversationStarted = "conversation_started"
	KindCrisisFlagged       = "crisis_flagged"
	KindPlanActivated       = "plan_activated"
)

// ActivityItem is one entry of the feed.
type ActivityItem interface {
	Kind() string
	At() time.Time
}

// ConversationStarted records a new conversation.
type ConversationStarted struct {
	ConversationID string    `json:"conversation_id"`
	Title          string    `json:"title"`
	StartedAt      time.Time `json:"started_at"`
}

func (ConversationStarted) Kind() string    { return KindConversationStarted }
func (a ConversationStarted) At() time.Time { return a.StartedAt }

// CrisisFlagged records a user message that matched the crisis screen.
type CrisisFlagged struct {
	ConversationID string    `json:"conversation_id"`
	MessageID      string    `json:"message_id"`
	Excerpt        string    `json:"excerpt"`
	FlaggedAt      time.Time `json:"flagged_at"`
}

func (CrisisFlagged) Kind() string    { return KindCrisisFlagged }
func (a CrisisFlagged) At() time.Time { return a.FlaggedAt }

// PlanActivated records the start of a paid plan.
type PlanActivated struct {
	PlanName          string    `json:"plan_name"`
	DailyMessageLimit int       `json:"daily_message_limit"`
	ActivatedAt       time.Time `json:"activated_at"`
	ExpiresAt         time.Time `json:"expires_at"`
}

func (PlanActivated) Kind() string    { return KindPlanActivated }
func (a PlanActivated) At() time.Time { return a.ActivatedAt }

const (
	// DefaultActivityWindow is how far back Recent looks.
	DefaultActivityWindow = 30 * 24 * time.Hour
	// DefaultActivityLimit caps the feed length.
	DefaultActivityLimit = 20

	excerptRunes = 80
)

// ActivityService builds the recent-activity feed.
type ActivityService struct {
	DB     *gorm.DB
	Window time.Duration

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// NewActivityService returns an ActivityService with the default window.
func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{DB: db, Window: DefaultActivityWindow}
}

// Recent returns up to limit of userID's activities inside the window,
// newest first. limit <= 0 uses DefaultActivityLimit.
func (s *ActivityService) Recent(ctx context.Context, userID string, limit int) ([]ActivityItem, error) {
	tr := otel.Tracer("services/ActivityService")
	ctx, span := tr.Start(ctx, "Recent",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	window := s.Window
	if window <= 0 {
		window = DefaultActivityWindow
	}
	since := now.Add(-window)

	convs, err := repo.ListConversationsSince(ctx, s.DB, userID, since, limit)
	if err != nil {
		return nil, err
	}
	flagged, err := repo.ListCrisisMessages(ctx, s.DB, userID, since, limit)
	if err != nil {
		return nil, err
	}
	txs, err := repo.ListPaidTransactions(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}

	items := make([]ActivityItem, 0, len(convs)+len(flagged)+len(txs))
	for _, c := range convs {
		items = append(items, ConversationStarted{ConversationID: c.ID, Title: c.Title, StartedAt: c.CreatedAt})
	}
	for _, m := range flagged {
		items = append(items, CrisisFlagged{
			ConversationID: m.ConversationID,
			MessageID:      m.ID,
			Excerpt:        utils.Ellipsize(m.Content, excerptRunes),
			FlaggedAt:      m.SentAt,
		})
	}
	for _, tx := range txs {
		if tx.StartDate.Before(since) || tx.StartDate.After(now) {
			continue
		}
		items = append(items, PlanActivated{
			PlanName:          tx.Plan.Name,
			DailyMessageLimit: tx.Plan.DailyMessageLimit,
			ActivatedAt:       tx.StartDate,
			ExpiresAt:         tx.EndDate,
		})
	}

	SortActivities(items)
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// SortActivities orders items newest first; equal timestamps order by kind.
func SortActivities(items []ActivityItem) {
	sort.SliceStable(items, func(i, j int) bool {
		ai, aj := items[i].At(), items[j].At()
		if !ai.Equal(aj) {
			return ai.After(aj)
		}
		return items[i].Kind() < items[j].Kind()
	})
}
