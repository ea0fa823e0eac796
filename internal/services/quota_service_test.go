package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-mindcare-backend/internal/domain"
)

func newQuota(t *testing.T, base int) (*QuotaService, *clock) {
	t.Helper()
	clk := newClock(fixedNow)
	s := NewQuotaService(newSvcDB(t), base)
	s.Now = clk.Now
	return s, clk
}

func TestQuota_LastMessageThenDenied(t *testing.T) {
	s, _ := newQuota(t, 5)
	ctx := context.Background()
	today := fixedNow.Format(domain.DateLayout)
	seedUser(t, s.DB, "u1", 4, today)

	q, err := s.TryConsume(ctx, "u1")
	if err != nil {
		t.Fatalf("TryConsume: %v", err)
	}
	if !q.Admitted || q.Remaining != 0 || q.Used != 5 || q.Limit != 5 {
		t.Fatalf("unexpected admission: %+v", q)
	}

	q, err = s.TryConsume(ctx, "u1")
	if err != nil {
		t.Fatalf("TryConsume: %v", err)
	}
	if q.Admitted || q.Remaining != 0 || q.DenialReason == "" {
		t.Fatalf("expected denial with reason, got %+v", q)
	}
	if got := sentToday(t, s.DB, "u1"); got != 5 {
		t.Fatalf("denial must not increment; count=%d", got)
	}
}

func TestQuota_ResetsOnNewUTCDay(t *testing.T) {
	s, _ := newQuota(t, 5)
	yesterday := fixedNow.AddDate(0, 0, -1).Format(domain.DateLayout)
	seedUser(t, s.DB, "u1", 5, yesterday)

	q, err := s.TryConsume(context.Background(), "u1")
	if err != nil {
		t.Fatalf("TryConsume: %v", err)
	}
	if !q.Admitted || q.Used != 1 || q.Remaining != 4 {
		t.Fatalf("expected fresh day admission, got %+v", q)
	}
}

func TestQuota_ResetFollowsUTCDateNotElapsedHours(t *testing.T) {
	s, clk := newQuota(t, 1)
	ctx := context.Background()
	// 23:59 UTC on the 10th, then 00:01 UTC on the 11th.
	clk.t = time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC)
	seedUser(t, s.DB, "u1", 0, "")

	if q, _ := s.TryConsume(ctx, "u1"); !q.Admitted {
		t.Fatalf("first message should pass: %+v", q)
	}
	if q, _ := s.TryConsume(ctx, "u1"); q.Admitted {
		t.Fatalf("second message same day should be denied: %+v", q)
	}
	clk.Advance(2 * time.Minute)
	if q, _ := s.TryConsume(ctx, "u1"); !q.Admitted || q.Used != 1 {
		t.Fatalf("new UTC day should reset: %+v", q)
	}
}

func TestQuota_EffectiveLimitSumsActivePaidPlans(t *testing.T) {
	s, _ := newQuota(t, 10)
	ctx := context.Background()
	seedUser(t, s.DB, "u1", 0, "")

	day := 24 * time.Hour
	seedPlan(t, s.DB, "u1", 20, domain.PaymentPaid, fixedNow.Add(-day), fixedNow.Add(day))
	seedPlan(t, s.DB, "u1", 30, domain.PaymentPaid, fixedNow.Add(-10*day), fixedNow.Add(10*day))
	seedPlan(t, s.DB, "u1", 100, domain.PaymentPending, fixedNow.Add(-day), fixedNow.Add(day))
	seedPlan(t, s.DB, "u1", 200, domain.PaymentPaid, fixedNow.Add(-30*day), fixedNow.Add(-day))
	seedPlan(t, s.DB, "u1", 300, domain.PaymentPaid, fixedNow.Add(day), fixedNow.Add(2*day))
	seedPlan(t, s.DB, "other", 400, domain.PaymentPaid, fixedNow.Add(-day), fixedNow.Add(day))

	got, err := s.EffectiveDailyLimit(ctx, "u1")
	if err != nil {
		t.Fatalf("EffectiveDailyLimit: %v", err)
	}
	if got != 60 {
		t.Fatalf("limit = %d; want 60", got)
	}

	q, err := s.TryConsume(ctx, "u1")
	if err != nil || q.Limit != 60 || q.Remaining != 59 {
		t.Fatalf("TryConsume = %+v, %v", q, err)
	}
}

func TestQuota_PlanWindowIsInclusive(t *testing.T) {
	s, _ := newQuota(t, 1)
	seedUser(t, s.DB, "u1", 0, "")
	seedPlan(t, s.DB, "u1", 4, domain.PaymentPaid, fixedNow, fixedNow)

	got, err := s.EffectiveDailyLimit(context.Background(), "u1")
	if err != nil || got != 5 {
		t.Fatalf("limit = %d, %v; want 5", got, err)
	}
}

func TestQuota_UnknownUserDenied(t *testing.T) {
	s, _ := newQuota(t, 5)
	_, err := s.TryConsume(context.Background(), "ghost")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
	if _, err := s.Status(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Status: want ErrUserNotFound, got %v", err)
	}
}

func TestQuota_StatusDoesNotConsume(t *testing.T) {
	s, _ := newQuota(t, 3)
	ctx := context.Background()
	seedUser(t, s.DB, "u1", 2, fixedNow.Format(domain.DateLayout))

	q, err := s.Status(ctx, "u1")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if q.Used != 2 || q.Limit != 3 || q.Remaining != 1 || q.DenialReason != "" {
		t.Fatalf("unexpected status %+v", q)
	}
	if got := sentToday(t, s.DB, "u1"); got != 2 {
		t.Fatalf("Status wrote the counter: %d", got)
	}

	// A stale counter reads as a fresh day.
	seedUser(t, s.DB, "u2", 3, "2000-01-01")
	q, _ = s.Status(ctx, "u2")
	if q.Used != 0 || q.Remaining != 3 {
		t.Fatalf("stale counter should read as zero: %+v", q)
	}

	seedUser(t, s.DB, "u3", 3, fixedNow.Format(domain.DateLayout))
	q, _ = s.Status(ctx, "u3")
	if q.Remaining != 0 || q.DenialReason == "" {
		t.Fatalf("exhausted status should carry a reason: %+v", q)
	}
}

func TestGuestAllowance(t *testing.T) {
	clk := newClock(fixedNow)
	g := NewGuestAllowance(2)
	g.Now = clk.Now

	if q := g.TryConsume("s1"); !q.Admitted || q.Remaining != 1 {
		t.Fatalf("first: %+v", q)
	}
	if q := g.TryConsume("s1"); !q.Admitted || q.Remaining != 0 {
		t.Fatalf("second: %+v", q)
	}
	if q := g.TryConsume("s1"); q.Admitted || q.DenialReason == "" || q.Remaining != 0 {
		t.Fatalf("third should be denied: %+v", q)
	}
	if q := g.TryConsume("s2"); !q.Admitted {
		t.Fatalf("other session must be independent: %+v", q)
	}

	clk.Advance(24 * time.Hour)
	if q := g.TryConsume("s1"); !q.Admitted || q.Used != 1 {
		t.Fatalf("next day should reset: %+v", q)
	}
}

func TestQuotaError(t *testing.T) {
	err := error(&QuotaError{Reason: "hết lượt", Limit: 5})
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatal("QuotaError must unwrap to ErrQuotaExceeded")
	}
	var qe *QuotaError
	if !errors.As(err, &qe) || qe.Reason != "hết lượt" {
		t.Fatalf("errors.As failed: %v", err)
	}
}
