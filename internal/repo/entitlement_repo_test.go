package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/go-mindcare-backend/internal/domain"
)

func TestListPaidTransactions_PreloadsPlanAndFiltersStatus(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, true)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	_, _ = CreateUser(ctx, db, "u1", "An", now)
	premium, err := CreatePlan(ctx, db, "Premium", 50, 30)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	basic, _ := CreatePlan(ctx, db, "Basic", 10, 30)

	_, _ = CreateTransaction(ctx, db, "u1", premium.ID, domain.PaymentPaid, now, now.AddDate(0, 0, 30))
	_, _ = CreateTransaction(ctx, db, "u1", basic.ID, domain.PaymentPaid, now.AddDate(0, -2, 0), now.AddDate(0, -1, 0))
	_, _ = CreateTransaction(ctx, db, "u1", premium.ID, domain.PaymentPending, now, now.AddDate(0, 0, 30))
	_, _ = CreateTransaction(ctx, db, "u2", premium.ID, domain.PaymentPaid, now, now.AddDate(0, 0, 30))

	got, err := ListPaidTransactions(ctx, db, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 paid transactions, got %d", len(got))
	}
	if got[0].Plan.Name != "Premium" || got[0].Plan.DailyMessageLimit != 50 {
		t.Fatalf("plan not preloaded or wrong order: %+v", got[0])
	}
	if got[1].Plan.Name != "Basic" {
		t.Fatalf("unexpected second transaction: %+v", got[1])
	}
	if !got[0].ActiveAt(now.AddDate(0, 0, 1)) || got[1].ActiveAt(now) {
		t.Fatalf("ActiveAt disagrees with stored windows")
	}
}
