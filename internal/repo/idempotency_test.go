package repo

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGetIdempotency_EmptyConversation(t *testing.T) {
	db := newTestDB(t, true)
	if _, err := GetIdempotency(context.Background(), db, "u1", "  ", "k", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestIdempotency_CreateGetDuplicateExpire(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, true)

	rec, err := CreateIdempotency(ctx, db, "u1", "c1", "k1", 200, []byte(`{"text":"hi"}`), time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID == "" || !rec.ExpiresAt.After(rec.CreatedAt) {
		t.Fatalf("unexpected record: %+v", rec)
	}

	got, err := GetIdempotency(ctx, db, "u1", "c1", "k1", time.Now())
	if err != nil || string(got.Body) != `{"text":"hi"}` || got.Status != 200 {
		t.Fatalf("get: %+v err=%v", got, err)
	}
	if _, err := GetIdempotency(ctx, db, "u2", "c1", "k1", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other user must not see the record, got %v", err)
	}

	if _, err := CreateIdempotency(ctx, db, "u1", "c1", "k1", 200, []byte(`{}`), time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("want ErrDuplicate, got %v", err)
	}

	later := time.Now().Add(2 * time.Hour)
	if _, err := GetIdempotency(ctx, db, "u1", "c1", "k1", later); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired record should be ErrNotFound, got %v", err)
	}
	n, err := PurgeExpiredIdempotency(ctx, db, later)
	if err != nil || n != 1 {
		t.Fatalf("purge: n=%d err=%v", n, err)
	}
}

func TestCreateIdempotency_ReplacesExpired(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, true)
	if _, err := CreateIdempotency(ctx, db, "u1", "c1", "k1", 200, []byte(`{"v":1}`), time.Nanosecond); err != nil {
		t.Fatalf("create: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := CreateIdempotency(ctx, db, "u1", "c1", "k1", 200, []byte(`{"v":2}`), time.Hour); err != nil {
		t.Fatalf("re-create after expiry: %v", err)
	}
	got, err := GetIdempotency(ctx, db, "u1", "c1", "k1", time.Now())
	if err != nil || string(got.Body) != `{"v":2}` {
		t.Fatalf("expected fresh record, got %+v err=%v", got, err)
	}
}
