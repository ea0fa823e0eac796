package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tbourn/go-mindcare-backend/internal/config"
)

func exchange(i int) []Turn {
	at := time.Date(2025, 1, 1, 0, 0, i, 0, time.UTC)
	return []Turn{
		{Role: RoleUser, Text: fmt.Sprintf("u%d", i), At: at},
		{Role: RoleAssistant, Text: fmt.Sprintf("a%d", i), At: at.Add(time.Millisecond)},
	}
}

func TestMemoryStore_CapsAtMaxTurnsFIFO(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(DefaultMaxTurns, time.Hour)

	for i := 1; i <= 11; i++ {
		if err := m.Append(ctx, "s1", exchange(i)...); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	got, err := m.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 20 {
		t.Fatalf("len = %d; want 20", len(got))
	}
	for _, turn := range got {
		if turn.Text == "u1" || turn.Text == "a1" {
			t.Fatalf("oldest exchange should have been evicted: %+v", got)
		}
	}
	if got[0].Text != "u2" || got[19].Text != "a11" {
		t.Fatalf("unexpected order: first=%q last=%q", got[0].Text, got[19].Text)
	}
}

func TestMemoryStore_GetReturnsCopyAndEmptyForUnknown(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(0, 0)
	if m.maxTurns != DefaultMaxTurns {
		t.Fatalf("maxTurns fallback = %d", m.maxTurns)
	}

	if got, err := m.Get(ctx, "nobody"); err != nil || len(got) != 0 {
		t.Fatalf("unknown session: got=%v err=%v", got, err)
	}

	_ = m.Append(ctx, "s", exchange(1)...)
	got, _ := m.Get(ctx, "s")
	got[0].Text = "mutated"
	again, _ := m.Get(ctx, "s")
	if again[0].Text != "u1" {
		t.Fatalf("Get must return a copy")
	}

	if err := m.Append(ctx, "s"); err != nil {
		t.Fatalf("empty append: %v", err)
	}
	if err := m.Clear(ctx, "s"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got, _ := m.Get(ctx, "s"); len(got) != 0 {
		t.Fatalf("expected cleared session")
	}
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestMemoryStore_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(4, 0)
	_ = m.Append(ctx, "a", exchange(1)...)
	_ = m.Append(ctx, "b", exchange(2)...)

	a, _ := m.Get(ctx, "a")
	b, _ := m.Get(ctx, "b")
	if len(a) != 2 || len(b) != 2 || a[0].Text != "u1" || b[0].Text != "u2" {
		t.Fatalf("sessions leaked: a=%v b=%v", a, b)
	}
	if m.Len() != 2 {
		t.Fatalf("Len = %d; want 2", m.Len())
	}
}

func TestMemoryStore_ConcurrentAppendsKeepPairsTogether(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(1000, 0)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = m.Append(ctx, "shared", exchange(i)...)
		}(i)
	}
	wg.Wait()

	got, _ := m.Get(ctx, "shared")
	if len(got) != 2*n {
		t.Fatalf("lost turns: len=%d want %d", len(got), 2*n)
	}
	for i := 0; i < len(got); i += 2 {
		u, a := got[i], got[i+1]
		if u.Role != RoleUser || a.Role != RoleAssistant || "a"+u.Text[1:] != a.Text {
			t.Fatalf("pair split at %d: %+v %+v", i, u, a)
		}
	}
}

func TestMemoryStore_IdleSessionsSwept(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(DefaultMaxTurns, time.Minute)
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	_ = m.Append(ctx, "old", exchange(1)...)
	sh := m.shardFor("old")

	clock = clock.Add(2 * time.Minute)
	sh.appends = gcEvery - 1
	_ = m.Append(ctx, "old", exchange(2)...)

	got, _ := m.Get(ctx, "old")
	if len(got) != 2 || got[0].Text != "u2" {
		t.Fatalf("stale session should be evicted before append: %+v", got)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.HistoryConfig{Driver: "memory", MaxTurns: 6, IdleTTL: time.Hour})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if ms, ok := s.(*MemoryStore); !ok || ms.maxTurns != 6 {
		t.Fatalf("unexpected store %T", s)
	}

	if _, err := Open(ctx, config.HistoryConfig{Driver: "etcd"}); !errors.Is(err, ErrInvalidDriver) {
		t.Fatalf("want ErrInvalidDriver, got %v", err)
	}

	tctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, err := Open(tctx, config.HistoryConfig{Driver: "redis", RedisAddr: "127.0.0.1:1"}); err == nil {
		t.Fatalf("expected ping failure for unreachable redis")
	}
}

func TestKeepLast(t *testing.T) {
	ts := exchange(1)
	if got := keepLast(ts, 5); len(got) != 2 {
		t.Fatalf("keepLast under cap changed length")
	}
	if got := keepLast(ts, 1); len(got) != 1 || got[0].Text != "a1" {
		t.Fatalf("keepLast(1) = %+v", got)
	}
}
