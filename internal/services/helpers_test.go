package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-mindcare-backend/internal/domain"
	"github.com/tbourn/go-mindcare-backend/internal/llm"
	"github.com/tbourn/go-mindcare-backend/internal/repo"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// fixedNow is the reference instant used across service tests.
var fixedNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

// clock is a manually advanced time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(t time.Time) *clock { return &clock{t: t} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// seedUser inserts a user with the given counter state.
func seedUser(t *testing.T, db *gorm.DB, id string, sent int, lastReset string) {
	t.Helper()
	if _, err := repo.CreateUser(context.Background(), db, id, id, fixedNow); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	err := db.Model(&domain.User{}).Where("id = ?", id).UpdateColumns(map[string]any{
		"messages_sent_today": sent,
		"last_reset_date":     lastReset,
	}).Error
	if err != nil {
		t.Fatalf("seed counter: %v", err)
	}
}

func sentToday(t *testing.T, db *gorm.DB, id string) int {
	t.Helper()
	var u domain.User
	if err := db.Where("id = ?", id).First(&u).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	return u.MessagesSentToday
}

// seedPlan gives userID a plan purchase with the given status and window.
func seedPlan(t *testing.T, db *gorm.DB, userID string, limit int, status string, start, end time.Time) {
	t.Helper()
	ctx := context.Background()
	p, err := repo.CreatePlan(ctx, db, fmt.Sprintf("plan-%d", limit), limit, 30)
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if _, err := repo.CreateTransaction(ctx, db, userID, p.ID, status, start, end); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
}

// fakeProvider answers from a script and records every prompt it receives.
type fakeProvider struct {
	mu      sync.Mutex
	prompts [][]llm.Message
	params  []llm.Params

	answer func(call int, msgs []llm.Message) (string, error)
	block  bool // wait for ctx cancellation instead of answering
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, msgs []llm.Message, p llm.Params) (string, error) {
	f.mu.Lock()
	cp := make([]llm.Message, len(msgs))
	copy(cp, msgs)
	f.prompts = append(f.prompts, cp)
	f.params = append(f.params, p)
	call := len(f.prompts)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.answer == nil {
		return fmt.Sprintf("reply %d", call), nil
	}
	return f.answer(call, msgs)
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeProvider) lastPrompt() []llm.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return nil
	}
	return f.prompts[len(f.prompts)-1]
}
