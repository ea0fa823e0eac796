// Package history keeps the short conversational context sent to the
// completion provider with every message. Context is keyed by session id
// (a user id, or a generated guest id) and bounded to the most recent turns;
// older turns are evicted first.
//
// Two drivers are available. MemoryStore lives in process memory and is lost
// on restart. RedisStore shares context between instances and expires idle
// sessions server-side. Neither is a durable record of a conversation; that
// is the job of the conversation store.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tbourn/go-mindcare-backend/internal/config"
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultMaxTurns is ten exchanges.
const DefaultMaxTurns = 20

// ErrInvalidDriver is returned by Open for an unknown driver name.
var ErrInvalidDriver = errors.New("history: invalid driver")

// Turn is one side of an exchange. Turns are values and never change once
// appended.
type Turn struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Store holds per-session context.
//
// Append adds all given turns as one unit: concurrent appends to the same
// session never interleave inside a call, and the stored history is trimmed
// to the newest MaxTurns entries afterwards.
type Store interface {
	Get(ctx context.Context, sessionID string) ([]Turn, error)
	Append(ctx context.Context, sessionID string, turns ...Turn) error
	Clear(ctx context.Context, sessionID string) error
	Close() error
}

// Open builds the Store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.HistoryConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "memory":
		return NewMemoryStore(cfg.MaxTurns, cfg.IdleTTL), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("history: redis ping: %w", err)
		}
		return NewRedisStore(client, cfg.MaxTurns, cfg.IdleTTL), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDriver, cfg.Driver)
	}
}

// keepLast returns the newest n turns of ts in a fresh slice.
func keepLast(ts []Turn, n int) []Turn {
	if len(ts) <= n {
		return ts
	}
	out := make([]Turn, n)
	copy(out, ts[len(ts)-n:])
	return out
}
