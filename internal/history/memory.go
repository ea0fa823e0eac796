package history

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const (
	shardCount = 32
	gcEvery    = 1000 // appends per shard between idle sweeps
)

type session struct {
	turns    []Turn
	lastSeen time.Time
}

type shard struct {
	mu       sync.Mutex
	sessions map[string]*session
	appends  uint64
}

// MemoryStore is a process-local Store. Sessions are spread over a fixed set
// of mutex-guarded shards; sessions idle for longer than the TTL are swept
// opportunistically during appends.
//
// This type is safe for concurrent use.
type MemoryStore struct {
	shards   [shardCount]*shard
	maxTurns int
	ttl      time.Duration
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore. maxTurns < 1 falls back to
// DefaultMaxTurns; ttl <= 0 disables idle eviction.
func NewMemoryStore(maxTurns int, ttl time.Duration) *MemoryStore {
	if maxTurns < 1 {
		maxTurns = DefaultMaxTurns
	}
	m := &MemoryStore{maxTurns: maxTurns, ttl: ttl, now: time.Now}
	for i := range m.shards {
		m.shards[i] = &shard{sessions: make(map[string]*session)}
	}
	return m
}

func (m *MemoryStore) shardFor(id string) *shard {
	return m.shards[xxhash.Sum64String(id)%shardCount]
}

// Get returns a copy of the session's turns, oldest first. Unknown sessions
// yield an empty history.
func (m *MemoryStore) Get(_ context.Context, sessionID string) ([]Turn, error) {
	sh := m.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	s, ok := sh.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	s.lastSeen = m.now()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out, nil
}

// Append implements Store.
func (m *MemoryStore) Append(_ context.Context, sessionID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}
	now := m.now()
	sh := m.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	// Sweep before touching the requested session so a stale entry is
	// evicted rather than refreshed.
	sh.appends++
	if m.ttl > 0 && sh.appends >= gcEvery {
		for k, s := range sh.sessions {
			if now.Sub(s.lastSeen) >= m.ttl {
				delete(sh.sessions, k)
			}
		}
		sh.appends = 0
	}

	s, ok := sh.sessions[sessionID]
	if !ok {
		s = &session{}
		sh.sessions[sessionID] = s
	}
	s.turns = keepLast(append(s.turns, turns...), m.maxTurns)
	s.lastSeen = now
	return nil
}

// Clear drops the session's history.
func (m *MemoryStore) Clear(_ context.Context, sessionID string) error {
	sh := m.shardFor(sessionID)
	sh.mu.Lock()
	delete(sh.sessions, sessionID)
	sh.mu.Unlock()
	return nil
}

// Len reports the number of live sessions.
func (m *MemoryStore) Len() int {
	n := 0
	for _, sh := range m.shards {
		sh.mu.Lock()
		n += len(sh.sessions)
		sh.mu.Unlock()
	}
	return n
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }
