package history

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix  = "history:"
	defaultRedisTTL = 24 * time.Hour
)

// RedisStore keeps each session as a Redis list of JSON-encoded turns.
// Appends run RPUSH, LTRIM and EXPIRE in one MULTI/EXEC so that concurrent
// appends from different instances never split a pair.
type RedisStore struct {
	client   *redis.Client
	maxTurns int
	ttl      time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps client. ttl is the idle expiry of a session key.
func NewRedisStore(client *redis.Client, maxTurns int, ttl time.Duration) *RedisStore {
	if maxTurns < 1 {
		maxTurns = DefaultMaxTurns
	}
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	return &RedisStore{client: client, maxTurns: maxTurns, ttl: ttl}
}

// Get implements Store. The TTL is refreshed on every read.
func (s *RedisStore) Get(ctx context.Context, sessionID string) ([]Turn, error) {
	key := s.key(sessionID)
	vals, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, nil
	}

	out := make([]Turn, 0, len(vals))
	for _, v := range vals {
		var t Turn
		if err := json.Unmarshal([]byte(v), &t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}

	// A failed refresh only shortens the session's life.
	_ = s.client.Expire(ctx, key, s.ttl).Err()

	return keepLast(out, s.maxTurns), nil
}

// Append implements Store.
func (s *RedisStore) Append(ctx context.Context, sessionID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}
	vals := make([]any, 0, len(turns))
	for _, t := range turns {
		b, err := json.Marshal(t)
		if err != nil {
			return err
		}
		vals = append(vals, string(b))
	}

	key := s.key(sessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, vals...)
		pipe.LTrim(ctx, key, int64(-s.maxTurns), -1)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	return err
}

// Clear implements Store.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(id string) string {
	return redisKeyPrefix + id
}
