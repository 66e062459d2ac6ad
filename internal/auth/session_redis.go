package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisSessionStore is a SessionStore shared by every API instance
type RedisSessionStore struct {
	rdb *redis.Client
}

// NewRedisSessionStore creates a new redis-backed session store
func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func sessionKey(id string) string {
	return fmt.Sprintf("auth:session:%s", id)
}

func attemptKey(key string) string {
	return fmt.Sprintf("auth:attempts:%s", key)
}

// Create stores a session with TTL until its ExpiresAt
func (r *RedisSessionStore) Create(ctx context.Context, s Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.rdb.Set(ctx, sessionKey(s.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session in Redis: %w", err)
	}
	return nil
}

// Get returns the session or ErrSessionNotFound
func (r *RedisSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.rdb.Get(ctx, sessionKey(id)).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var s Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

// Revoke deletes a session
func (r *RedisSessionStore) Revoke(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// incrScript sets the expiry only on the first increment so the window is fixed
var incrScript = redis.NewScript(`
	local n = redis.call('INCR', KEYS[1])
	if n == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	return n
`)

// IncrAttempts atomically increments the attempt counter for key
func (r *RedisSessionStore) IncrAttempts(ctx context.Context, key string, window time.Duration) (int, error) {
	n, err := incrScript.Run(ctx, r.rdb, []string{attemptKey(key)}, window.Milliseconds()).Int()
	if err != nil {
		return 0, fmt.Errorf("failed to increment attempts: %w", err)
	}
	return n, nil
}

// Attempts returns the counter for key, 0 when absent
func (r *RedisSessionStore) Attempts(ctx context.Context, key string) (int, error) {
	n, err := r.rdb.Get(ctx, attemptKey(key)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get attempts: %w", err)
	}
	return n, nil
}

// ResetAttempts clears the counter for key
func (r *RedisSessionStore) ResetAttempts(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, attemptKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to reset attempts: %w", err)
	}
	return nil
}
