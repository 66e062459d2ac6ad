// Package sslcert issues TLS certificates for custom domains through ACME
// HTTP-01 and answers the challenge requests.
package sslcert

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// ErrChallengeNotFound token 不存在或已过期
var ErrChallengeNotFound = errors.New("challenge not found")

// challengeTTL HTTP-01 token 最长保留时间
const challengeTTL = 10 * time.Minute

// ChallengeStore 保存 token → keyAuth，多实例部署时使用 redis
type ChallengeStore interface {
	Put(ctx context.Context, token, keyAuth string, ttl time.Duration) error
	Get(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}

type memoryChallenge struct {
	keyAuth   string
	expiresAt time.Time
}

// MemoryChallengeStore 进程内实现
type MemoryChallengeStore struct {
	mu    sync.Mutex
	items map[string]memoryChallenge
	now   func() time.Time
}

// NewMemoryChallengeStore 创建进程内 challenge 存储
func NewMemoryChallengeStore(now func() time.Time) *MemoryChallengeStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryChallengeStore{items: make(map[string]memoryChallenge), now: now}
}

// Put 保存
func (s *MemoryChallengeStore) Put(_ context.Context, token, keyAuth string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[token] = memoryChallenge{keyAuth: keyAuth, expiresAt: s.now().Add(ttl)}
	return nil
}

// Get 读取，过期即删除
func (s *MemoryChallengeStore) Get(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[token]
	if !ok {
		return "", ErrChallengeNotFound
	}
	if !s.now().Before(item.expiresAt) {
		delete(s.items, token)
		return "", ErrChallengeNotFound
	}
	return item.keyAuth, nil
}

// Delete 删除
func (s *MemoryChallengeStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, token)
	return nil
}

const redisChallengePrefix = "acme:http01:"

// RedisChallengeStore redis 实现
type RedisChallengeStore struct {
	client *redis.Client
}

// NewRedisChallengeStore 创建 redis challenge 存储
func NewRedisChallengeStore(client *redis.Client) *RedisChallengeStore {
	return &RedisChallengeStore{client: client}
}

// Put 保存
func (s *RedisChallengeStore) Put(ctx context.Context, token, keyAuth string, ttl time.Duration) error {
	return s.client.Set(ctx, redisChallengePrefix+token, keyAuth, ttl).Err()
}

// Get 读取
func (s *RedisChallengeStore) Get(ctx context.Context, token string) (string, error) {
	v, err := s.client.Get(ctx, redisChallengePrefix+token).Result()
	if err == redis.Nil {
		return "", ErrChallengeNotFound
	}
	return v, err
}

// Delete 删除
func (s *RedisChallengeStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, redisChallengePrefix+token).Err()
}

// HTTPProvider lego HTTP-01 provider，把 keyAuth 写入 ChallengeStore
type HTTPProvider struct {
	store ChallengeStore
}

// NewHTTPProvider 创建 provider
func NewHTTPProvider(store ChallengeStore) *HTTPProvider {
	return &HTTPProvider{store: store}
}

// Present implements challenge.Provider
func (p *HTTPProvider) Present(domain, token, keyAuth string) error {
	return p.store.Put(context.Background(), token, keyAuth, challengeTTL)
}

// CleanUp implements challenge.Provider
func (p *HTTPProvider) CleanUp(domain, token, keyAuth string) error {
	return p.store.Delete(context.Background(), token)
}

// ChallengeHandler GET /.well-known/acme-challenge/:token
func ChallengeHandler(store ChallengeStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		keyAuth, err := store.Get(c.Request.Context(), c.Param("token"))
		if err != nil {
			c.String(http.StatusNotFound, "not found")
			return
		}
		c.String(http.StatusOK, keyAuth)
	}
}
