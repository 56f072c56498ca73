package stores

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CheckoutTokenTTL bounds how long a checkout token stays resolvable. An
// abandoned payment page past this window gets a not-found, never a crash.
const CheckoutTokenTTL = 30 * time.Minute

// RedisTokenStore keeps checkout tokens in Redis so they survive process
// restarts and expire server-side.
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) Put(ctx context.Context, token, orderID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, tokenKey(token), orderID, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Resolve(ctx context.Context, token string) (string, error) {
	orderID, err := s.client.Get(ctx, tokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return orderID, nil
}

func tokenKey(token string) string {
	return fmt.Sprintf("checkout:%s", token)
}

// MemoryTokenStore is the in-process fallback used when no Redis address is
// configured, and by the tests.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]memoryToken
	now    func() time.Time
}

type memoryToken struct {
	orderID   string
	expiresAt time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		tokens: make(map[string]memoryToken),
		now:    time.Now,
	}
}

// SetNow overrides the clock so tests can force expiry.
func (s *MemoryTokenStore) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryTokenStore) Put(_ context.Context, token, orderID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	// Sweep dead entries on each write so tokens nobody resolves still get
	// reclaimed. The map is bounded by checkouts within one TTL window.
	for k, v := range s.tokens {
		if now.After(v.expiresAt) {
			delete(s.tokens, k)
		}
	}
	s.tokens[token] = memoryToken{orderID: orderID, expiresAt: now.Add(ttl)}
	return nil
}

func (s *MemoryTokenStore) Resolve(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok {
		return "", ErrTokenNotFound
	}
	if s.now().After(t.expiresAt) {
		delete(s.tokens, token)
		return "", ErrTokenNotFound
	}
	return t.orderID, nil
}
