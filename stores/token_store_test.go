package stores

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTokenStore_ResolveWithinTTL(t *testing.T) {
	s := NewMemoryTokenStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "tok", "order-1", time.Minute))

	orderID, err := s.Resolve(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "order-1", orderID)
}

func TestMemoryTokenStore_UnknownToken(t *testing.T) {
	s := NewMemoryTokenStore()

	_, err := s.Resolve(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestMemoryTokenStore_ExpiryEvicts(t *testing.T) {
	s := NewMemoryTokenStore()
	ctx := context.Background()

	base := time.Now()
	s.SetNow(func() time.Time { return base })
	require.NoError(t, s.Put(ctx, "tok", "order-1", time.Minute))

	s.SetNow(func() time.Time { return base.Add(2 * time.Minute) })
	_, err := s.Resolve(ctx, "tok")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	// A second resolve still misses after eviction
	_, err = s.Resolve(ctx, "tok")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestMemoryTokenStore_PutSweepsExpired(t *testing.T) {
	s := NewMemoryTokenStore()
	ctx := context.Background()

	base := time.Now()
	s.SetNow(func() time.Time { return base })
	require.NoError(t, s.Put(ctx, "stale-1", "order-1", time.Minute))
	require.NoError(t, s.Put(ctx, "stale-2", "order-2", time.Minute))

	// Dead tokens are reclaimed on the next write, not only when resolved
	s.SetNow(func() time.Time { return base.Add(2 * time.Minute) })
	require.NoError(t, s.Put(ctx, "fresh", "order-3", time.Minute))

	s.mu.Lock()
	size := len(s.tokens)
	s.mu.Unlock()
	assert.Equal(t, 1, size)

	orderID, err := s.Resolve(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, "order-3", orderID)
}
