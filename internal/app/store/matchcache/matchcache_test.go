package matchcache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dalemusser/tribehub/internal/app/matching"
	"github.com/dalemusser/tribehub/internal/app/store/matchcache"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T, ttl time.Duration) *matchcache.Cache {
	t.Helper()
	addr := os.Getenv("TRIBEHUB_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	c, err := matchcache.New(context.Background(), matchcache.Config{Addr: addr, TTL: ttl, DialTimeout: time.Second})
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNew_RequiresAddr(t *testing.T) {
	_, err := matchcache.New(context.Background(), matchcache.Config{})
	assert.Error(t, err)
}

func TestCache_MissThenHit(t *testing.T) {
	c := newCache(t, time.Minute)
	ctx := context.Background()
	key := uuid.NewString()

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)

	want := []matching.Match{{UserID: "abc", CompatibilityScore: 91, Persona: "p", MatchReason: "r"}}
	require.NoError(t, c.Set(ctx, key, want))

	got, ok, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestCache_EmptyResultIsAHit(t *testing.T) {
	c := newCache(t, time.Minute)
	ctx := context.Background()
	key := uuid.NewString()

	require.NoError(t, c.Set(ctx, key, nil))
	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestCache_Expires(t *testing.T) {
	c := newCache(t, 50*time.Millisecond)
	ctx := context.Background()
	key := uuid.NewString()

	require.NoError(t, c.Set(ctx, key, []matching.Match{{UserID: "x"}}))
	time.Sleep(200 * time.Millisecond)

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
