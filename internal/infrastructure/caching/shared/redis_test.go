package shared

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	cache := NewRedisCache(Options{Addr: srv.Addr(), Timeout: time.Second})
	t.Cleanup(func() { _ = cache.Close() })
	return cache, srv
}

func TestGetMissingKeyIsNil(t *testing.T) {
	cache, _ := newTestCache(t)

	val, err := cache.Get(context.Background(), "metrics:acme:2024-03-15")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestSetThenGet(t *testing.T) {
	cache, srv := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "metrics:acme:2024-03-15", []byte(`{"total_orders":7}`), time.Hour))

	val, err := cache.Get(ctx, "metrics:acme:2024-03-15")
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_orders":7}`, string(val))
	assert.Equal(t, time.Hour, srv.TTL("metrics:acme:2024-03-15"))
}

func TestMGetPreservesOrderAndMisses(t *testing.T) {
	cache, srv := newTestCache(t)
	require.NoError(t, srv.Set("metrics:acme:2024-03-14", `{"total_orders":10}`))
	require.NoError(t, srv.Set("metrics:acme:2024-03-15", `{"total_orders":7}`))

	vals, err := cache.MGet(context.Background(), []string{
		"metrics:acme:2024-03-15",
		"metrics:acme:2024-03-13",
		"metrics:acme:2024-03-14",
	})
	require.NoError(t, err)
	require.Len(t, vals, 3)
	assert.JSONEq(t, `{"total_orders":7}`, string(vals[0]))
	assert.Nil(t, vals[1])
	assert.JSONEq(t, `{"total_orders":10}`, string(vals[2]))
}

func TestUnavailableServerReturnsError(t *testing.T) {
	cache, srv := newTestCache(t)
	srv.Close()

	_, err := cache.Get(context.Background(), "metrics:acme:2024-03-15")
	assert.Error(t, err)

	_, err = cache.MGet(context.Background(), []string{"metrics:acme:2024-03-15"})
	assert.Error(t, err)
}
