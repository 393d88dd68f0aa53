package redis

import (
	"context"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/Rrens/trip-planner/internal/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set, skipping integration test")
	}

	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	client, err := NewClient(context.Background(), config.RedisConfig{Host: host, Port: port, KeyPrefix: "trippick-test"})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRateLimiter_Integration(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()
	limiter := NewRateLimiter(client, 2, 1)
	// pin the clock inside one window
	fixed := time.Now()
	limiter.now = func() time.Time { return fixed }
	key := "test:" + uuid.NewString()
	defer limiter.Reset(ctx, key)

	for i := 0; i < 3; i++ {
		allowed, _, _, err := limiter.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i)
	}

	allowed, remaining, reset, err := limiter.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Zero(t, remaining)
	assert.Equal(t, fixed.Truncate(time.Minute).Add(time.Minute), reset)
}

func TestRevocations_Integration(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()
	revocations := NewRevocations(client)
	id := uuid.NewString()

	revoked, err := revocations.IsRevoked(ctx, id)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, revocations.Revoke(ctx, id, time.Now().Add(time.Minute)))
	revoked, err = revocations.IsRevoked(ctx, id)
	require.NoError(t, err)
	assert.True(t, revoked)

	// already expired tokens need no entry
	require.NoError(t, revocations.Revoke(ctx, "expired-"+id, time.Now().Add(-time.Minute)))
	revoked, _ = revocations.IsRevoked(ctx, "expired-"+id)
	assert.False(t, revoked)
}

func TestClient_Key(t *testing.T) {
	tests := []struct {
		namespace string
		parts     []string
		want      string
	}{
		{"trippick", []string{"revoked", "abc"}, "trippick:revoked:abc"},
		{"", []string{"ratelimit", "ip:10.0.0.1", "60"}, "ratelimit:ip:10.0.0.1:60"},
	}

	for _, tt := range tests {
		c := &Client{namespace: tt.namespace}
		assert.Equal(t, tt.want, c.key(tt.parts...))
	}
}

func TestRateLimiter_WindowKey(t *testing.T) {
	limiter := NewRateLimiter(&Client{namespace: "trippick"}, 5, 1)
	start := time.Unix(1700000040, 0)
	assert.Equal(t, "trippick:ratelimit:user:42:1700000040", limiter.windowKey("user:42", start))
}
