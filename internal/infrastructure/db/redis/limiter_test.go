package redis

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T) *goredis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR is required for redis tests")
	}

	client, err := Connect(context.Background(), Config{Addr: addr, Password: os.Getenv("REDIS_TEST_PASSWORD")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestLoginLimiter(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	limiter := NewLoginLimiter(client, 2, time.Minute)
	key := "test-" + time.Now().Format("150405.000000000")
	t.Cleanup(func() { _ = limiter.Reset(ctx, key) })

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d should be allowed", i+1)
	}

	ok, err := limiter.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "third attempt should be throttled")

	ttl, err := client.TTL(ctx, limiter.key(key)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, limiter.Reset(ctx, key))
	ok, err = limiter.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoginLimiter_WindowDoesNotSlide(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	limiter := NewLoginLimiter(client, 5, time.Minute)
	key := "window-" + time.Now().Format("150405.000000000")
	t.Cleanup(func() { _ = limiter.Reset(ctx, key) })

	_, err := limiter.Allow(ctx, key)
	require.NoError(t, err)
	require.NoError(t, client.Expire(ctx, limiter.key(key), 10*time.Second).Err())

	_, err = limiter.Allow(ctx, key)
	require.NoError(t, err)
	ttl, err := client.TTL(ctx, limiter.key(key)).Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, 10*time.Second, "later attempts must not extend the window")
}

func TestLoginLimiter_RepairsCounterWithoutTTL(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	limiter := NewLoginLimiter(client, 5, time.Minute)
	key := "orphan-" + time.Now().Format("150405.000000000")
	t.Cleanup(func() { _ = limiter.Reset(ctx, key) })

	// A counter stranded by a crash between INCR and EXPIRE.
	require.NoError(t, client.Set(ctx, limiter.key(key), 3, 0).Err())

	ok, err := limiter.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	ttl, err := client.TTL(ctx, limiter.key(key)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestNewLoginLimiter_Defaults(t *testing.T) {
	l := NewLoginLimiter(nil, 0, 0)
	assert.EqualValues(t, defaultMaxAttempts, l.maxAttempts)
	assert.Equal(t, defaultWindow, l.window)
	assert.Equal(t, "login:attempts:10.0.0.1", l.key("10.0.0.1"))
}
