package ratelimit

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/eoladapo/sellmate-backend-sub002/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, rate float64, burst int) *OrderIntakeLimiter {
	t.Helper()

	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	return NewOrderIntakeLimiterWithClient(rdb, config.Config{
		OrderIntakeRate:      rate,
		OrderIntakeBurst:     burst,
		IntakeLockTTLSeconds: 30,
	})
}

func TestAllowUser_DrainsBurst(t *testing.T) {
	limiter := newTestLimiter(t, 1, 3)
	ctx := context.Background()
	userID := snowflake.ID(42)

	for i := 0; i < 3; i++ {
		res, err := limiter.AllowUser(ctx, userID)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d within burst", i)
	}

	res, err := limiter.AllowUser(ctx, userID)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Greater(t, res.RetryAfter.Seconds(), 0.0)
}

func TestAllowUser_BucketsAreIndependent(t *testing.T) {
	limiter := newTestLimiter(t, 1, 1)
	ctx := context.Background()

	res, err := limiter.AllowUser(ctx, snowflake.ID(1))
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.AllowUser(ctx, snowflake.ID(1))
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	// a different seller still has a full bucket
	res, err = limiter.AllowUser(ctx, snowflake.ID(2))
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestSourceMessageLock_BlocksConcurrentClaim(t *testing.T) {
	limiter := newTestLimiter(t, 10, 10)
	ctx := context.Background()
	userID := snowflake.ID(7)

	token, ok, err := limiter.TryLockSourceMessage(ctx, userID, "wamid.abc123")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, token)

	// a webhook retry for the same message loses the claim
	_, ok, err = limiter.TryLockSourceMessage(ctx, userID, "wamid.abc123")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, limiter.ReleaseSourceMessage(ctx, userID, "wamid.abc123", token))

	_, ok, err = limiter.TryLockSourceMessage(ctx, userID, "wamid.abc123")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDisabledLimiter_AllowsEverything(t *testing.T) {
	limiter, err := NewOrderIntakeLimiter(config.Config{})
	require.NoError(t, err)
	assert.False(t, limiter.Enabled())

	res, err := limiter.AllowUser(context.Background(), snowflake.ID(1))
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	_, ok, err := limiter.TryLockSourceMessage(context.Background(), snowflake.ID(1), "wamid.x")
	require.NoError(t, err)
	assert.True(t, ok)
}
