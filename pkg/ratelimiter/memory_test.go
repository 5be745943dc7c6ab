package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(0)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := limiter.Allow(ctx, "fp", 3, time.Minute)
		assert.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res, err := limiter.Allow(ctx, "fp", 3, time.Minute)
	assert.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 20*time.Second, res.RetryAfter)

	res, err = limiter.Allow(ctx, "other", 3, time.Minute)
	assert.NoError(t, err)
	assert.True(t, res.Allowed)

	now = now.Add(20 * time.Second)
	res, err = limiter.Allow(ctx, "fp", 3, time.Minute)
	assert.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestMemoryLimiterEviction(t *testing.T) {
	limiter := NewMemoryLimiter(1)
	ctx := context.Background()

	res, _ := limiter.Allow(ctx, "a", 1, time.Hour)
	assert.True(t, res.Allowed)
	res, _ = limiter.Allow(ctx, "a", 1, time.Hour)
	assert.False(t, res.Allowed)

	res, _ = limiter.Allow(ctx, "b", 1, time.Hour)
	assert.True(t, res.Allowed)

	res, _ = limiter.Allow(ctx, "a", 1, time.Hour)
	assert.True(t, res.Allowed)
}
