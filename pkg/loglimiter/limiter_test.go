package loglimiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter(t *testing.T) {
	now := time.Unix(0, 0)
	limiter := NewLimiter(time.Second, 10)
	limiter.now = func() time.Time { return now }

	ok, suppressed := limiter.Allow("redis")
	assert.True(t, ok)
	assert.Equal(t, 0, suppressed)

	for i := 0; i < 3; i++ {
		now = now.Add(100 * time.Millisecond)
		ok, _ = limiter.Allow("redis")
		assert.False(t, ok)
	}

	ok, _ = limiter.Allow("store")
	assert.True(t, ok)

	now = now.Add(time.Second)
	ok, suppressed = limiter.Allow("redis")
	assert.True(t, ok)
	assert.Equal(t, 3, suppressed)
}
