package ratelimiter

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const defaultMaxKeys = 10000

type bucket struct {
	limiter *rate.Limiter
	quota   int
	period  time.Duration
}

// MemoryLimiter is a process-local token bucket per key. Least recently
// used keys are evicted once maxKeys is reached.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets *lru.Cache[string, *bucket]
	now     func() time.Time
}

func NewMemoryLimiter(maxKeys int) *MemoryLimiter {
	if maxKeys <= 0 {
		maxKeys = defaultMaxKeys
	}
	buckets, _ := lru.New[string, *bucket](maxKeys)
	return &MemoryLimiter{
		buckets: buckets,
		now:     time.Now,
	}
}

func (ml *MemoryLimiter) Allow(_ context.Context, key string, quota int, duration time.Duration) (Result, error) {
	if quota <= 0 || duration <= 0 {
		return Result{Allowed: true}, nil
	}

	ml.mu.Lock()
	defer ml.mu.Unlock()

	b, ok := ml.buckets.Get(key)
	if !ok || b.quota != quota || b.period != duration {
		b = &bucket{
			limiter: rate.NewLimiter(rate.Every(duration/time.Duration(quota)), quota),
			quota:   quota,
			period:  duration,
		}
		ml.buckets.Add(key, b)
	}

	now := ml.now()
	res := Result{}
	r := b.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		res.RetryAfter = delay
	} else {
		res.Allowed = true
	}

	tokens := b.limiter.TokensAt(now)
	if tokens > 0 {
		res.Remaining = int(tokens)
	}
	res.Reset = time.Duration(float64(quota)-tokens) * (duration / time.Duration(quota))
	return res, nil
}
