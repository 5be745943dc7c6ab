package loglimiter

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type state struct {
	last       time.Time
	suppressed int
}

// Limiter lets one log line per key through every window and counts
// the lines it swallowed in between.
type Limiter struct {
	mux    sync.Mutex
	window time.Duration
	keys   *lru.Cache[string, *state]
	now    func() time.Time
}

func NewLimiter(window time.Duration, maxKeys int) *Limiter {
	keys, _ := lru.New[string, *state](max(maxKeys, 1))
	return &Limiter{
		window: window,
		keys:   keys,
		now:    time.Now,
	}
}

// Allow reports whether a line for key may be logged now, along with
// how many lines were suppressed since the last allowed one.
func (l *Limiter) Allow(key string) (bool, int) {
	l.mux.Lock()
	defer l.mux.Unlock()

	now := l.now()
	s, ok := l.keys.Get(key)
	if !ok {
		l.keys.Add(key, &state{last: now})
		return true, 0
	}
	if now.Sub(s.last) >= l.window {
		suppressed := s.suppressed
		s.last = now
		s.suppressed = 0
		return true, suppressed
	}
	s.suppressed++
	return false, 0
}
