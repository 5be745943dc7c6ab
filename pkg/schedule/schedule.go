package schedule

import (
	"context"
	"time"
)

// Schedule runs fn after delay and then every interval until ctx is done.
func Schedule(ctx context.Context, fn func(), interval time.Duration, delay time.Duration) {
	go func() {
		if delay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
		fn()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}
