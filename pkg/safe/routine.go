package safe

import (
	"runtime/debug"

	"go.uber.org/zap"
)

// Go runs fn in a goroutine. A panic is logged under name instead of
// crashing the process.
func Go(name string, fn func()) {
	go func() {
		defer func() {
			if err := recover(); err != nil {
				zap.S().Named(name).Errorf("goroutine panic: %v\n%s", err, debug.Stack())
			}
		}()
		fn()
	}()
}
