package function

import (
	"runtime/metrics"
	"time"
)

const (
	memoryCheckInterval = 10 * time.Millisecond
	heapLiveMetric      = "/gc/heap/live:bytes"
)

// heapLive reports the live heap as of the last completed GC cycle.
func heapLive() uint64 {
	sample := []metrics.Sample{{Name: heapLiveMetric}}
	metrics.Read(sample)
	if sample[0].Value.Kind() != metrics.KindUint64 {
		return 0
	}
	return sample[0].Value.Uint64()
}

// memoryWatch trips once the live heap has grown by more than limit bytes
// since it was started. The heap is shared by the whole process, so
// concurrent runs count against each other's budget.
type memoryWatch struct {
	limit    uint64
	baseline uint64
	ticker   *time.Ticker
}

func newMemoryWatch(limit int64) *memoryWatch {
	if limit <= 0 {
		return nil
	}
	return &memoryWatch{
		limit:    uint64(limit),
		baseline: heapLive(),
		ticker:   time.NewTicker(memoryCheckInterval),
	}
}

// C is nil for a disabled watch, so selecting on it blocks forever.
func (w *memoryWatch) C() <-chan time.Time {
	if w == nil {
		return nil
	}
	return w.ticker.C
}

func (w *memoryWatch) exceeded() bool {
	live := heapLive()
	return live > w.baseline && live-w.baseline > w.limit
}

func (w *memoryWatch) stop() {
	if w != nil {
		w.ticker.Stop()
	}
}
