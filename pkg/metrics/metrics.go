package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/hookscope/hookscope/config"
	"github.com/hookscope/hookscope/pkg/schedule"
	"go.uber.org/zap"
)

type Metrics struct {
	ctx    context.Context
	cancel context.CancelFunc

	Enabled  bool
	Interval time.Duration

	// runtime metrics

	RuntimeGoroutine   metrics.Gauge
	RuntimeAlloc       metrics.Gauge
	RuntimeHeapObjects metrics.Gauge
	RuntimeGC          metrics.Gauge

	// script metrics

	ScriptRunCounter           metrics.Counter
	ScriptRunDurationHistogram metrics.Histogram
	CapabilityCallCounter      metrics.Counter

	// gateway metrics

	RequestCounter           metrics.Counter
	RequestDurationHistogram metrics.Histogram
	RateLimitedCounter       metrics.Counter
}

func (m *Metrics) Stop() error {
	m.cancel()
	if m.Enabled {
		return StopOpentelemetry()
	}
	return nil
}

// Discard returns a Metrics whose instruments record nothing.
func Discard() *Metrics {
	ctx, cancel := context.WithCancel(context.Background())
	return &Metrics{
		ctx:                        ctx,
		cancel:                     cancel,
		RuntimeGoroutine:           discard.NewGauge(),
		RuntimeAlloc:               discard.NewGauge(),
		RuntimeHeapObjects:         discard.NewGauge(),
		RuntimeGC:                  discard.NewGauge(),
		ScriptRunCounter:           discard.NewCounter(),
		ScriptRunDurationHistogram: discard.NewHistogram(),
		CapabilityCallCounter:      discard.NewCounter(),
		RequestCounter:             discard.NewCounter(),
		RequestDurationHistogram:   discard.NewHistogram(),
		RateLimitedCounter:         discard.NewCounter(),
	}
}

func New(cfg config.MetricsConfig) (*Metrics, error) {
	m := Discard()
	m.Enabled = cfg.Enabled()

	if m.Enabled {
		m.Interval = time.Second * time.Duration(cfg.PushInterval)
		err := SetupOpentelemetry(cfg.Attributes, cfg.Opentelemetry, m)
		if err != nil {
			return nil, err
		}
		schedule.Schedule(m.ctx, m.collectRuntimeStats, m.Interval, 0)
		zap.S().Infof("enabled metric exports: %v", cfg.Exports)
	}

	return m, nil
}

func (m *Metrics) collectRuntimeStats() {
	m.RuntimeGoroutine.Set(float64(runtime.NumGoroutine()))

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	m.RuntimeAlloc.Set(float64(stats.Alloc))
	m.RuntimeHeapObjects.Set(float64(stats.HeapObjects))
	m.RuntimeGC.Set(float64(stats.NumGC))
}
