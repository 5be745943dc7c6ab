package metrics

import (
	"context"
	"math"
	"sync/atomic"

	"github.com/go-kit/kit/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// durationBuckets covers sub-millisecond script runs up to the
// longest allowed timeout.
var durationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// labels turns go-kit style "key", "value" pairs into an attribute option.
// A dangling key is paired with "unknown".
func labels(pairs []string) metric.MeasurementOption {
	if len(pairs)%2 != 0 {
		pairs = append(pairs, "unknown")
	}
	kvs := make([]attribute.KeyValue, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		kvs = append(kvs, attribute.String(pairs[i], pairs[i+1]))
	}
	return metric.WithAttributeSet(attribute.NewSet(kvs...))
}

type Counter struct {
	pairs []string
	attrs metric.MeasurementOption
	c     metric.Float64Counter
}

func NewCounter(meter metric.Meter, name string, desc string) *Counter {
	c, _ := meter.Float64Counter(name, metric.WithDescription(desc), metric.WithUnit("1"))
	return &Counter{c: c, attrs: labels(nil)}
}

func (c *Counter) With(labelValues ...string) metrics.Counter {
	pairs := append(append([]string{}, c.pairs...), labelValues...)
	return &Counter{pairs: pairs, attrs: labels(pairs), c: c.c}
}

func (c *Counter) Add(delta float64) {
	c.c.Add(context.Background(), delta, c.attrs)
}

// Gauge remembers its last value so Add can be expressed as a Set.
type Gauge struct {
	pairs []string
	attrs metric.MeasurementOption
	g     metric.Float64Gauge
	value *atomic.Uint64
}

func NewGauge(meter metric.Meter, name string, desc string) *Gauge {
	g, _ := meter.Float64Gauge(name, metric.WithDescription(desc), metric.WithUnit("1"))
	return &Gauge{g: g, attrs: labels(nil), value: new(atomic.Uint64)}
}

func (g *Gauge) With(labelValues ...string) metrics.Gauge {
	pairs := append(append([]string{}, g.pairs...), labelValues...)
	return &Gauge{pairs: pairs, attrs: labels(pairs), g: g.g, value: new(atomic.Uint64)}
}

func (g *Gauge) Set(value float64) {
	g.value.Store(math.Float64bits(value))
	g.g.Record(context.Background(), value, g.attrs)
}

func (g *Gauge) Add(delta float64) {
	for {
		old := g.value.Load()
		next := math.Float64frombits(old) + delta
		if g.value.CompareAndSwap(old, math.Float64bits(next)) {
			g.g.Record(context.Background(), next, g.attrs)
			return
		}
	}
}

type Histogram struct {
	pairs []string
	attrs metric.MeasurementOption
	h     metric.Float64Histogram
}

func NewHistogram(meter metric.Meter, name string, desc string, unit string) *Histogram {
	h, _ := meter.Float64Histogram(
		name,
		metric.WithDescription(desc),
		metric.WithUnit(unit),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	)
	return &Histogram{h: h, attrs: labels(nil)}
}

func (h *Histogram) With(labelValues ...string) metrics.Histogram {
	pairs := append(append([]string{}, h.pairs...), labelValues...)
	return &Histogram{pairs: pairs, attrs: labels(pairs), h: h.h}
}

func (h *Histogram) Observe(value float64) {
	h.h.Record(context.Background(), value, h.attrs)
}
