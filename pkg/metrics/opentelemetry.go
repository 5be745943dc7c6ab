package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/hookscope/hookscope"
	"github.com/hookscope/hookscope/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	prefix = "hookscope."
)

func newHTTPExporter(endpoint string) (metric.Exporter, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpointURL(endpoint),
	}
	return otlpmetrichttp.New(context.Background(), opts...)
}

func SetupOpentelemetry(attributes map[string]string, cfg config.OpentelemetryMetrics, metrics *Metrics) error {
	exporter, err := newHTTPExporter(cfg.Endpoint)
	if err != nil {
		return fmt.Errorf("failed to setup exporter: %v", err)
	}

	// custom attributes
	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for name, value := range attributes {
		attrs = append(attrs, attribute.String(name, value))
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(semconv.ServiceNameKey.String("hookscope")),
		resource.WithAttributes(semconv.ServiceVersionKey.String(hookscope.VERSION)),
		resource.WithFromEnv(),
		resource.WithAttributes(attrs...),
	)
	if err != nil {
		return fmt.Errorf("failed to build resource: %w", err)
	}

	meterProvider := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(metrics.Interval))),
	)
	otel.SetMeterProvider(meterProvider)

	meter := otel.Meter("github.com/hookscope/hookscope")

	// gateway metrics
	metrics.RequestCounter = NewCounter(meter, prefix+"request.total", "")
	metrics.RequestDurationHistogram = NewHistogram(meter, prefix+"request.duration", "", "s")
	metrics.RateLimitedCounter = NewCounter(meter, prefix+"request.ratelimited.total", "")

	// script metrics
	metrics.ScriptRunCounter = NewCounter(meter, prefix+"script.run.total", "")
	metrics.ScriptRunDurationHistogram = NewHistogram(meter, prefix+"script.run.duration", "", "s")
	metrics.CapabilityCallCounter = NewCounter(meter, prefix+"capability.call.total", "")

	// runtime metrics
	metrics.RuntimeGoroutine = NewGauge(meter, prefix+"runtime.num_goroutine", "")
	metrics.RuntimeAlloc = NewGauge(meter, prefix+"runtime.alloc_bytes", "")
	metrics.RuntimeHeapObjects = NewGauge(meter, prefix+"runtime.heap_objects", "")
	metrics.RuntimeGC = NewGauge(meter, prefix+"runtime.num_gc", "")

	return nil
}

func StopOpentelemetry() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return otel.GetMeterProvider().(*metric.MeterProvider).Shutdown(ctx)
}
