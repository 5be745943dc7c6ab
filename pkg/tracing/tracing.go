package tracing

import (
	"context"
	"time"

	"github.com/hookscope/hookscope/config"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// Tracer is nil-safe: a nil *Tracer starts no-op spans.
type Tracer struct {
	trace.Tracer

	provider shutdowner
}

func New(conf *config.TracingConfig) (*Tracer, error) {
	if !conf.Enabled {
		return nil, nil
	}

	tp, err := SetupOTEL(conf)
	if err != nil {
		return nil, err
	}

	return NewTracer(tp), nil
}

func NewTracer(tp trace.TracerProvider) *Tracer {
	t := &Tracer{Tracer: tp.Tracer(instrumentationName)}
	if s, ok := tp.(shutdowner); ok {
		t.provider = s
	}
	return t
}

func (t *Tracer) Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if t == nil {
		return noop.NewTracerProvider().Tracer(instrumentationName).Start(ctx, spanName, opts...)
	}
	return t.Tracer.Start(ctx, spanName, opts...)
}

func (t *Tracer) Stop() error {
	if t == nil || t.provider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return t.provider.Shutdown(ctx)
}
