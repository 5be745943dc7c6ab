package function

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
	"github.com/hookscope/hookscope/pkg/metrics"
	"github.com/hookscope/hookscope/pkg/tracing"
	"github.com/hookscope/hookscope/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var (
	ErrTimeout        = errors.New("script execution timed out")
	ErrScriptTooLarge = errors.New("script exceeds maximum size")
	ErrNotSettled     = errors.New("script did not settle")
	ErrPanic          = errors.New("script engine panicked")
	ErrMemoryLimit    = errors.New("script exceeded memory limit")
)

const DefaultTimeout = 30 * time.Second

type Options struct {
	Timeout           time.Duration
	MaxScriptSize     int
	MaxCallStackSize  int
	MaxLogEntries     int
	MaxLogMessageSize int
	ProgramCacheSize  int

	// MaxMemory bounds live heap growth in bytes during a run. Zero disables it.
	MaxMemory int64

	// DefaultUploadEndpoint is used when a job carries no upload endpoint.
	DefaultUploadEndpoint string

	Clock   func() time.Time
	Logger  *zap.SugaredLogger
	Metrics *metrics.Metrics
	Tracer  *tracing.Tracer
}

// Engine runs scripts. It is safe for concurrent use; every run gets its
// own runtime and log sink.
type Engine struct {
	opts     Options
	backends Backends
	programs *programCache
	log      *zap.SugaredLogger
	metrics  *metrics.Metrics
}

func New(opts Options, backends Backends) *Engine {
	opts.Timeout = utils.DefaultIfZero(opts.Timeout, DefaultTimeout)
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.S()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Discard()
	}
	return &Engine{
		opts:     opts,
		backends: backends,
		programs: newProgramCache(opts.ProgramCacheSize),
		log:      opts.Logger.Named("function"),
		metrics:  opts.Metrics,
	}
}

// Execute runs job to completion. It never panics and always returns a
// result with non-nil logs.
func (e *Engine) Execute(ctx context.Context, job Job) (result ExecutionResult) {
	ctx, span := e.opts.Tracer.Start(ctx, "function.execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("hookscope.origin", job.Webhook.TenantOrigin),
		attribute.String("hookscope.execution_context", string(job.Script.ExecutionContext)),
	)

	start := time.Now()
	sink := NewLogSink(SinkOptions{
		MaxEntries:     e.opts.MaxLogEntries,
		MaxMessageSize: e.opts.MaxLogMessageSize,
		Clock:          e.opts.Clock,
	})

	var value interface{}
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				e.log.Errorf("recovered from panic: %v", r)
				err = fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()
		value, err = e.run(ctx, job, sink)
	}()

	result = FormatResult(Outcome{Value: value, Logs: sink.Drain(), Err: err})

	label := "success"
	switch {
	case errors.Is(err, ErrTimeout):
		label = "timeout"
	case errors.Is(err, ErrMemoryLimit):
		label = "memory_limit"
	case err != nil:
		label = "error"
	}
	e.metrics.ScriptRunCounter.With("result", label).Add(1)
	e.metrics.ScriptRunDurationHistogram.Observe(time.Since(start).Seconds())

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		e.log.Warnf("script run failed for %s/%s: %v", job.Webhook.TenantFingerprint, job.Webhook.TenantOrigin, err)
	} else {
		e.log.Debugf("script run for %s/%s finished in %s with %d log entries",
			job.Webhook.TenantFingerprint, job.Webhook.TenantOrigin, time.Since(start), len(result.Logs))
	}

	return result
}

func (e *Engine) run(ctx context.Context, job Job, sink *LogSink) (interface{}, error) {
	if e.opts.MaxScriptSize > 0 && len(job.Script.Code) > e.opts.MaxScriptSize {
		return nil, fmt.Errorf("%w (%d > %d bytes)", ErrScriptTooLarge, len(job.Script.Code), e.opts.MaxScriptSize)
	}

	program, err := e.programs.compile(job.Script.Code)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeoutCause(ctx, e.opts.Timeout, ErrTimeout)
	defer cancel()
	if ctx.Err() != nil {
		return nil, context.Cause(ctx)
	}

	cc := job.Webhook
	cc.UploadEndpoint = utils.DefaultIfZero(cc.UploadEndpoint, e.opts.DefaultUploadEndpoint)
	mode := job.Script.ExecutionContext
	if mode == "" {
		mode = ClientSide
	}
	caps := Bind(cc, mode, e.backends).WithObserver(func(name string, err error) {
		label := "success"
		if err != nil {
			label = "error"
		}
		e.metrics.CapabilityCallCounter.With("name", name, "result", label).Add(1)
	})

	js := NewJavaScript(ctx, e.opts, caps, sink)
	if err := js.setup(job.Request, e.opts.Clock); err != nil {
		return nil, err
	}

	promise, err := js.Run(program)
	if err != nil {
		return nil, err
	}

	switch promise.State() {
	case goja.PromiseStateFulfilled:
		return js.export(promise.Result()), nil
	case goja.PromiseStateRejected:
		return nil, fmt.Errorf("script rejected: %s", FormatReason(js.vm, promise.Result()))
	default:
		return nil, ErrNotSettled
	}
}
