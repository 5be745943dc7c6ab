package app

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/hookscope/hookscope"
	"github.com/hookscope/hookscope/admin"
	"github.com/hookscope/hookscope/admin/api"
	"github.com/hookscope/hookscope/config"
	"github.com/hookscope/hookscope/pkg/accesslog"
	"github.com/hookscope/hookscope/pkg/blob"
	"github.com/hookscope/hookscope/pkg/function"
	"github.com/hookscope/hookscope/pkg/log"
	"github.com/hookscope/hookscope/pkg/metrics"
	"github.com/hookscope/hookscope/pkg/ratelimiter"
	"github.com/hookscope/hookscope/pkg/scraper"
	"github.com/hookscope/hookscope/pkg/store"
	"github.com/hookscope/hookscope/pkg/tracing"
	"github.com/hookscope/hookscope/proxy"
	"github.com/hookscope/hookscope/utils"
	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrApplicationStarted = errors.New("already started")
	ErrApplicationStopped = errors.New("already stopped")
)

const shutdownTimeout = 10 * time.Second

type Application struct {
	nodeID string

	cfg *config.Config

	mux     sync.Mutex
	started bool

	stop chan struct{}

	log     *zap.SugaredLogger
	metrics *metrics.Metrics
	tracer  *tracing.Tracer
	store   store.Store
	blobs   function.BlobStore
	engine  *function.Engine
	limiter ratelimiter.RateLimiter

	admin   *admin.Admin
	gateway *proxy.Gateway
}

func New(cfg *config.Config) (*Application, error) {
	app := &Application{
		nodeID: utils.UUID(),
		cfg:    cfg,
		stop:   make(chan struct{}, 1),
	}

	err := app.initialize()
	if err != nil {
		return nil, err
	}

	return app, nil
}

func (app *Application) initialize() error {
	cfg := app.cfg

	log, err := log.NewZapLogger(&cfg.Log)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(log.Desugar())
	app.log = log

	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		app.log.Error(err)
	}))

	// tracing
	app.tracer, err = tracing.New(&cfg.Tracing)
	if err != nil {
		return err
	}

	app.metrics, err = metrics.New(cfg.Metrics)
	if err != nil {
		return err
	}

	// store
	app.store, err = store.New(cfg, log)
	if err != nil {
		return err
	}

	app.blobs, err = blob.New(context.Background(), cfg.Blob)
	if err != nil {
		return err
	}

	backends := function.Backends{
		Values: app.store,
		Files:  app.store,
		Blobs:  app.blobs,
	}
	if cfg.Scraper.IsEnabled() {
		backends.Scraper = scraper.New(cfg.Scraper)
	} else {
		log.Info("scraper is disabled, $scrapeUrl and $screenShotUrl will fail")
	}

	app.engine = function.New(function.Options{
		Timeout:               cfg.Function.TimeoutDuration(),
		MaxScriptSize:         cfg.Function.MaxScriptSize,
		MaxCallStackSize:      cfg.Function.MaxCallStackSize,
		MaxLogEntries:         cfg.Function.MaxLogEntries,
		MaxLogMessageSize:     cfg.Function.MaxLogMessageSize,
		ProgramCacheSize:      cfg.Function.ProgramCacheSize,
		MaxMemory:             cfg.Function.MaxMemoryBytes(),
		DefaultUploadEndpoint: cfg.Blob.UploadEndpoint,
		Logger:                log,
		Metrics:               app.metrics,
		Tracer:                app.tracer,
	}, backends)

	// admin
	if cfg.Admin.IsEnabled() {
		opts := api.Options{
			Config: cfg,
			Engine: app.engine,
			Store:  app.store,
			Logger: log,
		}
		if app.tracer != nil {
			opts.Middlewares = append(opts.Middlewares, otelhttp.NewMiddleware("api.admin"))
		}
		if cfg.AccessLog.IsEnabled() {
			mw, err := newAccessLogMiddleware("admin", cfg.AccessLog)
			if err != nil {
				return err
			}
			opts.Middlewares = append(opts.Middlewares, mw)
		}
		api := api.NewAPI(opts)
		app.admin = admin.NewAdmin(cfg.Admin, api.Handler())
	}

	// gateway
	if cfg.Proxy.IsEnabled() {
		if cfg.Proxy.RateLimit.IsEnabled() {
			app.limiter = newLimiter(app.store, cfg)
		}
		opts := proxy.Options{
			Config:  &cfg.Proxy,
			Engine:  app.engine,
			Store:   app.store,
			Blobs:   app.blobs,
			Limiter: app.limiter,
			Metrics: app.metrics,
			Tracer:  app.tracer,
			Logger:  log,
		}
		if app.tracer != nil {
			opts.Middlewares = append(opts.Middlewares, otelhttp.NewMiddleware("api.proxy"))
		}
		if cfg.AccessLog.IsEnabled() {
			mw, err := newAccessLogMiddleware("proxy", cfg.AccessLog)
			if err != nil {
				return err
			}
			opts.Middlewares = append(opts.Middlewares, mw)
		}
		app.gateway = proxy.NewGateway(opts)
	}

	return nil
}

func newAccessLogMiddleware(name string, cfg config.AccessLogConfig) (func(http.Handler) http.Handler, error) {
	logger, err := accesslog.NewAccessLogger(name, accesslog.Options{
		File:    cfg.File,
		Format:  string(cfg.Format),
		Colored: cfg.Colored,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create access logger")
	}
	return accesslog.NewMiddleware(logger), nil
}

// newLimiter shares the redis connection when the store lives in redis,
// otherwise quotas are tracked per process.
func newLimiter(s store.Store, cfg *config.Config) ratelimiter.RateLimiter {
	if rs, ok := s.(*store.RedisStore); ok {
		return ratelimiter.NewRedisLimiter(rs.Client(), cfg.Redis.KeyPrefix+":")
	}
	return ratelimiter.NewMemoryLimiter(0)
}

func (app *Application) NodeID() string {
	return app.nodeID
}

func (app *Application) Config() *config.Config {
	return app.cfg
}

func (app *Application) Store() store.Store {
	return app.store
}

func (app *Application) Engine() *function.Engine {
	return app.engine
}

// Start starts application
func (app *Application) Start() error {
	app.mux.Lock()
	defer app.mux.Unlock()

	if app.started {
		return ErrApplicationStarted
	}

	app.log.Infof("starting Hookscope %s (node %s, store %s)", hookscope.VERSION, app.nodeID, app.cfg.Store.Type)

	if app.admin != nil {
		app.admin.Start()
	}
	if app.gateway != nil {
		app.gateway.Start()
	}

	app.started = true

	return nil
}

func (app *Application) Wait() {
	<-app.stop
}

// Stop stops application
func (app *Application) Stop() error {
	app.mux.Lock()
	defer app.mux.Unlock()

	if !app.started {
		return ErrApplicationStopped
	}

	app.log.Info("exiting 👋")

	defer func() {
		app.log.Info("exit")
		_ = app.log.Sync()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var g errgroup.Group
	if app.admin != nil {
		g.Go(func() error { return app.admin.Stop(ctx) })
	}
	if app.gateway != nil {
		g.Go(func() error { return app.gateway.Stop(ctx) })
	}
	if err := g.Wait(); err != nil {
		app.log.Warnf("failed to stop servers: %v", err)
	}

	if app.metrics != nil {
		_ = app.metrics.Stop()
	}
	if app.tracer != nil {
		_ = app.tracer.Stop()
	}
	if err := app.store.Close(); err != nil {
		app.log.Warnf("failed to close store: %v", err)
	}

	app.started = false
	app.stop <- struct{}{}

	return nil
}
