package proxy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/hookscope/hookscope/config"
	"github.com/hookscope/hookscope/constants"
	"github.com/hookscope/hookscope/pkg/function"
	"github.com/hookscope/hookscope/pkg/http/middlewares"
	"github.com/hookscope/hookscope/pkg/http/response"
	"github.com/hookscope/hookscope/pkg/loglimiter"
	"github.com/hookscope/hookscope/pkg/metrics"
	"github.com/hookscope/hookscope/pkg/ratelimiter"
	"github.com/hookscope/hookscope/pkg/safe"
	"github.com/hookscope/hookscope/pkg/store"
	"github.com/hookscope/hookscope/pkg/tracing"
	"github.com/hookscope/hookscope/pkg/tracing/instrumentations"
	proxymw "github.com/hookscope/hookscope/proxy/middlewares"
	"github.com/hookscope/hookscope/utils"
	"go.uber.org/zap"
)

type Options struct {
	Config      *config.ProxyConfig
	Engine      function.Runner
	Store       store.Store
	Blobs       function.BlobStore
	Limiter     ratelimiter.RateLimiter
	Metrics     *metrics.Metrics
	Tracer      *tracing.Tracer
	Logger      *zap.SugaredLogger
	Middlewares []mux.MiddlewareFunc
}

// Gateway receives visitor webhooks and answers them with the tenant's
// server-side script.
type Gateway struct {
	cfg *config.ProxyConfig

	log     *zap.SugaredLogger
	warns   *loglimiter.Limiter
	s       *http.Server
	engine  function.Runner
	store   store.Store
	blobs   function.BlobStore
	limiter ratelimiter.RateLimiter
	metrics *metrics.Metrics
	tracer  *tracing.Tracer
}

func NewGateway(opts Options) *Gateway {
	log := opts.Logger
	if log == nil {
		log = zap.S()
	}
	gw := &Gateway{
		cfg:     opts.Config,
		log:     log.Named("gateway"),
		warns:   loglimiter.NewLimiter(10*time.Second, 1024),
		engine:  opts.Engine,
		store:   opts.Store,
		blobs:   opts.Blobs,
		limiter: opts.Limiter,
		metrics: opts.Metrics,
		tracer:  opts.Tracer,
	}

	r := mux.NewRouter()
	r.Use(middlewares.NewRecovery(gw.log, func(_ error, w http.ResponseWriter) { hint(w) }).Handle)
	if gw.metrics != nil && gw.metrics.Enabled {
		r.Use(proxymw.NewMetricsMiddleware(gw.metrics).Handle)
	}
	for _, m := range opts.Middlewares {
		r.Use(m)
	}
	if gw.tracer != nil {
		r.Use(instrumentations.NewInstrumentedMux(gw.tracer).Handle)
	}
	r.HandleFunc("/n/{fingerprint}", gw.Handle)
	r.HandleFunc("/n/{fingerprint}/{origin:.*}", gw.Handle)

	gw.s = &http.Server{
		Handler: r,
		Addr:    gw.cfg.Listen,

		ReadTimeout:  utils.DurationS(gw.cfg.TimeoutRead),
		WriteTimeout: utils.DurationS(gw.cfg.TimeoutWrite),
	}

	return gw
}

func (gw *Gateway) Handler() http.Handler {
	return gw.s.Handler
}

func hint(w http.ResponseWriter) {
	response.JSON(w, 200, map[string]string{"hint": constants.NoResponseHint})
}

func (gw *Gateway) Handle(w http.ResponseWriter, r *http.Request) {
	requestID := utils.UUID()
	w.Header().Set(constants.HeaderRequestId, requestID)

	vars := mux.Vars(r)
	tenant := function.Tenant{
		Fingerprint: vars["fingerprint"],
		Origin:      utils.DefaultIfZero(vars["origin"], gw.cfg.DefaultOrigin),
	}
	ctx := r.Context()

	if !gw.allow(ctx, w, tenant.Fingerprint) {
		return
	}

	if gw.cfg.MaxRequestBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, gw.cfg.MaxRequestBodySize)
	}
	raw, err := gw.capture(ctx, r, tenant)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			code := http.StatusRequestEntityTooLarge
			http.Error(w, http.StatusText(code), code)
			return
		}
		gw.log.Warnf("[%s] failed to read request body: %v", requestID, err)
		hint(w)
		return
	}

	script, err := gw.store.GetScript(ctx, tenant)
	if err != nil {
		gw.warn("script", "[%s] failed to load script for %s/%s: %v", requestID, tenant.Fingerprint, tenant.Origin, err)
		hint(w)
		return
	}
	if script == nil || strings.TrimSpace(script.Source) == "" {
		hint(w)
		return
	}

	result := gw.engine.Execute(ctx, function.Job{
		Script: function.ScriptSource{
			ExecutionContext: function.ServerSide,
			Code:             script.Source,
		},
		Request: function.NormalizeRequest(raw),
		Webhook: function.CapabilityContext{
			TenantOrigin:      tenant.Origin,
			TenantFingerprint: tenant.Fingerprint,
		},
	})

	if len(result.Logs) > 0 {
		if err := gw.store.AppendLogs(ctx, tenant, result.Logs); err != nil {
			gw.warn("logs", "[%s] failed to append logs: %v", requestID, err)
		}
	}

	if resp, ok := result.Response(); ok {
		response.Raw(w, resp.Status, resp.Headers, resp.Body)
		return
	}
	hint(w)
}

// warn logs at most one line per kind every window, so a failing backend
// does not flood the log.
func (gw *Gateway) warn(kind string, format string, args ...interface{}) {
	ok, suppressed := gw.warns.Allow(kind)
	if !ok {
		return
	}
	if suppressed > 0 {
		format += " (%d similar suppressed)"
		args = append(args, suppressed)
	}
	gw.log.Warnf(format, args...)
}

// allow applies the per-fingerprint quota. Limiter failures let the
// request through.
func (gw *Gateway) allow(ctx context.Context, w http.ResponseWriter, fingerprint string) bool {
	if gw.limiter == nil || !gw.cfg.RateLimit.IsEnabled() {
		return true
	}
	period := utils.DurationS(gw.cfg.RateLimit.Period)
	res, err := gw.limiter.Allow(ctx, "ratelimit:"+fingerprint, gw.cfg.RateLimit.Quota, period)
	if err != nil {
		gw.warn("ratelimit", "failed to check rate limit for %s: %v", fingerprint, err)
		return true
	}
	if res.Allowed {
		return true
	}
	if gw.metrics != nil {
		gw.metrics.RateLimitedCounter.Add(1)
	}
	retryAfter := int(res.RetryAfter.Round(time.Second) / time.Second)
	w.Header().Set("Retry-After", strconv.Itoa(max(retryAfter, 1)))
	response.JSON(w, http.StatusTooManyRequests, map[string]string{"msg": constants.RateLimitedMessage})
	return false
}

// capture snapshots r as a RawRequest. Blob bodies are uploaded and only
// their storage id is kept.
func (gw *Gateway) capture(ctx context.Context, r *http.Request, tenant function.Tenant) (function.RawRequest, error) {
	raw := function.RawRequest{
		Method:        r.Method,
		FingerprintID: tenant.Fingerprint,
		Origin:        tenant.Origin,
		Query:         function.QueryPairs(r.URL.Query()),
		Headers:       function.HeaderPairs(r.Header),
	}
	if r.Host != "" {
		raw.Headers = append(raw.Headers, function.Pair{Key: "host", Value: r.Host})
	}

	contentType := r.Header.Get("Content-Type")
	raw.BodyType = classifyBody(r.Method, contentType)
	if raw.BodyType == function.BodyTypeEmpty {
		return raw, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return raw, err
	}

	switch raw.BodyType {
	case function.BodyTypeBlob:
		raw.StorageID = gw.upload(ctx, mediaType(contentType), body)
	default:
		raw.RequestBody = string(body)
	}
	return raw, nil
}

func (gw *Gateway) upload(ctx context.Context, contentType string, body []byte) string {
	if gw.blobs == nil || len(body) == 0 {
		return ""
	}
	id, err := gw.blobs.Upload(ctx, function.UploadRequest{ContentType: contentType, Data: body})
	if err != nil {
		gw.warn("upload", "failed to upload request body: %v", err)
		return ""
	}
	return id
}

func mediaType(contentType string) string {
	ct, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}

func classifyBody(method string, contentType string) function.BodyType {
	if method == http.MethodGet || method == http.MethodHead {
		return function.BodyTypeEmpty
	}
	ct := mediaType(contentType)
	lower := strings.ToLower(contentType)
	switch {
	case ct == "application/json" || strings.Contains(lower, "json"):
		return function.BodyTypeJSON
	case ct == "text/plain" || strings.Contains(lower, "text"):
		return function.BodyTypeText
	case ct == "application/x-www-form-urlencoded":
		return function.BodyTypeForm
	case ct == "multipart/form-data" || ct == "application/octet-stream":
		return function.BodyTypeBlob
	}
	return function.BodyTypeEmpty
}

// Start starts an HTTP server
func (gw *Gateway) Start() {
	safe.Go("gateway", func() {
		tls := gw.cfg.TLS
		var err error
		if tls.Enabled() {
			err = gw.s.ListenAndServeTLS(tls.Cert, tls.Key)
		} else {
			err = gw.s.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			gw.log.Errorf("Failed to start Gateway : %v", err)
			os.Exit(1)
		}
	})

	gw.log.Infof("[proxy] started on %s", utils.ListenAddrToURL(gw.cfg.TLS.Enabled(), gw.cfg.Listen))
}

// Stop stops the HTTP server
func (gw *Gateway) Stop(ctx context.Context) error {
	if err := gw.s.Shutdown(ctx); err != nil {
		// Error from closing listeners, or context timeout:
		return err
	}
	return nil
}
