package app

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hookscope/hookscope/config"
	"github.com/hookscope/hookscope/pkg/function"
	"github.com/hookscope/hookscope/pkg/ratelimiter"
	"github.com/stretchr/testify/assert"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.New()
	cfg.Log.Level = config.LogLevelError
	cfg.Admin.Listen = "127.0.0.1:0"
	cfg.Proxy.Listen = "127.0.0.1:0"
	return cfg
}

func TestApplicationLifecycle(t *testing.T) {
	app, err := New(testConfig(t))
	assert.NoError(t, err)
	assert.NotEmpty(t, app.NodeID())

	assert.NoError(t, app.Start())
	assert.ErrorIs(t, app.Start(), ErrApplicationStarted)

	assert.NoError(t, app.Stop())
	app.Wait()
	assert.ErrorIs(t, app.Stop(), ErrApplicationStopped)
}

func TestApplicationEngine(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Type = config.StoreTypeSQLite
	cfg.Database.Path = filepath.Join(t.TempDir(), "hookscope.db")

	app, err := New(cfg)
	assert.NoError(t, err)
	defer app.Store().Close()

	job := function.Job{
		Script: function.ScriptSource{
			ExecutionContext: function.ServerSide,
			Code:             `async function onRequest() { await $set("k", { n: 1 }); return await $get("k") }`,
		},
		Webhook: function.CapabilityContext{TenantOrigin: "app.dev", TenantFingerprint: "fp"},
	}
	result := app.Engine().Execute(context.Background(), job)
	assert.True(t, result.Success, result.Error)
	assert.Equal(t, map[string]any{"n": float64(1)}, result.Result)

	result = app.Engine().Execute(context.Background(), function.Job{
		Script: function.ScriptSource{ExecutionContext: function.ServerSide, Code: `function onRequest() { return $scrapeUrl("https://example.com") }`},
	})
	assert.True(t, result.Success)
	assert.Nil(t, result.Result)
	assert.Len(t, result.Logs, 1)
	assert.Equal(t, function.LogLevelError, result.Logs[0].Level)
	assert.Contains(t, result.Logs[0].Message, "capability not configured")
}

func TestApplicationProxyWiring(t *testing.T) {
	cfg := testConfig(t)
	cfg.AccessLog.Enabled = true
	cfg.AccessLog.Format = config.LogFormatJson
	cfg.AccessLog.File = filepath.Join(t.TempDir(), "access.log")
	cfg.Proxy.RateLimit.Quota = 1

	app, err := New(cfg)
	assert.NoError(t, err)
	defer app.Store().Close()
	assert.IsType(t, &ratelimiter.MemoryLimiter{}, app.limiter)

	for _, code := range []int{200, 429} {
		rec := httptest.NewRecorder()
		app.gateway.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/n/fp-wired/app.dev", nil))
		assert.Equal(t, code, rec.Code)
	}

	b, err := os.ReadFile(cfg.AccessLog.File)
	assert.NoError(t, err)
	assert.Contains(t, string(b), `"path":"/n/fp-wired/app.dev"`)
	assert.Contains(t, string(b), `"status":429`)
}

func TestApplicationRateLimitDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Proxy.RateLimit.Quota = 0

	app, err := New(cfg)
	assert.NoError(t, err)
	defer app.Store().Close()
	assert.Nil(t, app.limiter)
}
