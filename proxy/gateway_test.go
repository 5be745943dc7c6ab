package proxy

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hookscope/hookscope/config"
	"github.com/hookscope/hookscope/constants"
	"github.com/hookscope/hookscope/pkg/function"
	"github.com/hookscope/hookscope/pkg/ratelimiter"
	"github.com/hookscope/hookscope/pkg/store"
	"github.com/stretchr/testify/assert"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recordingBlobs struct {
	mu      sync.Mutex
	uploads []function.UploadRequest
}

func (b *recordingBlobs) Upload(_ context.Context, req function.UploadRequest) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploads = append(b.uploads, req)
	return "storage-1", nil
}

func (b *recordingBlobs) URL(_ context.Context, storageID string) (string, error) {
	return "https://files.example.com/" + storageID, nil
}

var _ = Describe("Gateway", Ordered, func() {
	var (
		st     *store.MemoryStore
		blobs  *recordingBlobs
		srv    *httptest.Server
		client *resty.Client
	)

	save := func(fingerprint, origin, source string) {
		err := st.SaveScript(context.Background(), &store.Script{
			Fingerprint:      fingerprint,
			Origin:           origin,
			Source:           source,
			ExecutionContext: function.ServerSide,
		})
		Expect(err).To(BeNil())
	}

	BeforeAll(func() {
		st = store.NewMemoryStore(10)
		blobs = &recordingBlobs{}
		cfg := config.New().Proxy
		cfg.MaxRequestBodySize = 1024
		cfg.RateLimit.Quota = 5
		engine := function.New(function.Options{Timeout: 2 * time.Second}, function.Backends{
			Values: st,
			Files:  st,
			Blobs:  blobs,
		})
		gw := NewGateway(Options{
			Config:  &cfg,
			Engine:  engine,
			Store:   st,
			Blobs:   blobs,
			Limiter: ratelimiter.NewMemoryLimiter(100),
		})
		srv = httptest.NewServer(gw.Handler())
		client = resty.New().SetBaseURL(srv.URL)
	})

	AfterAll(func() {
		srv.Close()
	})

	It("returns the hint when the origin has no script", func() {
		resp, err := client.R().Post("/n/nobody/example.com")
		assert.NoError(GinkgoT(), err)
		assert.Equal(GinkgoT(), 200, resp.StatusCode())
		assert.JSONEq(GinkgoT(), `{"hint":"`+constants.NoResponseHint+`"}`, string(resp.Body()))
		assert.NotEmpty(GinkgoT(), resp.Header().Get(constants.HeaderRequestId))
	})

	It("returns the script response verbatim", func() {
		save("fp-json", "example.com", `function onRequest() { return $json({ ok: true }, { status: 202, headers: { "X-Trace": "abc" } }) }`)

		resp, err := client.R().Post("/n/fp-json/example.com")
		assert.NoError(GinkgoT(), err)
		assert.Equal(GinkgoT(), 202, resp.StatusCode())
		assert.Equal(GinkgoT(), "abc", resp.Header().Get("X-Trace"))
		assert.Equal(GinkgoT(), "application/json", resp.Header().Get("Content-Type"))
		assert.JSONEq(GinkgoT(), `{"ok":true}`, string(resp.Body()))
	})

	It("uses the default origin", func() {
		save("fp-default", "webhook.sh", `async function onRequest(req) { return $text("origin=" + req.origin) }`)

		resp, err := client.R().Get("/n/fp-default")
		assert.NoError(GinkgoT(), err)
		assert.Equal(GinkgoT(), 200, resp.StatusCode())
		assert.Equal(GinkgoT(), "origin=webhook.sh", string(resp.Body()))
	})

	It("exposes the captured request", func() {
		save("fp-echo", "echo.dev", `
			async function onRequest(req) {
				return $json({
					bodyType: req.bodyType,
					method: req.method,
					body: req.requestBody,
					tags: req.query.tag,
					signature: req.headers["x-signature"],
					fingerprint: req.fingerprintId,
				})
			}`)

		resp, err := client.R().
			SetHeader("Content-Type", "application/json").
			SetHeader("X-Signature", "sig").
			SetQueryParam("tag", "a").
			SetBody(`{"event":"ping"}`).
			Put("/n/fp-echo/echo.dev")
		assert.NoError(GinkgoT(), err)

		var echo map[string]any
		assert.NoError(GinkgoT(), json.Unmarshal(resp.Body(), &echo))
		assert.Equal(GinkgoT(), "json", echo["bodyType"])
		assert.Equal(GinkgoT(), "PUT", echo["method"])
		assert.Equal(GinkgoT(), `{"event":"ping"}`, echo["body"])
		assert.Equal(GinkgoT(), "a", echo["tags"])
		assert.Equal(GinkgoT(), "sig", echo["signature"])
		assert.Equal(GinkgoT(), "fp-echo", echo["fingerprint"])
	})

	It("keeps form bodies as raw text", func() {
		save("fp-form", "forms.dev", `function onRequest(req) { return $json({ bodyType: req.bodyType, body: req.requestBody }) }`)

		resp, err := client.R().
			SetFormData(map[string]string{"name": "hook"}).
			Post("/n/fp-form/forms.dev")
		assert.NoError(GinkgoT(), err)
		assert.JSONEq(GinkgoT(), `{"bodyType":"form","body":"name=hook"}`, string(resp.Body()))
	})

	It("uploads binary bodies", func() {
		save("fp-blob", "files.dev", `function onRequest(req) { return $json({ bodyType: req.bodyType, storageId: req.storageId, body: req.requestBody }) }`)

		resp, err := client.R().
			SetHeader("Content-Type", "application/octet-stream").
			SetBody([]byte{0x1, 0x2, 0x3}).
			Post("/n/fp-blob/files.dev")
		assert.NoError(GinkgoT(), err)
		assert.JSONEq(GinkgoT(), `{"bodyType":"blob","storageId":"storage-1","body":""}`, string(resp.Body()))

		blobs.mu.Lock()
		defer blobs.mu.Unlock()
		assert.Len(GinkgoT(), blobs.uploads, 1)
		assert.Equal(GinkgoT(), "application/octet-stream", blobs.uploads[0].ContentType)
		assert.Equal(GinkgoT(), []byte{0x1, 0x2, 0x3}, blobs.uploads[0].Data)
	})

	It("rejects oversized bodies", func() {
		save("fp-big", "big.dev", `function onRequest() { return $text("unreachable") }`)

		resp, err := client.R().
			SetHeader("Content-Type", "text/plain").
			SetBody(strings.Repeat("x", 2048)).
			Post("/n/fp-big/big.dev")
		assert.NoError(GinkgoT(), err)
		assert.Equal(GinkgoT(), 413, resp.StatusCode())
	})

	It("stores run logs and falls back to the hint when the script throws", func() {
		save("fp-throw", "throw.dev", `console.log("received"); throw new Error("boom")`)

		resp, err := client.R().Post("/n/fp-throw/throw.dev")
		assert.NoError(GinkgoT(), err)
		assert.Equal(GinkgoT(), 200, resp.StatusCode())
		assert.Contains(GinkgoT(), string(resp.Body()), constants.NoResponseHint)

		logs, err := st.ListLogs(context.Background(), function.Tenant{Origin: "throw.dev", Fingerprint: "fp-throw"})
		assert.NoError(GinkgoT(), err)
		assert.Len(GinkgoT(), logs, 2)
		assert.Equal(GinkgoT(), function.LogLevelError, logs[0].Level)
		assert.Contains(GinkgoT(), logs[0].Message, "boom")
		assert.Equal(GinkgoT(), "received", logs[1].Message)
	})

	It("keeps values per origin", func() {
		save("fp-count", "a.dev", `
			async function onRequest() {
				const n = ((await $get("hits")) || 0) + 1
				await $set("hits", n)
				return $text(String(n))
			}`)
		save("fp-count", "b.dev", `
			async function onRequest() {
				return $text(String(await $get("hits")))
			}`)

		for i := 1; i <= 2; i++ {
			resp, err := client.R().Post("/n/fp-count/a.dev")
			assert.NoError(GinkgoT(), err)
			assert.Equal(GinkgoT(), []byte{byte('0' + i)}, resp.Body())
		}
		resp, err := client.R().Post("/n/fp-count/b.dev")
		assert.NoError(GinkgoT(), err)
		assert.Equal(GinkgoT(), "null", string(resp.Body()))
	})

	It("rate limits each fingerprint", func() {
		for i := 0; i < 5; i++ {
			resp, err := client.R().Post("/n/fp-limited/limited.dev")
			assert.NoError(GinkgoT(), err)
			assert.Equal(GinkgoT(), 200, resp.StatusCode())
		}

		resp, err := client.R().Post("/n/fp-limited/other.dev")
		assert.NoError(GinkgoT(), err)
		assert.Equal(GinkgoT(), 429, resp.StatusCode())
		assert.JSONEq(GinkgoT(), `{"msg":"`+constants.RateLimitedMessage+`"}`, string(resp.Body()))
		assert.NotEmpty(GinkgoT(), resp.Header().Get("Retry-After"))

		resp, err = client.R().Post("/n/fp-unlimited/limited.dev")
		assert.NoError(GinkgoT(), err)
		assert.Equal(GinkgoT(), 200, resp.StatusCode())
	})
})

func TestClassifyBody(t *testing.T) {
	tests := []struct {
		method      string
		contentType string
		expected    function.BodyType
	}{
		{"GET", "application/json", function.BodyTypeEmpty},
		{"HEAD", "text/plain", function.BodyTypeEmpty},
		{"POST", "application/json; charset=utf-8", function.BodyTypeJSON},
		{"POST", "application/vnd.api+json", function.BodyTypeJSON},
		{"POST", "text/plain", function.BodyTypeText},
		{"POST", "text/html", function.BodyTypeText},
		{"POST", "application/x-www-form-urlencoded", function.BodyTypeForm},
		{"POST", "multipart/form-data; boundary=xyz", function.BodyTypeBlob},
		{"POST", "application/octet-stream", function.BodyTypeBlob},
		{"POST", "image/png", function.BodyTypeEmpty},
		{"POST", "", function.BodyTypeEmpty},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, classifyBody(test.method, test.contentType), test.method+" "+test.contentType)
	}
}

func TestProxy(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Proxy Suite")
}
