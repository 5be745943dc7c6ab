package scraper

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hookscope/hookscope/config"
	"github.com/hookscope/hookscope/pkg/function"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, status int, response string, captured *map[string]any) *Firecrawl {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/scrape", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		b, _ := io.ReadAll(r.Body)
		if captured != nil {
			require.NoError(t, json.Unmarshal(b, captured))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return New(config.ScraperConfig{Endpoint: srv.URL + "/", APIKey: "key", Timeout: 5})
}

func TestScrape(t *testing.T) {
	var body map[string]any
	f := newServer(t, 200, `{"success":true,"data":{"json":{"title":"Example"},"metadata":{"statusCode":200}}}`, &body)

	res, err := f.Scrape(context.Background(), "https://example.com", function.ScrapeOptions{
		Prompt: "titles",
		Schema: map[string]any{"type": "object"},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, map[string]any{"title": "Example"}, res.Data)
	assert.Equal(t, map[string]any{"statusCode": float64(200)}, res.Metadata)

	assert.Equal(t, "https://example.com", body["url"])
	assert.Equal(t, float64(1000), body["waitFor"])
	assert.Equal(t, []any{map[string]any{"type": "json", "prompt": "titles", "schema": map[string]any{"type": "object"}}}, body["formats"])
}

func TestScreenshot(t *testing.T) {
	var body map[string]any
	f := newServer(t, 200, `{"success":true,"data":{"screenshot":"https://shots/1.png"}}`, &body)

	res, err := f.Screenshot(context.Background(), "https://example.com", function.ScreenshotOptions{
		FullPage: false, Width: 1272, Height: 682, Quality: 90,
	})
	require.NoError(t, err)
	assert.Equal(t, &function.ScreenshotResult{Success: true, Screenshot: "https://shots/1.png"}, res)
	assert.Equal(t, []any{map[string]any{
		"type":     "screenshot",
		"fullPage": false,
		"quality":  float64(90),
		"viewport": map[string]any{"width": float64(1272), "height": float64(682)},
	}}, body["formats"])
}

func TestErrors(t *testing.T) {
	tests := []struct {
		scenario string
		status   int
		response string
		err      error
	}{
		{"non-2xx", 402, `{"success":false}`, ErrInvalidRequest},
		{"not json", 200, `oops`, ErrEmptyResponse},
		{"not an object", 200, `null`, ErrEmptyResponse},
	}
	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			f := newServer(t, test.status, test.response, nil)
			_, err := f.Scrape(context.Background(), "https://example.com", function.ScrapeOptions{})
			assert.ErrorIs(t, err, test.err)
			_, err = f.Screenshot(context.Background(), "https://example.com", function.ScreenshotOptions{})
			assert.ErrorIs(t, err, test.err)
		})
	}
}
