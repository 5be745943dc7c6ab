package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hookscope/hookscope/config"
	"github.com/hookscope/hookscope/constants"
	"github.com/hookscope/hookscope/pkg/function"
	"github.com/tidwall/gjson"
)

const (
	scrapePath = "/v2/scrape"
	waitFor    = 1000
)

var (
	ErrInvalidRequest = errors.New("Invalid request, retrying")
	ErrEmptyResponse  = errors.New("Unable to scrape url")
)

// Firecrawl calls the Firecrawl scrape API.
type Firecrawl struct {
	client *resty.Client
}

func New(cfg config.ScraperConfig) *Firecrawl {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.Endpoint, "/")).
		SetTimeout(time.Duration(cfg.Timeout) * time.Second).
		SetAuthToken(string(cfg.APIKey)).
		SetHeader("Content-Type", "application/json")
	for _, h := range constants.DefaultClientHeaders {
		client.SetHeader(h.Name, h.Value)
	}
	return &Firecrawl{client: client}
}

type viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type format struct {
	Type     string         `json:"type"`
	Prompt   string         `json:"prompt,omitempty"`
	Schema   map[string]any `json:"schema,omitempty"`
	FullPage *bool          `json:"fullPage,omitempty"`
	Quality  int            `json:"quality,omitempty"`
	Viewport *viewport      `json:"viewport,omitempty"`
}

type scrapeRequest struct {
	URL     string   `json:"url"`
	WaitFor int      `json:"waitFor"`
	Formats []format `json:"formats"`
}

func (f *Firecrawl) scrape(ctx context.Context, url string, fm format) (gjson.Result, error) {
	body := scrapeRequest{URL: url, WaitFor: waitFor, Formats: []format{fm}}
	resp, err := f.client.R().SetContext(ctx).SetBody(body).Post(scrapePath)
	if err != nil {
		return gjson.Result{}, err
	}
	if resp.IsError() {
		return gjson.Result{}, fmt.Errorf("%w (status %d)", ErrInvalidRequest, resp.StatusCode())
	}
	if !gjson.ValidBytes(resp.Body()) {
		return gjson.Result{}, ErrEmptyResponse
	}
	result := gjson.ParseBytes(resp.Body())
	if !result.IsObject() {
		return gjson.Result{}, ErrEmptyResponse
	}
	return result, nil
}

func (f *Firecrawl) Scrape(ctx context.Context, url string, opts function.ScrapeOptions) (*function.ScrapeResult, error) {
	result, err := f.scrape(ctx, url, format{Type: "json", Prompt: opts.Prompt, Schema: opts.Schema})
	if err != nil {
		return nil, err
	}
	res := &function.ScrapeResult{
		Success:  result.Get("success").Bool(),
		Data:     result.Get("data.json").Value(),
		Metadata: map[string]any{},
	}
	if metadata := result.Get("data.metadata"); metadata.IsObject() {
		if err := json.Unmarshal([]byte(metadata.Raw), &res.Metadata); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (f *Firecrawl) Screenshot(ctx context.Context, url string, opts function.ScreenshotOptions) (*function.ScreenshotResult, error) {
	fullPage := opts.FullPage
	result, err := f.scrape(ctx, url, format{
		Type:     "screenshot",
		FullPage: &fullPage,
		Quality:  opts.Quality,
		Viewport: &viewport{Width: opts.Width, Height: opts.Height},
	})
	if err != nil {
		return nil, err
	}
	return &function.ScreenshotResult{
		Success:    result.Get("success").Bool(),
		Screenshot: result.Get("data.screenshot").String(),
	}, nil
}
