package function

import (
	"context"
	"fmt"
)

// Capabilities are the side-effecting operations a script may perform.
// Every operation is scoped to the CapabilityContext given to Bind.
type Capabilities struct {
	cc       CapabilityContext
	mode     ExecutionContext
	backends Backends
	observe  func(name string, err error)
}

// Bind never fails; missing backends surface as errors when called.
func Bind(cc CapabilityContext, mode ExecutionContext, backends Backends) *Capabilities {
	return &Capabilities{
		cc:       cc,
		mode:     mode,
		backends: backends,
		observe:  func(string, error) {},
	}
}

// WithObserver registers fn to be called after every backend call.
func (c *Capabilities) WithObserver(fn func(name string, err error)) *Capabilities {
	if fn != nil {
		c.observe = fn
	}
	return c
}

func (c *Capabilities) tenant() Tenant {
	return c.cc.Tenant()
}

func notConfigured(name string) error {
	return fmt.Errorf("%s: %w", name, ErrCapabilityNotConfigured)
}

// Get returns nil when the tenant or key does not exist.
func (c *Capabilities) Get(ctx context.Context, key string) (value any, err error) {
	defer func() { c.observe("get", err) }()
	if c.backends.Values == nil {
		return nil, notConfigured("$get")
	}
	value, found, err := c.backends.Values.GetValue(ctx, c.tenant(), key)
	if err != nil || !found {
		return nil, err
	}
	return value, nil
}

// Set stores value, replacing any previous one. It reports false without
// storing when value is absent.
func (c *Capabilities) Set(ctx context.Context, key string, value any, present bool) (ok bool, err error) {
	if !present {
		return false, nil
	}
	defer func() { c.observe("set", err) }()
	if c.backends.Values == nil {
		return false, notConfigured("$set")
	}
	if err := c.backends.Values.SetValue(ctx, c.tenant(), key, value); err != nil {
		return false, err
	}
	return true, nil
}

// GetFile resolves name to a download URL.
func (c *Capabilities) GetFile(ctx context.Context, name string) (url string, found bool, err error) {
	defer func() { c.observe("getFile", err) }()
	if c.backends.Files == nil {
		return "", false, notConfigured("$getFile")
	}
	storageID, found, err := c.backends.Files.GetFile(ctx, c.tenant(), name)
	if err != nil || !found {
		return "", false, err
	}
	if c.backends.Blobs == nil {
		return "", false, notConfigured("$getFile")
	}
	url, err = c.backends.Blobs.URL(ctx, storageID)
	if err != nil {
		return "", false, err
	}
	return url, true, nil
}

// SetFile reports false without storing when name or storageID is empty.
func (c *Capabilities) SetFile(ctx context.Context, name string, storageID string) (ok bool, err error) {
	if name == "" || storageID == "" {
		return false, nil
	}
	defer func() { c.observe("setFile", err) }()
	if c.backends.Files == nil {
		return false, notConfigured("$setFile")
	}
	if err := c.backends.Files.SetFile(ctx, c.tenant(), name, storageID); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Capabilities) ScrapeURL(ctx context.Context, url string, opts ScrapeOptions) (res *ScrapeResult, err error) {
	defer func() { c.observe("scrapeUrl", err) }()
	if c.backends.Scraper == nil {
		return nil, notConfigured("$scrapeUrl")
	}
	if err := validateSchema(opts.Schema); err != nil {
		return nil, err
	}
	return c.backends.Scraper.Scrape(ctx, url, opts)
}

func (c *Capabilities) ScreenshotURL(ctx context.Context, url string, opts ScreenshotOptions) (res *ScreenshotResult, err error) {
	defer func() { c.observe("screenShotUrl", err) }()
	if c.backends.Scraper == nil {
		return nil, notConfigured("$screenShotUrl")
	}
	return c.backends.Scraper.Screenshot(ctx, url, opts)
}
