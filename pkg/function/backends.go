package function

import (
	"context"
	"errors"
)

var ErrCapabilityNotConfigured = errors.New("capability not configured")

// ValueStore persists script values per tenant. Values are JSON-compatible.
type ValueStore interface {
	GetValue(ctx context.Context, tenant Tenant, key string) (value any, found bool, err error)
	SetValue(ctx context.Context, tenant Tenant, key string, value any) error
}

// FileStore persists file name to storage id mappings per tenant.
type FileStore interface {
	GetFile(ctx context.Context, tenant Tenant, name string) (storageID string, found bool, err error)
	SetFile(ctx context.Context, tenant Tenant, name string, storageID string) error
}

type UploadRequest struct {
	Endpoint    string
	ContentType string
	Data        []byte
}

type BlobStore interface {
	Upload(ctx context.Context, req UploadRequest) (storageID string, err error)
	URL(ctx context.Context, storageID string) (string, error)
}

type ScrapeOptions struct {
	Prompt string         `json:"prompt,omitempty" default:"Extract any meaningful info from the page."`
	Schema map[string]any `json:"schema,omitempty"`
}

type ScreenshotOptions struct {
	FullPage bool `json:"fullPage" default:"true"`
	Width    int  `json:"width" default:"1272"`
	Height   int  `json:"height" default:"682"`
	Quality  int  `json:"quality" default:"90"`
}

type ScrapeResult struct {
	Success  bool           `json:"success"`
	Data     any            `json:"data"`
	Metadata map[string]any `json:"metadata"`
}

type ScreenshotResult struct {
	Success    bool   `json:"success"`
	Screenshot string `json:"screenshot"`
}

type Scraper interface {
	Scrape(ctx context.Context, url string, opts ScrapeOptions) (*ScrapeResult, error)
	Screenshot(ctx context.Context, url string, opts ScreenshotOptions) (*ScreenshotResult, error)
}

// Backends must be safe for concurrent use. Nil members disable the
// corresponding capabilities.
type Backends struct {
	Values  ValueStore
	Files   FileStore
	Blobs   BlobStore
	Scraper Scraper
}
