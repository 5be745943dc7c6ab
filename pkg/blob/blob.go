package blob

import (
	"context"
	"errors"
	"fmt"

	"github.com/hookscope/hookscope/config"
	"github.com/hookscope/hookscope/pkg/function"
)

var (
	ErrNoUploadEndpoint = errors.New("no upload endpoint configured")
	ErrNoDownloadURL    = errors.New("no download url configured")
)

func New(ctx context.Context, cfg config.BlobConfig) (function.BlobStore, error) {
	switch cfg.Type {
	case config.BlobTypeHTTP:
		return NewHTTPStore(cfg), nil
	case config.BlobTypeS3:
		return NewS3Store(ctx, cfg)
	}
	return nil, fmt.Errorf("unknown blob type: %s", cfg.Type)
}
