package blob

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hookscope/hookscope/config"
	"github.com/hookscope/hookscope/constants"
	"github.com/hookscope/hookscope/pkg/function"
	"github.com/hookscope/hookscope/utils"
)

// HTTPStore posts raw content to an upload endpoint that answers with
// {"storageId": "..."}. Files are served from download_url/{storageId}.
type HTTPStore struct {
	client         *resty.Client
	uploadEndpoint string
	downloadURL    string
}

func NewHTTPStore(cfg config.BlobConfig) *HTTPStore {
	client := resty.New().SetTimeout(time.Duration(cfg.Timeout) * time.Second)
	for _, h := range constants.DefaultClientHeaders {
		client.SetHeader(h.Name, h.Value)
	}
	return &HTTPStore{
		client:         client,
		uploadEndpoint: cfg.UploadEndpoint,
		downloadURL:    strings.TrimSuffix(cfg.DownloadURL, "/"),
	}
}

type uploadResponse struct {
	StorageID string `json:"storageId"`
}

func (s *HTTPStore) Upload(ctx context.Context, req function.UploadRequest) (string, error) {
	endpoint := utils.DefaultIfZero(req.Endpoint, s.uploadEndpoint)
	if endpoint == "" {
		return "", ErrNoUploadEndpoint
	}

	var result uploadResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", req.ContentType).
		SetBody(req.Data).
		SetResult(&result).
		ForceContentType("application/json").
		Post(endpoint)
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("upload failed with status %d", resp.StatusCode())
	}
	if result.StorageID == "" {
		return "", fmt.Errorf("upload response has no storageId")
	}
	return result.StorageID, nil
}

func (s *HTTPStore) URL(_ context.Context, storageID string) (string, error) {
	if s.downloadURL == "" {
		return "", ErrNoDownloadURL
	}
	return s.downloadURL + "/" + url.PathEscape(storageID), nil
}
