package function

import (
	"context"
	"encoding/json"
	"errors"
)

var ErrUnsupportedContentType = errors.New("unsupported content type")

const (
	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain"
)

type UploadResult struct {
	StorageID string `json:"storageId"`
}

// ClassifyContent decides how an upload is stored. Objects and arrays are
// encoded as JSON. A string is JSON when it parses as JSON, text otherwise.
// Any other value is rejected.
func ClassifyContent(content any) (contentType string, data []byte, err error) {
	switch v := content.(type) {
	case string:
		if json.Valid([]byte(v)) {
			return ContentTypeJSON, []byte(v), nil
		}
		return ContentTypeText, []byte(v), nil
	case json.RawMessage:
		return ContentTypeJSON, v, nil
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return "", nil, err
		}
		return ContentTypeJSON, b, nil
	default:
		return "", nil, ErrUnsupportedContentType
	}
}

// UploadBlob classifies content before making any network call.
func (c *Capabilities) UploadBlob(ctx context.Context, content any) (res *UploadResult, err error) {
	contentType, data, err := ClassifyContent(content)
	if err != nil {
		return nil, err
	}
	defer func() { c.observe("uploadBlob", err) }()
	if c.backends.Blobs == nil {
		return nil, notConfigured("$uploadJsonAsBlob")
	}
	storageID, err := c.backends.Blobs.Upload(ctx, UploadRequest{
		Endpoint:    c.cc.UploadEndpoint,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		return nil, err
	}
	return &UploadResult{StorageID: storageID}, nil
}
