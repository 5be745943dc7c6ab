package blob

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/hookscope/hookscope/config"
	"github.com/hookscope/hookscope/pkg/function"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	mu          sync.Mutex
	method      string
	path        string
	contentType string
	body        string
}

func (c *captured) handler(status int, response string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.method, c.path, c.contentType, c.body = r.Method, r.URL.Path, r.Header.Get("Content-Type"), string(b)
		c.mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}
}

func TestHTTPStore(t *testing.T) {
	var c captured
	srv := httptest.NewServer(c.handler(200, `{"storageId":"kg2abc"}`))
	defer srv.Close()

	store := NewHTTPStore(config.BlobConfig{UploadEndpoint: srv.URL + "/upload", DownloadURL: "https://files.example.com/", Timeout: 5})

	id, err := store.Upload(context.Background(), function.UploadRequest{ContentType: "application/json", Data: []byte(`{"a":1}`)})
	require.NoError(t, err)
	assert.Equal(t, "kg2abc", id)
	assert.Equal(t, http.MethodPost, c.method)
	assert.Equal(t, "/upload", c.path)
	assert.Equal(t, "application/json", c.contentType)
	assert.Equal(t, `{"a":1}`, c.body)

	_, err = store.Upload(context.Background(), function.UploadRequest{Endpoint: srv.URL + "/tenant", ContentType: "text/plain", Data: []byte("hi")})
	require.NoError(t, err)
	assert.Equal(t, "/tenant", c.path)
	assert.True(t, strings.HasPrefix(c.contentType, "text/plain"))

	url, err := store.URL(context.Background(), "kg2abc")
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/kg2abc", url)
}

func TestHTTPStoreErrors(t *testing.T) {
	var c captured
	failing := httptest.NewServer(c.handler(500, `{}`))
	defer failing.Close()
	empty := httptest.NewServer(c.handler(200, `{}`))
	defer empty.Close()

	_, err := NewHTTPStore(config.BlobConfig{}).Upload(context.Background(), function.UploadRequest{})
	assert.ErrorIs(t, err, ErrNoUploadEndpoint)

	_, err = NewHTTPStore(config.BlobConfig{UploadEndpoint: failing.URL}).Upload(context.Background(), function.UploadRequest{Data: []byte("x")})
	assert.EqualError(t, err, "upload failed with status 500")

	_, err = NewHTTPStore(config.BlobConfig{UploadEndpoint: empty.URL}).Upload(context.Background(), function.UploadRequest{Data: []byte("x")})
	assert.EqualError(t, err, "upload response has no storageId")

	_, err = NewHTTPStore(config.BlobConfig{}).URL(context.Background(), "id")
	assert.ErrorIs(t, err, ErrNoDownloadURL)
}

func TestS3Store(t *testing.T) {
	var c captured
	srv := httptest.NewServer(c.handler(200, ``))
	defer srv.Close()

	cfg := config.BlobConfig{
		Type: config.BlobTypeS3,
		S3: config.S3Config{
			Bucket:          "hooks",
			Region:          "us-east-1",
			Endpoint:        srv.URL,
			AccessKeyID:     "AKID",
			SecretAccessKey: "SECRET",
			ForcePathStyle:  true,
			URLExpiry:       60,
		},
	}
	store, err := New(context.Background(), cfg)
	require.NoError(t, err)

	id, err := store.Upload(context.Background(), function.UploadRequest{ContentType: "application/json", Data: []byte(`{"a":1}`)})
	require.NoError(t, err)
	assert.Len(t, id, 27)
	assert.Equal(t, http.MethodPut, c.method)
	assert.Equal(t, "/hooks/"+id, c.path)
	assert.Equal(t, "application/json", c.contentType)

	url, err := store.URL(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, srv.URL+"/hooks/"+id+"?"))
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.Contains(t, url, "X-Amz-Expires=60")
}

func TestNewUnknownType(t *testing.T) {
	_, err := New(context.Background(), config.BlobConfig{Type: "ftp"})
	assert.EqualError(t, err, "unknown blob type: ftp")
}
