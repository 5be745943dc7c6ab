package function

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type memoryBackend struct {
	mu      sync.Mutex
	values  map[Tenant]map[string]any
	files   map[Tenant]map[string]string
	uploads []UploadRequest
	scrapes []ScrapeOptions
	shots   []ScreenshotOptions
	fail    error
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		values: make(map[Tenant]map[string]any),
		files:  make(map[Tenant]map[string]string),
	}
}

func (m *memoryBackend) backends() Backends {
	return Backends{Values: m, Files: m, Blobs: m, Scraper: m}
}

func (m *memoryBackend) GetValue(_ context.Context, tenant Tenant, key string) (any, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[tenant][key]
	return v, ok, nil
}

func (m *memoryBackend) SetValue(_ context.Context, tenant Tenant, key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values[tenant] == nil {
		m.values[tenant] = make(map[string]any)
	}
	m.values[tenant][key] = value
	return nil
}

func (m *memoryBackend) GetFile(_ context.Context, tenant Tenant, name string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.files[tenant][name]
	return id, ok, nil
}

func (m *memoryBackend) SetFile(_ context.Context, tenant Tenant, name string, storageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files[tenant] == nil {
		m.files[tenant] = make(map[string]string)
	}
	m.files[tenant][name] = storageID
	return nil
}

func (m *memoryBackend) Upload(_ context.Context, req UploadRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, req)
	return fmt.Sprintf("blob-%d", len(m.uploads)), nil
}

func (m *memoryBackend) URL(_ context.Context, storageID string) (string, error) {
	return "https://files.example.com/" + storageID, nil
}

func (m *memoryBackend) Scrape(_ context.Context, url string, opts ScrapeOptions) (*ScrapeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	m.scrapes = append(m.scrapes, opts)
	return &ScrapeResult{
		Success:  true,
		Data:     map[string]any{"title": "Example"},
		Metadata: map[string]any{"sourceURL": url},
	}, nil
}

func (m *memoryBackend) Screenshot(_ context.Context, url string, opts ScreenshotOptions) (*ScreenshotResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	m.shots = append(m.shots, opts)
	return &ScreenshotResult{Success: true, Screenshot: "https://shots.example.com/1.png"}, nil
}

func (m *memoryBackend) uploadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.uploads)
}

var errInvalidRequest = errors.New("Invalid request, retrying")
