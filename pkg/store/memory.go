package store

import (
	"context"
	"sync"

	"github.com/hookscope/hookscope/pkg/function"
)

type tenantData struct {
	script *Script
	values map[string]any
	files  map[string]string
	logs   []function.LogEntry // oldest first
}

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mux     sync.RWMutex
	tenants map[function.Tenant]*tenantData
	maxLogs int
}

func NewMemoryStore(maxLogs int) *MemoryStore {
	return &MemoryStore{
		tenants: make(map[function.Tenant]*tenantData),
		maxLogs: maxLogs,
	}
}

// tenant must be called with the write lock held.
func (m *MemoryStore) tenant(t function.Tenant) *tenantData {
	data, ok := m.tenants[t]
	if !ok {
		data = &tenantData{
			values: make(map[string]any),
			files:  make(map[string]string),
		}
		m.tenants[t] = data
	}
	return data
}

func (m *MemoryStore) GetValue(_ context.Context, tenant function.Tenant, key string) (any, bool, error) {
	m.mux.RLock()
	defer m.mux.RUnlock()
	data, ok := m.tenants[tenant]
	if !ok {
		return nil, false, nil
	}
	v, ok := data.values[key]
	return v, ok, nil
}

func (m *MemoryStore) SetValue(_ context.Context, tenant function.Tenant, key string, value any) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.tenant(tenant).values[key] = value
	return nil
}

func (m *MemoryStore) GetFile(_ context.Context, tenant function.Tenant, name string) (string, bool, error) {
	m.mux.RLock()
	defer m.mux.RUnlock()
	data, ok := m.tenants[tenant]
	if !ok {
		return "", false, nil
	}
	id, ok := data.files[name]
	return id, ok, nil
}

func (m *MemoryStore) SetFile(_ context.Context, tenant function.Tenant, name string, storageID string) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.tenant(tenant).files[name] = storageID
	return nil
}

func (m *MemoryStore) CreateScript(_ context.Context, script *Script) (bool, error) {
	m.mux.Lock()
	defer m.mux.Unlock()
	data := m.tenant(script.Tenant())
	if data.script != nil {
		return false, nil
	}
	s := *script
	s.Logs = nil
	s.CreatedAt, s.UpdatedAt = now(), now()
	data.script = &s
	return true, nil
}

func (m *MemoryStore) SaveScript(_ context.Context, script *Script) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	data := m.tenant(script.Tenant())
	s := *script
	s.Logs = nil
	s.UpdatedAt = now()
	if data.script != nil {
		s.CreatedAt = data.script.CreatedAt
	} else {
		s.CreatedAt = s.UpdatedAt
	}
	data.script = &s
	return nil
}

func (m *MemoryStore) GetScript(_ context.Context, tenant function.Tenant) (*Script, error) {
	m.mux.RLock()
	defer m.mux.RUnlock()
	data, ok := m.tenants[tenant]
	if !ok || data.script == nil {
		return nil, nil
	}
	s := *data.script
	s.Logs = newestFirst(data.logs)
	return &s, nil
}

func (m *MemoryStore) AppendLogs(_ context.Context, tenant function.Tenant, entries []function.LogEntry) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	data := m.tenant(tenant)
	data.logs = append(data.logs, entries...)
	if m.maxLogs > 0 && len(data.logs) > m.maxLogs {
		data.logs = append([]function.LogEntry(nil), data.logs[len(data.logs)-m.maxLogs:]...)
	}
	return nil
}

func (m *MemoryStore) ListLogs(_ context.Context, tenant function.Tenant) ([]function.LogEntry, error) {
	m.mux.RLock()
	defer m.mux.RUnlock()
	data, ok := m.tenants[tenant]
	if !ok {
		return []function.LogEntry{}, nil
	}
	return newestFirst(data.logs), nil
}

func (m *MemoryStore) Close() error {
	return nil
}
