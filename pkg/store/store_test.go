package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hookscope/hookscope/config"
	"github.com/hookscope/hookscope/pkg/function"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const maxLogs = 3

func stores(t *testing.T) map[string]Store {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := config.New()
	cfg.Store.Type = config.StoreTypeSQLite
	cfg.Store.MaxLogs = maxLogs
	cfg.Database.Path = filepath.Join(t.TempDir(), "hookscope.db")
	sqlite, err := New(cfg, zap.S())
	require.NoError(t, err)

	list := map[string]Store{
		"memory": NewMemoryStore(maxLogs),
		"redis":  NewRedisStore(client, "test", maxLogs),
		"sqlite": sqlite,
	}
	t.Cleanup(func() {
		for _, s := range list {
			_ = s.Close()
		}
	})
	return list
}

func entries(from, to int) []function.LogEntry {
	list := make([]function.LogEntry, 0)
	for i := from; i <= to; i++ {
		list = append(list, function.LogEntry{
			ID:        fmt.Sprintf("id-%d", i),
			Level:     function.LogLevelLog,
			Message:   fmt.Sprintf("message %d", i),
			Timestamp: "2024-01-01T00:00:00.000Z",
		})
	}
	return list
}

func TestStores(t *testing.T) {
	ctx := context.Background()
	tenant := function.Tenant{Origin: "webhook.sh", Fingerprint: "fp-1"}
	other := function.Tenant{Origin: "other.sh", Fingerprint: "fp-1"}

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("values", func(t *testing.T) {
				v, found, err := s.GetValue(ctx, tenant, "counter")
				assert.NoError(t, err)
				assert.False(t, found)
				assert.Nil(t, v)

				assert.NoError(t, s.SetValue(ctx, tenant, "counter", map[string]any{"n": "one"}))
				assert.NoError(t, s.SetValue(ctx, tenant, "counter", map[string]any{"n": "two"}))
				v, found, err = s.GetValue(ctx, tenant, "counter")
				assert.NoError(t, err)
				assert.True(t, found)
				assert.Equal(t, map[string]any{"n": "two"}, v)

				_, found, err = s.GetValue(ctx, other, "counter")
				assert.NoError(t, err)
				assert.False(t, found)
			})

			t.Run("files", func(t *testing.T) {
				_, found, err := s.GetFile(ctx, tenant, "report")
				assert.NoError(t, err)
				assert.False(t, found)

				assert.NoError(t, s.SetFile(ctx, tenant, "report", "blob-1"))
				assert.NoError(t, s.SetFile(ctx, tenant, "report", "blob-2"))
				id, found, err := s.GetFile(ctx, tenant, "report")
				assert.NoError(t, err)
				assert.True(t, found)
				assert.Equal(t, "blob-2", id)

				_, found, err = s.GetFile(ctx, other, "report")
				assert.NoError(t, err)
				assert.False(t, found)
			})

			t.Run("scripts", func(t *testing.T) {
				script, err := s.GetScript(ctx, tenant)
				assert.NoError(t, err)
				assert.Nil(t, script)

				created, err := s.CreateScript(ctx, &Script{Fingerprint: "fp-1", Origin: "webhook.sh", Source: "v1", ExecutionContext: function.ServerSide})
				assert.NoError(t, err)
				assert.True(t, created)
				created, err = s.CreateScript(ctx, &Script{Fingerprint: "fp-1", Origin: "webhook.sh", Source: "ignored"})
				assert.NoError(t, err)
				assert.False(t, created)

				first, err := s.GetScript(ctx, tenant)
				require.NoError(t, err)
				require.NotNil(t, first)
				assert.Equal(t, "v1", first.Source)
				assert.Equal(t, function.ServerSide, first.ExecutionContext)
				assert.NotNil(t, first.Logs)

				assert.NoError(t, s.SaveScript(ctx, &Script{Fingerprint: "fp-1", Origin: "webhook.sh", Source: "v2", ExecutionContext: function.ClientSide}))
				second, err := s.GetScript(ctx, tenant)
				require.NoError(t, err)
				assert.Equal(t, "v2", second.Source)
				assert.Equal(t, function.ClientSide, second.ExecutionContext)
				assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
				assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))

				assert.NoError(t, s.SaveScript(ctx, &Script{Fingerprint: "fp-2", Origin: "webhook.sh", Source: "new"}))
				third, err := s.GetScript(ctx, function.Tenant{Origin: "webhook.sh", Fingerprint: "fp-2"})
				require.NoError(t, err)
				assert.Equal(t, "new", third.Source)
			})

			t.Run("logs", func(t *testing.T) {
				logs, err := s.ListLogs(ctx, tenant)
				assert.NoError(t, err)
				assert.Empty(t, logs)

				assert.NoError(t, s.AppendLogs(ctx, tenant, entries(1, 2)))
				assert.NoError(t, s.AppendLogs(ctx, tenant, nil))
				assert.NoError(t, s.AppendLogs(ctx, tenant, entries(3, 4)))

				logs, err = s.ListLogs(ctx, tenant)
				assert.NoError(t, err)
				ids := make([]string, len(logs))
				for i, entry := range logs {
					ids[i] = entry.ID
				}
				assert.Equal(t, []string{"id-4", "id-3", "id-2"}, ids)
				assert.Equal(t, "message 4", logs[0].Message)
				assert.Equal(t, function.LogLevelLog, logs[0].Level)

				script, err := s.GetScript(ctx, tenant)
				require.NoError(t, err)
				assert.Len(t, script.Logs, maxLogs)

				logs, err = s.ListLogs(ctx, other)
				assert.NoError(t, err)
				assert.Empty(t, logs)
			})
		})
	}
}

func TestNewUnknownType(t *testing.T) {
	cfg := config.New()
	cfg.Store.Type = "etcd"
	_, err := New(cfg, zap.S())
	assert.EqualError(t, err, "unknown store type: etcd")
}
