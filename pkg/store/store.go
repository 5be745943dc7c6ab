package store

import (
	"context"
	"time"

	"github.com/hookscope/hookscope/config"
	"github.com/hookscope/hookscope/db"
	"github.com/hookscope/hookscope/db/migrator"
	"github.com/hookscope/hookscope/pkg/function"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Script is the record a visitor attaches to one of their webhook origins.
type Script struct {
	Fingerprint      string                    `json:"fingerprint" db:"fingerprint"`
	Origin           string                    `json:"origin" db:"origin"`
	Source           string                    `json:"source" db:"source"`
	ExecutionContext function.ExecutionContext `json:"executionContext" db:"execution_context"`
	Logs             []function.LogEntry       `json:"logs" db:"-"`
	CreatedAt        time.Time                 `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time                 `json:"updatedAt" db:"updated_at"`
}

func (s *Script) Tenant() function.Tenant {
	return function.Tenant{Origin: s.Origin, Fingerprint: s.Fingerprint}
}

// Store persists script records and the data scripts keep through
// capabilities. Implementations are safe for concurrent use.
type Store interface {
	function.ValueStore
	function.FileStore

	// CreateScript inserts script unless its tenant already has one.
	CreateScript(ctx context.Context, script *Script) (created bool, err error)
	// SaveScript inserts or replaces the source and execution context,
	// keeping the creation time of an existing record.
	SaveScript(ctx context.Context, script *Script) error
	// GetScript returns nil when the tenant has no script. Logs are
	// newest-first.
	GetScript(ctx context.Context, tenant function.Tenant) (*Script, error)
	// AppendLogs keeps only the newest max_logs entries.
	AppendLogs(ctx context.Context, tenant function.Tenant, entries []function.LogEntry) error
	ListLogs(ctx context.Context, tenant function.Tenant) ([]function.LogEntry, error)
	Close() error
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// newestFirst returns entries reversed.
func newestFirst(entries []function.LogEntry) []function.LogEntry {
	list := make([]function.LogEntry, len(entries))
	for i, entry := range entries {
		list[len(entries)-1-i] = entry
	}
	return list
}

func New(cfg *config.Config, log *zap.SugaredLogger) (Store, error) {
	maxLogs := cfg.Store.MaxLogs
	switch cfg.Store.Type {
	case config.StoreTypeMemory:
		return NewMemoryStore(maxLogs), nil
	case config.StoreTypeRedis:
		client := cfg.Redis.GetClient()
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, errors.Wrap(err, "failed to connect to redis")
		}
		return NewRedisStore(client, cfg.Redis.KeyPrefix, maxLogs), nil
	case config.StoreTypePostgres, config.StoreTypeSQLite:
		sqlDB, err := db.NewSqlDB(cfg.Database, cfg.Store.Type)
		if err != nil {
			return nil, err
		}
		if err := migrator.New(sqlDB, cfg.Store.Type, cfg.Database.Database).Up(); err != nil {
			_ = sqlDB.Close()
			return nil, errors.Wrap(err, "failed to migrate database")
		}
		d, err := db.NewDB(sqlDB, cfg.Store.Type, log.Named("db"))
		if err != nil {
			return nil, err
		}
		return NewSQLStore(d, maxLogs), nil
	}
	return nil, errors.Errorf("unknown store type: %s", cfg.Store.Type)
}
