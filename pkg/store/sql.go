package store

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/hookscope/hookscope/db"
	"github.com/hookscope/hookscope/db/errs"
	"github.com/hookscope/hookscope/pkg/function"
	"github.com/hookscope/hookscope/pkg/serializer"
)

// SQLStore backs postgres and sqlite; both understand the upsert
// statements used here.
type SQLStore struct {
	db      *db.DB
	s       serializer.Serializer
	maxLogs int
}

func NewSQLStore(db *db.DB, maxLogs int) *SQLStore {
	return &SQLStore{
		db:      db,
		s:       serializer.JSON,
		maxLogs: maxLogs,
	}
}

func tenantEq(tenant function.Tenant) sq.Eq {
	return sq.Eq{"fingerprint": tenant.Fingerprint, "origin": tenant.Origin}
}

func (s *SQLStore) exec(ctx context.Context, builder sq.Sqlizer) (sql.Result, error) {
	statement, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	s.db.Debugf("[store] execute: %s", statement)
	result, err := s.db.Q(ctx).ExecContext(ctx, statement, args...)
	return result, errs.ConvertError(err)
}

// get scans one row into dest and reports false on no rows.
func (s *SQLStore) get(ctx context.Context, dest interface{}, builder sq.Sqlizer) (bool, error) {
	statement, args, err := builder.ToSql()
	if err != nil {
		return false, err
	}
	s.db.Debugf("[store] execute: %s", statement)
	err = s.db.Q(ctx).GetContext(ctx, dest, statement, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLStore) GetValue(ctx context.Context, tenant function.Tenant, key string) (any, bool, error) {
	var raw string
	builder := s.db.Builder().Select("value").From("script_values").Where(tenantEq(tenant)).Where(sq.Eq{"key": key})
	found, err := s.get(ctx, &raw, builder)
	if err != nil || !found {
		return nil, false, err
	}
	var value any
	if err := s.s.Deserialize([]byte(raw), &value); err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *SQLStore) SetValue(ctx context.Context, tenant function.Tenant, key string, value any) error {
	b, err := s.s.Serialize(value)
	if err != nil {
		return err
	}
	builder := s.db.Builder().Insert("script_values").
		Columns("fingerprint", "origin", "key", "value").
		Values(tenant.Fingerprint, tenant.Origin, key, string(b)).
		Suffix("ON CONFLICT (fingerprint, origin, key) DO UPDATE SET value = EXCLUDED.value")
	_, err = s.exec(ctx, builder)
	return err
}

func (s *SQLStore) GetFile(ctx context.Context, tenant function.Tenant, name string) (string, bool, error) {
	var id string
	builder := s.db.Builder().Select("storage_id").From("script_files").Where(tenantEq(tenant)).Where(sq.Eq{"name": name})
	found, err := s.get(ctx, &id, builder)
	return id, found, err
}

func (s *SQLStore) SetFile(ctx context.Context, tenant function.Tenant, name string, storageID string) error {
	builder := s.db.Builder().Insert("script_files").
		Columns("fingerprint", "origin", "name", "storage_id").
		Values(tenant.Fingerprint, tenant.Origin, name, storageID).
		Suffix("ON CONFLICT (fingerprint, origin, name) DO UPDATE SET storage_id = EXCLUDED.storage_id")
	_, err := s.exec(ctx, builder)
	return err
}

func (s *SQLStore) CreateScript(ctx context.Context, script *Script) (bool, error) {
	ts := now()
	builder := s.db.Builder().Insert("scripts").
		Columns("fingerprint", "origin", "source", "execution_context", "created_at", "updated_at").
		Values(script.Fingerprint, script.Origin, script.Source, script.ExecutionContext, ts, ts).
		Suffix("ON CONFLICT (fingerprint, origin) DO NOTHING")
	result, err := s.exec(ctx, builder)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (s *SQLStore) SaveScript(ctx context.Context, script *Script) error {
	ts := now()
	builder := s.db.Builder().Insert("scripts").
		Columns("fingerprint", "origin", "source", "execution_context", "created_at", "updated_at").
		Values(script.Fingerprint, script.Origin, script.Source, script.ExecutionContext, ts, ts).
		Suffix("ON CONFLICT (fingerprint, origin) DO UPDATE SET " +
			"source = EXCLUDED.source, execution_context = EXCLUDED.execution_context, updated_at = EXCLUDED.updated_at")
	_, err := s.exec(ctx, builder)
	return err
}

func (s *SQLStore) GetScript(ctx context.Context, tenant function.Tenant) (*Script, error) {
	script := new(Script)
	builder := s.db.Builder().
		Select("fingerprint", "origin", "source", "execution_context", "created_at", "updated_at").
		From("scripts").
		Where(tenantEq(tenant))
	found, err := s.get(ctx, script, builder)
	if err != nil || !found {
		return nil, err
	}
	script.CreatedAt = script.CreatedAt.UTC()
	script.UpdatedAt = script.UpdatedAt.UTC()
	script.Logs, err = s.ListLogs(ctx, tenant)
	if err != nil {
		return nil, err
	}
	return script, nil
}

func (s *SQLStore) AppendLogs(ctx context.Context, tenant function.Tenant, entries []function.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return s.db.TX(ctx, func(ctx context.Context) error {
		insert := s.db.Builder().Insert("script_logs").Columns("id", "fingerprint", "origin", "level", "message", "timestamp")
		for _, entry := range entries {
			insert = insert.Values(entry.ID, tenant.Fingerprint, tenant.Origin, entry.Level, entry.Message, entry.Timestamp)
		}
		if _, err := s.exec(ctx, insert); err != nil {
			return err
		}
		if s.maxLogs <= 0 {
			return nil
		}
		trim := s.db.Builder().Delete("script_logs").
			Where(tenantEq(tenant)).
			Where("seq NOT IN (SELECT seq FROM script_logs WHERE fingerprint = ? AND origin = ? ORDER BY seq DESC LIMIT ?)",
				tenant.Fingerprint, tenant.Origin, s.maxLogs)
		_, err := s.exec(ctx, trim)
		return err
	})
}

func (s *SQLStore) ListLogs(ctx context.Context, tenant function.Tenant) ([]function.LogEntry, error) {
	builder := s.db.Builder().Select("id", "level", "message", "timestamp").
		From("script_logs").
		Where(tenantEq(tenant)).
		OrderBy("seq DESC")
	statement, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	entries := make([]function.LogEntry, 0)
	err = s.db.Q(ctx).SelectContext(ctx, &entries, statement, args...)
	return entries, err
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
