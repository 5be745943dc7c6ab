package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/hookscope/hookscope/pkg/function"
	"github.com/hookscope/hookscope/pkg/serializer"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one key per tenant and kind:
//
//	{prefix}:script:{fingerprint}:{origin}  string, encoded Script
//	{prefix}:values:{fingerprint}:{origin}  hash, key -> encoded value
//	{prefix}:files:{fingerprint}:{origin}   hash, name -> storage id
//	{prefix}:logs:{fingerprint}:{origin}    list, newest entry at the head
type RedisStore struct {
	c       *redis.Client
	s       serializer.Serializer
	prefix  string
	maxLogs int
}

func NewRedisStore(client *redis.Client, prefix string, maxLogs int) *RedisStore {
	return &RedisStore{
		c:       client,
		s:       serializer.MsgPack,
		prefix:  prefix,
		maxLogs: maxLogs,
	}
}

// Client returns the underlying connection for components sharing it.
func (r *RedisStore) Client() *redis.Client {
	return r.c
}

func (r *RedisStore) key(kind string, tenant function.Tenant) string {
	return fmt.Sprintf("%s:%s:%s:%s", r.prefix, kind, tenant.Fingerprint, tenant.Origin)
}

func (r *RedisStore) GetValue(ctx context.Context, tenant function.Tenant, key string) (any, bool, error) {
	b, err := r.c.HGet(ctx, r.key("values", tenant), key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var value any
	if err := r.s.Deserialize(b, &value); err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (r *RedisStore) SetValue(ctx context.Context, tenant function.Tenant, key string, value any) error {
	b, err := r.s.Serialize(value)
	if err != nil {
		return err
	}
	return r.c.HSet(ctx, r.key("values", tenant), key, b).Err()
}

func (r *RedisStore) GetFile(ctx context.Context, tenant function.Tenant, name string) (string, bool, error) {
	id, err := r.c.HGet(ctx, r.key("files", tenant), name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return id, true, nil
}

func (r *RedisStore) SetFile(ctx context.Context, tenant function.Tenant, name string, storageID string) error {
	return r.c.HSet(ctx, r.key("files", tenant), name, storageID).Err()
}

func (r *RedisStore) CreateScript(ctx context.Context, script *Script) (bool, error) {
	s := *script
	s.Logs = nil
	s.CreatedAt, s.UpdatedAt = now(), now()
	b, err := r.s.Serialize(&s)
	if err != nil {
		return false, err
	}
	return r.c.SetNX(ctx, r.key("script", s.Tenant()), b, 0).Result()
}

func (r *RedisStore) SaveScript(ctx context.Context, script *Script) error {
	key := r.key("script", script.Tenant())
	return r.c.Watch(ctx, func(tx *redis.Tx) error {
		s := *script
		s.Logs = nil
		s.UpdatedAt = now()
		s.CreatedAt = s.UpdatedAt

		existing, err := r.readScript(ctx, tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			s.CreatedAt = existing.CreatedAt
		}

		b, err := r.s.Serialize(&s)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, 0)
			return nil
		})
		return err
	}, key)
}

func (r *RedisStore) readScript(ctx context.Context, c redis.Cmdable, key string) (*Script, error) {
	b, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	script := new(Script)
	if err := r.s.Deserialize(b, script); err != nil {
		return nil, err
	}
	return script, nil
}

func (r *RedisStore) GetScript(ctx context.Context, tenant function.Tenant) (*Script, error) {
	script, err := r.readScript(ctx, r.c, r.key("script", tenant))
	if err != nil || script == nil {
		return nil, err
	}
	script.Logs, err = r.ListLogs(ctx, tenant)
	if err != nil {
		return nil, err
	}
	return script, nil
}

func (r *RedisStore) AppendLogs(ctx context.Context, tenant function.Tenant, entries []function.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(entries))
	for i := range entries {
		b, err := r.s.Serialize(&entries[i])
		if err != nil {
			return err
		}
		values = append(values, b)
	}
	key := r.key("logs", tenant)
	_, err := r.c.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, values...)
		if r.maxLogs > 0 {
			pipe.LTrim(ctx, key, 0, int64(r.maxLogs-1))
		}
		return nil
	})
	return err
}

func (r *RedisStore) ListLogs(ctx context.Context, tenant function.Tenant) ([]function.LogEntry, error) {
	items, err := r.c.LRange(ctx, r.key("logs", tenant), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]function.LogEntry, len(items))
	for i, item := range items {
		if err := r.s.Deserialize([]byte(item), &entries[i]); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (r *RedisStore) Close() error {
	return r.c.Close()
}
