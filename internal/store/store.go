// Package store provides the opaque key/value storage used for quote history and templates.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// ErrNotFound is returned by Get when a key has never been written or was deleted.
var ErrNotFound = errors.New("key not found")

// KV is a byte-oriented key/value store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Options configures Open.
type Options struct {
	Backend     string
	DB          *sql.DB
	RedisAddr   string
	RedisPrefix string
}

// Open returns the backend named in opts. The sqlite backend requires opts.DB with the
// kv_store table migrated.
func Open(ctx context.Context, opts Options) (KV, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemory(), nil
	case "", BackendSQLite:
		if opts.DB == nil {
			return nil, fmt.Errorf("sqlite kv backend requires a database")
		}
		return NewSQLite(opts.DB), nil
	case BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis %s: %w", opts.RedisAddr, err)
		}
		return NewRedis(client, opts.RedisPrefix), nil
	default:
		return nil, fmt.Errorf("unknown kv backend %q", opts.Backend)
	}
}
