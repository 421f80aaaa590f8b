package repository

import (
	"context"
	"errors"

	"github.com/alexivanou/weather-widget/internal/config"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a key has no stored value
var ErrNotFound = errors.New("key not found")

// KVRepository is the persistent key-value store backing the widget state.
// Set must replace the value atomically: readers see either the old or the new value.
type KVRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Backend() string
}

// NewRepository creates the SQL implementation matching the DB type
func NewRepository(db *sqlx.DB, dbType config.DBType) KVRepository {
	if dbType == config.DBTypePostgreSQL {
		return &pgKVRepository{db: db}
	}

	// Default to SQLite
	return &sqliteKVRepository{db: db, backend: string(dbType)}
}

// NewRedisRepository creates a redis-backed repository; keys are namespaced with prefix
func NewRedisRepository(client *redis.Client, prefix string) KVRepository {
	return &redisKVRepository{client: client, prefix: prefix}
}

// CountKeys returns the number of rows in a SQL key-value table (used by stats)
func CountKeys(ctx context.Context, db *sqlx.DB) (int64, error) {
	var count int64
	if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM kv_store"); err != nil {
		return 0, err
	}
	return count, nil
}
