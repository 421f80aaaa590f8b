package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// --- PostgreSQL Implementation ---

type pgKVRepository struct {
	db *sqlx.DB
}

func (r *pgKVRepository) Backend() string {
	return "postgres"
}

func (r *pgKVRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	if err := r.db.GetContext(ctx, &value, "SELECT value FROM kv_store WHERE key = $1", key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return []byte(value), nil
}

func (r *pgKVRepository) Set(ctx context.Context, key string, value []byte) error {
	q := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, q, key, string(value))
	return err
}

func (r *pgKVRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM kv_store WHERE key = $1", key)
	return err
}
