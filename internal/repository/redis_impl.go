package repository

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

type redisKVRepository struct {
	client *redis.Client
	prefix string
}

func (r *redisKVRepository) Backend() string {
	return "redis"
}

func (r *redisKVRepository) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

func (r *redisKVRepository) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

// Set stores the value without expiry; SET replaces the value atomically.
func (r *redisKVRepository) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.key(key), value, 0).Err()
}

func (r *redisKVRepository) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}
