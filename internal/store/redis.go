package store

import (
	"context"
	"errors"
	"strconv"

	"github.com/linkrelay/linkrelay/internal/credentials"
	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis implementation of credentials.Store.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string // "apikey:" for userID->key
	usePrefix string // "usage:" for userID->counter
}

// NewRedisStore creates a new Redis-backed credential store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:    client,
		keyPrefix: "apikey:",
		usePrefix: "usage:",
	}
}

func (r *RedisStore) Get(ctx context.Context, userID int64) (string, error) {
	key, err := r.client.Get(ctx, r.keyPrefix+formatUserID(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", credentials.ErrNotFound
		}

		return "", err
	}

	return key, nil
}

func (r *RedisStore) Set(ctx context.Context, userID int64, apiKey string) error {
	id := formatUserID(userID)

	// Pipeline keeps key replacement and counter reset in one round trip
	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.keyPrefix+id, apiKey, 0)
	pipe.Del(ctx, r.usePrefix+id)
	_, err := pipe.Exec(ctx)

	return err
}

func (r *RedisStore) Delete(ctx context.Context, userID int64) error {
	id := formatUserID(userID)

	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.keyPrefix+id)
	pipe.Del(ctx, r.usePrefix+id)
	_, err := pipe.Exec(ctx)

	return err
}

func (r *RedisStore) AddUsage(ctx context.Context, userID int64, delta int64) (int64, error) {
	return r.client.IncrBy(ctx, r.usePrefix+formatUserID(userID), delta).Result()
}

func (r *RedisStore) Usage(ctx context.Context, userID int64) (int64, error) {
	count, err := r.client.Get(ctx, r.usePrefix+formatUserID(userID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}

		return 0, err
	}

	return count, nil
}

func formatUserID(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// Compile-time check.
var _ credentials.Store = (*RedisStore)(nil)
