//go:build integration

package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/linkrelay/linkrelay/internal/credentials"
	"github.com/linkrelay/linkrelay/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

func TestRedisStoreIntegration(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr: getRedisAddr(),
	})
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	s := store.NewRedisStore(client)

	const userID int64 = 990042

	cleanup := func() {
		client.Del(ctx, "apikey:990042", "usage:990042")
	}

	t.Run("set and get api key", func(t *testing.T) {
		defer cleanup()

		err := s.Set(ctx, userID, "key123")
		require.NoError(t, err)

		got, err := s.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "key123", got)
	})

	t.Run("get on unknown user returns ErrNotFound", func(t *testing.T) {
		_, err := s.Get(ctx, 990099)

		assert.ErrorIs(t, err, credentials.ErrNotFound)
	})

	t.Run("set resets the usage counter", func(t *testing.T) {
		defer cleanup()

		require.NoError(t, s.Set(ctx, userID, "key123"))

		_, err := s.AddUsage(ctx, userID, 1)
		require.NoError(t, err)

		require.NoError(t, s.Set(ctx, userID, "key456"))

		count, err := s.Usage(ctx, userID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("delete removes key and counter", func(t *testing.T) {
		defer cleanup()

		require.NoError(t, s.Set(ctx, userID, "key123"))
		require.NoError(t, s.Delete(ctx, userID))

		_, err := s.Get(ctx, userID)
		assert.ErrorIs(t, err, credentials.ErrNotFound)

		count, err := s.Usage(ctx, userID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("usage counter increments", func(t *testing.T) {
		defer cleanup()

		require.NoError(t, s.Set(ctx, userID, "key123"))

		first, err := s.AddUsage(ctx, userID, 1)
		require.NoError(t, err)

		second, err := s.AddUsage(ctx, userID, 1)
		require.NoError(t, err)

		assert.Equal(t, int64(1), first)
		assert.Equal(t, int64(2), second)
	})
}
