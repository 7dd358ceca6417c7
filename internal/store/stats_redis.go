package store

import (
	"context"

	"github.com/linkrelay/linkrelay/internal/analytics"
	"github.com/redis/go-redis/v9"
)

// StatsRedisStore is a Redis implementation of analytics.Store. It keeps
// per-user counters rather than raw events; the event stream itself stays in
// the message broker.
type StatsRedisStore struct {
	client *redis.Client
	prefix string // "stats:" per-user hash
}

// NewStatsRedisStore creates a new Redis-backed analytics store.
func NewStatsRedisStore(client *redis.Client) *StatsRedisStore {
	return &StatsRedisStore{
		client: client,
		prefix: "stats:",
	}
}

func (s *StatsRedisStore) SaveLinkShortened(ctx context.Context, event *analytics.LinkShortenedEvent) error {
	key := s.prefix + formatUserID(event.UserID)

	field := "links_shortened"
	if event.Fallback {
		field = "links_fallback"
	}

	return s.client.HIncrBy(ctx, key, field, 1).Err()
}

func (s *StatsRedisStore) SaveMessageRewritten(ctx context.Context, event *analytics.MessageRewrittenEvent) error {
	key := s.prefix + formatUserID(event.UserID)

	pipe := s.client.Pipeline()
	pipe.HIncrBy(ctx, key, "messages_rewritten", 1)
	pipe.HIncrBy(ctx, key, "urls_seen", int64(event.URLCount))
	_, err := pipe.Exec(ctx)

	return err
}

// Compile-time check.
var _ analytics.Store = (*StatsRedisStore)(nil)
