// Package store provides analytics.Store implementations.
package store

import (
	"context"

	"github.com/linkrelay/linkrelay/internal/analytics"
)

// NoopStore discards analytics events. Useful when the stats backend is
// disabled but the consumer wiring stays in place.
type NoopStore struct{}

// NewNoopStore creates a new no-op analytics store.
func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

func (s *NoopStore) SaveLinkShortened(context.Context, *analytics.LinkShortenedEvent) error {
	return nil
}

func (s *NoopStore) SaveMessageRewritten(context.Context, *analytics.MessageRewrittenEvent) error {
	return nil
}

// Compile-time check.
var _ analytics.Store = (*NoopStore)(nil)
