// Package credentials defines per-user API key storage for the shortening
// service. Keys are opaque to the bot; it only stores and forwards them.
package credentials

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a user has no stored API key.
var ErrNotFound = errors.New("api key not found")

// Store persists per-user API keys and usage counters. Implementations live
// in internal/store.
type Store interface {
	// Get returns the stored API key for the user, or ErrNotFound.
	Get(ctx context.Context, userID int64) (string, error)

	// Set stores or replaces the user's API key and resets the usage counter.
	Set(ctx context.Context, userID int64, apiKey string) error

	// Delete removes the user's API key. Deleting an absent key is not an error.
	Delete(ctx context.Context, userID int64) error

	// AddUsage adds delta to the user's shortened-link counter and returns
	// the new value.
	AddUsage(ctx context.Context, userID int64, delta int64) (int64, error)

	// Usage returns the user's shortened-link counter.
	Usage(ctx context.Context, userID int64) (int64, error)
}
