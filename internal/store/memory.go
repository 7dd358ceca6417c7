package store

import (
	"context"
	"sync"

	"github.com/linkrelay/linkrelay/internal/credentials"
)

// MemoryStore is an in-memory implementation of credentials.Store for tests
// and single-process development.
type MemoryStore struct {
	mu    sync.RWMutex
	keys  map[int64]string
	usage map[int64]int64
}

// NewMemoryStore creates a new in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		keys:  make(map[int64]string),
		usage: make(map[int64]int64),
	}
}

func (m *MemoryStore) Get(_ context.Context, userID int64) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key, ok := m.keys[userID]
	if !ok {
		return "", credentials.ErrNotFound
	}

	return key, nil
}

func (m *MemoryStore) Set(_ context.Context, userID int64, apiKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.keys[userID] = apiKey
	m.usage[userID] = 0

	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.keys, userID)
	delete(m.usage, userID)

	return nil
}

func (m *MemoryStore) AddUsage(_ context.Context, userID int64, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.usage[userID] += delta

	return m.usage[userID], nil
}

func (m *MemoryStore) Usage(_ context.Context, userID int64) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.usage[userID], nil
}

// Compile-time check.
var _ credentials.Store = (*MemoryStore)(nil)
