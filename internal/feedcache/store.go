package feedcache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSnapshotNotFound is returned by a SnapshotStore with nothing saved for a key.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore persists the last good snapshot per source.
type SnapshotStore interface {
	Load(ctx context.Context, key string) ([]byte, time.Time, error)
	Save(ctx context.Context, key string, data []byte, fetchedAt time.Time) error
}

type storedSnapshot struct {
	data      []byte
	fetchedAt time.Time
}

// MemoryStore is an in-memory SnapshotStore for development and testing.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]storedSnapshot
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]storedSnapshot)}
}

// Load returns the snapshot saved under key.
func (m *MemoryStore) Load(_ context.Context, key string) ([]byte, time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.snapshots[key]
	if !ok {
		return nil, time.Time{}, ErrSnapshotNotFound
	}
	data := make([]byte, len(snap.data))
	copy(data, snap.data)
	return data, snap.fetchedAt, nil
}

// Save replaces the snapshot under key.
func (m *MemoryStore) Save(_ context.Context, key string, data []byte, fetchedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	m.snapshots[key] = storedSnapshot{data: stored, fetchedAt: fetchedAt}
	return nil
}
