package resultcache

import (
	"context"
	"sync"
)

type memoryKey struct {
	owner       int64
	fingerprint string
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[memoryKey]Entry
	saves   int
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[memoryKey]Entry)}
}

// LatestAnalyzed implements Store.
func (m *MemoryStore) LatestAnalyzed(ctx context.Context, ownerID int64, fingerprint string) (Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[memoryKey{ownerID, fingerprint}]
	return entry, ok, nil
}

// SaveAnalyzed implements Store.
func (m *MemoryStore) SaveAnalyzed(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[memoryKey{entry.OwnerID, entry.Fingerprint}] = entry
	m.saves++
	return nil
}

// Saves reports how many times SaveAnalyzed succeeded.
func (m *MemoryStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
