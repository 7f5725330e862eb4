package state

import (
	"context"
	"sync"
)

// MemoryStorage is a volatile Storage keeping documents in a process local
// map. Nothing survives a restart, so it is meant for local development and
// tests. Writes are last-write-wins: ETags are issued but never enforced.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]Item
}

// NewMemoryStorage constructs an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]Item)}
}

// Read returns copies of the stored documents for keys.
func (s *MemoryStorage) Read(_ context.Context, keys []string) (map[string]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Item, len(keys))
	for _, k := range keys {
		if item, ok := s.items[k]; ok {
			out[k] = Item{Value: append([]byte(nil), item.Value...), ETag: item.ETag}
		}
	}
	return out, nil
}

// Write stores copies of changes under a new ETag.
func (s *MemoryStorage) Write(_ context.Context, changes map[string]*Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, item := range changes {
		if item == nil {
			continue
		}
		tag := NewETag()
		s.items[k] = Item{Value: append([]byte(nil), item.Value...), ETag: tag}
		item.ETag = tag
	}
	return nil
}

// Delete removes keys.
func (s *MemoryStorage) Delete(_ context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.items, k)
	}
	return nil
}

// Len returns the number of stored documents.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
