package seen

import (
	"context"
	"sync"
)

// Store is the set of message ids that have already been replied to.
type Store interface {
	// Contains reports whether the message id is in the set.
	Contains(ctx context.Context, messageID string) (bool, error)
	// Add inserts the message id. Adding an id twice is not an error.
	Add(ctx context.Context, messageID string) error
	// Len returns the number of ids in the set.
	Len(ctx context.Context) (int, error)
	// Close releases any resources held by the store.
	Close() error
}

// NewStore returns a SQLite-backed store when dbPath is non-empty,
// otherwise an in-memory store.
func NewStore(dbPath string) (Store, error) {
	if dbPath == "" {
		return NewMemoryStore(), nil
	}
	return NewSQLiteStore(dbPath)
}

// MemoryStore is an in-memory Store. It is safe for concurrent use.
type MemoryStore struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ids: make(map[string]struct{}),
	}
}

func (s *MemoryStore) Contains(_ context.Context, messageID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[messageID]
	return ok, nil
}

func (s *MemoryStore) Add(_ context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[messageID] = struct{}{}
	return nil
}

func (s *MemoryStore) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids), nil
}

func (s *MemoryStore) Close() error {
	return nil
}
