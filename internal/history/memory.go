// Package history provides bounded, newest-first storage for live
// comparison and simulation results.
package history

import (
	"context"
	"sync"

	"github.com/inducomp/aipk/internal/domain"
)

// DefaultLimit bounds the history log when no limit is configured.
const DefaultLimit = 10

// MemoryStore is an in-process history store. It is the default backend and
// the fallback when no Redis address is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	items []domain.HistoryItem
	limit int
}

// NewMemoryStore creates a bounded in-memory store.
func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &MemoryStore{limit: limit}
}

// Append prepends an item, evicting the oldest entries beyond the limit.
func (s *MemoryStore) Append(_ context.Context, item domain.HistoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append([]domain.HistoryItem{item}, s.items...)
	if len(s.items) > s.limit {
		s.items = s.items[:s.limit]
	}
	return nil
}

// List returns the stored items, newest first.
func (s *MemoryStore) List(_ context.Context) ([]domain.HistoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.HistoryItem, len(s.items))
	copy(out, s.items)
	return out, nil
}
