package catalog

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store].
type MemStore struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemStore returns a [MemStore] holding a copy of entries. Positions are
// reassigned to match slice order.
func NewMemStore(entries []Entry) *MemStore {
	s := &MemStore{entries: slices.Clone(entries)}
	for i := range s.entries {
		s.entries[i].Position = i
	}
	return s
}

// Snapshot implements [Store.Snapshot].
func (s *MemStore) Snapshot(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries), nil
}

// Apply implements [Store.Apply].
func (s *MemStore) Apply(ctx context.Context, intent UpdateIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if intent.TargetPosition < 0 || intent.TargetPosition >= len(s.entries) {
		return fmt.Errorf("%w: %d", ErrUnknownPosition, intent.TargetPosition)
	}
	s.entries[intent.TargetPosition].QuantityOnHand += intent.DeltaQuantity
	return nil
}

// Len returns the number of entries.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
