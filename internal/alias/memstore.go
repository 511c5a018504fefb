package alias

import (
	"context"
	"slices"
	"sync"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory [Store].
// The zero value is ready to use.
type MemStore struct {
	mu   sync.RWMutex
	sets map[string]*Set
}

// NewMemStore returns a [MemStore] pre-loaded with sets. Sets sharing a
// canonical key are merged.
func NewMemStore(sets ...Set) *MemStore {
	s := &MemStore{sets: make(map[string]*Set, len(sets))}
	for _, set := range sets {
		for _, v := range set.Variants {
			_ = s.add(set.Canonical, v)
		}
	}
	return s
}

// Variants implements [Resolver.Variants].
func (s *MemStore) Variants(ctx context.Context, canonical string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.sets[Key(canonical)]
	if !ok {
		return nil, nil
	}
	return slices.Clone(set.Variants), nil
}

// Learn implements [Learner.Learn]. Variants equal (after normalization) to
// the canonical name or to an existing variant are ignored.
func (s *MemStore) Learn(ctx context.Context, canonical, variant string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(canonical, variant)
}

// Sets implements [Store.Sets].
func (s *MemStore) Sets(ctx context.Context) ([]Set, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Set, 0, len(s.sets))
	for _, set := range s.sets {
		out = append(out, Set{Canonical: set.Canonical, Variants: slices.Clone(set.Variants)})
	}
	return out, nil
}

// add must be called with s.mu held for writing (or during construction).
func (s *MemStore) add(canonical, variant string) error {
	key := Key(canonical)
	vkey := Key(variant)
	if key == "" || vkey == "" {
		return ErrEmptyName
	}
	if vkey == key {
		return nil
	}
	if s.sets == nil {
		s.sets = make(map[string]*Set)
	}

	set, ok := s.sets[key]
	if !ok {
		set = &Set{Canonical: canonical}
		s.sets[key] = set
	}
	for _, existing := range set.Variants {
		if Key(existing) == vkey {
			return nil
		}
	}
	set.Variants = append(set.Variants, variant)
	return nil
}
