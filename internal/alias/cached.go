package alias

import (
	"context"
	"fmt"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cached fronts a [Resolver] with a bounded LRU of variant lists. Learn calls
// are forwarded (when the backend is also a [Learner]) and invalidate the
// product's entry.
//
// Cached is safe for concurrent use.
type Cached struct {
	backend Resolver
	cache   *lru.Cache[string, []string]

	// gen counts Learn calls. A lookup fills the cache only if no Learn ran
	// while it read the backend.
	mu  sync.Mutex
	gen uint64
}

// Compile-time assertions.
var (
	_ Resolver = (*Cached)(nil)
	_ Learner  = (*Cached)(nil)
)

// NewCached wraps backend with an LRU holding up to size products.
func NewCached(backend Resolver, size int) (*Cached, error) {
	c, err := lru.New[string, []string](size)
	if err != nil {
		return nil, fmt.Errorf("alias: new cache: %w", err)
	}
	return &Cached{backend: backend, cache: c}, nil
}

// Variants implements [Resolver.Variants].
func (c *Cached) Variants(ctx context.Context, canonical string) ([]string, error) {
	key := Key(canonical)
	if v, ok := c.cache.Get(key); ok {
		return slices.Clone(v), nil
	}
	gen := c.generation()
	v, err := c.backend.Variants(ctx, canonical)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.gen == gen {
		c.cache.Add(key, slices.Clone(v))
	}
	c.mu.Unlock()
	return v, nil
}

// Learn implements [Learner.Learn]. When the backend cannot learn, the call
// is a no-op.
func (c *Cached) Learn(ctx context.Context, canonical, variant string) error {
	l, ok := c.backend.(Learner)
	if !ok {
		return nil
	}
	if err := l.Learn(ctx, canonical, variant); err != nil {
		return err
	}

	c.mu.Lock()
	c.gen++
	c.cache.Remove(Key(canonical))
	c.mu.Unlock()
	return nil
}

func (c *Cached) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Len returns the number of cached products.
func (c *Cached) Len() int {
	return c.cache.Len()
}
