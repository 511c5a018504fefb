package resilience

import (
	"context"
	"log/slog"

	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/alias"
)

var _ alias.Store = (*AliasFailover)(nil)

// AliasFailover is an [alias.Store] reading from a primary store and, while
// the primary fails, from a local fallback. Learned variants that the primary
// cannot take are kept in the fallback so the running session still
// benefits from them.
type AliasFailover struct {
	group    *FallbackGroup[alias.Store]
	fallback alias.Store
}

// NewAliasFailover returns an [AliasFailover]. cfg tunes the breaker put in
// front of each store.
func NewAliasFailover(primary, fallback alias.Store, cfg CircuitBreakerConfig) *AliasFailover {
	g := NewFallbackGroup[alias.Store]("aliases.primary", primary, cfg)
	g.AddFallback("aliases.fallback", fallback)
	return &AliasFailover{group: g, fallback: fallback}
}

// Variants implements [alias.Resolver.Variants].
func (a *AliasFailover) Variants(ctx context.Context, canonical string) ([]string, error) {
	return ExecuteWithResult(a.group, func(s alias.Store) ([]string, error) {
		return s.Variants(ctx, canonical)
	})
}

// Learn implements [alias.Learner.Learn]. Only the first store that accepts
// the variant stores it.
func (a *AliasFailover) Learn(ctx context.Context, canonical, variant string) error {
	return a.group.Execute(func(s alias.Store) error {
		if err := s.Learn(ctx, canonical, variant); err != nil {
			return err
		}
		if s == a.fallback {
			slog.Warn("resilience: alias learned locally only", "name", canonical, "variant", variant)
		}
		return nil
	})
}

// Sets implements [alias.Store.Sets].
func (a *AliasFailover) Sets(ctx context.Context) ([]alias.Set, error) {
	return ExecuteWithResult(a.group, func(s alias.Store) ([]alias.Set, error) {
		return s.Sets(ctx)
	})
}

// PrimaryState reports the primary store's breaker state.
func (a *AliasFailover) PrimaryState() State {
	return a.group.Breaker("aliases.primary").State()
}
