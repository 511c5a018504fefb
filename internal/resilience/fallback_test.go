package resilience_test

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/alias"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/resilience"
)

var errDown = errors.New("connection refused")

func TestFallbackGroup_ExecuteWithResult(t *testing.T) {
	t.Parallel()
	g := resilience.NewFallbackGroup("primary", errDown, resilience.CircuitBreakerConfig{MaxFailures: 1, ResetTimeout: time.Hour})
	g.AddFallback("secondary", nil)

	var primaryCalls atomic.Int32
	call := func(e error) (string, error) {
		if e != nil {
			primaryCalls.Add(1)
			return "", e
		}
		return "secondary", nil
	}

	for range 3 {
		got, err := resilience.ExecuteWithResult(g, call)
		if err != nil || got != "secondary" {
			t.Fatalf("ExecuteWithResult = %q, %v", got, err)
		}
	}
	if n := primaryCalls.Load(); n != 1 {
		t.Errorf("primary called %d times, want 1 before its circuit opened", n)
	}
	if s := g.Breaker("primary").State(); s != resilience.StateOpen {
		t.Errorf("primary breaker = %v, want open", s)
	}
	if g.Breaker("missing") != nil {
		t.Error("Breaker(missing) != nil")
	}
}

func TestFallbackGroup_AllFailed(t *testing.T) {
	t.Parallel()
	g := resilience.NewFallbackGroup("a", 1, resilience.CircuitBreakerConfig{})
	g.AddFallback("b", 2)

	var seen []int
	err := g.Execute(func(v int) error {
		seen = append(seen, v)
		return errDown
	})
	if !errors.Is(err, resilience.ErrAllFailed) || !errors.Is(err, errDown) {
		t.Errorf("err = %v, want ErrAllFailed wrapping the last error", err)
	}
	if !slices.Equal(seen, []int{1, 2}) {
		t.Errorf("members tried = %v, want [1 2]", seen)
	}
}

// flakyStore is an alias store that fails while down is set.
type flakyStore struct {
	*alias.MemStore
	down atomic.Bool
}

func (f *flakyStore) Variants(ctx context.Context, canonical string) ([]string, error) {
	if f.down.Load() {
		return nil, errDown
	}
	return f.MemStore.Variants(ctx, canonical)
}

func (f *flakyStore) Learn(ctx context.Context, canonical, variant string) error {
	if f.down.Load() {
		return errDown
	}
	return f.MemStore.Learn(ctx, canonical, variant)
}

func (f *flakyStore) Sets(ctx context.Context) ([]alias.Set, error) {
	if f.down.Load() {
		return nil, errDown
	}
	return f.MemStore.Sets(ctx)
}

func TestAliasFailover(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	primary := &flakyStore{MemStore: alias.NewMemStore(alias.Set{Canonical: "Cerveza", Variants: []string{"chela", "birra"}})}
	local := alias.NewMemStore(alias.Set{Canonical: "Cerveza", Variants: []string{"chela"}})
	a := resilience.NewAliasFailover(primary, local, resilience.CircuitBreakerConfig{MaxFailures: 2, ResetTimeout: time.Hour})

	got, err := a.Variants(ctx, "Cerveza")
	if err != nil || !slices.Equal(got, []string{"chela", "birra"}) {
		t.Fatalf("healthy Variants = %v, %v", got, err)
	}

	primary.down.Store(true)
	got, err = a.Variants(ctx, "Cerveza")
	if err != nil || !slices.Equal(got, []string{"chela"}) {
		t.Fatalf("degraded Variants = %v, %v; want local copy", got, err)
	}

	if err := a.Learn(ctx, "Cerveza", "pilsen"); err != nil {
		t.Fatalf("Learn while primary down: %v", err)
	}
	if v, _ := local.Variants(ctx, "Cerveza"); !slices.Contains(v, "pilsen") {
		t.Errorf("local variants = %v, want the learned one", v)
	}
	if s := a.PrimaryState(); s != resilience.StateOpen {
		t.Errorf("PrimaryState = %v, want open after two failures", s)
	}

	sets, err := a.Sets(ctx)
	if err != nil || len(sets) != 1 {
		t.Errorf("Sets = %v, %v", sets, err)
	}
}
