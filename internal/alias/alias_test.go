package alias_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/alias"
)

func TestMemStore_Variants(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := alias.NewMemStore(
		alias.Set{Canonical: "Coca Cola 350ml", Variants: []string{"coca", "coquita"}},
		alias.Set{Canonical: "coca-cola 350ML", Variants: []string{"cocacola", "Coquita"}},
	)

	got, err := s.Variants(ctx, "coca cola 350ml")
	if err != nil {
		t.Fatalf("Variants: %v", err)
	}
	want := []string{"coca", "coquita", "cocacola"}
	if !slices.Equal(got, want) {
		t.Fatalf("Variants = %v, want %v", got, want)
	}

	none, err := s.Variants(ctx, "Papas")
	if err != nil || len(none) != 0 {
		t.Fatalf("Variants unknown = %v, %v; want empty, nil", none, err)
	}
}

func TestMemStore_Learn(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var s alias.MemStore // zero value is usable

	if err := s.Learn(ctx, "Cerveza Pilsen", "chela"); err != nil {
		t.Fatalf("Learn: %v", err)
	}
	// Same as canonical: ignored.
	if err := s.Learn(ctx, "Cerveza Pilsen", "cerveza pilsen"); err != nil {
		t.Fatalf("Learn canonical: %v", err)
	}
	// Duplicate after normalization: ignored.
	if err := s.Learn(ctx, "Cerveza Pilsen", "CHELA!"); err != nil {
		t.Fatalf("Learn duplicate: %v", err)
	}
	if err := s.Learn(ctx, "Cerveza Pilsen", "  "); !errors.Is(err, alias.ErrEmptyName) {
		t.Fatalf("Learn empty: expected ErrEmptyName, got %v", err)
	}

	got, _ := s.Variants(ctx, "Cerveza Pilsen")
	if !slices.Equal(got, []string{"chela"}) {
		t.Fatalf("Variants = %v, want [chela]", got)
	}

	sets, _ := s.Sets(ctx)
	if len(sets) != 1 || sets[0].Canonical != "Cerveza Pilsen" {
		t.Fatalf("Sets = %+v", sets)
	}
}

func TestLoadFromReader(t *testing.T) {
	t.Parallel()

	yml := `
aliases:
  - name: "Coca Cola 350ml"
    variants: ["coca", "coquita"]
  - name: "Cerveza Pilsen"
    variants: ["chela"]
`
	s, err := alias.LoadFromReader(strings.NewReader(yml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	got, _ := s.Variants(context.Background(), "Cerveza Pilsen")
	if !slices.Equal(got, []string{"chela"}) {
		t.Fatalf("Variants = %v", got)
	}

	_, err = alias.LoadFromReader(strings.NewReader("aliases:\n  - name: \"\"\n    variants: [x]\n"))
	if !errors.Is(err, alias.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}

	_, err = alias.LoadFromReader(strings.NewReader("alias: []\n"))
	if err == nil {
		t.Fatal("expected error for unknown top-level key")
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	src := alias.NewMemStore(alias.Set{Canonical: "Cerveza Pilsen", Variants: []string{"chela"}})
	if err := src.Learn(ctx, "Azúcar Rubia", "azucar"); err != nil {
		t.Fatalf("Learn: %v", err)
	}
	sets, err := src.Sets(ctx)
	if err != nil {
		t.Fatalf("Sets: %v", err)
	}

	var buf strings.Builder
	if err := alias.Encode(&buf, sets); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out := buf.String()
	if strings.Index(out, "Azúcar Rubia") > strings.Index(out, "Cerveza Pilsen") {
		t.Errorf("sets not sorted by name:\n%s", out)
	}

	dst, err := alias.LoadFromReader(strings.NewReader(out))
	if err != nil {
		t.Fatalf("LoadFromReader(Encode output): %v\n%s", err, out)
	}
	for name, want := range map[string][]string{
		"Cerveza Pilsen": {"chela"},
		"azúcar rubia":   {"azucar"},
	} {
		got, _ := dst.Variants(ctx, name)
		if !slices.Equal(got, want) {
			t.Errorf("Variants(%q) = %v, want %v", name, got, want)
		}
	}
}

// countingResolver counts backend lookups.
type countingResolver struct {
	*alias.MemStore
	calls atomic.Int32
}

func (c *countingResolver) Variants(ctx context.Context, canonical string) ([]string, error) {
	c.calls.Add(1)
	return c.MemStore.Variants(ctx, canonical)
}

func TestCached(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := &countingResolver{MemStore: alias.NewMemStore(
		alias.Set{Canonical: "Cerveza Pilsen", Variants: []string{"chela"}},
	)}
	c, err := alias.NewCached(backend, 8)
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}

	for range 3 {
		got, err := c.Variants(ctx, "Cerveza Pilsen")
		if err != nil {
			t.Fatalf("Variants: %v", err)
		}
		if !slices.Equal(got, []string{"chela"}) {
			t.Fatalf("Variants = %v", got)
		}
	}
	if n := backend.calls.Load(); n != 1 {
		t.Fatalf("backend calls = %d, want 1", n)
	}

	// Learn goes through and invalidates.
	if err := c.Learn(ctx, "Cerveza Pilsen", "birra"); err != nil {
		t.Fatalf("Learn: %v", err)
	}
	got, _ := c.Variants(ctx, "cerveza pilsen")
	if !slices.Equal(got, []string{"chela", "birra"}) {
		t.Fatalf("Variants after Learn = %v", got)
	}
	if n := backend.calls.Load(); n != 2 {
		t.Fatalf("backend calls = %d, want 2", n)
	}
}

// pausingResolver holds its first lookup after reading the backend until
// release is closed.
type pausingResolver struct {
	*alias.MemStore
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (p *pausingResolver) Variants(ctx context.Context, canonical string) ([]string, error) {
	v, err := p.MemStore.Variants(ctx, canonical)
	p.once.Do(func() {
		close(p.read)
		<-p.release
	})
	return v, err
}

func TestCached_LearnDuringLookup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := &pausingResolver{
		MemStore: alias.NewMemStore(alias.Set{Canonical: "Cerveza Pilsen", Variants: []string{"chela"}}),
		read:     make(chan struct{}),
		release:  make(chan struct{}),
	}
	c, err := alias.NewCached(backend, 8)
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}

	done := make(chan []string)
	go func() {
		v, _ := c.Variants(ctx, "Cerveza Pilsen")
		done <- v
	}()

	<-backend.read
	if err := c.Learn(ctx, "Cerveza Pilsen", "birra"); err != nil {
		t.Fatalf("Learn: %v", err)
	}
	close(backend.release)

	if stale := <-done; !slices.Equal(stale, []string{"chela"}) {
		t.Fatalf("in-flight Variants = %v, want [chela]", stale)
	}
	got, _ := c.Variants(ctx, "Cerveza Pilsen")
	if !slices.Equal(got, []string{"chela", "birra"}) {
		t.Errorf("Variants after Learn = %v, want [chela birra]", got)
	}
}

func TestCached_InvalidSize(t *testing.T) {
	t.Parallel()

	if _, err := alias.NewCached(alias.Nop{}, 0); err == nil {
		t.Fatal("expected error for size 0")
	}
}

func TestCached_NonLearnerBackend(t *testing.T) {
	t.Parallel()

	c, err := alias.NewCached(alias.Nop{}, 4)
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}
	if err := c.Learn(context.Background(), "Pan", "pancito"); err != nil {
		t.Fatalf("Learn on non-learner backend: %v", err)
	}
}

func TestLoadFile_Example(t *testing.T) {
	t.Parallel()
	s, err := alias.LoadFile("../../configs/aliases.example.yaml")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	got, _ := s.Variants(context.Background(), "cerveza pilsen 330ml")
	if !slices.Equal(got, []string{"chela", "pilsen", "birra"}) {
		t.Errorf("Variants = %v", got)
	}
}
