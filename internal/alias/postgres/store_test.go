package postgres_test

import (
	"context"
	"errors"
	"os"
	"slices"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/alias"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/alias/postgres"
)

// testDSN returns the test database DSN from the environment, or skips the
// test if VOZSTOCK_TEST_POSTGRES_DSN is not set.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("VOZSTOCK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("VOZSTOCK_TEST_POSTGRES_DSN not set, skipping PostgreSQL integration tests")
	}
	return dsn
}

// newTestStore creates a fresh [postgres.Store] on a clean table.
func newTestStore(t *testing.T) *postgres.Store {
	t.Helper()
	dsn := testDSN(t)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)
	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS product_aliases CASCADE"); err != nil {
		t.Fatalf("drop: %v", err)
	}

	store, err := postgres.NewStore(ctx, dsn)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func TestStore_LearnAndVariants(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, v := range []string{"chela", "birra", "CHELA", "cerveza pilsen"} {
		if err := store.Learn(ctx, "Cerveza Pilsen", v); err != nil {
			t.Fatalf("Learn(%q): %v", v, err)
		}
	}

	got, err := store.Variants(ctx, "cerveza  PILSEN")
	if err != nil {
		t.Fatalf("Variants: %v", err)
	}
	if !slices.Equal(got, []string{"chela", "birra"}) {
		t.Fatalf("Variants = %v, want [chela birra]", got)
	}

	if err := store.Learn(ctx, "Cerveza Pilsen", "!!"); !errors.Is(err, alias.ErrEmptyName) {
		t.Fatalf("Learn empty: expected ErrEmptyName, got %v", err)
	}
}

func TestStore_ImportAndSets(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	n, err := store.Import(ctx, []alias.Set{
		{Canonical: "Coca Cola 350ml", Variants: []string{"coca", "coquita"}},
		{Canonical: "Cerveza Pilsen", Variants: []string{"chela"}},
	})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if n != 3 {
		t.Fatalf("Import inserted %d, want 3", n)
	}

	// Re-import is a no-op.
	n, err = store.Import(ctx, []alias.Set{{Canonical: "Cerveza Pilsen", Variants: []string{"chela"}}})
	if err != nil || n != 0 {
		t.Fatalf("re-Import = %d, %v; want 0, nil", n, err)
	}

	sets, err := store.Sets(ctx)
	if err != nil {
		t.Fatalf("Sets: %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("Sets = %+v, want 2 sets", sets)
	}
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
