package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/alias"
)

// Compile-time interface check.
var _ alias.Store = (*Store)(nil)

// Store is the PostgreSQL alias store. All operations are safe for concurrent
// use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to the database at dsn, pings it and runs [Migrate].
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres alias store: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres alias store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres alias store: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres alias store: migrate: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases all pooled connections.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks database connectivity. Used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Variants implements [alias.Resolver.Variants].
func (s *Store) Variants(ctx context.Context, canonical string) ([]string, error) {
	const q = `
SELECT variant
FROM product_aliases
WHERE canonical_key = $1
ORDER BY seq`

	rows, err := s.pool.Query(ctx, q, alias.Key(canonical))
	if err != nil {
		return nil, fmt.Errorf("postgres alias store: variants: %w", err)
	}
	variants, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres alias store: scan variants: %w", err)
	}
	return variants, nil
}

// Learn implements [alias.Learner.Learn]. Learned rows are flagged so they
// can be reviewed separately from imported ones.
func (s *Store) Learn(ctx context.Context, canonical, variant string) error {
	return s.insert(ctx, canonical, variant, true)
}

// Import bulk-inserts alias sets inside a single transaction. Existing
// (product, variant) pairs are left untouched.
func (s *Store) Import(ctx context.Context, sets []alias.Set) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres alias store: begin import: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	n := 0
	for _, set := range sets {
		for _, v := range set.Variants {
			inserted, err := insertTx(ctx, tx, set.Canonical, v, false)
			if err != nil {
				return 0, err
			}
			if inserted {
				n++
			}
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres alias store: commit import: %w", err)
	}
	return n, nil
}

// Sets implements [alias.Store.Sets].
func (s *Store) Sets(ctx context.Context) ([]alias.Set, error) {
	const q = `
SELECT canonical_key, canonical, variant
FROM product_aliases
ORDER BY canonical_key, seq`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("postgres alias store: sets: %w", err)
	}
	defer rows.Close()

	var sets []alias.Set
	lastKey := ""
	for rows.Next() {
		var key, canonical, variant string
		if err := rows.Scan(&key, &canonical, &variant); err != nil {
			return nil, fmt.Errorf("postgres alias store: scan set: %w", err)
		}
		if len(sets) == 0 || key != lastKey {
			sets = append(sets, alias.Set{Canonical: canonical})
			lastKey = key
		}
		sets[len(sets)-1].Variants = append(sets[len(sets)-1].Variants, variant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres alias store: iterate sets: %w", err)
	}
	return sets, nil
}

func (s *Store) insert(ctx context.Context, canonical, variant string, learned bool) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres alias store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := insertTx(ctx, tx, canonical, variant, learned); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres alias store: commit: %w", err)
	}
	return nil
}

// insertTx adds one (product, variant) row and reports whether it was new.
// Variants equal to the canonical name are skipped.
func insertTx(ctx context.Context, tx pgx.Tx, canonical, variant string, learned bool) (bool, error) {
	key, vkey := alias.Key(canonical), alias.Key(variant)
	if key == "" || vkey == "" {
		return false, alias.ErrEmptyName
	}
	if key == vkey {
		return false, nil
	}

	const q = `
INSERT INTO product_aliases (canonical_key, canonical, variant_key, variant, learned)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (canonical_key, variant_key) DO NOTHING`

	tag, err := tx.Exec(ctx, q, key, canonical, vkey, variant, learned)
	if err != nil {
		return false, fmt.Errorf("postgres alias store: insert: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
