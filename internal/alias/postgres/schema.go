// Package postgres provides a PostgreSQL-backed [alias.Store] so that alias
// sets, including aliases learned from operator choices, survive restarts and
// can be shared by several terminals.
//
// Usage:
//
//	store, err := postgres.NewStore(ctx, dsn)
//	if err != nil { … }
//	defer store.Close()
//
//	variants, _ := store.Variants(ctx, "Cerveza Pilsen")
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ddlAliases stores one row per (product, variant). canonical_key and
// variant_key hold the normalized forms used for lookups and de-duplication;
// seq preserves insertion order.
const ddlAliases = `
CREATE TABLE IF NOT EXISTS product_aliases (
    seq            BIGSERIAL,
    canonical_key  TEXT         NOT NULL,
    canonical      TEXT         NOT NULL,
    variant_key    TEXT         NOT NULL,
    variant        TEXT         NOT NULL,
    learned        BOOLEAN      NOT NULL DEFAULT false,
    created_at     TIMESTAMPTZ  NOT NULL DEFAULT now(),
    PRIMARY KEY (canonical_key, variant_key)
);

CREATE INDEX IF NOT EXISTS idx_product_aliases_canonical_key
    ON product_aliases (canonical_key);
`

// Migrate creates the alias table if it does not exist. It is idempotent and
// safe to call on every start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, ddlAliases); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}
