// Package alias defines the alias collaborator: the source of alternate names
// (regional nicknames, abbreviations, common mis-transcriptions) for catalog
// products. The retriever scores a query against every variant in addition to
// the product's name and code.
//
// Aliases are keyed by the product's canonical name, compared in
// [textnorm.Normalize] form, so "Coca Cola 350ml" and "coca-cola 350 ML" share
// one alias set.
package alias

import (
	"context"
	"errors"

	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/textnorm"
)

// ErrEmptyName is returned when a canonical name or variant normalizes to
// the empty string.
var ErrEmptyName = errors.New("alias: empty name")

// Set is the alias set of one catalog product.
type Set struct {
	// Canonical is the product name as it appears in the catalog.
	Canonical string `yaml:"name" json:"name"`

	// Variants are alternate names for the product.
	Variants []string `yaml:"variants" json:"variants"`
}

// Resolver expands a canonical product name into its recognised variants.
//
// Implementations must be safe for concurrent use.
type Resolver interface {
	// Variants returns the variants registered for canonical. An unknown name
	// yields an empty slice and a nil error.
	Variants(ctx context.Context, canonical string) ([]string, error)
}

// Learner records a new variant for a product, typically a phrase the operator
// confirmed by picking that product.
type Learner interface {
	Learn(ctx context.Context, canonical, variant string) error
}

// Store is a full alias collaborator.
type Store interface {
	Resolver
	Learner

	// Sets returns every alias set. Order is not guaranteed.
	Sets(ctx context.Context) ([]Set, error)
}

// Key returns the lookup key for a canonical name.
func Key(canonical string) string {
	return textnorm.Normalize(canonical)
}

// Nop is a [Resolver] with no aliases.
type Nop struct{}

// Variants implements [Resolver].
func (Nop) Variants(context.Context, string) ([]string, error) { return nil, nil }
