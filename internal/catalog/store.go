package catalog

import (
	"context"
	"errors"
)

// ErrUnknownPosition is returned by Apply when the intent targets a position
// outside the catalog.
var ErrUnknownPosition = errors.New("catalog: unknown position")

// Store is the catalog collaborator. It hands out ordered, read-only
// snapshots and applies [UpdateIntent] values.
//
// All implementations must be safe for concurrent use.
type Store interface {
	// Snapshot returns a copy of the catalog in position order. Mutating the
	// returned slice does not affect the store.
	Snapshot(ctx context.Context) ([]Entry, error)

	// Apply adds intent.DeltaQuantity to the entry at intent.TargetPosition.
	// Returns [ErrUnknownPosition] when no such entry exists.
	Apply(ctx context.Context, intent UpdateIntent) error
}
