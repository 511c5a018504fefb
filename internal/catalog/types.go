// Package catalog holds the product catalog the interpretation engine matches
// against, and the in-process collaborator that applies update intents to it.
//
// The engine only ever sees an immutable snapshot ([Store.Snapshot]) and emits
// [UpdateIntent] values; applying them is the store's job.
//
// Supported input formats:
//   - Native YAML catalog files ([LoadFile], [LoadFromReader])
//
// All store operations are safe for concurrent use.
package catalog

import "fmt"

// DefaultUnit is shown for entries whose Unit is empty.
const DefaultUnit = "und"

// Entry is one product line in the catalog.
type Entry struct {
	// Code is the operator-facing product code. Optional; an empty code is
	// never scored.
	Code string `yaml:"code" json:"code"`

	// Name is the product's display name. Required.
	Name string `yaml:"name" json:"name"`

	// Unit is the unit of measure ("caja", "kg"). Empty renders as [DefaultUnit].
	Unit string `yaml:"unit,omitempty" json:"unit,omitempty"`

	// QuantityOnHand is the current stock level.
	QuantityOnHand float64 `yaml:"quantity" json:"quantity"`

	// Position is the entry's index in the ordered catalog. Assigned by the
	// loader and store, never read from files.
	Position int `yaml:"-" json:"position"`
}

// DisplayUnit returns Unit or [DefaultUnit] when Unit is empty.
func (e Entry) DisplayUnit() string {
	if e.Unit == "" {
		return DefaultUnit
	}
	return e.Unit
}

// String renders the entry the way the operator sees it in a choice list.
func (e Entry) String() string {
	if e.Code == "" {
		return fmt.Sprintf("%s (%g %s)", e.Name, e.QuantityOnHand, e.DisplayUnit())
	}
	return fmt.Sprintf("[%s] %s (%g %s)", e.Code, e.Name, e.QuantityOnHand, e.DisplayUnit())
}

// UpdateIntent asks the catalog to add DeltaQuantity to the entry at
// TargetPosition. It is the engine's only output.
type UpdateIntent struct {
	TargetPosition int     `json:"target_position"`
	DeltaQuantity  float64 `json:"delta_quantity"`
}
