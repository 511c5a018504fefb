// Package command turns a (numeral-converted) utterance into one or more
// (product phrase, quantity) segments.
//
// Two entry points exist:
//
//   - [Segmenter] splits multi-product utterances such as
//     "cervezas 5, papas 3" on their numeric tokens.
//   - [MatchSimple] recognises a single update through an ordered pattern
//     table ("añadir coca cola 5", "coca cola 20", ...).
//
// Both are pure and safe for concurrent use.
package command

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	// ErrInvalidQuantity is returned when a parsed quantity is zero, negative
	// or not finite. Only the containing segment is dropped.
	ErrInvalidQuantity = errors.New("command: quantity must be a positive number")

	// ErrUnrecognizedSyntax is returned by [MatchSimple] when no pattern
	// matches. The message carries the formats the operator should try.
	ErrUnrecognizedSyntax = errors.New(`command: not recognized; try "producto 5" or "añadir producto 5"`)

	// ErrEmptySegmentation is returned by [Segmenter.Segment] when a
	// multi-command utterance yields no usable segment. Callers fall back to
	// [MatchSimple].
	ErrEmptySegmentation = errors.New("command: segmentation produced no usable segment")
)

// Segment is one (product phrase, quantity) pair extracted from an utterance.
type Segment struct {
	// Query is the product phrase, trimmed.
	Query string

	// Quantity is the amount to add. Always finite and > 0.
	Quantity float64
}

// String renders the segment as "query xN".
func (s Segment) String() string {
	return fmt.Sprintf("%s x%s", s.Query, FormatQuantity(s.Quantity))
}

// FormatQuantity renders q without a trailing ".0".
func FormatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

// parseQuantity parses a numeric token and rejects non-positive or
// non-finite values with [ErrInvalidQuantity].
func parseQuantity(s string) (float64, error) {
	q, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuantity, s)
	}
	if math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuantity, s)
	}
	return q, nil
}
