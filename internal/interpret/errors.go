package interpret

import (
	"fmt"
	"strings"

	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/command"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/disambig"
)

// ErrNoMatchFound is returned (wrapped in [*NoMatchError]) when retrieval
// produced nothing to choose from. It is the same sentinel the orchestrator
// uses, so errors.Is works on both.
var ErrNoMatchFound = disambig.ErrNoMatchFound

// NoMatchError reports the phrases that matched no catalog entry.
type NoMatchError struct {
	// Query is the phrase of a single-product utterance. Empty for
	// multi-product utterances.
	Query string

	// Skipped lists every segment of a multi-product utterance; none of them
	// matched.
	Skipped []command.Segment
}

// Error implements error.
func (e *NoMatchError) Error() string {
	if len(e.Skipped) == 0 {
		return fmt.Sprintf("interpret: product not found: %q", e.Query)
	}
	queries := make([]string, len(e.Skipped))
	for i, s := range e.Skipped {
		queries[i] = fmt.Sprintf("%q", s.Query)
	}
	return "interpret: products not found: " + strings.Join(queries, ", ")
}

// Unwrap returns [ErrNoMatchFound].
func (e *NoMatchError) Unwrap() error { return ErrNoMatchFound }
