package command

import (
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/numerals"
)

// Pattern is one entry of the single-command table. Group 1 captures the
// product phrase and group 2 the quantity.
type Pattern struct {
	// Name is a human-readable label for logging.
	Name string

	// Regex is matched against the whole trimmed, lower-cased text.
	Regex *regexp.Regexp
}

// patterns is tried in order and the first match with a positive quantity
// wins. The generic trailing-number form comes first, so a leading verb stays
// in the phrase ("añadir coca cola 5" asks for "añadir coca cola"); the
// scorer's containment tier still ranks the product well.
var patterns = []Pattern{
	{
		Name:  "trailing-number",
		Regex: regexp.MustCompile(`^(.+?)\s+(-?\d+(?:\.\d+)?)$`),
	},
	{
		Name:  "add",
		Regex: regexp.MustCompile(`^(?:añadir|anadir|agregar|sumar)\s+(.+?)\s+(-?\d+(?:\.\d+)?)$`),
	},
	{
		Name:  "update",
		Regex: regexp.MustCompile(`^(?:actualizar|cambiar|poner)\s+(.+?)\s+(?:a|con|en)\s+(-?\d+(?:\.\d+)?)$`),
	},
}

// MatchSimple parses text as a single update. The first pattern that matches
// with a strictly positive quantity wins.
//
// Returns [ErrInvalidQuantity] when a pattern matched but every match carried
// a non-positive quantity, and [ErrUnrecognizedSyntax] when nothing matched.
func MatchSimple(text string) (Segment, error) {
	t := strings.ToLower(numerals.Convert(text))
	t = strings.TrimRight(strings.TrimSpace(t), ".!?,;: ")

	var quantityErr error
	for _, p := range patterns {
		m := p.Regex.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		phrase := strings.TrimSpace(m[1])
		if phrase == "" {
			continue
		}
		q, err := parseQuantity(m[2])
		if err != nil {
			quantityErr = err
			continue
		}
		slog.Debug("command: single command matched", "pattern", p.Name, "query", phrase, "quantity", q)
		return Segment{Query: phrase, Quantity: q}, nil
	}
	if quantityErr != nil {
		return Segment{}, quantityErr
	}
	return Segment{}, ErrUnrecognizedSyntax
}

// IsRecoverable reports whether err is one of the per-utterance command
// errors. None of them affect state beyond the utterance that produced them.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrUnrecognizedSyntax) ||
		errors.Is(err, ErrEmptySegmentation)
}
