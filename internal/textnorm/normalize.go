// Package textnorm folds free-form operator text into a canonical form used by
// every matching stage: lower case, no diacritics, no punctuation, single
// spaces.
//
// All functions are pure and safe for concurrent use.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minWordLen is the shortest word (in runes) returned by [Words]. Articles and
// prepositions ("la", "de", "en") carry no product signal.
const minWordLen = 3

// stripMarks decomposes to NFD and drops combining marks, so "café" and "cafe"
// become the same string.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize returns the canonical form of s. It never fails and is idempotent:
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	folded, _, err := transform.String(stripMarks, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}

	var b strings.Builder
	b.Grow(len(folded))
	space := true // suppresses leading and repeated spaces
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// Words normalizes s and returns its words that are longer than two runes.
func Words(s string) []string {
	fields := strings.Fields(Normalize(s))
	words := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= minWordLen {
			words = append(words, f)
		}
	}
	return words
}
