// Package phonetic implements the [transcript.PhoneticMatcher] interface using
// Double Metaphone phonetic encoding combined with Jaro-Winkler string
// similarity for ranked candidate selection.
//
// The algorithm proceeds in two stages:
//
//  1. Phonetic candidate filtering: Double Metaphone codes are computed for
//     each word of the phrase and of each vocabulary term. A term whose codes
//     overlap the phrase's becomes a phonetic candidate.
//
//  2. Jaro-Winkler ranking: among phonetic candidates, the term with the
//     highest Jaro-Winkler similarity (case- and accent-insensitive) wins,
//     provided it clears the phonetic threshold. When no phonetic candidate
//     exists, a second pass accepts pure Jaro-Winkler matches above the
//     stricter fuzzy threshold.
//
// Multi-word terms ("Cerveza Pilsen 330ml") are supported: the best pairwise
// word score counts alongside full-string and space-stripped comparisons.
package phonetic

import (
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/textnorm"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score required for a
// phonetically-matched term to be accepted. Default: 0.70.
func WithPhoneticThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score required when no
// phonetic match is found. Default: 0.85.
func WithFuzzyThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.fuzzyThreshold = threshold
	}
}

// Matcher is a phonetic vocabulary matcher. It is read-only after
// construction and safe for concurrent use.
type Matcher struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// New returns a new [Matcher] configured with the supplied options.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// term is one prepared vocabulary entry.
type term struct {
	original string
	folded   string
	tokens   []string
	codes    map[string]struct{}
}

// Vocabulary is a vocabulary with precomputed phonetic codes, for matching
// many phrases against the same terms.
type Vocabulary struct {
	terms    []term
	maxWords int
}

// PrepareVocabulary folds and encodes terms once. Empty terms are dropped.
func PrepareVocabulary(terms []string) *Vocabulary {
	v := &Vocabulary{terms: make([]term, 0, len(terms))}
	for _, t := range terms {
		folded := textnorm.Normalize(t)
		if folded == "" {
			continue
		}
		tokens := strings.Fields(folded)
		v.terms = append(v.terms, term{
			original: t,
			folded:   folded,
			tokens:   tokens,
			codes:    codesForTokens(tokens),
		})
		v.maxWords = max(v.maxWords, len(tokens))
	}
	return v
}

// MaxWords returns the word count of the longest term.
func (v *Vocabulary) MaxWords() int { return v.maxWords }

// Len returns the number of prepared terms.
func (v *Vocabulary) Len() int { return len(v.terms) }

// Match finds the vocabulary term most similar to phrase.
//
// When matched is false, corrected equals phrase unchanged and confidence
// is 0.
func (m *Matcher) Match(phrase string, vocabulary []string) (corrected string, confidence float64, matched bool) {
	return m.MatchPrepared(phrase, PrepareVocabulary(vocabulary))
}

// MatchPrepared is [Matcher.Match] against a prepared vocabulary.
func (m *Matcher) MatchPrepared(phrase string, v *Vocabulary) (corrected string, confidence float64, matched bool) {
	folded := textnorm.Normalize(phrase)
	if v == nil || len(v.terms) == 0 || folded == "" {
		return phrase, 0, false
	}
	tokens := strings.Fields(folded)
	inputCodes := codesForTokens(tokens)

	type candidate struct {
		term     string
		score    float64
		phonetic bool
	}
	var best candidate

	for _, t := range v.terms {
		phoneticMatch := codesOverlap(inputCodes, t.codes)
		jw := bestJWScore(tokens, t.tokens, folded, t.folded)

		if phoneticMatch {
			if jw >= m.phoneticThreshold && (!best.phonetic || jw > best.score) {
				best = candidate{term: t.original, score: jw, phonetic: true}
			}
		} else if !best.phonetic {
			if jw >= m.fuzzyThreshold && jw > best.score {
				best = candidate{term: t.original, score: jw}
			}
		}
	}

	if best.term != "" {
		return best.term, best.score, true
	}
	return phrase, 0, false
}

// codesForTokens returns the union of all Double Metaphone codes for the
// given tokens, empty codes excluded.
func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

// codesOverlap returns true if the two code sets share at least one code.
func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// bestJWScore is the highest Jaro-Winkler similarity over the full strings,
// the space-stripped strings and every word pair.
func bestJWScore(inputTokens, termTokens []string, inputFull, termFull string) float64 {
	score := matchr.JaroWinkler(inputFull, termFull, false)

	if len(inputTokens) > 1 || len(termTokens) > 1 {
		if s := matchr.JaroWinkler(strings.Join(inputTokens, ""), strings.Join(termTokens, ""), false); s > score {
			score = s
		}
	}

	for _, it := range inputTokens {
		for _, tt := range termTokens {
			if s := matchr.JaroWinkler(it, tt, false); s > score {
				score = s
			}
		}
	}
	return score
}
