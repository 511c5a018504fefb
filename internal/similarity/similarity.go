// Package similarity scores how well an operator phrase matches a catalog
// string (product name, code or alias) on a 0–100 scale.
//
// Tiers are evaluated in order and the first one that applies wins:
//
//  1. Normalized strings identical: 100.
//  2. One normalized string contains the other: 90.
//  3. Word overlap. Every query word (longer than two runes) is paired with
//     its best candidate word: exact 100, containment 80, otherwise the share
//     of its characters present in the candidate word scaled to 60. Words whose
//     best match does not exceed 40 are ignored; the rest are averaged and the
//     average is scaled by contributing / max(query words, candidate words).
//
// The score is not a metric and is not symmetric in general. It is
// deterministic and safe for concurrent use.
package similarity

import (
	"strings"
	"unicode/utf8"

	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/textnorm"
)

const (
	// Exact is the score of two identical normalized strings.
	Exact = 100.0

	// Contained is the score when one normalized string contains the other.
	Contained = 90.0

	wordExact      = 100.0
	wordContained  = 80.0
	wordOverlapMax = 60.0

	// minWordScore is the bar a query word's best match must clear to count.
	minWordScore = 40.0

	// minContainedLen keeps one- and two-letter codes ("a", "cc") from
	// scoring as contained in every phrase that happens to include them.
	minContainedLen = 3
)

// Score returns the similarity of query to candidate in [0, 100]. Empty
// inputs (after normalization) score 0.
func Score(query, candidate string) float64 {
	q := textnorm.Normalize(query)
	c := textnorm.Normalize(candidate)
	if q == "" || c == "" {
		return 0
	}
	if q == c {
		return Exact
	}
	if contains(q, c) || contains(c, q) {
		return Contained
	}
	return wordOverlap(wordsOf(q), wordsOf(c))
}

// contains reports whether inner occurs in outer and is long enough to be a
// meaningful containment.
func contains(outer, inner string) bool {
	return utf8.RuneCountInString(inner) >= minContainedLen && strings.Contains(outer, inner)
}

// wordOverlap implements tier 3 over already-normalized word lists.
func wordOverlap(query, candidate []string) float64 {
	if len(query) == 0 || len(candidate) == 0 {
		return 0
	}

	var sum float64
	contributing := 0
	for _, qw := range query {
		best := 0.0
		for _, cw := range candidate {
			if s := wordScore(qw, cw); s > best {
				best = s
			}
		}
		if best > minWordScore {
			sum += best
			contributing++
		}
	}
	if contributing == 0 {
		return 0
	}

	avg := sum / float64(contributing)
	coverage := float64(contributing) / float64(max(len(query), len(candidate)))
	return avg * coverage
}

// wordScore compares a single query word with a single candidate word.
func wordScore(qw, cw string) float64 {
	if qw == cw {
		return wordExact
	}
	if strings.Contains(qw, cw) || strings.Contains(cw, qw) {
		return wordContained
	}
	return charOverlap(qw, cw) * wordOverlapMax
}

// charOverlap is the number of runes of qw that appear anywhere in cw, divided
// by the longer word's length.
func charOverlap(qw, cw string) float64 {
	present := make(map[rune]struct{}, len(cw))
	for _, r := range cw {
		present[r] = struct{}{}
	}
	hits := 0
	for _, r := range qw {
		if _, ok := present[r]; ok {
			hits++
		}
	}
	longest := max(utf8.RuneCountInString(qw), utf8.RuneCountInString(cw))
	return float64(hits) / float64(longest)
}

// wordsOf splits an already-normalized string into words longer than two runes.
func wordsOf(normalized string) []string {
	return textnorm.Words(normalized)
}
