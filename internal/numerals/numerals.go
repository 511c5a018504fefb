// Package numerals rewrites spoken Spanish number words into digit tokens.
//
// Compounds are consumed before their parts, longest first:
//
//  1. "<hundred> <tens> y <unit>"    ciento cuarenta y cinco -> 145
//  2. "<hundred> <tail>"             doscientos diez         -> 210
//  3. "<tens> y <unit>"              noventa y nueve         -> 99
//  4. single words, cero..quinientos
//
// Matching is whole-word and case-insensitive. Letters, digits and '_' all
// belong to a word, so "dos" inside "dosis" or "lote2dos" is never touched. Everything that
// is not part of a number word is copied verbatim, including spacing.
// Numbers outside 0..599 pass through unconverted.
//
// All functions are pure and safe for concurrent use.
package numerals

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/textnorm"
)

// token is either a word or the gap between two words.
type token struct {
	text   string
	folded string // normalized form; empty for gaps
	word   bool
}

// Convert replaces every recognised number word or compound in s with its
// decimal digits.
func Convert(s string) string {
	toks := tokenize(s)
	if len(toks) == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(toks); {
		if !toks[i].word {
			b.WriteString(toks[i].text)
			i++
			continue
		}
		value, consumed := parseNumber(toks[i:])
		if consumed == 0 {
			b.WriteString(toks[i].text)
			i++
			continue
		}
		b.WriteString(strconv.Itoa(value))
		i += consumed
	}
	return b.String()
}

// IsNumberWord reports whether w, on its own, is a Spanish number word known
// to [Convert]. The connector "y" is not a number word.
func IsNumberWord(w string) bool {
	_, ok := lookupSingle(textnorm.Normalize(w))
	return ok
}

// parseNumber tries the compound forms in order at the head of toks and
// returns the value and the number of tokens (words and gaps) consumed.
// consumed is zero when toks does not start with a number word.
func parseNumber(toks []token) (value, consumed int) {
	head := toks[0].folded

	if h, ok := hundreds[head]; ok {
		// 1. hundred + tens + "y" + unit
		if t, ok := wordAt(toks, 1, tens); ok {
			if isConnectorAt(toks, 2) {
				if u, ok := wordAt(toks, 3, units); ok {
					return h + t + u, 7
				}
			}
		}
		// 2. hundred + single tail below one hundred
		if tail, ok := tailAt(toks, 1); ok {
			return h + tail, 3
		}
		return h, 1
	}

	// 3. tens + "y" + unit
	if t, ok := tens[head]; ok {
		if isConnectorAt(toks, 1) {
			if u, ok := wordAt(toks, 2, units); ok {
				return t + u, 5
			}
		}
		return t, 1
	}

	// 4. single word
	if v, ok := lookupSingle(head); ok {
		return v, 1
	}
	return 0, 0
}

// tailAt returns the value of a one-word number below one hundred found at
// word offset n, or a "<tens> y <unit>" tail starting there.
func tailAt(toks []token, n int) (int, bool) {
	if t, ok := wordAt(toks, n, tens); ok {
		return t, true
	}
	if v, ok := wordAt(toks, n, standalone); ok && v > 0 {
		return v, true
	}
	return wordAt(toks, n, units)
}

// wordAt looks up the n-th word after toks[0] in table. Words must be
// separated by whitespace only.
func wordAt(toks []token, n int, table map[string]int) (int, bool) {
	t, ok := nthWord(toks, n)
	if !ok {
		return 0, false
	}
	v, ok := table[t.folded]
	return v, ok
}

// isConnectorAt reports whether the n-th word after toks[0] is "y".
func isConnectorAt(toks []token, n int) bool {
	t, ok := nthWord(toks, n)
	return ok && t.folded == connector
}

// nthWord returns toks[2n] when every gap before it is pure whitespace.
func nthWord(toks []token, n int) (token, bool) {
	idx := 2 * n
	if idx >= len(toks) {
		return token{}, false
	}
	for g := 1; g < idx; g += 2 {
		if toks[g].word || strings.TrimSpace(toks[g].text) != "" {
			return token{}, false
		}
	}
	if !toks[idx].word {
		return token{}, false
	}
	return toks[idx], true
}

// tokenize splits s into alternating word and gap tokens. A word is a maximal
// run of letters, digits, '_' and combining marks, so decomposed accents stay
// inside it and number words glued to digits are not words of their own.
func tokenize(s string) []token {
	var toks []token
	start := 0
	inWord := false
	for i, r := range s {
		w := isWordRune(r)
		if i == 0 {
			inWord = w
			continue
		}
		if w != inWord {
			toks = appendToken(toks, s[start:i], inWord)
			start = i
			inWord = w
		}
	}
	if start < len(s) {
		toks = appendToken(toks, s[start:], inWord)
	}
	return toks
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.Is(unicode.Mn, r)
}

func appendToken(toks []token, text string, word bool) []token {
	t := token{text: text, word: word}
	if word {
		t.folded = textnorm.Normalize(text)
	}
	return append(toks, t)
}
