package transcript

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/numerals"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/textnorm"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/transcript/phonetic"
)

// minWordLen is the shortest word the corrector will try to replace.
const minWordLen = 3

// keywords are command words that must survive correction.
var keywords = map[string]bool{
	"anadir": true, "agregar": true, "sumar": true,
	"actualizar": true, "cambiar": true, "poner": true,
	"con": true, "tambien": true, "mas": true,
}

// trailingPunct is stripped from a token before matching and put back after.
const trailingPunct = ",;.:!?"

// Corrector applies phonetic vocabulary correction. It is safe for concurrent
// use.
type Corrector struct {
	matcher PhoneticMatcher
}

// NewCorrector returns a [Corrector] backed by m. A nil m disables correction.
func NewCorrector(m PhoneticMatcher) *Corrector {
	return &Corrector{matcher: m}
}

// Correct rewrites unknown words of text toward vocabulary.
//
// The algorithm:
//  1. Tokenise the text into whitespace-separated tokens.
//  2. At each position, try windows from the longest vocabulary term's word
//     count down to one word. A window is eligible when none of its tokens is
//     protected (number words, digits, keywords, short words), only its last
//     token carries trailing punctuation, and at least one of its words does
//     not already occur in the vocabulary.
//  3. The first eligible window the matcher accepts is replaced by the term.
//     Otherwise the token is copied and the cursor advances by one.
func (c *Corrector) Correct(text string, vocabulary []string) Corrected {
	out := Corrected{Original: text, Text: text, Corrections: []Correction{}}
	if c == nil || c.matcher == nil || len(vocabulary) == 0 {
		return out
	}
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return out
	}

	// When the matcher supports precomputation, prepare the vocabulary once
	// and use the fast path for all window comparisons.
	var matchFn func(string) (string, float64, bool)
	var maxWords int
	if pm, ok := c.matcher.(*phonetic.Matcher); ok {
		v := phonetic.PrepareVocabulary(vocabulary)
		maxWords = v.MaxWords()
		matchFn = func(w string) (string, float64, bool) { return pm.MatchPrepared(w, v) }
	} else {
		maxWords = maxWordCount(vocabulary)
		matchFn = func(w string) (string, float64, bool) { return c.matcher.Match(w, vocabulary) }
	}
	if maxWords == 0 {
		return out
	}
	known := knownWords(vocabulary)

	output := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		maxN := min(maxWords, len(tokens)-i)
		matched := false
		for n := maxN; n >= 1; n-- {
			window, suffix, ok := eligible(tokens[i:i+n], known)
			if !ok {
				continue
			}
			term, conf, ok := matchFn(window)
			if !ok || textnorm.Normalize(term) == textnorm.Normalize(window) {
				continue
			}
			output = append(output, term+suffix)
			out.Corrections = append(out.Corrections, Correction{
				Original:   window,
				Corrected:  term,
				Confidence: conf,
				Method:     "phonetic",
			})
			i += n
			matched = true
			break
		}
		if !matched {
			output = append(output, tokens[i])
			i++
		}
	}

	if len(out.Corrections) > 0 {
		out.Text = strings.Join(output, " ")
	}
	return out
}

// eligible joins window into a phrase when it may be corrected, returning
// the trailing punctuation of its last token separately.
func eligible(window []string, known map[string]bool) (phrase, suffix string, ok bool) {
	words := make([]string, len(window))
	hasUnknown := false
	for j, tok := range window {
		core := strings.TrimRight(tok, trailingPunct)
		if core != tok && j < len(window)-1 {
			return "", "", false
		}
		if protected(core) {
			return "", "", false
		}
		if !known[textnorm.Normalize(core)] {
			hasUnknown = true
		}
		words[j] = core
	}
	if !hasUnknown {
		return "", "", false
	}
	last := window[len(window)-1]
	return strings.Join(words, " "), last[len(strings.TrimRight(last, trailingPunct)):], true
}

// protected reports whether a token must never be rewritten.
func protected(core string) bool {
	if utf8.RuneCountInString(core) < minWordLen {
		return true
	}
	if strings.ContainsFunc(core, unicode.IsDigit) {
		return true
	}
	folded := textnorm.Normalize(core)
	return folded == "" || keywords[folded] || numerals.IsNumberWord(folded)
}

// knownWords is the set of normalized words appearing in vocabulary.
func knownWords(vocabulary []string) map[string]bool {
	known := make(map[string]bool)
	for _, term := range vocabulary {
		for _, w := range strings.Fields(textnorm.Normalize(term)) {
			known[w] = true
		}
	}
	return known
}

// maxWordCount returns the maximum number of words in any vocabulary term.
func maxWordCount(vocabulary []string) int {
	n := 0
	for _, v := range vocabulary {
		n = max(n, len(strings.Fields(v)))
	}
	return n
}
