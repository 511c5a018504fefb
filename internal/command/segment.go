package command

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/numerals"
)

const defaultMinPhraseLen = 3

var (
	// numberRe finds candidate numeric tokens; [numericTokens] keeps only the
	// standalone ones.
	numberRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

	// commaWordRe is the comma heuristic: a comma followed by a word.
	commaWordRe = regexp.MustCompile(`,\s*\p{L}`)

	// listSeparators are the traditional list separators that signal more
	// than one request even without a second number.
	listSeparators = []string{", y ", "; ", " también ", " tambien "}

	// connectors are dropped from the start of a segment phrase.
	connectors = map[string]bool{"y": true, "e": true, "también": true, "tambien": true, "mas": true, "más": true}
)

// SegmenterOption configures a [Segmenter].
type SegmenterOption func(*Segmenter)

// WithMinPhraseLen sets the minimum phrase length (in runes) for a segment to
// be emitted. Shorter phrases are treated as noise. Default: 3.
func WithMinPhraseLen(n int) SegmenterOption {
	return func(s *Segmenter) {
		if n > 0 {
			s.minPhraseLen = n
		}
	}
}

// WithCommaHeuristic toggles whether a comma followed by a word counts as a
// multi-command signal on its own. It misfires on product names that contain
// a comma ("Ron, añejo 5 años"), hence the switch. Default: true.
func WithCommaHeuristic(on bool) SegmenterOption {
	return func(s *Segmenter) {
		s.commaHeuristic = on
	}
}

// Segmenter detects and splits multi-product utterances.
// It is read-only after construction and safe for concurrent use.
type Segmenter struct {
	minPhraseLen   int
	commaHeuristic bool
}

// NewSegmenter returns a [Segmenter] configured with opts.
func NewSegmenter(opts ...SegmenterOption) *Segmenter {
	s := &Segmenter{
		minPhraseLen:   defaultMinPhraseLen,
		commaHeuristic: true,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SegmentResult is the outcome of [Segmenter.Segment].
type SegmentResult struct {
	// Segments are the usable segments in utterance order.
	Segments []Segment

	// Dropped holds phrases discarded for being shorter than the minimum.
	Dropped []string

	// Invalid holds segments discarded for a non-positive quantity. Their
	// Quantity field is zero.
	Invalid []Segment

	// Trailing is the text after the last number, which has no quantity and
	// is discarded.
	Trailing string
}

// IsMultiCommand reports whether text likely encodes more than one update:
// two or more standalone numbers, or a list separator.
func (s *Segmenter) IsMultiCommand(text string) bool {
	converted := numerals.Convert(text)
	if len(numericTokens(converted)) >= 2 {
		return true
	}
	lower := strings.ToLower(converted)
	for _, sep := range listSeparators {
		if strings.Contains(lower, sep) {
			return true
		}
	}
	return s.commaHeuristic && commaWordRe.MatchString(converted)
}

// Segment splits text on its standalone numeric tokens. The phrase of each
// number is the text between the previous number (or the start) and it.
// Returns [ErrEmptySegmentation] along with the partial result when no segment
// survives.
func (s *Segmenter) Segment(text string) (SegmentResult, error) {
	converted := numerals.Convert(text)
	var res SegmentResult

	prevEnd := 0
	for _, loc := range numericTokens(converted) {
		phrase := cleanPhrase(converted[prevEnd:loc[0]])
		raw := converted[loc[0]:loc[1]]
		prevEnd = loc[1]

		if utf8.RuneCountInString(phrase) < s.minPhraseLen {
			res.Dropped = append(res.Dropped, phrase)
			continue
		}
		q, err := parseQuantity(raw)
		if err != nil {
			res.Invalid = append(res.Invalid, Segment{Query: phrase})
			continue
		}
		res.Segments = append(res.Segments, Segment{Query: phrase, Quantity: q})
	}

	if rest := strings.TrimSpace(converted[prevEnd:]); rest != "" && prevEnd > 0 {
		res.Trailing = rest
		slog.Debug("command: discarding text after last quantity", "trailing", rest)
	}

	if len(res.Segments) == 0 {
		return res, ErrEmptySegmentation
	}
	return res, nil
}

// numericTokens returns the [start, end) byte offsets of every standalone
// number in s: one not glued to a letter or digit on either side.
func numericTokens(s string) [][]int {
	var out [][]int
	for _, loc := range numberRe.FindAllStringIndex(s, -1) {
		if loc[0] > 0 {
			r, _ := utf8.DecodeLastRuneInString(s[:loc[0]])
			if isWordRune(r) {
				continue
			}
		}
		if loc[1] < len(s) {
			r, _ := utf8.DecodeRuneInString(s[loc[1]:])
			if isWordRune(r) {
				continue
			}
		}
		out = append(out, loc)
	}
	return out
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// cleanPhrase trims whitespace and punctuation from both ends and drops a
// leading connector word ("y papas" -> "papas").
func cleanPhrase(s string) string {
	s = strings.TrimFunc(s, func(r rune) bool { return !isWordRune(r) })
	first, rest, found := strings.Cut(s, " ")
	if found && connectors[strings.ToLower(first)] {
		s = strings.TrimFunc(rest, func(r rune) bool { return !isWordRune(r) })
	}
	return s
}
