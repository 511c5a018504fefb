// Package transcript corrects misheard product vocabulary in an utterance
// before it is parsed.
//
// Speech-to-text output is rarely perfect for product names: brand names,
// regional nicknames and abbreviations are frequently misheard ("cerbeza
// pilsen"). The [Corrector] slides n-gram windows over the utterance and asks
// a [PhoneticMatcher] to align unknown words with the catalog vocabulary
// (product names and alias variants).
//
// Number words, digits and command keywords are never touched, so the
// quantities and the command structure survive correction.
//
// Each [Correction] records which method produced the substitution and its
// confidence, so callers can log or display changes.
package transcript

// Correction captures a single substitution.
type Correction struct {
	// Original is the window as it appeared in the utterance.
	Original string

	// Corrected is the vocabulary term that replaced it.
	Corrected string

	// Confidence is the matcher's confidence in this substitution (0.0–1.0).
	Confidence float64

	// Method describes which stage produced the substitution. Currently
	// always "phonetic".
	Method string
}

// Corrected is the output of [Corrector.Correct].
type Corrected struct {
	// Original is the utterance as received.
	Original string

	// Text is the utterance with all substitutions applied. Equal to
	// Original when nothing was corrected.
	Text string

	// Corrections lists the substitutions in utterance order. An empty
	// (non-nil) slice means no corrections were necessary.
	Corrections []Correction
}

// Changed reports whether any substitution was made.
func (c Corrected) Changed() bool { return len(c.Corrections) > 0 }

// PhoneticMatcher resolves a phrase to a known vocabulary term based on
// pronunciation similarity. It must be fast enough to run on every utterance:
// no network calls.
//
// Implementations must be safe for concurrent use.
type PhoneticMatcher interface {
	// Match attempts to find the term from vocabulary that is most
	// phonetically similar to phrase.
	//
	// When matched is false, corrected must equal phrase unchanged and
	// confidence must be 0.
	Match(phrase string, vocabulary []string) (corrected string, confidence float64, matched bool)
}
