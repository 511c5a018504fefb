package transcript_test

import (
	"testing"

	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/transcript"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/transcript/phonetic"
)

var vocabulary = []string{"Cerveza Pilsen 330ml", "Papas Fritas Lays"}

func TestCorrector_FixesUnknownWord(t *testing.T) {
	t.Parallel()

	c := transcript.NewCorrector(phonetic.New())
	got := c.Correct("cerbeza cinco, papas tres", vocabulary)

	want := "Cerveza Pilsen 330ml cinco, papas tres"
	if got.Text != want {
		t.Errorf("Text = %q, want %q", got.Text, want)
	}
	if len(got.Corrections) != 1 {
		t.Fatalf("Corrections = %+v, want exactly one", got.Corrections)
	}
	corr := got.Corrections[0]
	if corr.Original != "cerbeza" || corr.Corrected != "Cerveza Pilsen 330ml" || corr.Method != "phonetic" {
		t.Errorf("correction = %+v", corr)
	}
	if !got.Changed() || got.Original != "cerbeza cinco, papas tres" {
		t.Errorf("Changed()=%v Original=%q", got.Changed(), got.Original)
	}
}

func TestCorrector_KeepsTrailingPunctuation(t *testing.T) {
	t.Parallel()

	c := transcript.NewCorrector(phonetic.New())
	got := c.Correct("añadir cerbeza, papas tres", vocabulary)
	want := "añadir Cerveza Pilsen 330ml, papas tres"
	if got.Text != want {
		t.Errorf("Text = %q, want %q", got.Text, want)
	}
}

func TestCorrector_ProtectedWords(t *testing.T) {
	t.Parallel()

	c := transcript.NewCorrector(phonetic.New())
	vocab := []string{"Cinco Estrellas", "Agregado Mineral"}
	for _, text := range []string{"cinco", "veinte 20", "agregar", "ab"} {
		got := c.Correct(text, vocab)
		if got.Changed() || got.Text != text {
			t.Errorf("Correct(%q) = %q (%+v), want unchanged", text, got.Text, got.Corrections)
		}
	}
}

func TestCorrector_KnownWordsUntouched(t *testing.T) {
	t.Parallel()

	c := transcript.NewCorrector(phonetic.New())
	got := c.Correct("papas tres", vocabulary)
	if got.Changed() || got.Text != "papas tres" {
		t.Errorf("Correct = %q (%+v), want unchanged", got.Text, got.Corrections)
	}
}

func TestCorrector_Disabled(t *testing.T) {
	t.Parallel()

	for name, c := range map[string]*transcript.Corrector{
		"nil matcher": transcript.NewCorrector(nil),
		"nil":         nil,
	} {
		got := c.Correct("cerbeza cinco", vocabulary)
		if got.Text != "cerbeza cinco" || got.Corrections == nil || got.Changed() {
			t.Errorf("%s: got %+v, want text unchanged and empty corrections", name, got)
		}
	}

	got := transcript.NewCorrector(phonetic.New()).Correct("cerbeza cinco", nil)
	if got.Changed() {
		t.Errorf("empty vocabulary corrected: %+v", got)
	}
}

// stubMatcher replaces one fixed phrase, exercising the generic path.
type stubMatcher struct{ from, to string }

func (s stubMatcher) Match(phrase string, _ []string) (string, float64, bool) {
	if phrase == s.from {
		return s.to, 0.9, true
	}
	return phrase, 0, false
}

func TestCorrector_GenericMatcherPrefersLongestWindow(t *testing.T) {
	t.Parallel()

	c := transcript.NewCorrector(stubMatcher{from: "pilsen cerbeza", to: "Cerveza Pilsen 330ml"})
	got := c.Correct("pilsen cerbeza cinco", vocabulary)
	if got.Text != "Cerveza Pilsen 330ml cinco" {
		t.Errorf("Text = %q, want the two-word window replaced", got.Text)
	}
}
