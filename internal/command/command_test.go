package command_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/command"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/similarity"
)

func TestIsMultiCommand(t *testing.T) {
	t.Parallel()

	s := command.NewSegmenter()
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"single number", "coca cola 20", false},
		{"single spoken number", "coca cola veinte", false},
		{"two numbers", "cervezas 5, papas 3", true},
		{"two spoken numbers", "cervezas cinco papas tres", true},
		{"semicolon", "pan; leche 2", true},
		{"tambien", "pan también leche 2", true},
		{"comma and y", "pan, y leche 2", true},
		{"comma before word", "ron, añejo 5", true},
		{"plain y is not a separator", "pan y leche 5", false},
		{"glued digits are not standalone", "coca cola 350ml 4", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := s.IsMultiCommand(tt.text); got != tt.want {
				t.Errorf("IsMultiCommand(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestIsMultiCommand_CommaHeuristicDisabled(t *testing.T) {
	t.Parallel()

	s := command.NewSegmenter(command.WithCommaHeuristic(false))
	if s.IsMultiCommand("ron, añejo 5") {
		t.Error("comma heuristic disabled: expected single command")
	}
	if !s.IsMultiCommand("cervezas 5, papas 3") {
		t.Error("two numbers should still be multi-command")
	}
}

func TestSegment(t *testing.T) {
	t.Parallel()

	s := command.NewSegmenter()
	tests := []struct {
		name string
		text string
		want []command.Segment
	}{
		{
			name: "comma separated",
			text: "cervezas 5, papas 3",
			want: []command.Segment{{Query: "cervezas", Quantity: 5}, {Query: "papas", Quantity: 3}},
		},
		{
			name: "spoken numbers with connector",
			text: "cervezas cinco y papas tres",
			want: []command.Segment{{Query: "cervezas", Quantity: 5}, {Query: "papas", Quantity: 3}},
		},
		{
			name: "decimal quantity",
			text: "arroz 2.5 azúcar 1",
			want: []command.Segment{{Query: "arroz", Quantity: 2.5}, {Query: "azúcar", Quantity: 1}},
		},
		{
			name: "digits inside the name",
			text: "coca-cola 350ml 4; fanta 2",
			want: []command.Segment{{Query: "coca-cola 350ml", Quantity: 4}, {Query: "fanta", Quantity: 2}},
		},
		{
			name: "compound spoken numbers",
			text: "leche veinticinco, pan ciento diez",
			want: []command.Segment{{Query: "leche", Quantity: 25}, {Query: "pan", Quantity: 110}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := s.Segment(tt.text)
			if err != nil {
				t.Fatalf("Segment(%q): %v", tt.text, err)
			}
			if !reflect.DeepEqual(res.Segments, tt.want) {
				t.Errorf("Segment(%q) = %v, want %v", tt.text, res.Segments, tt.want)
			}
		})
	}
}

func TestSegment_ShortPhraseDropped(t *testing.T) {
	t.Parallel()

	res, err := command.NewSegmenter().Segment("ab 5, papas 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []command.Segment{{Query: "papas", Quantity: 3}}
	if !reflect.DeepEqual(res.Segments, want) {
		t.Errorf("Segments = %v, want %v", res.Segments, want)
	}
	if !reflect.DeepEqual(res.Dropped, []string{"ab"}) {
		t.Errorf("Dropped = %q, want [ab]", res.Dropped)
	}
}

func TestSegment_MinPhraseLenOption(t *testing.T) {
	t.Parallel()

	res, err := command.NewSegmenter(command.WithMinPhraseLen(2)).Segment("ab 5, papas 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Segments) != 2 {
		t.Errorf("got %d segments, want 2", len(res.Segments))
	}
}

func TestSegment_InvalidQuantityDropsOnlyThatSegment(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"cervezas 0, papas 3", "cervezas cero, papas tres", "cervezas -5, papas 3"} {
		res, err := command.NewSegmenter().Segment(text)
		if err != nil {
			t.Fatalf("Segment(%q): %v", text, err)
		}
		want := []command.Segment{{Query: "papas", Quantity: 3}}
		if !reflect.DeepEqual(res.Segments, want) {
			t.Errorf("Segment(%q) = %v, want %v", text, res.Segments, want)
		}
		if len(res.Invalid) != 1 || res.Invalid[0].Query != "cervezas" {
			t.Errorf("Segment(%q) Invalid = %v, want [cervezas]", text, res.Invalid)
		}
	}
}

func TestSegment_TrailingTextDiscarded(t *testing.T) {
	t.Parallel()

	res, err := command.NewSegmenter().Segment("cervezas 5, papas 3 extra")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(res.Segments))
	}
	if res.Trailing != "extra" {
		t.Errorf("Trailing = %q, want %q", res.Trailing, "extra")
	}
}

func TestSegment_Empty(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"", "hola mundo", "ab 5, cd 3"} {
		_, err := command.NewSegmenter().Segment(text)
		if !errors.Is(err, command.ErrEmptySegmentation) {
			t.Errorf("Segment(%q) error = %v, want ErrEmptySegmentation", text, err)
		}
	}
}

func TestMatchSimple(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want command.Segment
	}{
		{"coca cola veinte", command.Segment{Query: "coca cola", Quantity: 20}},
		{"coca cola 20.", command.Segment{Query: "coca cola", Quantity: 20}},
		{"Añadir Coca Cola 5", command.Segment{Query: "añadir coca cola", Quantity: 5}},
		{"anadir coca cola 5", command.Segment{Query: "anadir coca cola", Quantity: 5}},
		{"agregar pan 3", command.Segment{Query: "agregar pan", Quantity: 3}},
		{"sumar arroz doce", command.Segment{Query: "sumar arroz", Quantity: 12}},
		{"actualizar leche a 10", command.Segment{Query: "actualizar leche a", Quantity: 10}},
		{"cambiar fanta con cuatro", command.Segment{Query: "cambiar fanta con", Quantity: 4}},
		{"poner arroz en 2.5", command.Segment{Query: "poner arroz en", Quantity: 2.5}},
		{"  galletas   treinta y dos  ", command.Segment{Query: "galletas", Quantity: 32}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			got, err := command.MatchSimple(tt.text)
			if err != nil {
				t.Fatalf("MatchSimple(%q): %v", tt.text, err)
			}
			if got != tt.want {
				t.Errorf("MatchSimple(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

// The generic trailing-number form is tried first, so verb forms keep the
// verb in the phrase and scoring still surfaces the product.
func TestMatchSimple_GenericFormFirst(t *testing.T) {
	t.Parallel()

	got, err := command.MatchSimple("añadir coca cola 5")
	if err != nil {
		t.Fatalf("MatchSimple: %v", err)
	}
	if got.Query != "añadir coca cola" || got.Quantity != 5 {
		t.Errorf("MatchSimple = %+v, want {añadir coca cola 5}", got)
	}
	if s := similarity.Score(got.Query, "Coca Cola 350ml"); s <= 50 {
		t.Errorf("Score(%q, Coca Cola 350ml) = %v, want above the retrieval floor", got.Query, s)
	}

	got, err = command.MatchSimple("actualizar leche a 10")
	if err != nil {
		t.Fatalf("MatchSimple: %v", err)
	}
	if got.Query != "actualizar leche a" || got.Quantity != 10 {
		t.Errorf("MatchSimple = %+v, want {actualizar leche a 10}", got)
	}
}

func TestMatchSimple_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want error
	}{
		{"coca cola 0", command.ErrInvalidQuantity},
		{"coca cola cero", command.ErrInvalidQuantity},
		{"coca cola -3", command.ErrInvalidQuantity},
		{"actualizar leche a 0", command.ErrInvalidQuantity},
		{"coca cola", command.ErrUnrecognizedSyntax},
		{"20", command.ErrUnrecognizedSyntax},
		{"", command.ErrUnrecognizedSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			_, err := command.MatchSimple(tt.text)
			if !errors.Is(err, tt.want) {
				t.Errorf("MatchSimple(%q) error = %v, want %v", tt.text, err, tt.want)
			}
			if !command.IsRecoverable(err) {
				t.Errorf("IsRecoverable(%v) = false", err)
			}
		})
	}
}

func TestSegment_String(t *testing.T) {
	t.Parallel()

	if got := (command.Segment{Query: "arroz", Quantity: 2.5}).String(); got != "arroz x2.5" {
		t.Errorf("String() = %q", got)
	}
	if got := (command.Segment{Query: "pan", Quantity: 3}).String(); got != "pan x3" {
		t.Errorf("String() = %q", got)
	}
}
