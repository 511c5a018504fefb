package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/catalog"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/command"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/disambig"
)

var _ disambig.Observer = (*Prompter)(nil)

// Prompter renders orchestrator views as Spanish text for the operator.
type Prompter struct {
	mu   sync.Mutex
	out  io.Writer
	last *disambig.Resolution
}

// NewPrompter returns a [Prompter] writing to out.
func NewPrompter(out io.Writer) *Prompter {
	return &Prompter{out: out}
}

// OnTransition implements [disambig.Observer].
func (p *Prompter) OnTransition(v disambig.View) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, in := range v.Emitted {
		p.printf("  ✔ %s +%s %s\n", p.nameOf(in), command.FormatQuantity(in.DeltaQuantity), p.unitOf(in))
	}

	switch {
	case v.Cancelled:
		p.printf("Cancelado. %d de %d productos aplicados.\n", v.Applied, v.Total)
		p.skipped(v.Skipped)
	case v.State == disambig.Terminal:
		if v.Multi {
			p.printf("Listo: %d aplicados, %d omitidos.\n", v.Applied, len(v.Skipped))
			p.skipped(v.Skipped)
		}
	case v.Current != nil:
		p.choices(v)
	}
	p.last = v.Current
}

// Println writes a line to the operator.
func (p *Prompter) Println(a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, a...)
}

// Printf writes formatted text to the operator.
func (p *Prompter) Printf(format string, a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printf(format, a...)
}

func (p *Prompter) printf(format string, a ...any) {
	fmt.Fprintf(p.out, format, a...)
}

func (p *Prompter) choices(v disambig.View) {
	cur := v.Current
	if v.Multi {
		p.printf("Producto %d/%d: %q x%s\n", v.Cursor+1, v.Total, cur.Segment.Query, command.FormatQuantity(cur.Segment.Quantity))
	} else {
		p.printf("%q x%s\n", cur.Segment.Query, command.FormatQuantity(cur.Segment.Quantity))
	}
	for i, c := range cur.Candidates {
		p.printf("  %d) %s  %.0f%%\n", i+1, c.Entry, c.Score)
	}

	hint := fmt.Sprintf("Elige 1-%d", len(cur.Candidates))
	if v.Multi {
		hint += ", a=atrás, o=omitir"
	}
	p.printf("%s, c=cancelar\n", hint)
	if cur.Applied {
		p.printf("  (ya aplicado; elegir de nuevo solo avanza)\n")
	}
}

func (p *Prompter) skipped(segs []command.Segment) {
	if len(segs) == 0 {
		return
	}
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = s.Query + " " + command.FormatQuantity(s.Quantity)
	}
	p.printf("Pendientes para reenviar: %s\n", strings.Join(parts, "; "))
}

// candidate finds the entry an intent targets among the choices last shown.
func (p *Prompter) candidate(in catalog.UpdateIntent) (catalog.Entry, bool) {
	if p.last == nil {
		return catalog.Entry{}, false
	}
	for _, c := range p.last.Candidates {
		if c.Entry.Position == in.TargetPosition {
			return c.Entry, true
		}
	}
	return catalog.Entry{}, false
}

func (p *Prompter) nameOf(in catalog.UpdateIntent) string {
	if e, ok := p.candidate(in); ok {
		return e.Name
	}
	return fmt.Sprintf("#%d", in.TargetPosition+1)
}

func (p *Prompter) unitOf(in catalog.UpdateIntent) string {
	if e, ok := p.candidate(in); ok {
		return e.DisplayUnit()
	}
	return catalog.DefaultUnit
}
