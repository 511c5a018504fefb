// Package console is the terminal front end of vozstock: a line-oriented
// REPL that feeds utterances to the interpretation engine and relays the
// operator's choices to the disambiguation orchestrator.
//
// While idle every line is an utterance ("coca cola 5", "añadir pan 3,
// leche dos y huevos 12"). While a choice is pending a line is one of:
//
//	1..N  choose a candidate
//	a     step back to the previous product (multi-product only)
//	o     skip the current product (multi-product only)
//	c     cancel the session
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/catalog"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/command"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/disambig"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/interpret"
)

// Interpreter turns an utterance into a plan. [*interpret.Engine] satisfies it.
type Interpreter interface {
	Interpret(ctx context.Context, utterance string, entries []catalog.Entry) (*interpret.Interpretation, error)
}

// ErrQuit is returned by [Console.Handle] when the operator asks to leave.
var ErrQuit = errors.New("console: quit")

// Console owns one orchestrator and serves one operator.
type Console struct {
	p      *Prompter
	store  catalog.Store
	interp Interpreter
	orch   *disambig.Orchestrator
}

// New returns a [Console]. The orchestrator should have p registered as its
// observer so that every transition is rendered.
func New(p *Prompter, store catalog.Store, interp Interpreter, orch *disambig.Orchestrator) *Console {
	return &Console{p: p, store: store, interp: interp, orch: orch}
}

// Run reads lines from in until EOF, ctx cancellation or a quit command.
// An open session is cancelled on the way out.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	defer func() {
		if c.orch.State() != disambig.Idle {
			c.orch.Cancel(context.WithoutCancel(ctx))
		}
	}()

	c.p.Println(`Listo. Dicta un ajuste ("coca cola 5"), "stock" para ver el inventario o "salir".`)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("console: read input: %w", err)
					}
				default:
				}
				return nil
			}
			if err := c.Handle(ctx, line); err != nil {
				if errors.Is(err, ErrQuit) {
					return nil
				}
				return err
			}
		}
	}
}

// Handle processes one input line. Operator mistakes are reported on the
// prompter; only quitting and store failures are returned.
func (c *Console) Handle(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if c.orch.State() == disambig.Idle {
		return c.utterance(ctx, line)
	}
	c.choice(ctx, line)
	return nil
}

func (c *Console) utterance(ctx context.Context, line string) error {
	switch strings.ToLower(line) {
	case "salir", "q":
		return ErrQuit
	case "stock", "inventario":
		return c.stock(ctx)
	}

	entries, err := c.store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("console: catalog snapshot: %w", err)
	}

	res, err := c.interp.Interpret(ctx, line, entries)
	if err != nil {
		c.reportInterpretError(err)
		return nil
	}

	for _, corr := range res.Corrections {
		c.p.Printf("(entendí %q como %q)\n", corr.Original, corr.Corrected)
	}
	for _, d := range res.Dropped {
		c.p.Printf("Ignorado, nombre demasiado corto: %q\n", d)
	}
	for _, s := range res.Invalid {
		c.p.Printf("Ignorado, cantidad inválida: %q\n", s.Query)
	}
	if res.Plan.Multi {
		var none []string
		for _, item := range res.Plan.Items {
			if len(item.Candidates) == 0 {
				none = append(none, item.Segment.Query)
			}
		}
		if len(none) > 0 {
			c.p.Printf("Sin coincidencias: %s\n", strings.Join(none, ", "))
		}
	}

	if _, err := c.orch.Begin(ctx, res.Plan); err != nil {
		c.reportInterpretError(err)
	}
	return nil
}

func (c *Console) choice(ctx context.Context, line string) {
	var err error
	switch strings.ToLower(line) {
	case "a", "atras", "atrás":
		_, err = c.orch.Back()
	case "o", "omitir":
		_, err = c.orch.Skip(ctx)
	case "c", "cancelar":
		c.orch.Cancel(ctx)
	default:
		n, convErr := strconv.Atoi(line)
		if convErr != nil {
			c.p.Println("Respuesta no válida. Escribe el número de una opción, a, o o c.")
			return
		}
		_, err = c.orch.Select(ctx, n-1)
	}

	switch {
	case err == nil:
	case errors.Is(err, disambig.ErrChoiceOutOfRange):
		c.p.Printf("Opción fuera de rango (%d opciones).\n", len(c.orch.View().Current.Candidates))
	case errors.Is(err, disambig.ErrNotAwaiting):
		c.p.Println("Esa opción solo existe al revisar varios productos.")
	default:
		slog.Error("console: choice failed", "input", line, "err", err)
		c.p.Printf("No se pudo aplicar: %v\n", err)
	}
}

func (c *Console) reportInterpretError(err error) {
	var nm *interpret.NoMatchError
	switch {
	case errors.As(err, &nm) && len(nm.Skipped) > 0:
		parts := make([]string, len(nm.Skipped))
		for i, s := range nm.Skipped {
			parts[i] = s.Query
		}
		c.p.Printf("Ningún producto encontrado: %s\n", strings.Join(parts, ", "))
	case errors.As(err, &nm):
		c.p.Printf("Producto no encontrado: %q\n", nm.Query)
	case errors.Is(err, interpret.ErrNoMatchFound):
		c.p.Println("Producto no encontrado.")
	case errors.Is(err, command.ErrInvalidQuantity):
		c.p.Println("La cantidad debe ser un número mayor que cero.")
	case errors.Is(err, command.ErrUnrecognizedSyntax):
		c.p.Println(`No entendí. Prueba "producto 5" o "añadir producto 5".`)
	default:
		slog.Error("console: interpret failed", "err", err)
		c.p.Printf("Error: %v\n", err)
	}
}

func (c *Console) stock(ctx context.Context) error {
	entries, err := c.store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("console: catalog snapshot: %w", err)
	}
	for _, e := range entries {
		c.p.Printf("  %3d. %s\n", e.Position+1, e)
	}
	return nil
}
