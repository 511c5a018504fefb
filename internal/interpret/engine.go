// Package interpret turns an utterance into a disambiguation plan.
//
// The pipeline is:
//
//	utterance
//	  → optional phonetic vocabulary correction ([transcript.Corrector])
//	  → spoken-number conversion ([numerals.Convert])
//	  → multi-command detection and segmentation ([command.Segmenter])
//	      fewer than two segments: single-command matching ([command.MatchSimple])
//	  → candidate retrieval per segment ([retrieve.Index])
//	  → [disambig.Plan]
//
// The engine is stateless and safe for concurrent use; the plan it returns
// is handed to a [disambig.Orchestrator] by the caller.
package interpret

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/catalog"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/command"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/disambig"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/numerals"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/observe"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/retrieve"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/transcript"
)

// Interpretation is the result of [Engine.Interpret].
type Interpretation struct {
	// Plan is ready for [disambig.Orchestrator.Begin].
	Plan disambig.Plan

	// Text is the utterance after correction and numeral conversion.
	Text string

	// Corrections lists the vocabulary corrections applied, if any.
	Corrections []transcript.Correction

	// Dropped, Invalid and Trailing carry what segmentation discarded from a
	// multi-product utterance.
	Dropped  []string
	Invalid  []command.Segment
	Trailing string
}

// Option is a functional option for [New].
type Option func(*Engine)

// WithCorrector enables phonetic vocabulary correction before parsing.
func WithCorrector(c *transcript.Corrector) Option {
	return func(e *Engine) { e.corrector = c }
}

// WithMetrics records utterance metrics on m instead of
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// Engine interprets utterances against catalog snapshots.
type Engine struct {
	retriever *retrieve.Retriever
	segmenter *command.Segmenter
	corrector *transcript.Corrector
	metrics   *observe.Metrics
}

// New returns an [Engine]. Nil arguments get package defaults.
func New(r *retrieve.Retriever, s *command.Segmenter, opts ...Option) *Engine {
	if r == nil {
		r = retrieve.New(nil)
	}
	if s == nil {
		s = command.NewSegmenter()
	}
	e := &Engine{retriever: r, segmenter: s}
	for _, o := range opts {
		o(e)
	}
	if e.metrics == nil {
		e.metrics = observe.DefaultMetrics()
	}
	return e
}

// Interpret parses utterance and retrieves candidates from entries.
//
// Errors:
//   - [command.ErrUnrecognizedSyntax] or [command.ErrInvalidQuantity] when
//     the utterance could not be parsed as a single update.
//   - [*NoMatchError] (wrapping [ErrNoMatchFound]) when no segment has
//     candidates.
//   - a wrapped context error when ctx ends during alias resolution or
//     segment retrieval.
//
// A multi-product plan may contain segments without candidates; the
// orchestrator reports those as skipped.
func (e *Engine) Interpret(ctx context.Context, utterance string, entries []catalog.Entry) (*Interpretation, error) {
	ctx, span := observe.StartSpan(ctx, "interpret.utterance")
	defer span.End()
	log := observe.Logger(ctx)

	mode := observe.ModeSingle
	res, err := e.interpret(ctx, utterance, entries, &mode)
	outcome := outcomeOf(err)
	e.metrics.RecordUtterance(ctx, mode, outcome)
	span.SetAttributes(
		attribute.String("interpret.mode", mode),
		attribute.String("interpret.outcome", outcome),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Debug("interpret: utterance rejected", "utterance", utterance, "outcome", outcome, "err", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("interpret.segments", len(res.Plan.Items)))
	log.Debug("interpret: utterance interpreted",
		"utterance", utterance,
		"text", res.Text,
		"mode", mode,
		"segments", len(res.Plan.Items),
	)
	return res, nil
}

func (e *Engine) interpret(ctx context.Context, utterance string, entries []catalog.Entry, mode *string) (*Interpretation, error) {
	log := observe.Logger(ctx)
	start := time.Now()
	ix, err := e.retriever.Prepare(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("interpret: %w", err)
	}

	res := &Interpretation{Text: utterance}
	if e.corrector != nil {
		c := e.corrector.Correct(utterance, vocabulary(ix))
		res.Text = c.Text
		res.Corrections = c.Corrections
		for _, corr := range c.Corrections {
			log.Info("interpret: vocabulary corrected",
				"original", corr.Original,
				"corrected", corr.Corrected,
				"confidence", corr.Confidence,
			)
		}
	}
	res.Text = numerals.Convert(res.Text)

	var single *command.Segment
	if e.segmenter.IsMultiCommand(res.Text) {
		seg, err := e.segmenter.Segment(res.Text)
		res.Dropped, res.Invalid, res.Trailing = seg.Dropped, seg.Invalid, seg.Trailing
		switch {
		case errors.Is(err, command.ErrEmptySegmentation):
			log.Debug("interpret: segmentation empty, falling back to single command", "text", res.Text)
		case len(seg.Segments) >= 2:
			*mode = observe.ModeMulti
			return e.multi(ctx, ix, res, seg.Segments, start)
		default:
			single = &seg.Segments[0]
			log.Debug("interpret: one segment, falling back to single command", "text", res.Text)
		}
		e.metrics.RecordSkipped(ctx, "invalid_quantity", len(seg.Invalid))
		e.metrics.RecordSkipped(ctx, "short_phrase", len(seg.Dropped))
	}

	seg, err := command.MatchSimple(res.Text)
	if err != nil {
		if single == nil {
			return nil, err
		}
		seg = *single
	}

	cands := ix.Retrieve(seg.Query)
	e.metrics.RecordRetrieval(ctx, time.Since(start))
	e.metrics.RecordCandidates(ctx, len(cands))
	if len(cands) == 0 {
		return nil, &NoMatchError{Query: seg.Query}
	}
	res.Plan = disambig.Plan{Items: []disambig.Resolution{{Segment: seg, Candidates: cands}}}
	return res, nil
}

// multi retrieves candidates for every segment concurrently. Segments not
// yet started when ctx ends are abandoned and the context error returned.
func (e *Engine) multi(ctx context.Context, ix *retrieve.Index, res *Interpretation, segs []command.Segment, start time.Time) (*Interpretation, error) {
	items := make([]disambig.Resolution, len(segs))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, s := range segs {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			items[i] = disambig.Resolution{Segment: s, Candidates: ix.Retrieve(s.Query)}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("interpret: retrieve segments: %w", err)
	}
	e.metrics.RecordRetrieval(ctx, time.Since(start))
	e.metrics.RecordSkipped(ctx, "invalid_quantity", len(res.Invalid))
	e.metrics.RecordSkipped(ctx, "short_phrase", len(res.Dropped))

	matched := 0
	for _, it := range items {
		e.metrics.RecordCandidates(ctx, len(it.Candidates))
		if len(it.Candidates) > 0 {
			matched++
		}
	}
	if matched == 0 {
		return nil, &NoMatchError{Skipped: segs}
	}
	res.Plan = disambig.Plan{Multi: true, Items: items}
	return res, nil
}

// vocabulary collects product names and alias variants for correction.
func vocabulary(ix *retrieve.Index) []string {
	entries := ix.Entries()
	out := make([]string, 0, len(entries))
	for i, e := range entries {
		out = append(out, e.Name)
		out = append(out, ix.Variants(i)...)
	}
	return out
}

// outcomeOf maps an Interpret error to its metric outcome.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return observe.OutcomeMatched
	case errors.Is(err, ErrNoMatchFound):
		return observe.OutcomeNoMatch
	case errors.Is(err, command.ErrUnrecognizedSyntax):
		return observe.OutcomeUnrecognized
	case errors.Is(err, command.ErrInvalidQuantity):
		return observe.OutcomeInvalid
	default:
		return observe.OutcomeError
	}
}
