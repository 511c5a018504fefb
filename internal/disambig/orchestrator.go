package disambig

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/alias"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/catalog"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/command"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/observe"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/similarity"
)

// Skip reasons recorded on [observe.Metrics.SegmentsSkipped].
const (
	reasonNoCandidates = "no_candidates"
	reasonOperator     = "operator"
)

// IntentSink applies update intents. [catalog.Store] satisfies it.
type IntentSink interface {
	Apply(ctx context.Context, intent catalog.UpdateIntent) error
}

// Option is a functional option for [New].
type Option func(*Orchestrator)

// WithObserver registers o to be notified after every transition.
func WithObserver(o Observer) Option {
	return func(or *Orchestrator) { or.observer = o }
}

// WithLearner makes the orchestrator remember the operator's phrase as an
// alias of the chosen entry whenever the choice was not an exact match.
func WithLearner(l alias.Learner) Option {
	return func(or *Orchestrator) { or.learner = l }
}

// WithMetrics records intents, skipped segments and open sessions on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(or *Orchestrator) { or.metrics = m }
}

// Orchestrator drives one operator's disambiguation sessions.
//
// It is NOT safe for concurrent use: exactly one workflow step may drive it
// at a time.
type Orchestrator struct {
	sink     IntentSink
	observer Observer
	learner  alias.Learner
	metrics  *observe.Metrics

	state   State
	multi   bool
	session *Session
}

// New returns an idle [Orchestrator] that applies intents through sink.
func New(sink IntentSink, opts ...Option) *Orchestrator {
	o := &Orchestrator{sink: sink}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current state.
func (o *Orchestrator) State() State { return o.state }

// Session returns the open session, or nil when idle.
func (o *Orchestrator) Session() *Session { return o.session }

// View returns the current view without emitted intents.
func (o *Orchestrator) View() View { return o.view(nil) }

// Begin opens a session for plan.
//
// A single plan always asks the operator to choose, even when there is only
// one candidate. A multi plan sets aside segments without candidates as
// skipped and walks the rest in order. When nothing can be walked, Begin
// returns [ErrNoMatchFound] and the orchestrator stays idle; the returned view
// still lists the skipped segments.
func (o *Orchestrator) Begin(ctx context.Context, plan Plan) (View, error) {
	if o.state != Idle {
		return o.View(), ErrBusy
	}
	if len(plan.Items) == 0 {
		return o.View(), fmt.Errorf("%w: empty plan", ErrNoMatchFound)
	}

	if !plan.Multi {
		item := plan.Items[0]
		if len(item.Candidates) == 0 {
			return o.View(), fmt.Errorf("%w: %q", ErrNoMatchFound, item.Segment.Query)
		}
		o.open(ctx, false, &Session{Pending: []Resolution{item}})
		o.state = AwaitingSingleChoice
		return o.notify(nil), nil
	}

	s := &Session{}
	for _, item := range plan.Items {
		if len(item.Candidates) == 0 {
			s.Skipped = append(s.Skipped, item.Segment)
			continue
		}
		s.Pending = append(s.Pending, item)
	}
	if o.metrics != nil {
		o.metrics.RecordSkipped(ctx, reasonNoCandidates, len(s.Skipped))
	}
	if len(s.Pending) == 0 {
		v := View{State: Idle, Multi: true, Skipped: s.Skipped}
		return v, fmt.Errorf("%w: none of %d products matched", ErrNoMatchFound, len(s.Skipped))
	}

	o.open(ctx, true, s)
	o.state = AwaitingMultiChoice
	return o.notify(nil), nil
}

// Select confirms candidate i (zero-based) for the current segment.
//
// The intent is emitted immediately. If the sink fails, the error is returned
// and the session does not advance. Selecting again on a segment that was
// already applied (after stepping back) advances without a second intent.
func (o *Orchestrator) Select(ctx context.Context, i int) (View, error) {
	if o.state != AwaitingSingleChoice && o.state != AwaitingMultiChoice {
		return o.View(), ErrNotAwaiting
	}
	s := o.session
	cur := &s.Pending[s.Cursor]
	if i < 0 || i >= len(cur.Candidates) {
		return o.View(), fmt.Errorf("%w: %d not in 1..%d", ErrChoiceOutOfRange, i+1, len(cur.Candidates))
	}

	var emitted []catalog.UpdateIntent
	if !cur.Applied {
		chosen := cur.Candidates[i]
		intent := catalog.UpdateIntent{
			TargetPosition: chosen.Entry.Position,
			DeltaQuantity:  cur.Segment.Quantity,
		}
		if err := o.sink.Apply(ctx, intent); err != nil {
			return o.View(), fmt.Errorf("disambig: apply %s: %w", cur.Segment, err)
		}
		cur.Applied = true
		emitted = append(emitted, intent)
		if o.metrics != nil {
			o.metrics.RecordIntent(ctx)
		}
		slog.Info("disambig: update applied",
			"query", cur.Segment.Query,
			"entry", chosen.Entry.Name,
			"position", intent.TargetPosition,
			"delta", intent.DeltaQuantity,
		)
		o.learn(ctx, cur.Segment, chosen.Entry.Name, chosen.Score)
	}
	cur.Skipped = false

	s.Cursor++
	if s.Cursor < len(s.Pending) {
		return o.notify(emitted), nil
	}
	return o.finish(ctx, emitted), nil
}

// Back steps a multi-product walk back one segment. The cursor never goes
// below zero. Intents already emitted stay applied.
func (o *Orchestrator) Back() (View, error) {
	if o.state != AwaitingMultiChoice {
		return o.View(), fmt.Errorf("%w: stepping back needs a multi-product session", ErrNotAwaiting)
	}
	if o.session.Cursor > 0 {
		o.session.Cursor--
	}
	return o.notify(nil), nil
}

// Skip leaves the current segment of a multi-product walk unresolved and
// advances. Skipped segments are reported for resubmission.
func (o *Orchestrator) Skip(ctx context.Context) (View, error) {
	if o.state != AwaitingMultiChoice {
		return o.View(), fmt.Errorf("%w: skipping needs a multi-product session", ErrNotAwaiting)
	}
	s := o.session
	cur := &s.Pending[s.Cursor]
	if !cur.Applied && !cur.Skipped {
		cur.Skipped = true
		if o.metrics != nil {
			o.metrics.RecordSkipped(ctx, reasonOperator, 1)
		}
	}
	s.Cursor++
	if s.Cursor < len(s.Pending) {
		return o.notify(nil), nil
	}
	return o.finish(ctx, nil), nil
}

// Cancel discards the session from any state and returns to idle. Intents
// emitted before the cancel stay applied; nothing else is emitted.
func (o *Orchestrator) Cancel(ctx context.Context) View {
	v := o.View()
	v.State = Idle
	v.Current = nil
	v.Cancelled = true
	if o.session != nil {
		slog.Info("disambig: session cancelled", "applied", v.Applied, "pending", v.Total-v.Applied)
	}
	o.close(ctx)
	if o.observer != nil {
		o.observer.OnTransition(v)
	}
	return v
}

// open installs s as the current session.
func (o *Orchestrator) open(ctx context.Context, multi bool, s *Session) {
	o.multi = multi
	o.session = s
	if o.metrics != nil {
		o.metrics.ActiveSessions.Add(ctx, 1)
	}
}

// close discards the session and returns to idle.
func (o *Orchestrator) close(ctx context.Context) {
	if o.session != nil && o.metrics != nil {
		o.metrics.ActiveSessions.Add(ctx, -1)
	}
	o.session = nil
	o.multi = false
	o.state = Idle
}

// finish produces the terminal view and returns to idle.
func (o *Orchestrator) finish(ctx context.Context, emitted []catalog.UpdateIntent) View {
	o.state = Terminal
	v := o.view(emitted)
	slog.Info("disambig: session complete", "applied", v.Applied, "skipped", len(v.Skipped))
	o.close(ctx)
	if o.observer != nil {
		o.observer.OnTransition(v)
	}
	return v
}

// notify builds the current view and hands it to the observer.
func (o *Orchestrator) notify(emitted []catalog.UpdateIntent) View {
	v := o.view(emitted)
	if o.observer != nil {
		o.observer.OnTransition(v)
	}
	return v
}

func (o *Orchestrator) view(emitted []catalog.UpdateIntent) View {
	v := View{State: o.state, Multi: o.multi, Emitted: emitted}
	s := o.session
	if s == nil {
		return v
	}
	v.Cursor = s.Cursor
	v.Total = len(s.Pending)
	v.Skipped = append(v.Skipped, s.Skipped...)
	for _, r := range s.Pending {
		switch {
		case r.Applied:
			v.Applied++
		case r.Skipped:
			v.Skipped = append(v.Skipped, r.Segment)
		}
	}
	if (o.state == AwaitingSingleChoice || o.state == AwaitingMultiChoice) && s.Cursor < len(s.Pending) {
		cur := s.Pending[s.Cursor]
		v.Current = &cur
	}
	return v
}

// learn stores the segment's phrase as an alias of the chosen entry when the
// match was not exact. Failures are logged, never returned: the intent has
// already been applied.
func (o *Orchestrator) learn(ctx context.Context, seg command.Segment, name string, score float64) {
	if o.learner == nil || score >= similarity.Exact {
		return
	}
	if err := o.learner.Learn(ctx, name, seg.Query); err != nil {
		slog.Warn("disambig: failed to learn alias", "name", name, "variant", seg.Query, "err", err)
		return
	}
	slog.Debug("disambig: alias learned", "name", name, "variant", seg.Query)
}
