// Package disambig implements the human-in-the-loop disambiguation workflow.
//
// An [Orchestrator] receives a [Plan] (one or more segments, each with its
// ranked candidates) and walks the operator through choosing a catalog entry
// for each segment:
//
//	Idle ──Begin(single)──▶ AwaitingSingleChoice ──Select──▶ Terminal ──▶ Idle
//	Idle ──Begin(multi)───▶ AwaitingMultiChoice ◀─Select/Back/Skip─┐
//	                              │                                 │
//	                              └─────────────────────────────────┘
//	                              └──Select at last──▶ Terminal ──▶ Idle
//	any ──Cancel──▶ Idle
//
// Update intents are emitted the moment a choice is confirmed, so an
// abandoned multi-product session keeps every update confirmed before it.
// Stepping back re-displays an earlier segment; it never rolls back an
// intent. Candidates are fixed when the session begins.
package disambig

import (
	"errors"

	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/catalog"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/command"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/retrieve"
)

var (
	// ErrNoMatchFound is returned by [Orchestrator.Begin] when a single
	// segment has no candidates or a multi-product plan has no segment with
	// candidates.
	ErrNoMatchFound = errors.New("disambig: product not found")

	// ErrNotAwaiting is returned when a choice is submitted while no choice
	// is pending.
	ErrNotAwaiting = errors.New("disambig: no choice is pending")

	// ErrChoiceOutOfRange is returned when a choice index does not name one of
	// the displayed candidates.
	ErrChoiceOutOfRange = errors.New("disambig: choice out of range")

	// ErrBusy is returned by [Orchestrator.Begin] while another session is in
	// progress.
	ErrBusy = errors.New("disambig: a session is already in progress")
)

// State is the orchestrator's workflow state.
type State int

const (
	Idle State = iota
	AwaitingSingleChoice
	AwaitingMultiChoice
	Terminal
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingSingleChoice:
		return "awaiting_single_choice"
	case AwaitingMultiChoice:
		return "awaiting_multi_choice"
	case Terminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Resolution pairs a segment with its candidates.
type Resolution struct {
	Segment    command.Segment
	Candidates []retrieve.Candidate

	// Applied is set once an intent has been emitted for the segment.
	Applied bool

	// Skipped is set when the operator skipped the segment. Selecting it
	// later (after stepping back) clears the flag.
	Skipped bool
}

// Plan is the input of [Orchestrator.Begin]. A single plan carries exactly one
// item; a multi plan carries every segment of the utterance in order,
// including segments without candidates.
type Plan struct {
	Multi bool
	Items []Resolution
}

// Session is the state of one walk.
type Session struct {
	// Pending holds the segments that have candidates, in utterance order.
	Pending []Resolution

	// Cursor indexes Pending. 0 <= Cursor <= len(Pending); the walk is over
	// when Cursor == len(Pending).
	Cursor int

	// Skipped holds segments that had no candidates when the session began.
	Skipped []command.Segment
}

// View is a snapshot of the workflow handed to the presentation layer after
// each transition.
type View struct {
	State State
	Multi bool

	// Current is the segment awaiting a choice. Nil unless awaiting.
	Current *Resolution

	// Cursor and Total describe progress through a multi-product walk.
	Cursor int
	Total  int

	// Applied counts segments with an emitted intent.
	Applied int

	// Skipped lists every segment left unresolved so far, for resubmission.
	Skipped []command.Segment

	// Emitted holds the intents emitted by the transition that produced this
	// view.
	Emitted []catalog.UpdateIntent

	// Cancelled is set on the view produced by [Orchestrator.Cancel].
	Cancelled bool
}

// Done reports whether the view closes a session, either by completion or by
// cancellation.
func (v View) Done() bool {
	return v.State == Terminal || v.Cancelled
}

// Observer is notified after every transition. Implementations render the
// view; they must not call back into the orchestrator.
type Observer interface {
	OnTransition(v View)
}

// ObserverFunc adapts a function to [Observer].
type ObserverFunc func(View)

// OnTransition implements [Observer].
func (f ObserverFunc) OnTransition(v View) { f(v) }
