// Package journal keeps an append-only record of the stock adjustments
// applied during a run. Records are JSON lines in a local file, one per
// applied update intent.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/catalog"
)

// Record is one journal line.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Position  int       `json:"position"`
	Code      string    `json:"code,omitempty"`
	Name      string    `json:"name"`
	Delta     float64   `json:"delta"`
	Quantity  float64   `json:"quantity"`
}

// Sink applies intents to a catalog store and journals each one that
// succeeds. It satisfies the orchestrator's intent sink.
type Sink struct {
	store catalog.Store
	path  string
	now   func() time.Time

	mu sync.Mutex
}

// NewSink returns a [Sink] applying to store and appending to the file at
// path, which is created on first use.
func NewSink(store catalog.Store, path string) *Sink {
	return &Sink{store: store, path: path, now: time.Now}
}

// Apply applies intent and appends its record. Only the store's error is
// returned: once applied, the stock change stands, so a journal failure is
// logged instead.
func (s *Sink) Apply(ctx context.Context, intent catalog.UpdateIntent) error {
	if err := s.store.Apply(ctx, intent); err != nil {
		return err
	}
	if err := s.record(ctx, intent); err != nil {
		slog.Error("journal: adjustment not recorded", "position", intent.TargetPosition, "delta", intent.DeltaQuantity, "err", err)
	}
	return nil
}

func (s *Sink) record(ctx context.Context, intent catalog.UpdateIntent) error {
	entries, err := s.store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("journal: snapshot: %w", err)
	}
	if intent.TargetPosition >= len(entries) {
		return fmt.Errorf("journal: %w: %d", catalog.ErrUnknownPosition, intent.TargetPosition)
	}
	e := entries[intent.TargetPosition]

	return s.append(Record{
		Timestamp: s.now().UTC(),
		Position:  e.Position,
		Code:      e.Code,
		Name:      e.Name,
		Delta:     intent.DeltaQuantity,
		Quantity:  e.QuantityOnHand,
	})
}

func (s *Sink) append(r Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("journal: marshal: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("journal: open: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("journal: write: %w", err)
	}
	return nil
}

// Read returns every record in the journal at path, oldest first.
func Read(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}
	defer f.Close()

	var out []Record
	dec := json.NewDecoder(f)
	for dec.More() {
		var r Record
		if err := dec.Decode(&r); err != nil {
			return out, fmt.Errorf("journal: decode record %d: %w", len(out)+1, err)
		}
		out = append(out, r)
	}
	return out, nil
}
