package journal_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/catalog"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/journal"
)

func TestSink_AppliesAndJournals(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := catalog.NewMemStore([]catalog.Entry{
		{Code: "CC350", Name: "Coca Cola 350ml", QuantityOnHand: 10},
		{Name: "Papas Fritas", QuantityOnHand: 4},
	})
	path := filepath.Join(t.TempDir(), "ajustes.jsonl")
	sink := journal.NewSink(store, path)

	for _, in := range []catalog.UpdateIntent{
		{TargetPosition: 0, DeltaQuantity: 20},
		{TargetPosition: 1, DeltaQuantity: 1.5},
	} {
		if err := sink.Apply(ctx, in); err != nil {
			t.Fatalf("Apply(%+v): %v", in, err)
		}
	}

	recs, err := journal.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if r := recs[0]; r.Code != "CC350" || r.Name != "Coca Cola 350ml" || r.Delta != 20 || r.Quantity != 30 {
		t.Errorf("record 0 = %+v", r)
	}
	if r := recs[1]; r.Position != 1 || r.Delta != 1.5 || r.Quantity != 5.5 || r.Timestamp.IsZero() {
		t.Errorf("record 1 = %+v", r)
	}
}

func TestSink_UnknownPositionNotJournaled(t *testing.T) {
	t.Parallel()
	store := catalog.NewMemStore([]catalog.Entry{{Name: "Pan Blanco"}})
	path := filepath.Join(t.TempDir(), "ajustes.jsonl")

	err := journal.NewSink(store, path).Apply(context.Background(), catalog.UpdateIntent{TargetPosition: 3, DeltaQuantity: 1})
	if !errors.Is(err, catalog.ErrUnknownPosition) {
		t.Fatalf("err = %v, want ErrUnknownPosition", err)
	}
	if _, err := journal.Read(path); err == nil {
		t.Error("journal file created for a rejected intent")
	}
}
