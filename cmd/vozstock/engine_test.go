package main

import (
	"context"
	"testing"

	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/alias"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/catalog"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/config"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/observe"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Catalog.Path = "productos.yaml"
	return cfg
}

func TestLiveEngine_Reload(t *testing.T) {
	ctx := context.Background()
	entries := []catalog.Entry{
		{Name: "Cerveza Pilsen 330ml", Position: 0},
		{Name: "Coca Cola 350ml", Position: 1},
	}
	m := observe.DefaultMetrics()

	cfg := testConfig()
	e := newLiveEngine(cfg, nil, m)

	res, err := e.Interpret(ctx, "cerbeza 5", entries)
	if err == nil && len(res.Corrections) > 0 {
		t.Fatalf("corrections applied with phonetic disabled: %+v", res.Corrections)
	}

	cfg = testConfig()
	cfg.Transcript.Phonetic = true
	e.Reload(cfg, nil, m)

	res, err = e.Interpret(ctx, "cerbeza 5", entries)
	if err != nil {
		t.Fatalf("Interpret after reload: %v", err)
	}
	if len(res.Corrections) == 0 {
		t.Fatalf("no corrections after enabling phonetic; text %q", res.Text)
	}
	if got := res.Plan.Items[0].Candidates[0].Entry.Name; got != "Cerveza Pilsen 330ml" {
		t.Errorf("top candidate = %q", got)
	}
}

func TestLearnSwitch(t *testing.T) {
	ctx := context.Background()
	store := alias.NewMemStore()
	s := newLearnSwitch(store, false)

	if err := s.Learn(ctx, "Cerveza", "chela"); err != nil {
		t.Fatal(err)
	}
	if v, _ := store.Variants(ctx, "Cerveza"); len(v) != 0 {
		t.Errorf("learned while off: %v", v)
	}

	s.Set(true)
	if err := s.Learn(ctx, "Cerveza", "chela"); err != nil {
		t.Fatal(err)
	}
	if v, _ := store.Variants(ctx, "Cerveza"); len(v) != 1 || v[0] != "chela" {
		t.Errorf("Variants = %v, want [chela]", v)
	}
}

func TestOpenAliases_Memory(t *testing.T) {
	b, err := openAliases(context.Background(), config.AliasesConfig{})
	if err != nil {
		t.Fatalf("openAliases: %v", err)
	}
	defer b.Close()
	if b.Kind != "memory" || b.Pinger != nil {
		t.Errorf("backend = %+v, want memory without pinger", b)
	}

	r, l, err := cacheAliases(b, 8)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.(*alias.Cached); !ok {
		t.Errorf("resolver = %T, want *alias.Cached", r)
	}
	if l == nil {
		t.Error("nil learner")
	}
}
