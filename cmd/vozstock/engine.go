package main

import (
	"context"
	"sync/atomic"

	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/alias"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/catalog"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/command"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/config"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/console"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/interpret"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/observe"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/retrieve"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/transcript"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/transcript/phonetic"
)

var (
	_ console.Interpreter = (*liveEngine)(nil)
	_ alias.Learner       = (*learnSwitch)(nil)
)

// liveEngine holds the current [interpret.Engine]; config reloads swap it.
type liveEngine struct {
	p atomic.Pointer[interpret.Engine]
}

func newLiveEngine(cfg *config.Config, resolver alias.Resolver, m *observe.Metrics) *liveEngine {
	e := &liveEngine{}
	e.Reload(cfg, resolver, m)
	return e
}

// Reload replaces the engine with one built from cfg. Utterances already
// being interpreted finish on the old engine.
func (e *liveEngine) Reload(cfg *config.Config, resolver alias.Resolver, m *observe.Metrics) {
	e.p.Store(buildEngine(cfg, resolver, m))
}

// Interpret implements [console.Interpreter].
func (e *liveEngine) Interpret(ctx context.Context, utterance string, entries []catalog.Entry) (*interpret.Interpretation, error) {
	return e.p.Load().Interpret(ctx, utterance, entries)
}

func buildEngine(cfg *config.Config, resolver alias.Resolver, m *observe.Metrics) *interpret.Engine {
	mc := cfg.Matching
	seg := command.NewSegmenter(
		command.WithMinPhraseLen(mc.MinPhraseLen),
		command.WithCommaHeuristic(mc.CommaHeuristic),
	)
	r := retrieve.New(resolver,
		retrieve.WithMinScore(mc.MinScore),
		retrieve.WithMaxCandidates(mc.MaxCandidates),
	)

	opts := []interpret.Option{interpret.WithMetrics(m)}
	if tc := cfg.Transcript; tc.Phonetic {
		pm := phonetic.New(
			phonetic.WithPhoneticThreshold(tc.PhoneticThreshold),
			phonetic.WithFuzzyThreshold(tc.FuzzyThreshold),
		)
		opts = append(opts, interpret.WithCorrector(transcript.NewCorrector(pm)))
	}
	return interpret.New(r, seg, opts...)
}

// learnSwitch forwards Learn calls while enabled.
type learnSwitch struct {
	alias.Learner
	on atomic.Bool
}

func newLearnSwitch(l alias.Learner, on bool) *learnSwitch {
	s := &learnSwitch{Learner: l}
	s.on.Store(on)
	return s
}

// Set turns learning on or off.
func (s *learnSwitch) Set(on bool) { s.on.Store(on) }

// Learn implements [alias.Learner].
func (s *learnSwitch) Learn(ctx context.Context, canonical, variant string) error {
	if !s.on.Load() {
		return nil
	}
	return s.Learner.Learn(ctx, canonical, variant)
}
