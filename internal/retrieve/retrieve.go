// Package retrieve ranks catalog entries against a product phrase.
//
// Every entry is scored on its name, its code (when present) and each of its
// alias variants; the best of those is the entry's score. Entries scoring
// strictly above the minimum are sorted by score descending, ties broken by
// catalog position ascending, and cut to the top N.
//
// Alias variants are resolved once per utterance by [Retriever.Prepare] into
// an [Index]. Retrieval against an Index is pure, so all segments of one
// utterance see the same catalog and aliases even when a confirmed update
// changes the underlying stores mid-session.
package retrieve

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/alias"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/catalog"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/similarity"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/textnorm"
)

const (
	// DefaultMinScore is the strict lower bound a candidate must exceed.
	DefaultMinScore = 50.0

	// DefaultMaxCandidates is the number of candidates returned at most.
	DefaultMaxCandidates = 5

	defaultConcurrency = 8
)

// Candidate is a catalog entry proposed for a phrase.
type Candidate struct {
	// Entry is a copy of the catalog entry taken from the snapshot.
	Entry catalog.Entry

	// Score is the similarity in [0, 100].
	Score float64

	// Matched is the catalog string (name, code or alias variant) that
	// produced Score.
	Matched string
}

// Option is a functional option for [New].
type Option func(*Retriever)

// WithMinScore sets the strict lower bound on candidate scores.
// Defaults to [DefaultMinScore].
func WithMinScore(s float64) Option {
	return func(r *Retriever) { r.minScore = s }
}

// WithMaxCandidates caps the number of candidates returned. Values below one
// are ignored. Defaults to [DefaultMaxCandidates].
func WithMaxCandidates(n int) Option {
	return func(r *Retriever) {
		if n > 0 {
			r.maxCandidates = n
		}
	}
}

// WithConcurrency bounds the number of concurrent alias lookups issued by
// [Retriever.Prepare]. Defaults to 8.
func WithConcurrency(n int) Option {
	return func(r *Retriever) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// Retriever builds [Index] snapshots. It is safe for concurrent use.
type Retriever struct {
	resolver      alias.Resolver
	minScore      float64
	maxCandidates int
	concurrency   int
}

// New returns a [Retriever] that expands entries through resolver. A nil
// resolver means no aliases.
func New(resolver alias.Resolver, opts ...Option) *Retriever {
	if resolver == nil {
		resolver = alias.Nop{}
	}
	r := &Retriever{
		resolver:      resolver,
		minScore:      DefaultMinScore,
		maxCandidates: DefaultMaxCandidates,
		concurrency:   defaultConcurrency,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Prepare snapshots entries together with their alias variants.
//
// Variants are fetched concurrently. A failed lookup is logged and the entry
// is indexed without aliases; only context cancellation aborts Prepare.
func (r *Retriever) Prepare(ctx context.Context, entries []catalog.Entry) (*Index, error) {
	ix := &Index{
		entries:       slices.Clone(entries),
		variants:      make([][]string, len(entries)),
		minScore:      r.minScore,
		maxCandidates: r.maxCandidates,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.concurrency)
	for i, e := range ix.entries {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			v, err := r.resolver.Variants(egCtx, e.Name)
			if err != nil {
				if ctxErr := egCtx.Err(); ctxErr != nil {
					return ctxErr
				}
				slog.Warn("retrieve: alias lookup failed, continuing without aliases",
					"name", e.Name,
					"err", err,
				)
				return nil
			}
			ix.variants[i] = v
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("retrieve: prepare index: %w", err)
	}
	return ix, nil
}

// Retrieve is the one-shot form of Prepare followed by [Index.Retrieve].
func (r *Retriever) Retrieve(ctx context.Context, query string, entries []catalog.Entry) ([]Candidate, error) {
	ix, err := r.Prepare(ctx, entries)
	if err != nil {
		return nil, err
	}
	return ix.Retrieve(query), nil
}

// Index is an immutable catalog snapshot with resolved aliases.
// It is safe for concurrent use.
type Index struct {
	entries       []catalog.Entry
	variants      [][]string
	minScore      float64
	maxCandidates int
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int { return len(ix.entries) }

// Entries returns a copy of the indexed entries in catalog order.
func (ix *Index) Entries() []catalog.Entry { return slices.Clone(ix.entries) }

// Variants returns the alias variants indexed for the entry at i.
func (ix *Index) Variants(i int) []string { return slices.Clone(ix.variants[i]) }

// Retrieve returns the ranked candidates for query. An empty query, or one
// that normalizes to nothing, yields no candidates.
func (ix *Index) Retrieve(query string) []Candidate {
	if textnorm.Normalize(query) == "" {
		return nil
	}

	var out []Candidate
	for i, e := range ix.entries {
		score, matched := bestScore(query, e, ix.variants[i])
		if score > ix.minScore {
			out = append(out, Candidate{Entry: e, Score: score, Matched: matched})
		}
	}

	slices.SortStableFunc(out, func(a, b Candidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Entry.Position, b.Entry.Position)
	})
	if len(out) > ix.maxCandidates {
		out = out[:ix.maxCandidates]
	}
	return out
}

// bestScore is the maximum score of query against the entry's name, code and
// alias variants, along with the string that produced it.
func bestScore(query string, e catalog.Entry, variants []string) (float64, string) {
	best, matched := similarity.Score(query, e.Name), e.Name
	consider := func(s string) {
		if best >= similarity.Exact || s == "" {
			return
		}
		if v := similarity.Score(query, s); v > best {
			best, matched = v, s
		}
	}
	consider(e.Code)
	for _, v := range variants {
		consider(v)
	}
	return best, matched
}
