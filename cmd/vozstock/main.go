// Command vozstock is an interactive stock-adjustment console. The operator
// dictates or types Spanish commands such as "coca cola veinte" or
// "añadir pan 3, leche dos y huevos 12"; vozstock matches the products
// against the catalog, asks the operator to confirm each one and applies the
// quantity changes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/alias"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/alias/postgres"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/catalog"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/config"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/console"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/disambig"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/health"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/journal"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/observe"
	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/resilience"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "vozstock.yaml", "path to the YAML configuration file")
	dumpAliases := flag.Bool("dump-aliases", false, "print every alias set (learned ones included) as YAML and exit")
	flag.Parse()

	// ── Configuration and logger ──────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "vozstock: config file %q not found; copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "vozstock: %v\n", err)
		}
		return 1
	}

	level := new(slog.LevelVar)
	level.Set(slogLevel(cfg.Server.LogLevel))
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Stores ────────────────────────────────────────────────────────────────
	aliases, err := openAliases(ctx, cfg.Aliases)
	if err != nil {
		slog.Error("failed to open alias store", "err", err)
		return 1
	}
	defer aliases.Close()

	if *dumpAliases {
		sets, err := aliases.Sets(ctx)
		if err == nil {
			err = alias.Encode(os.Stdout, sets)
		}
		if err != nil {
			slog.Error("failed to dump aliases", "err", err)
			return 1
		}
		return 0
	}

	entries, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		slog.Error("failed to load catalog", "err", err)
		return 1
	}
	store := catalog.NewMemStore(entries)

	resolver, learner, err := cacheAliases(aliases, cfg.Aliases.CacheSize)
	if err != nil {
		slog.Error("failed to build alias cache", "err", err)
		return 1
	}

	slog.Info("vozstock starting",
		"version", version,
		"config", *configPath,
		"catalog", cfg.Catalog.Path,
		"products", len(entries),
		"aliases", aliases.Kind,
		"journal", cfg.Catalog.Journal,
		"ops_addr", cfg.Server.OpsAddr,
		"phonetic", cfg.Transcript.Phonetic,
	)

	// ── Engine, orchestrator and console ──────────────────────────────────────
	engine := newLiveEngine(cfg, resolver, metrics)
	learning := newLearnSwitch(learner, cfg.Matching.LearnAliases)

	var sink disambig.IntentSink = store
	if cfg.Catalog.Journal != "" {
		sink = journal.NewSink(store, cfg.Catalog.Journal)
	}

	prompter := console.NewPrompter(os.Stdout)
	orch := disambig.New(sink,
		disambig.WithObserver(prompter),
		disambig.WithLearner(learning),
		disambig.WithMetrics(metrics),
	)
	con := console.New(prompter, store, engine, orch)

	// ── Hot reload ────────────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(ch config.Change) {
		if ch.Diff.LogLevelChanged {
			level.Set(slogLevel(ch.Diff.NewLogLevel))
		}
		if ch.Diff.MatchingChanged || ch.Diff.TranscriptChanged {
			engine.Reload(ch.New, resolver, metrics)
			learning.Set(ch.New.Matching.LearnAliases)
			slog.Info("matching options reloaded",
				"min_score", ch.New.Matching.MinScore,
				"max_candidates", ch.New.Matching.MaxCandidates,
				"phonetic", ch.New.Transcript.Phonetic,
			)
		}
	})
	if err != nil {
		slog.Warn("config hot reload disabled", "err", err)
	}

	// ── Run ───────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Server.OpsAddr != "" {
		checkers := []health.Checker{health.CatalogChecker(store)}
		if aliases.Pinger != nil {
			checkers = append(checkers, health.PingChecker("aliases", aliases.Pinger))
		}
		srv := newOpsServer(cfg.Server.OpsAddr, metrics, health.New(checkers...))

		g.Go(func() error {
			slog.Info("ops server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("ops server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 5*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	if watcher != nil {
		g.Go(func() error { return watcher.Run(gctx) })
	}
	g.Go(func() error {
		defer stop()
		return con.Run(gctx, os.Stdin)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// aliasBackend is the opened alias store with what main needs to manage it.
type aliasBackend struct {
	alias.Store

	// Kind names the backend for logs: "memory" or "postgres".
	Kind string

	// Pinger is set for stores with a connectivity probe.
	Pinger health.Pinger

	close func()
}

// Close releases the backend.
func (b *aliasBackend) Close() {
	if b.close != nil {
		b.close()
	}
}

// openAliases opens the configured alias store. With a PostgreSQL DSN the
// YAML file, when given, is imported into the database and kept in memory as
// the fallback while the database is unavailable; without one the YAML file
// (or nothing) backs an in-memory store.
func openAliases(ctx context.Context, cfg config.AliasesConfig) (*aliasBackend, error) {
	var seed *alias.MemStore
	if cfg.Path != "" {
		s, err := alias.LoadFile(cfg.Path)
		if err != nil {
			return nil, err
		}
		seed = s
	}

	if cfg.PostgresDSN == "" {
		if seed == nil {
			seed = alias.NewMemStore()
		}
		return &aliasBackend{Store: seed, Kind: "memory"}, nil
	}

	pg, err := postgres.NewStore(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if seed != nil {
		sets, err := seed.Sets(ctx)
		if err != nil {
			pg.Close()
			return nil, err
		}
		n, err := pg.Import(ctx, sets)
		if err != nil {
			pg.Close()
			return nil, err
		}
		slog.Info("aliases imported", "path", cfg.Path, "new_variants", n)
	} else {
		seed = alias.NewMemStore()
	}

	failover := resilience.NewAliasFailover(pg, seed, resilience.CircuitBreakerConfig{
		MaxFailures:  cfg.FailureThreshold,
		ResetTimeout: cfg.RetryAfter,
	})
	return &aliasBackend{Store: failover, Kind: "postgres", Pinger: pg, close: pg.Close}, nil
}

// cacheAliases fronts the store with an LRU when size > 0.
func cacheAliases(store alias.Store, size int) (alias.Resolver, alias.Learner, error) {
	if size <= 0 {
		return store, store, nil
	}
	c, err := alias.NewCached(store, size)
	if err != nil {
		return nil, nil, err
	}
	return c, c, nil
}

func newOpsServer(addr string, m *observe.Metrics, h *health.Handler) *http.Server {
	mux := http.NewServeMux()
	h.Register(mux)
	mux.Handle("GET /metrics", observe.MetricsHandler())
	return &http.Server{
		Addr:              addr,
		Handler:           observe.Middleware(m)(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// slogLevel maps a config log level to an [slog.Level].
func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
