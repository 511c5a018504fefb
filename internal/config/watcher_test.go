package config_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/inigopop/codigo-fusion-alegre-sub000/internal/config"
)

const watcherYAML = `
server:
  log_level: %s
matching:
  min_score: %d
catalog:
  path: %s
`

// watchDir holds a config file and an existing catalog file.
type watchDir struct {
	t       *testing.T
	config  string
	catalog string

	base  time.Time
	bumps int
}

func newWatchDir(t *testing.T) *watchDir {
	t.Helper()
	dir := t.TempDir()
	d := &watchDir{
		t:       t,
		config:  filepath.Join(dir, "vozstock.yaml"),
		catalog: filepath.Join(dir, "productos.yaml"),
		base:    time.Now().Truncate(time.Second),
	}
	if err := os.WriteFile(d.catalog, []byte("entries: []\n"), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return d
}

// write replaces the config file and moves its mtime past every earlier
// version so the next check sees it regardless of timestamp resolution.
func (d *watchDir) write(level string, minScore int, catalogPath string) {
	d.t.Helper()
	if err := os.WriteFile(d.config, []byte(fmt.Sprintf(watcherYAML, level, minScore, catalogPath)), 0o644); err != nil {
		d.t.Fatalf("write config: %v", err)
	}
	d.touch()
}

func (d *watchDir) writeRaw(content string) {
	d.t.Helper()
	if err := os.WriteFile(d.config, []byte(content), 0o644); err != nil {
		d.t.Fatalf("write config: %v", err)
	}
	d.touch()
}

func (d *watchDir) touch() {
	d.t.Helper()
	d.bumps++
	later := d.base.Add(time.Duration(d.bumps) * 2 * time.Second)
	if err := os.Chtimes(d.config, later, later); err != nil {
		d.t.Fatalf("chtimes: %v", err)
	}
}

func (d *watchDir) watch(onChange func(config.Change), opts ...config.WatcherOption) *config.Watcher {
	d.t.Helper()
	w, err := config.NewWatcher(d.config, onChange, opts...)
	if err != nil {
		d.t.Fatalf("NewWatcher: %v", err)
	}
	return w
}

func TestWatcher_InitialLoad(t *testing.T) {
	t.Parallel()
	d := newWatchDir(t)
	d.write("info", 50, d.catalog)

	cfg := d.watch(nil).Current()
	if cfg.Server.LogLevel != config.LogInfo || cfg.Catalog.Path != d.catalog {
		t.Errorf("Current() = %+v", cfg)
	}
	if cfg.Matching.MaxCandidates != 5 {
		t.Errorf("max_candidates default = %d, want 5", cfg.Matching.MaxCandidates)
	}
}

func TestWatcher_InitialLoadFails(t *testing.T) {
	t.Parallel()
	if _, err := config.NewWatcher(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWatcher_Check(t *testing.T) {
	t.Parallel()

	t.Run("unchanged file", func(t *testing.T) {
		t.Parallel()
		d := newWatchDir(t)
		d.write("info", 50, d.catalog)
		w := d.watch(func(config.Change) { t.Error("onChange called") })

		if changed, err := w.Check(); changed || err != nil {
			t.Errorf("Check() = %v, %v; want false, nil", changed, err)
		}
	})

	t.Run("hot reloadable edit", func(t *testing.T) {
		t.Parallel()
		d := newWatchDir(t)
		d.write("info", 50, d.catalog)
		var got []config.Change
		w := d.watch(func(ch config.Change) { got = append(got, ch) })

		d.write("debug", 60, d.catalog)
		if changed, err := w.Check(); !changed || err != nil {
			t.Fatalf("Check() = %v, %v; want true, nil", changed, err)
		}
		if len(got) != 1 {
			t.Fatalf("onChange called %d times, want 1", len(got))
		}
		ch := got[0]
		if ch.Old.Server.LogLevel != config.LogInfo || ch.New.Server.LogLevel != config.LogDebug {
			t.Errorf("log levels old=%q new=%q", ch.Old.Server.LogLevel, ch.New.Server.LogLevel)
		}
		if !ch.Diff.LogLevelChanged || !ch.Diff.MatchingChanged || len(ch.Diff.RestartRequired) != 0 {
			t.Errorf("Diff = %+v", ch.Diff)
		}
		if ch.CatalogErr != nil {
			t.Errorf("CatalogErr = %v", ch.CatalogErr)
		}
		if w.Current().Matching.MinScore != 60 {
			t.Errorf("Current().Matching.MinScore = %v, want 60", w.Current().Matching.MinScore)
		}
	})

	t.Run("catalog moved to a missing file", func(t *testing.T) {
		t.Parallel()
		d := newWatchDir(t)
		d.write("info", 50, d.catalog)
		var got []config.Change
		w := d.watch(func(ch config.Change) { got = append(got, ch) })

		missing := filepath.Join(filepath.Dir(d.catalog), "borrado.yaml")
		d.write("info", 50, missing)
		if changed, err := w.Check(); !changed || err != nil {
			t.Fatalf("Check() = %v, %v; want true, nil", changed, err)
		}
		ch := got[0]
		if !slices.Equal(ch.Diff.RestartRequired, []string{"catalog.path"}) {
			t.Errorf("RestartRequired = %v, want [catalog.path]", ch.Diff.RestartRequired)
		}
		if !errors.Is(ch.CatalogErr, config.ErrCatalogMissing) {
			t.Errorf("CatalogErr = %v, want ErrCatalogMissing", ch.CatalogErr)
		}
	})

	t.Run("invalid edit reported once", func(t *testing.T) {
		t.Parallel()
		d := newWatchDir(t)
		d.write("info", 50, d.catalog)
		w := d.watch(func(config.Change) { t.Error("onChange called for an invalid file") })

		d.write("ruidoso", 50, d.catalog)
		if changed, err := w.Check(); changed || err == nil {
			t.Fatalf("Check() = %v, %v; want false and a load error", changed, err)
		}
		if changed, err := w.Check(); changed || err != nil {
			t.Errorf("second Check() = %v, %v; want the rejected edit skipped", changed, err)
		}
		if lvl := w.Current().Server.LogLevel; lvl != config.LogInfo {
			t.Errorf("Current() log_level = %q, want last valid %q", lvl, config.LogInfo)
		}
	})

	t.Run("touch without content change", func(t *testing.T) {
		t.Parallel()
		d := newWatchDir(t)
		d.write("info", 50, d.catalog)
		w := d.watch(func(config.Change) { t.Error("onChange called for a touch") })

		d.touch()
		if changed, err := w.Check(); changed || err != nil {
			t.Errorf("Check() = %v, %v; want false, nil", changed, err)
		}
	})

	t.Run("recovers after invalid edit", func(t *testing.T) {
		t.Parallel()
		d := newWatchDir(t)
		d.write("info", 50, d.catalog)
		w := d.watch(nil)

		d.writeRaw("server: [\n")
		if _, err := w.Check(); err == nil {
			t.Fatal("expected a parse error")
		}
		d.write("warn", 50, d.catalog)
		if changed, err := w.Check(); !changed || err != nil {
			t.Fatalf("Check() = %v, %v; want true, nil", changed, err)
		}
		if lvl := w.Current().Server.LogLevel; lvl != config.LogWarn {
			t.Errorf("log_level = %q, want warn", lvl)
		}
	})
}

func TestWatcher_Run(t *testing.T) {
	t.Parallel()
	d := newWatchDir(t)
	d.write("info", 50, d.catalog)

	changes := make(chan config.Change, 1)
	w := d.watch(func(ch config.Change) { changes <- ch }, config.WithInterval(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	d.write("error", 50, d.catalog)
	select {
	case ch := <-changes:
		if ch.Diff.NewLogLevel != config.LogError {
			t.Errorf("NewLogLevel = %q, want error", ch.Diff.NewLogLevel)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change seen within 2s")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
