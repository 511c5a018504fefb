package config

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// ErrCatalogMissing is reported by [Watcher.Check] when a reloaded config
// points at a catalog file that does not exist. The reload is still applied;
// only the next start would fail.
var ErrCatalogMissing = errors.New("config: catalog file missing")

// Change is one accepted reload of the config file.
type Change struct {
	Old, New *Config
	Diff     ConfigDiff

	// CatalogErr is set when New.Catalog.Path cannot be read. It wraps
	// [ErrCatalogMissing] when the file is gone.
	CatalogErr error
}

// stamp identifies one version of the config file on disk.
type stamp struct {
	mtime time.Time
	size  int64
	sum   [sha256.Size]byte
}

// Watcher keeps the running config in step with the file it was loaded
// from. [Watcher.Run] polls the file; each edit that parses, validates and
// actually changes something is handed to the callback as a [Change]. Invalid
// edits are logged and the last valid config stays current.
type Watcher struct {
	path     string
	interval time.Duration
	onChange func(Change)

	mu       sync.Mutex
	current  *Config
	seen     stamp
	rejected stamp // mtime and size of the last invalid edit
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. The default is 5 seconds.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// NewWatcher loads the config at path and returns a [Watcher] for it.
// Polling starts with [Watcher.Run].
func NewWatcher(path string, onChange func(Change), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{path: path, interval: 5 * time.Second, onChange: onChange}
	for _, opt := range opts {
		opt(w)
	}

	cfg, st, err := w.read()
	if err != nil {
		return nil, fmt.Errorf("config: watch %q: %w", path, err)
	}
	w.current, w.seen = cfg, st
	return w, nil
}

// Current returns the most recently accepted config.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Run polls the file until ctx ends and always returns nil.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.Check(); err != nil {
				slog.Warn("config: reload rejected", "path", w.path, "err", err)
			}
		}
	}
}

// Check looks at the file once. It reports whether a change was accepted,
// and returns the load error of an edit that was rejected. A file whose
// mtime and size match the last accepted or rejected version is not read,
// so an invalid edit is reported once.
func (w *Watcher) Check() (bool, error) {
	info, err := os.Stat(w.path)
	if err != nil {
		return false, err
	}

	w.mu.Lock()
	known := sameFile(info, w.seen) || sameFile(info, w.rejected)
	w.mu.Unlock()
	if known {
		return false, nil
	}

	cfg, st, err := w.read()
	if err != nil {
		w.mu.Lock()
		w.rejected = stamp{mtime: info.ModTime(), size: info.Size()}
		w.mu.Unlock()
		return false, err
	}

	w.mu.Lock()
	if st.sum == w.seen.sum {
		w.seen = st
		w.mu.Unlock()
		return false, nil
	}
	ch := Change{Old: w.current, New: cfg, Diff: Diff(w.current, cfg)}
	w.current, w.seen = cfg, st
	w.mu.Unlock()

	ch.CatalogErr = catalogReadable(cfg.Catalog.Path)
	w.report(ch)
	if w.onChange != nil {
		w.onChange(ch)
	}
	return true, nil
}

// report logs what the running process cannot pick up by itself.
func (w *Watcher) report(ch Change) {
	slog.Info("config: reloaded", "path", w.path,
		"log_level", ch.Diff.LogLevelChanged,
		"matching", ch.Diff.MatchingChanged,
		"transcript", ch.Diff.TranscriptChanged,
	)
	for _, key := range ch.Diff.RestartRequired {
		slog.Warn("config: change takes effect after a restart", "key", key)
	}
	if ch.CatalogErr != nil {
		slog.Warn("config: catalog not readable; the next start will fail", "path", ch.New.Catalog.Path, "err", ch.CatalogErr)
	}
}

// read loads and validates the file, stamping the bytes it parsed.
func (w *Watcher) read() (*Config, stamp, error) {
	info, err := os.Stat(w.path)
	if err != nil {
		return nil, stamp{}, err
	}
	data, err := os.ReadFile(w.path)
	if err != nil {
		return nil, stamp{}, err
	}
	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, stamp{}, err
	}
	return cfg, stamp{mtime: info.ModTime(), size: int64(len(data)), sum: sha256.Sum256(data)}, nil
}

func sameFile(info os.FileInfo, st stamp) bool {
	return info.ModTime().Equal(st.mtime) && info.Size() == st.size
}

func catalogReadable(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrCatalogMissing, path)
	case err != nil:
		return err
	case info.IsDir():
		return fmt.Errorf("config: catalog path %s is a directory", path)
	}
	return nil
}
