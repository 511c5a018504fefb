package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of [Default] and
// validates the result. An empty document yields the defaults, which are
// invalid only for lacking a catalog path.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Matching
	m := cfg.Matching
	if m.MinScore < 0 || m.MinScore >= 100 {
		errs = append(errs, fmt.Errorf("matching.min_score %v must be in [0, 100)", m.MinScore))
	}
	if m.MaxCandidates < 1 {
		errs = append(errs, fmt.Errorf("matching.max_candidates %d must be at least 1", m.MaxCandidates))
	}
	if m.MinPhraseLen < 1 {
		errs = append(errs, fmt.Errorf("matching.min_phrase_len %d must be at least 1", m.MinPhraseLen))
	}

	// Transcript
	for name, v := range map[string]float64{
		"transcript.phonetic_threshold": cfg.Transcript.PhoneticThreshold,
		"transcript.fuzzy_threshold":    cfg.Transcript.FuzzyThreshold,
	} {
		if v <= 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%s %v must be in (0, 1]", name, v))
		}
	}

	// Catalog
	if cfg.Catalog.Path == "" {
		errs = append(errs, errors.New("catalog.path is required"))
	}

	// Aliases
	if cfg.Aliases.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("aliases.cache_size %d must not be negative", cfg.Aliases.CacheSize))
	}
	if cfg.Aliases.FailureThreshold < 1 {
		errs = append(errs, fmt.Errorf("aliases.failure_threshold %d must be at least 1", cfg.Aliases.FailureThreshold))
	}
	if cfg.Aliases.RetryAfter <= 0 {
		errs = append(errs, fmt.Errorf("aliases.retry_after %v must be positive", cfg.Aliases.RetryAfter))
	}
	if m.LearnAliases && cfg.Aliases.PostgresDSN == "" {
		slog.Warn("config: learned aliases are kept in memory only; set aliases.postgres_dsn to persist them")
	}
	if m.MinScore < 30 {
		slog.Warn("config: a low matching.min_score shows many weak candidates", "min_score", m.MinScore)
	}

	return errors.Join(errs...)
}
