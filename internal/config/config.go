// Package config provides the configuration schema and loader for vozstock.
package config

import "time"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Matching   MatchingConfig   `yaml:"matching"`
	Transcript TranscriptConfig `yaml:"transcript"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Aliases    AliasesConfig    `yaml:"aliases"`
}

// ServerConfig holds logging and ops endpoint settings.
type ServerConfig struct {
	// LogLevel controls verbosity. Hot-reloadable.
	LogLevel LogLevel `yaml:"log_level"`

	// OpsAddr is the TCP address of the ops HTTP server serving /metrics,
	// /healthz and /readyz (e.g., ":9090"). Empty disables the server.
	OpsAddr string `yaml:"ops_addr"`
}

// MatchingConfig tunes segmentation and candidate retrieval. Hot-reloadable.
type MatchingConfig struct {
	// MinScore is the strict lower bound a candidate's score must exceed.
	// Range [0, 100). Default: 50.
	MinScore float64 `yaml:"min_score"`

	// MaxCandidates caps the candidates shown per segment. Default: 5.
	MaxCandidates int `yaml:"max_candidates"`

	// MinPhraseLen is the shortest product phrase (in runes) a multi-product
	// segment may have. Default: 3.
	MinPhraseLen int `yaml:"min_phrase_len"`

	// CommaHeuristic makes a comma followed by a word count as a
	// multi-product signal. Default: true.
	CommaHeuristic bool `yaml:"comma_heuristic"`

	// LearnAliases remembers operator-confirmed phrases as aliases of the
	// chosen product. Default: true.
	LearnAliases bool `yaml:"learn_aliases"`
}

// TranscriptConfig controls phonetic vocabulary correction. Hot-reloadable.
type TranscriptConfig struct {
	// Phonetic enables correction of unknown words toward catalog names and
	// aliases before parsing. Default: false.
	Phonetic bool `yaml:"phonetic"`

	// PhoneticThreshold is the minimum Jaro-Winkler score of a phonetic
	// match. Range (0, 1]. Default: 0.70.
	PhoneticThreshold float64 `yaml:"phonetic_threshold"`

	// FuzzyThreshold is the minimum Jaro-Winkler score of a non-phonetic
	// match. Range (0, 1]. Default: 0.85.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold"`
}

// CatalogConfig locates the product catalog.
type CatalogConfig struct {
	// Path is the YAML catalog file. Required.
	Path string `yaml:"path"`

	// Journal is a JSON-lines file receiving one record per applied
	// adjustment. Empty disables the journal.
	Journal string `yaml:"journal"`
}

// AliasesConfig selects the alias store.
type AliasesConfig struct {
	// Path is a YAML alias file. Without PostgresDSN it backs an in-memory
	// store; with PostgresDSN its sets are imported into PostgreSQL at
	// startup.
	Path string `yaml:"path"`

	// PostgresDSN is a PostgreSQL connection string. When set, aliases
	// (learned ones included) persist in PostgreSQL.
	PostgresDSN string `yaml:"postgres_dsn"`

	// CacheSize is the number of products whose variants are cached in an
	// LRU in front of the store. 0 disables the cache. Default: 256.
	CacheSize int `yaml:"cache_size"`

	// FailureThreshold is the number of consecutive PostgreSQL failures after
	// which lookups go straight to the in-memory copy of Path. Default: 3.
	FailureThreshold int `yaml:"failure_threshold"`

	// RetryAfter is how long PostgreSQL is bypassed before it is probed
	// again (e.g., "30s"). Default: 30s.
	RetryAfter time.Duration `yaml:"retry_after"`
}

// Default returns a [Config] with every default applied. The loader decodes
// on top of it, so omitted keys keep their defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{LogLevel: LogInfo},
		Matching: MatchingConfig{
			MinScore:       50,
			MaxCandidates:  5,
			MinPhraseLen:   3,
			CommaHeuristic: true,
			LearnAliases:   true,
		},
		Transcript: TranscriptConfig{
			PhoneticThreshold: 0.70,
			FuzzyThreshold:    0.85,
		},
		Aliases: AliasesConfig{
			CacheSize:        256,
			FailureThreshold: 3,
			RetryAfter:       30 * time.Second,
		},
	}
}
