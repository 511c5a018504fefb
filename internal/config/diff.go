package config

// ConfigDiff describes what changed between two configs.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// MatchingChanged is set when any matching option changed; the caller
	// rebuilds its segmenter and retriever.
	MatchingChanged bool

	// TranscriptChanged is set when phonetic correction settings changed.
	TranscriptChanged bool

	// RestartRequired lists the changed keys (e.g. "catalog.path") that
	// only take effect after a restart, in schema order.
	RestartRequired []string
}

// Changed reports whether anything differs.
func (d ConfigDiff) Changed() bool {
	return d.LogLevelChanged || d.MatchingChanged || d.TranscriptChanged || len(d.RestartRequired) > 0
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	d.MatchingChanged = old.Matching != new.Matching
	d.TranscriptChanged = old.Transcript != new.Transcript

	for _, f := range []struct {
		key     string
		changed bool
	}{
		{"server.ops_addr", old.Server.OpsAddr != new.Server.OpsAddr},
		{"catalog.path", old.Catalog.Path != new.Catalog.Path},
		{"catalog.journal", old.Catalog.Journal != new.Catalog.Journal},
		{"aliases.path", old.Aliases.Path != new.Aliases.Path},
		{"aliases.postgres_dsn", old.Aliases.PostgresDSN != new.Aliases.PostgresDSN},
		{"aliases.cache_size", old.Aliases.CacheSize != new.Aliases.CacheSize},
		{"aliases.failure_threshold", old.Aliases.FailureThreshold != new.Aliases.FailureThreshold},
		{"aliases.retry_after", old.Aliases.RetryAfter != new.Aliases.RetryAfter},
	} {
		if f.changed {
			d.RestartRequired = append(d.RestartRequired, f.key)
		}
	}
	return d
}
