// Package observe provides application-wide observability primitives for
// vozstock: OpenTelemetry metrics, tracing, a trace-aware slog logger, and
// HTTP middleware for the ops server.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped from the ops server's /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all vozstock metrics.
const meterName = "github.com/inigopop/codigo-fusion-alegre-sub000"

// Utterance modes and outcomes used as attribute values on
// [Metrics.Utterances].
const (
	ModeSingle = "single"
	ModeMulti  = "multi"

	OutcomeMatched      = "matched"
	OutcomeNoMatch      = "no_match"
	OutcomeUnrecognized = "unrecognized"
	OutcomeInvalid      = "invalid_quantity"
	OutcomeError        = "error"
)

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// Utterances counts interpreted utterances. Use with attributes:
	//   attribute.String("mode", ...), attribute.String("outcome", ...)
	Utterances metric.Int64Counter

	// RetrievalDuration tracks candidate retrieval latency per utterance,
	// alias resolution included.
	RetrievalDuration metric.Float64Histogram

	// Candidates records the number of candidates returned per segment.
	Candidates metric.Int64Histogram

	// Intents counts emitted update intents.
	Intents metric.Int64Counter

	// SegmentsSkipped counts segments left unresolved. Use with attribute:
	//   attribute.String("reason", ...)
	SegmentsSkipped metric.Int64Counter

	// ActiveSessions tracks open disambiguation sessions.
	ActiveSessions metric.Int64UpDownCounter

	// HTTPRequestDuration tracks ops server request time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Retrieval
// over a few thousand entries is a sub-millisecond to millisecond affair;
// the upper buckets catch slow alias stores.
var latencyBuckets = []float64{
	0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Counters.
	if met.Utterances, err = m.Int64Counter("vozstock.utterances",
		metric.WithDescription("Total interpreted utterances by mode and outcome."),
	); err != nil {
		return nil, err
	}
	if met.Intents, err = m.Int64Counter("vozstock.intents",
		metric.WithDescription("Total update intents emitted."),
	); err != nil {
		return nil, err
	}
	if met.SegmentsSkipped, err = m.Int64Counter("vozstock.segments.skipped",
		metric.WithDescription("Total segments left unresolved by reason."),
	); err != nil {
		return nil, err
	}

	// Histograms.
	if met.RetrievalDuration, err = m.Float64Histogram("vozstock.retrieval.duration",
		metric.WithDescription("Latency of candidate retrieval per utterance."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Candidates, err = m.Int64Histogram("vozstock.candidates",
		metric.WithDescription("Number of candidates returned per segment."),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 3, 5, 10),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("vozstock.active_sessions",
		metric.WithDescription("Number of open disambiguation sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("vozstock.http.request.duration",
		metric.WithDescription("Ops server request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordUtterance records one interpreted utterance.
func (m *Metrics) RecordUtterance(ctx context.Context, mode, outcome string) {
	m.Utterances.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("mode", mode),
			attribute.String("outcome", outcome),
		),
	)
}

// RecordRetrieval records the retrieval latency of one utterance.
func (m *Metrics) RecordRetrieval(ctx context.Context, d time.Duration) {
	m.RetrievalDuration.Record(ctx, d.Seconds())
}

// RecordCandidates records the candidate count of one segment.
func (m *Metrics) RecordCandidates(ctx context.Context, n int) {
	m.Candidates.Record(ctx, int64(n))
}

// RecordIntent records one emitted update intent.
func (m *Metrics) RecordIntent(ctx context.Context) {
	m.Intents.Add(ctx, 1)
}

// RecordSkipped records n segments left unresolved for reason.
func (m *Metrics) RecordSkipped(ctx context.Context, reason string, n int) {
	if n <= 0 {
		return
	}
	m.SegmentsSkipped.Add(ctx, int64(n),
		metric.WithAttributes(attribute.String("reason", reason)),
	)
}
