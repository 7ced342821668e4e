// Package observe provides application-wide observability primitives for
// the voice kiosk core: OpenTelemetry metrics, distributed tracing,
// structured logging, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint (spec §6's Monitoring surface,
// SPEC_FULL §2.2). A package-level default [Metrics] instance
// ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all voice kiosk metrics.
const meterName = "github.com/melpes/voicekiosk"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage (spec §4.7, SPEC_FULL §2.2) ---

	// STTDuration tracks acoustic front-end transcription latency.
	STTDuration metric.Float64Histogram

	// LLMDuration tracks intent-extractor LLM call latency.
	LLMDuration metric.Float64Histogram

	// TTSDuration tracks text-to-speech synthesis latency.
	TTSDuration metric.Float64Histogram

	// DialogueDuration tracks Dialogue Policy processing latency (the
	// in-process turn from classified intent to [dialogue.Response]).
	DialogueDuration metric.Float64Histogram

	// --- Counters ---

	// ProviderRequests counts external collaborator calls. Use with
	// attributes: attribute.String("provider", ...) (stt/llm/tts),
	// attribute.String("status", ...).
	ProviderRequests metric.Int64Counter

	// RequestsTotal counts completed voice-processing requests. Use with
	// attribute.String("status", "success"|"error").
	RequestsTotal metric.Int64Counter

	// ErrorsTotal counts classified errors by kind. Use with
	// attribute.String("kind", ...) (an [errs.Kind] value).
	ErrorsTotal metric.Int64Counter

	// --- Error counters ---

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live kiosk sessions in the
	// Session Registry.
	ActiveSessions metric.Int64UpDownCounter

	// PipelineInFlight tracks requests currently occupying a Request
	// Pipeline worker slot.
	PipelineInFlight metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for voice-pipeline latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.STTDuration, err = m.Float64Histogram("voicekiosk.stt.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.LLMDuration, err = m.Float64Histogram("voicekiosk.llm.duration",
		metric.WithDescription("Latency of intent-extraction LLM calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TTSDuration, err = m.Float64Histogram("voicekiosk.tts.duration",
		metric.WithDescription("Latency of text-to-speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.DialogueDuration, err = m.Float64Histogram("voicekiosk.dialogue.duration",
		metric.WithDescription("Latency of Dialogue Policy processing."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ProviderRequests, err = m.Int64Counter("voicekiosk.provider.requests",
		metric.WithDescription("Total external collaborator calls by provider and status."),
	); err != nil {
		return nil, err
	}
	if met.RequestsTotal, err = m.Int64Counter("voicekiosk.requests.total",
		metric.WithDescription("Total voice-processing requests by outcome."),
	); err != nil {
		return nil, err
	}
	if met.ErrorsTotal, err = m.Int64Counter("voicekiosk.errors.total",
		metric.WithDescription("Total classified errors by kind."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ProviderErrors, err = m.Int64Counter("voicekiosk.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("voicekiosk.active_sessions",
		metric.WithDescription("Number of live kiosk sessions."),
	); err != nil {
		return nil, err
	}
	if met.PipelineInFlight, err = m.Int64UpDownCounter("voicekiosk.pipeline.in_flight",
		metric.WithDescription("Number of requests currently holding a Request Pipeline worker slot."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("voicekiosk.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
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

// RecordProviderRequest is a convenience method that records a provider
// request counter increment with the standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		),
	)
}

// RecordRequest is a convenience method that records one completed
// voice-processing request.
func (m *Metrics) RecordRequest(ctx context.Context, status string) {
	m.RequestsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordClassifiedError is a convenience method that records one classified
// error by kind.
func (m *Metrics) RecordClassifiedError(ctx context.Context, kind string) {
	m.ErrorsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}

// RecordProviderError is a convenience method that records a provider error
// counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}
