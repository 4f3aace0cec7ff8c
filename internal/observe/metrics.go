// Package observe provides application-wide observability primitives for
// chilaka: OpenTelemetry metrics, tracing helpers, structured logging, and
// HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still
// be scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all chilaka metrics.
const meterName = "github.com/kolluru/chilaka"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// DecodeDuration tracks audio normalization latency (container decode,
	// downmix, resample).
	DecodeDuration metric.Float64Histogram

	// TranscribeDuration tracks wall-clock latency of the dual-pass
	// transcription (both whisper passes run concurrently).
	TranscribeDuration metric.Float64Histogram

	// VerifyDuration tracks end-to-end verification latency per request.
	VerifyDuration metric.Float64Histogram

	// TTSDuration tracks text-to-speech synthesis latency.
	TTSDuration metric.Float64Histogram

	// --- Counters ---

	// Verifications counts completed verifications. Use with attributes:
	//   attribute.String("language", ...), attribute.Bool("correct", ...)
	Verifications metric.Int64Counter

	// PipelineErrors counts verification failures by taxonomy kind. Use with
	// attributes:
	//   attribute.String("kind", ...), attribute.String("language", ...)
	PipelineErrors metric.Int64Counter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Decode is
// tens of milliseconds; a cold whisper pass on a single small vCPU can take
// tens of seconds, so the tail is long.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.DecodeDuration, err = m.Float64Histogram("chilaka.audio.decode.duration",
		metric.WithDescription("Latency of audio normalization (decode, downmix, resample)."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranscribeDuration, err = m.Float64Histogram("chilaka.stt.duration",
		metric.WithDescription("Wall-clock latency of the dual-pass transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.VerifyDuration, err = m.Float64Histogram("chilaka.verify.duration",
		metric.WithDescription("End-to-end verification latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TTSDuration, err = m.Float64Histogram("chilaka.tts.duration",
		metric.WithDescription("Latency of text-to-speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Verifications, err = m.Int64Counter("chilaka.verifications",
		metric.WithDescription("Total completed verifications by language and outcome."),
	); err != nil {
		return nil, err
	}
	if met.PipelineErrors, err = m.Int64Counter("chilaka.pipeline.errors",
		metric.WithDescription("Total verification pipeline failures by kind and language."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("chilaka.http.request.duration",
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

// WithAttrs is a convenience alias for [metric.WithAttributes] to reduce
// verbosity at call sites.
func WithAttrs(attrs ...attribute.KeyValue) metric.MeasurementOption {
	return metric.WithAttributes(attrs...)
}

// RecordVerification records a completed verification counter increment with
// the standard attribute set.
func (m *Metrics) RecordVerification(ctx context.Context, language string, correct bool) {
	m.Verifications.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("language", language),
			attribute.Bool("correct", correct),
		),
	)
}
