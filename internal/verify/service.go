package verify

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kolluru/chilaka/internal/observe"
	"github.com/kolluru/chilaka/pkg/audio"
)

// defaultTimeout bounds one verification request end to end. Oversized audio
// or a slow model must produce an error verdict, never a hang.
const defaultTimeout = 30 * time.Second

// Request carries the inputs for one verification.
type Request struct {
	// Audio is the raw uploaded blob. Consumed once, never persisted.
	Audio []byte

	// MimeType is the client's declared container hint.
	MimeType string

	// Target is the word the child was asked to say.
	Target Target

	// Threshold is the caller-supplied similarity threshold, clamped
	// server-side to [0,100].
	Threshold float64
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithTimeout overrides the per-request wall-clock budget.
func WithTimeout(d time.Duration) ServiceOption {
	return func(s *Service) { s.timeout = d }
}

// WithMetrics injects a metrics instance. Defaults to the package-level
// observe metrics.
func WithMetrics(m *observe.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// Service is the full verification pipeline: normalize → dual-pass
// recognize → score → decide. It is stateless per call and safe for
// concurrent use; concurrent requests share only the normalizer and the
// engine behind the recognizer.
type Service struct {
	normalizer *audio.Normalizer
	recognizer *DualPass
	metrics    *observe.Metrics
	timeout    time.Duration
}

// NewService wires a Service from its two collaborators.
func NewService(normalizer *audio.Normalizer, recognizer *DualPass, opts ...ServiceOption) *Service {
	s := &Service{
		normalizer: normalizer,
		recognizer: recognizer,
		timeout:    defaultTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Verify runs the pipeline for one request and always returns a well-formed
// verdict: every failure downstream of a well-formed request is folded into
// the verdict's ErrorKind rather than escaping as an error. The request is
// bounded by the service timeout.
func (s *Service) Verify(ctx context.Context, req Request) Verdict {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	log := observe.Logger(ctx)
	start := time.Now()

	decodeStart := time.Now()
	clip, err := s.normalizer.Normalize(ctx, req.Audio, req.MimeType)
	s.metrics.DecodeDuration.Record(ctx, time.Since(decodeStart).Seconds())
	if err != nil {
		kind := classifyNormalizeError(err)
		log.Warn("verify: audio normalization failed", "kind", kind, "error", err)
		return s.errorVerdict(ctx, req.Target, kind)
	}

	transcribeStart := time.Now()
	candidates, err := s.recognizer.Recognize(ctx, clip, req.Target)
	s.metrics.TranscribeDuration.Record(ctx, time.Since(transcribeStart).Seconds())
	if err != nil {
		log.Error("verify: transcription failed", "error", err)
		return s.errorVerdict(ctx, req.Target, ErrorTranscriptionFailure)
	}

	verdict := Decide(candidates, req.Target, req.Threshold)

	s.metrics.VerifyDuration.Record(ctx, time.Since(start).Seconds())
	s.metrics.RecordVerification(ctx, req.Target.Language.String(), verdict.IsCorrect)

	log.Info("verify: verdict",
		"language", req.Target.Language,
		"expected", verdict.Expected,
		"heard", verdict.Transcribed,
		"script_similarity", verdict.ScriptSimilarity,
		"roman_similarity", verdict.RomanSimilarity,
		"best", verdict.Similarity,
		"correct", verdict.IsCorrect,
		"duration", time.Since(start),
	)
	return verdict
}

// classifyNormalizeError maps normalizer failures onto the verdict taxonomy.
// Silence and empty uploads are a distinct kind so the UI can say "I didn't
// hear anything" instead of "wrong answer"; everything else — including a
// request that ran out of its budget mid-decode — is a decode failure.
func classifyNormalizeError(err error) ErrorKind {
	if errors.Is(err, audio.ErrEmptyCapture) {
		return ErrorNoAudioCaptured
	}
	return ErrorDecodeFailure
}

// errorVerdict builds the failure-shaped verdict: zero scores, not correct,
// with the failure classified.
func (s *Service) errorVerdict(ctx context.Context, target Target, kind ErrorKind) Verdict {
	s.metrics.PipelineErrors.Add(ctx, 1, observe.WithAttrs(
		attribute.String("kind", string(kind)),
		attribute.String("language", target.Language.String()),
	))
	return Verdict{
		Expected:  target.Native,
		Language:  target.Language,
		ErrorKind: kind,
	}
}
