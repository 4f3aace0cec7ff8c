// Package whisper implements stt.Engine on the whisper.cpp CGO bindings.
// The whisper.cpp static library (libwhisper.a) and headers (whisper.h) must
// be available at link time via LIBRARY_PATH and C_INCLUDE_PATH environment
// variables.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/kolluru/chilaka/pkg/provider/stt"
)

const (
	// defaultMaxSegmentTokens caps token generation per segment. Single
	// words need fewer than 10 tokens; the cap prevents runaway generation
	// on noisy Indic-script decodes.
	defaultMaxSegmentTokens = 50

	// defaultBeamSize of 1 selects greedy decoding, which is several times
	// faster than the default beam search and accurate enough for
	// single-word utterances.
	defaultBeamSize = 1

	defaultLanguage = "en"
)

// Compile-time assertion that Engine satisfies stt.Engine.
var _ stt.Engine = (*Engine)(nil)

// Option is a functional option for configuring an Engine.
type Option func(*Engine)

// WithThreads sets the inference thread count. 0 lets whisper.cpp pick.
func WithThreads(n uint) Option {
	return func(e *Engine) { e.threads = n }
}

// WithMaxSegmentTokens caps token generation per segment. Defaults to 50.
func WithMaxSegmentTokens(n uint) Option {
	return func(e *Engine) { e.maxSegmentTokens = n }
}

// WithDefaultLanguage sets the language used when a Transcribe call does not
// supply one. Defaults to "en".
func WithDefaultLanguage(lang string) Option {
	return func(e *Engine) { e.language = lang }
}

// Engine implements stt.Engine using whisper.cpp Go bindings (CGO).
//
// The model is expensive to load (seconds, tens to hundreds of MB) so it is
// loaded lazily on the first Transcribe call and shared for the remainder of
// the process. The model itself is safe for concurrent reads; the per-call
// whisper contexts are NOT thread-safe, so each Transcribe creates a fresh
// context from the shared model.
type Engine struct {
	modelPath        string
	language         string
	threads          uint
	maxSegmentTokens uint

	loadOnce sync.Once
	model    whisperlib.Model
	loadErr  error

	mu     sync.Mutex
	closed bool
}

// New creates an Engine for the whisper.cpp model at modelPath. The model
// file is not touched until the first Transcribe call.
func New(modelPath string, opts ...Option) (*Engine, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	e := &Engine{
		modelPath:        modelPath,
		language:         defaultLanguage,
		maxSegmentTokens: defaultMaxSegmentTokens,
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// ensureModel loads the model exactly once. Concurrent callers block until
// the first load completes and then share the result.
func (e *Engine) ensureModel() (whisperlib.Model, error) {
	e.loadOnce.Do(func() {
		start := time.Now()
		slog.Info("whisper: loading model", "path", e.modelPath)
		e.model, e.loadErr = whisperlib.New(e.modelPath)
		if e.loadErr != nil {
			e.loadErr = fmt.Errorf("whisper: load model %q: %w", e.modelPath, e.loadErr)
			return
		}
		slog.Info("whisper: model loaded", "path", e.modelPath, "duration", time.Since(start))
	})
	return e.model, e.loadErr
}

// Transcribe runs batch inference over the given 16 kHz mono samples.
// It returns "" (not an error) when whisper produces no segments.
func (e *Engine) Transcribe(ctx context.Context, samples []float32, opts stt.Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return "", errors.New("whisper: engine is closed")
	}
	e.mu.Unlock()

	if len(samples) == 0 {
		return "", nil
	}

	model, err := e.ensureModel()
	if err != nil {
		return "", err
	}

	// Each inference gets its own context; contexts are not thread-safe but
	// the model can be shared across goroutines.
	wctx, err := model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper: create context: %w", err)
	}

	lang := opts.Language
	if lang == "" {
		lang = e.language
	}
	if err := wctx.SetLanguage(lang); err != nil {
		slog.Warn("whisper: failed to set language, using default", "language", lang, "error", err)
	}
	if e.threads > 0 {
		wctx.SetThreads(e.threads)
	}
	wctx.SetBeamSize(defaultBeamSize)
	wctx.SetMaxTokensPerSegment(e.maxSegmentTokens)
	if opts.InitialPrompt != "" {
		wctx.SetInitialPrompt(opts.InitialPrompt)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whisper: read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

// Close releases the model if it was loaded. Safe to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if e.model != nil {
		return e.model.Close()
	}
	return nil
}
