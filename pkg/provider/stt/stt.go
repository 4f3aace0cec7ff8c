// Package stt defines the Engine interface for offline speech-to-text
// backends.
//
// An Engine transcribes one complete, already-normalized clip per call. The
// verification pipeline calls it twice per utterance with different language
// options (see the verify package), so implementations must be safe for
// concurrent use.
package stt

import "context"

// Options controls decoding for a single Transcribe call.
type Options struct {
	// Language is the two-letter whisper language code that biases decoding
	// ("te", "as", "en"). Required; implementations may fall back to a
	// default when the code is unknown to the model.
	Language string

	// InitialPrompt biases decoding toward an expected vocabulary (the
	// target word itself). Empty means no bias. This can cause
	// false-positive bias, so the caller toggles it independently of the
	// language mode.
	InitialPrompt string
}

// Engine is the abstraction over a batch speech-to-text backend.
//
// Transcribe returns the transcript for the given mono float32 samples at
// 16 kHz. Empty or unintelligible audio yields ("", nil) — an error return is
// reserved for the engine itself failing, which the pipeline surfaces as a
// retryable transcription failure rather than a wrong answer.
type Engine interface {
	Transcribe(ctx context.Context, samples []float32, opts Options) (string, error)

	// Close releases the underlying model. Calling Transcribe after Close
	// returns an error.
	Close() error
}
