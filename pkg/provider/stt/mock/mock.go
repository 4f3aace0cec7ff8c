// Package mock provides an in-memory mock implementation of [stt.Engine] for
// use in unit tests.
//
// The mock is safe for concurrent use, records Transcribe calls, and exposes
// exported fields for configuring return values.
//
// Example:
//
//	eng := &mock.Engine{
//	    TranscribeFunc: func(_ context.Context, _ []float32, opts stt.Options) (string, error) {
//	        if opts.Language == "en" {
//	            return "pilli", nil
//	        }
//	        return "పిల్లి", nil
//	    },
//	}
package mock

import (
	"context"
	"sync"

	"github.com/kolluru/chilaka/pkg/provider/stt"
)

// Compile-time assertion that Engine satisfies stt.Engine.
var _ stt.Engine = (*Engine)(nil)

// TranscribeCall records the arguments of a single Transcribe invocation.
type TranscribeCall struct {
	// SampleCount is the number of samples passed in.
	SampleCount int

	// Options are the decode options passed in.
	Options stt.Options
}

// Engine is a mock implementation of [stt.Engine].
type Engine struct {
	mu sync.Mutex

	// TranscribeFunc computes the result of Transcribe. When nil, Transcribe
	// returns TranscribeResult and TranscribeError.
	TranscribeFunc func(ctx context.Context, samples []float32, opts stt.Options) (string, error)

	// TranscribeResult is returned when TranscribeFunc is nil.
	TranscribeResult string

	// TranscribeError is returned when TranscribeFunc is nil.
	TranscribeError error

	// CloseError is returned by Close.
	CloseError error

	// TranscribeCalls records every Transcribe invocation in order.
	TranscribeCalls []TranscribeCall

	// CloseCalls counts Close invocations.
	CloseCalls int
}

// Transcribe records the call and returns the configured result.
func (e *Engine) Transcribe(ctx context.Context, samples []float32, opts stt.Options) (string, error) {
	e.mu.Lock()
	e.TranscribeCalls = append(e.TranscribeCalls, TranscribeCall{
		SampleCount: len(samples),
		Options:     opts,
	})
	fn := e.TranscribeFunc
	result, errResult := e.TranscribeResult, e.TranscribeError
	e.mu.Unlock()

	if fn != nil {
		return fn(ctx, samples, opts)
	}
	return result, errResult
}

// Close records the call and returns CloseError.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.CloseCalls++
	return e.CloseError
}

// Calls returns a copy of the recorded Transcribe calls.
func (e *Engine) Calls() []TranscribeCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]TranscribeCall, len(e.TranscribeCalls))
	copy(out, e.TranscribeCalls)
	return out
}
