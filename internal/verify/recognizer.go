package verify

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kolluru/chilaka/pkg/audio"
	"github.com/kolluru/chilaka/pkg/provider/stt"
)

// agnosticLanguage is the fixed high-resource language used by the
// LanguageAgnostic pass. Forcing English makes whisper romanize non-English
// speech, which is exactly what the romanized comparison wants.
const agnosticLanguage = "en"

// RecognizerOption configures a DualPass.
type RecognizerOption func(*DualPass)

// WithInitialPrompt toggles biasing each decode with the expected word as an
// initial prompt. Helps Telugu/Assamese recognition but can cause
// false-positive bias, so it is switchable independently of the modes.
// Default: enabled.
func WithInitialPrompt(enabled bool) RecognizerOption {
	return func(r *DualPass) { r.initialPrompt = enabled }
}

// WithForcedPassDisabled skips the language-forced pass entirely. Escape
// hatch for deployments where the native-script pass hallucinates and takes
// tens of seconds on a single vCPU; the agnostic pass alone then carries
// recognition and the forced candidate stays empty.
func WithForcedPassDisabled(disabled bool) RecognizerOption {
	return func(r *DualPass) { r.disableForced = disabled }
}

// DualPass orchestrates the two transcription passes for one utterance.
// It holds no per-request state and is safe for concurrent use.
type DualPass struct {
	engine        stt.Engine
	initialPrompt bool
	disableForced bool
}

// NewDualPass creates a recognizer over the given engine.
func NewDualPass(engine stt.Engine, opts ...RecognizerOption) *DualPass {
	r := &DualPass{
		engine:        engine,
		initialPrompt: true,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Recognize runs both passes concurrently over the shared read-only clip and
// returns exactly two candidates, LanguageForced first.
//
// The passes are independent: one failing does not abort the other — its
// candidate degrades to an empty transcript, which downstream scoring treats
// as score 0. An error is returned only when every pass that ran failed, in
// which case there is no transcript at all to judge.
func (r *DualPass) Recognize(ctx context.Context, clip *audio.Clip, target Target) ([]Candidate, error) {
	forced := Candidate{Mode: ModeLanguageForced}
	agnostic := Candidate{Mode: ModeLanguageAgnostic}

	var forcedErr, agnosticErr error

	// Deliberately not errgroup.WithContext: a failure in one pass must not
	// cancel the other.
	var g errgroup.Group

	if !r.disableForced {
		g.Go(func() error {
			opts := stt.Options{Language: target.Language.Code()}
			if r.initialPrompt {
				opts.InitialPrompt = target.Native
			}
			text, err := r.engine.Transcribe(ctx, clip.Samples, opts)
			if err != nil {
				forcedErr = err
				slog.Warn("verify: language-forced pass failed",
					"language", target.Language, "error", err)
				return nil
			}
			forced.Text = strings.TrimSpace(text)
			return nil
		})
	}

	g.Go(func() error {
		opts := stt.Options{Language: agnosticLanguage}
		if r.initialPrompt {
			if opts.InitialPrompt = strings.TrimSpace(target.Romanized); opts.InitialPrompt == "" {
				opts.InitialPrompt = target.Native
			}
		}
		text, err := r.engine.Transcribe(ctx, clip.Samples, opts)
		if err != nil {
			agnosticErr = err
			slog.Warn("verify: language-agnostic pass failed", "error", err)
			return nil
		}
		agnostic.Text = strings.TrimSpace(text)
		return nil
	})

	_ = g.Wait()

	if agnosticErr != nil && (r.disableForced || forcedErr != nil) {
		return nil, errors.Join(forcedErr, agnosticErr)
	}
	return []Candidate{forced, agnostic}, nil
}
