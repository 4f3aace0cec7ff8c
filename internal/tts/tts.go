// Package tts synthesizes playable audio for practice words so the child can
// hear the correct pronunciation before attempting it.
package tts

import (
	"context"
	"errors"

	"github.com/kolluru/chilaka/internal/lang"
)

// ErrSynthesisFailed wraps any failure to produce audio, including the
// English fallback failing too.
var ErrSynthesisFailed = errors.New("tts: synthesis failed")

// Synthesizer turns a short text into playable audio.
type Synthesizer interface {
	// Synthesize returns encoded audio bytes for text spoken in language,
	// plus the MIME type of the encoding.
	Synthesize(ctx context.Context, text string, language lang.Tag) (audio []byte, mimeType string, err error)
}
