// Package verify implements the speech-verification pipeline: it takes a
// normalized audio clip and a target word, runs whisper over it twice (once
// biased toward the target language, once forced to English), scores both
// transcripts against the target's native-script and romanized forms, and
// decides whether the child said the word.
//
// Two passes exist because whisper's native-script output on short toddler
// utterances is frequently degenerate — too short, or misheard as noise. The
// English-forced pass is "wrong" about the spoken language but tends to emit
// a phonetic romanization that matches the romanized target well. Keeping
// both gives the scorer two independent shots at a match.
//
// Everything in this package is request-scoped: no entity survives across
// verifications, and the only process-wide state (the loaded model) lives
// behind the stt.Engine interface.
package verify

import "github.com/kolluru/chilaka/internal/lang"

// Mode identifies which decode strategy produced a transcript.
type Mode string

const (
	// ModeLanguageForced biases the model toward the target language's
	// script and phonology.
	ModeLanguageForced Mode = "language_forced"

	// ModeLanguageAgnostic forces English decoding regardless of the spoken
	// language, harvesting the model's tendency to romanize non-English
	// speech.
	ModeLanguageAgnostic Mode = "language_agnostic"
)

// Candidate is one transcript plus the decode mode that produced it.
type Candidate struct {
	Text string
	Mode Mode
}

// Target is the word the child was asked to say. Supplied by the caller per
// request and immutable for the duration of one verification.
type Target struct {
	// Native is the native-script form (e.g. Telugu glyphs). May be empty
	// only when no native form exists.
	Native string

	// Romanized is the Latin-alphabet phonetic approximation. May be empty.
	Romanized string

	// Language is the target language tag.
	Language lang.Tag
}

// ErrorKind classifies pipeline failures surfaced in a Verdict. The empty
// string means the normal path was taken.
type ErrorKind string

const (
	ErrorNone ErrorKind = ""

	// ErrorNoAudioCaptured means the clip decoded to silence or nothing.
	// The UI renders "I didn't hear anything", not "wrong answer".
	ErrorNoAudioCaptured ErrorKind = "no_audio_captured"

	// ErrorDecodeFailure means the upload could not be normalized to PCM.
	ErrorDecodeFailure ErrorKind = "decode_failure"

	// ErrorTranscriptionFailure means the engine itself errored (rather
	// than returning an empty transcript). Rare and retryable.
	ErrorTranscriptionFailure ErrorKind = "transcription_failure"
)

// Verdict is the single structured decision produced for one verification
// attempt. It is the only output of the pipeline; all intermediate values are
// request-scoped.
type Verdict struct {
	// Transcribed is the winning transcript (the one that achieved the best
	// score), useful as user-facing feedback.
	Transcribed string

	// Expected is the native-script target word, echoed back.
	Expected string

	// Similarity is the best score across all (transcript, target-form)
	// pairs, in [0,100].
	Similarity float64

	// ScriptSimilarity is the best score against the native-script form.
	ScriptSimilarity float64

	// RomanSimilarity is the best score against the romanized form.
	RomanSimilarity float64

	// IsCorrect reports whether Similarity met the caller's threshold.
	IsCorrect bool

	// Language is the target language tag, echoed back.
	Language lang.Tag

	// ErrorKind is the failure classification, ErrorNone on the normal path.
	ErrorKind ErrorKind
}
