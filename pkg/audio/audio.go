// Package audio turns browser-recorded upload blobs into the canonical PCM
// representation the transcription engine consumes: 16 kHz, mono, 16-bit.
//
// The decode strategy is keyed off the declared MIME type. WAV blobs are
// decoded in-process; every other container (webm/opus, ogg, mp4, mp3) is
// handed to ffmpeg, which auto-detects the actual format from the file
// contents — browsers are not reliable about matching their declared MIME
// type to what they actually record.
//
// Clips that decode to nothing, or to pure room noise, fail closed with
// [ErrEmptyCapture] so the caller can tell "heard nothing" apart from
// "heard something wrong".
package audio

import (
	"errors"
	"math"
	"time"
)

const (
	// TargetSampleRate is the canonical sample rate for normalized clips.
	// Whisper models are trained on 16 kHz mono audio.
	TargetSampleRate = 16000

	// bitsPerSample is fixed at 16 for the signed little-endian PCM this
	// package produces.
	bitsPerSample = 16
)

// ErrDecodeFailed reports that a blob could not be decoded to PCM at all.
var ErrDecodeFailed = errors.New("audio: decode failed")

// ErrEmptyCapture reports that a blob decoded cleanly but contains no
// meaningful signal (zero samples or near-silence).
var ErrEmptyCapture = errors.New("audio: no meaningful audio captured")

// Clip is a normalized audio clip: mono float32 samples in [-1, 1] at Rate Hz.
// A Clip is owned by a single verification request and never shared.
type Clip struct {
	Samples []float32
	Rate    int
}

// Duration returns the playback length of the clip.
func (c *Clip) Duration() time.Duration {
	if c.Rate <= 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.Rate)
}

// rmsPCM16 computes the root-mean-square energy of 16-bit little-endian PCM,
// in 16-bit units (max 32767). Used to detect near-silent recordings.
func rmsPCM16(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := range n {
		s := float64(int16(uint16(pcm[i*2]) | uint16(pcm[i*2+1])<<8))
		sum += s * s
	}
	return math.Sqrt(sum / float64(n))
}
