package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/go-audio/wav"
)

// Config holds the normalizer settings. All feature toggles live here as
// named fields so a Normalizer is fully described by its construction.
type Config struct {
	// TargetSampleRate is the output sample rate in Hz. Defaults to
	// [TargetSampleRate] (16000).
	TargetSampleRate int

	// MinDuration is the minimum clip length. Shorter clips are padded with
	// trailing silence — whisper.cpp crashes on near-empty input tensors.
	// Defaults to 1 s.
	MinDuration time.Duration

	// NoiseReduction enables the high-pass + noise-gate pre-processing pass,
	// applied after resampling and before the clip is handed to
	// transcription. Off by default.
	NoiseReduction bool

	// SilenceRMS is the RMS energy (16-bit PCM units, max 32767) below which
	// a decoded clip is treated as containing no speech at all. Defaults
	// to 120.
	SilenceRMS float64

	// FFmpegPath is the ffmpeg binary used for non-WAV containers.
	// Defaults to "ffmpeg" resolved via PATH.
	FFmpegPath string
}

// Normalizer decodes uploaded audio blobs to canonical mono PCM clips.
// It is stateless apart from its configuration and safe for concurrent use.
type Normalizer struct {
	cfg Config
}

// NewNormalizer returns a Normalizer with defaults applied for any zero
// fields in cfg.
func NewNormalizer(cfg Config) *Normalizer {
	if cfg.TargetSampleRate <= 0 {
		cfg.TargetSampleRate = TargetSampleRate
	}
	if cfg.MinDuration <= 0 {
		cfg.MinDuration = time.Second
	}
	if cfg.SilenceRMS <= 0 {
		cfg.SilenceRMS = 120
	}
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	return &Normalizer{cfg: cfg}
}

// Normalize decodes data (declared as mimeType) into a mono clip at the
// target sample rate.
//
// Returns an error wrapping [ErrDecodeFailed] when the blob cannot be decoded
// to PCM, and an error wrapping [ErrEmptyCapture] when it decodes to zero
// samples or near-silence. Scratch files are removed on every exit path.
func (n *Normalizer) Normalize(ctx context.Context, data []byte, mimeType string) (*Clip, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrEmptyCapture)
	}

	ext := MimeToExt(mimeType)

	var (
		pcm []byte
		err error
	)
	if ext == "wav" {
		pcm, err = n.decodeWAV(data)
		if err != nil {
			// The declared type lied, or the encoder wrote a variant
			// go-audio rejects. ffmpeg sniffs the real container.
			slog.Debug("audio: wav fast path failed, falling back to ffmpeg", "error", err)
			pcm, err = n.decodeFFmpeg(ctx, data, ext)
		}
	} else {
		pcm, err = n.decodeFFmpeg(ctx, data, ext)
	}
	if err != nil {
		return nil, err
	}

	if len(pcm) < 2 {
		return nil, fmt.Errorf("%w: decoded to zero samples", ErrEmptyCapture)
	}
	if rms := rmsPCM16(pcm); rms < n.cfg.SilenceRMS {
		return nil, fmt.Errorf("%w: rms %.1f below threshold %.1f", ErrEmptyCapture, rms, n.cfg.SilenceRMS)
	}

	// Pad short clips with trailing silence up to the minimum duration.
	minSamples := int(int64(n.cfg.TargetSampleRate) * int64(n.cfg.MinDuration) / int64(time.Second))
	if got := len(pcm) / 2; got < minSamples {
		pcm = append(pcm, make([]byte, (minSamples-got)*2)...)
	}

	samples := PCM16ToFloat32(pcm)
	if n.cfg.NoiseReduction {
		samples = Denoise(samples, n.cfg.TargetSampleRate)
	}

	return &Clip{Samples: samples, Rate: n.cfg.TargetSampleRate}, nil
}

// decodeWAV decodes a WAV blob in-process, downmixes to mono, and resamples
// to the target rate.
func (n *Normalizer) decodeWAV(data []byte) ([]byte, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid wav file", ErrDecodeFailed)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: read wav: %v", ErrDecodeFailed, err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("%w: empty wav buffer", ErrEmptyCapture)
	}

	channels := 1
	rate := int(dec.SampleRate)
	if buf.Format != nil {
		if buf.Format.NumChannels > 0 {
			channels = buf.Format.NumChannels
		}
		if rate == 0 {
			rate = buf.Format.SampleRate
		}
	}
	if rate <= 0 {
		rate = n.cfg.TargetSampleRate
	}

	// Scale to 16-bit regardless of source bit depth.
	bitDepth := int(dec.BitDepth)
	if bitDepth <= 0 {
		bitDepth = 16
	}
	shift := bitDepth - 16
	pcm := make([]byte, len(buf.Data)*2)
	for i, v := range buf.Data {
		if shift > 0 {
			v >>= shift
		} else if shift < 0 {
			v <<= -shift
		}
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		pcm[i*2] = byte(v)
		pcm[i*2+1] = byte(v >> 8)
	}

	if channels == 2 {
		pcm = StereoToMono(pcm)
	} else if channels > 2 {
		return nil, fmt.Errorf("%w: unsupported channel count %d", ErrDecodeFailed, channels)
	}
	return ResampleMono16(pcm, rate, n.cfg.TargetSampleRate), nil
}

// decodeFFmpeg writes the blob to a scratch file and asks ffmpeg to decode it
// straight to raw 16-bit mono PCM at the target rate on stdout. The declared
// extension is a hint only; ffmpeg probes the actual container.
func (n *Normalizer) decodeFFmpeg(ctx context.Context, data []byte, ext string) ([]byte, error) {
	tmp, err := os.CreateTemp("", "chilaka_upload_*."+ext)
	if err != nil {
		return nil, fmt.Errorf("%w: scratch file: %v", ErrDecodeFailed, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("%w: write scratch file: %v", ErrDecodeFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("%w: close scratch file: %v", ErrDecodeFailed, err)
	}

	cmd := exec.CommandContext(ctx, n.cfg.FFmpegPath,
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-i", tmp.Name(),
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(n.cfg.TargetSampleRate),
		"-ac", "1",
		"-",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: ffmpeg: %v: %s", ErrDecodeFailed, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}
