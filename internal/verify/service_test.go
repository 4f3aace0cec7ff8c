package verify_test

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/kolluru/chilaka/internal/lang"
	"github.com/kolluru/chilaka/internal/verify"
	"github.com/kolluru/chilaka/pkg/audio"
	"github.com/kolluru/chilaka/pkg/provider/stt"
	"github.com/kolluru/chilaka/pkg/provider/stt/mock"
)

// toneWAV builds a mono 16-bit WAV blob holding a 440 Hz tone, loud enough to
// clear the silence gate.
func toneWAV(dur time.Duration, rate int) []byte {
	n := int(int64(rate) * int64(dur) / int64(time.Second))
	dataLen := n * 2
	buf := make([]byte, 44+dataLen)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:], 16)
	binary.LittleEndian.PutUint16(buf[20:], 1)
	binary.LittleEndian.PutUint16(buf[22:], 1)
	binary.LittleEndian.PutUint32(buf[24:], uint32(rate))
	binary.LittleEndian.PutUint32(buf[28:], uint32(rate*2))
	binary.LittleEndian.PutUint16(buf[32:], 2)
	binary.LittleEndian.PutUint16(buf[34:], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:], uint32(dataLen))
	for i := 0; i < n; i++ {
		s := int16(12000 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
		binary.LittleEndian.PutUint16(buf[44+i*2:], uint16(s))
	}
	return buf
}

func newTestService(eng stt.Engine) *verify.Service {
	normalizer := audio.NewNormalizer(audio.Config{})
	return verify.NewService(normalizer, verify.NewDualPass(eng))
}

func TestVerify_CorrectAnswer(t *testing.T) {
	t.Parallel()

	eng := &mock.Engine{
		TranscribeFunc: func(_ context.Context, _ []float32, opts stt.Options) (string, error) {
			if opts.Language == "en" {
				return "pilli", nil
			}
			return "పిల్లి", nil
		},
	}
	svc := newTestService(eng)

	v := svc.Verify(context.Background(), verify.Request{
		Audio:    toneWAV(1500*time.Millisecond, 16000),
		MimeType: "audio/wav",
		Target:   verify.Target{Native: "పిల్లి", Romanized: "pilli", Language: lang.Telugu},
		Threshold: 65,
	})

	if v.ErrorKind != verify.ErrorNone {
		t.Fatalf("ErrorKind = %q, want none", v.ErrorKind)
	}
	if !v.IsCorrect {
		t.Error("exact match not judged correct")
	}
	if v.Similarity != 100 {
		t.Errorf("Similarity = %v, want 100", v.Similarity)
	}
	if v.Language != lang.Telugu {
		t.Errorf("Language = %q, want telugu", v.Language)
	}
}

func TestVerify_WrongAnswer(t *testing.T) {
	t.Parallel()

	eng := &mock.Engine{TranscribeResult: "kukka"}
	svc := newTestService(eng)

	v := svc.Verify(context.Background(), verify.Request{
		Audio:    toneWAV(1500*time.Millisecond, 16000),
		MimeType: "audio/wav",
		Target:   verify.Target{Native: "పిల్లి", Romanized: "pilli", Language: lang.Telugu},
		Threshold: 65,
	})

	if v.ErrorKind != verify.ErrorNone {
		t.Fatalf("ErrorKind = %q, want none", v.ErrorKind)
	}
	if v.IsCorrect {
		t.Errorf("unrelated word judged correct at similarity %v", v.Similarity)
	}
}

func TestVerify_NoAudioCaptured(t *testing.T) {
	t.Parallel()

	svc := newTestService(&mock.Engine{})

	for name, blob := range map[string][]byte{
		"nil upload": nil,
		"silence":    toneWAVSilent(1500 * time.Millisecond),
	} {
		v := svc.Verify(context.Background(), verify.Request{
			Audio:    blob,
			MimeType: "audio/wav",
			Target:   verify.Target{Native: "పిల్లి", Romanized: "pilli", Language: lang.Telugu},
		})
		if v.ErrorKind != verify.ErrorNoAudioCaptured {
			t.Errorf("%s: ErrorKind = %q, want no_audio_captured", name, v.ErrorKind)
		}
		if v.IsCorrect || v.Similarity != 0 {
			t.Errorf("%s: error verdict must carry zero scores", name)
		}
		if v.Expected != "పిల్లి" {
			t.Errorf("%s: Expected = %q, want target echoed back", name, v.Expected)
		}
	}
}

// toneWAVSilent builds a WAV blob of pure zero samples.
func toneWAVSilent(dur time.Duration) []byte {
	blob := toneWAV(dur, 16000)
	for i := 44; i < len(blob); i++ {
		blob[i] = 0
	}
	return blob
}

func TestVerify_DecodeFailure(t *testing.T) {
	t.Parallel()

	normalizer := audio.NewNormalizer(audio.Config{
		// A binary that cannot exist keeps the test hermetic.
		FFmpegPath: "/nonexistent/ffmpeg-for-test",
	})
	svc := verify.NewService(normalizer, verify.NewDualPass(&mock.Engine{}))

	v := svc.Verify(context.Background(), verify.Request{
		Audio:    []byte("definitely not audio"),
		MimeType: "audio/webm",
		Target:   verify.Target{Native: "పిల్లి", Romanized: "pilli", Language: lang.Telugu},
	})
	if v.ErrorKind != verify.ErrorDecodeFailure {
		t.Errorf("ErrorKind = %q, want decode_failure", v.ErrorKind)
	}
}

func TestVerify_TranscriptionFailure(t *testing.T) {
	t.Parallel()

	eng := &mock.Engine{TranscribeError: errors.New("whisper fell over")}
	svc := newTestService(eng)

	v := svc.Verify(context.Background(), verify.Request{
		Audio:    toneWAV(1500*time.Millisecond, 16000),
		MimeType: "audio/wav",
		Target:   verify.Target{Native: "పిల్లి", Romanized: "pilli", Language: lang.Telugu},
	})
	if v.ErrorKind != verify.ErrorTranscriptionFailure {
		t.Errorf("ErrorKind = %q, want transcription_failure", v.ErrorKind)
	}
	if v.IsCorrect {
		t.Error("error verdict must not be correct")
	}
}

func TestVerify_ThresholdClampedServerSide(t *testing.T) {
	t.Parallel()

	eng := &mock.Engine{TranscribeResult: "pilli"}
	svc := newTestService(eng)

	v := svc.Verify(context.Background(), verify.Request{
		Audio:     toneWAV(1500*time.Millisecond, 16000),
		MimeType:  "audio/wav",
		Target:    verify.Target{Native: "పిల్లి", Romanized: "pilli", Language: lang.Telugu},
		Threshold: 1e9,
	})
	// Clamped to 100; an exact romanized match still passes.
	if !v.IsCorrect {
		t.Errorf("exact match at clamped threshold 100 judged incorrect (similarity %v)", v.Similarity)
	}
}
