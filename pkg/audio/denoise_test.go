package audio_test

import (
	"math"
	"testing"

	"github.com/kolluru/chilaka/pkg/audio"
)

func TestDenoise_RemovesDCOffset(t *testing.T) {
	t.Parallel()

	// A constant offset is pure 0 Hz content; the 80 Hz high-pass must kill it.
	in := make([]float32, 16000)
	for i := range in {
		in[i] = 0.5
	}
	out := audio.Denoise(in, 16000)

	var mean float64
	// Skip the filter settling region at the head of the clip.
	for _, s := range out[4000:] {
		mean += float64(s)
	}
	mean /= float64(len(out) - 4000)
	if math.Abs(mean) > 0.01 {
		t.Errorf("mean after high-pass = %f, want ~0", mean)
	}
}

func TestDenoise_DoesNotModifyInput(t *testing.T) {
	t.Parallel()

	in := make([]float32, 16000)
	for i := range in {
		in[i] = float32(math.Sin(2 * math.Pi * 440 * float64(i) / 16000))
	}
	before := in[100]
	_ = audio.Denoise(in, 16000)
	if in[100] != before {
		t.Fatal("Denoise modified its input slice")
	}
}

func TestDenoise_GatesQuietRegions(t *testing.T) {
	t.Parallel()

	rate := 16000
	in := make([]float32, rate)
	// First half: loud 440 Hz tone. Second half: faint hiss-level tone.
	for i := 0; i < rate/2; i++ {
		in[i] = 0.6 * float32(math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
	}
	for i := rate / 2; i < rate; i++ {
		in[i] = 0.005 * float32(math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
	}

	out := audio.Denoise(in, rate)

	loud := rmsRange(out[rate/4:rate/4+1600]) / rmsRange(in[rate/4:rate/4+1600])
	quiet := rmsRange(out[3*rate/4:3*rate/4+1600]) / rmsRange(in[3*rate/4:3*rate/4+1600])
	if quiet >= loud {
		t.Errorf("gate attenuation: quiet ratio %f, loud ratio %f; want quiet < loud", quiet, loud)
	}
}

func rmsRange(s []float32) float64 {
	var sum float64
	for _, v := range s {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(s)))
}
