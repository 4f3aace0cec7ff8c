package audio

import (
	"math"
	"slices"
	"sort"
)

// Denoise applies the optional pre-processing pass: a 4th-order Butterworth
// high-pass at 80 Hz (speech carries nothing below that — the band is rumble
// and table vibration) followed by an energy gate that attenuates frames
// sitting at the estimated noise floor (fans, AC, ambient room noise).
//
// The input slice is not modified; a new slice is returned.
func Denoise(samples []float32, rate int) []float32 {
	if len(samples) == 0 || rate <= 0 {
		return samples
	}
	out := slices.Clone(samples)
	highpass(out, rate, 80)
	gateNoise(out, rate)
	return out
}

// biquad is one direct-form-I second-order IIR filter section.
type biquad struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

func (f *biquad) process(samples []float32) {
	for i, s := range samples {
		x := float64(s)
		y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
		f.x2, f.x1 = f.x1, x
		f.y2, f.y1 = f.y1, y
		samples[i] = float32(y)
	}
}

// newHighpassBiquad computes high-pass coefficients for the given cutoff and
// section Q using the bilinear transform (RBJ audio EQ cookbook form).
func newHighpassBiquad(rate int, cutoffHz, q float64) *biquad {
	w0 := 2 * math.Pi * cutoffHz / float64(rate)
	alpha := math.Sin(w0) / (2 * q)
	cosw0 := math.Cos(w0)

	a0 := 1 + alpha
	return &biquad{
		b0: (1 + cosw0) / 2 / a0,
		b1: -(1 + cosw0) / a0,
		b2: (1 + cosw0) / 2 / a0,
		a1: -2 * cosw0 / a0,
		a2: (1 - alpha) / a0,
	}
}

// butterworth4Q holds the section Q values that make two cascaded biquads a
// 4th-order Butterworth response.
var butterworth4Q = [2]float64{0.54119610, 1.30656296}

// highpass filters samples in place.
func highpass(samples []float32, rate int, cutoffHz float64) {
	for _, q := range butterworth4Q {
		newHighpassBiquad(rate, cutoffHz, q).process(samples)
	}
}

const (
	// gateFrameMs is the analysis frame length for the noise gate.
	gateFrameMs = 20

	// gateKeep is the gain applied to frames at or below the noise floor.
	// Frames are attenuated rather than zeroed so speech onsets straddling a
	// frame boundary are not clipped off.
	gateKeep = 0.25

	// gateFloorFactor scales the estimated floor into the open/close
	// decision threshold.
	gateFloorFactor = 1.5
)

// gateNoise estimates the clip's noise floor from its quietest decile of
// frames and attenuates every frame that does not rise above it. Operates in
// place.
func gateNoise(samples []float32, rate int) {
	frame := rate * gateFrameMs / 1000
	if frame <= 0 || len(samples) < frame*2 {
		return
	}

	frames := len(samples) / frame
	energies := make([]float64, frames)
	for i := range frames {
		energies[i] = frameRMS(samples[i*frame : (i+1)*frame])
	}

	ranked := slices.Clone(energies)
	sort.Float64s(ranked)
	floor := ranked[frames/10] * gateFloorFactor
	if floor <= 0 {
		return
	}

	for i := range frames {
		if energies[i] > floor {
			continue
		}
		seg := samples[i*frame : (i+1)*frame]
		for j := range seg {
			seg[j] *= gateKeep
		}
	}
}

func frameRMS(frame []float32) float64 {
	var sum float64
	for _, s := range frame {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(frame)))
}
