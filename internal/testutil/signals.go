// Package testutil holds signal generators and assertions shared by the
// package tests.
package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine returns length samples of amplitude*sin(2*pi*f*n/fs).
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, max(length, 0))
	w := 2 * math.Pi * freqHz / sampleRate
	for n := range out {
		out[n] = amplitude * math.Sin(w*float64(n))
	}
	return out
}

// DeterministicNoise returns uniform noise in [-amplitude, amplitude]. The
// same seed always produces the same samples.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, max(length, 0))
	rng := rand.New(rand.NewSource(seed))
	for n := range out {
		out[n] = amplitude * (2*rng.Float64() - 1)
	}
	return out
}

// Impulse returns a unit impulse at pos. An out-of-range pos yields silence.
func Impulse(length, pos int) []float64 {
	out := make([]float64, max(length, 0))
	if pos >= 0 && pos < len(out) {
		out[pos] = 1
	}
	return out
}

// DC returns length copies of value.
func DC(value float64, length int) []float64 {
	out := make([]float64, max(length, 0))
	for n := range out {
		out[n] = value
	}
	return out
}

// Ones returns n samples of 1.
func Ones(n int) []float64 { return DC(1, n) }

// Interleave merges equally long channel slices into one interleaved
// buffer. Extra samples of longer channels are dropped.
func Interleave(channels ...[]float64) []float64 {
	if len(channels) == 0 {
		return nil
	}
	frames := len(channels[0])
	for _, ch := range channels[1:] {
		frames = min(frames, len(ch))
	}

	out := make([]float64, frames*len(channels))
	for i := range frames {
		for c, ch := range channels {
			out[i*len(channels)+c] = ch[i]
		}
	}
	return out
}
