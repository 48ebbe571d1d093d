package spectrum

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-voicefx/dsp/core"
)

// Goertzel evaluates a single DFT bin incrementally. It is cheaper than a
// full FFT when only a handful of frequencies are of interest, such as a
// ring-modulator carrier or an equalizer band.
type Goertzel struct {
	frequency  float64
	sampleRate float64
	coeff      float64
	s0, s1     float64
	n          int
}

// NewGoertzel creates a detector for frequency, which must lie in
// [0, sampleRate/2].
func NewGoertzel(frequency, sampleRate float64) (*Goertzel, error) {
	if !(sampleRate > 0) || !core.IsFinite(sampleRate) {
		return nil, fmt.Errorf("goertzel: sample rate must be > 0: %v", sampleRate)
	}
	if !(frequency >= 0) || frequency > sampleRate/2 {
		return nil, fmt.Errorf("goertzel: frequency must be between 0 and sampleRate/2: %v", frequency)
	}

	return &Goertzel{
		frequency:  frequency,
		sampleRate: sampleRate,
		coeff:      2 * math.Cos(2*math.Pi*frequency/sampleRate),
	}, nil
}

// Reset clears the internal state.
func (g *Goertzel) Reset() {
	g.s0, g.s1 = 0, 0
	g.n = 0
}

// ProcessBlock feeds input into the detector.
func (g *Goertzel) ProcessBlock(input []float64) {
	s0, s1 := g.s0, g.s1
	for _, x := range input {
		s0, s1 = x+g.coeff*s0-s1, s0
	}
	g.s0, g.s1 = s0, s1
	g.n += len(input)
}

// Power returns |X[k]|^2 over everything processed since Reset.
func (g *Goertzel) Power() float64 {
	return g.s0*g.s0 + g.s1*g.s1 - g.coeff*g.s0*g.s1
}

// Amplitude returns the estimated amplitude of a sinusoid at the target
// frequency, 2|X[k]|/N.
func (g *Goertzel) Amplitude() float64 {
	p := g.Power()
	if p <= 0 || g.n == 0 {
		return 0
	}
	return 2 * math.Sqrt(p) / float64(g.n)
}

// ToneAmplitude is a one-shot Goertzel amplitude measurement.
func ToneAmplitude(input []float64, frequency, sampleRate float64) (float64, error) {
	g, err := NewGoertzel(frequency, sampleRate)
	if err != nil {
		return 0, err
	}
	g.ProcessBlock(input)
	return g.Amplitude(), nil
}
