// Package window generates analysis windows for the spectrum analyzer.
package window

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

var errMismatchedLength = errors.New("samples and coefficients must have same length")

// Type selects a window family.
type Type int

const (
	// Rectangular leaves samples untouched.
	Rectangular Type = iota
	// Hann is the raised-cosine window.
	Hann
	// Hamming is the 0.54/0.46 raised cosine.
	Hamming
	// Blackman is the three-term Blackman window.
	Blackman
)

// String implements fmt.Stringer.
func (t Type) String() string {
	switch t {
	case Rectangular:
		return "rectangular"
	case Hann:
		return "hann"
	case Hamming:
		return "hamming"
	case Blackman:
		return "blackman"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Generate returns a periodic window of the given length, suitable for
// FFT analysis.
func Generate(t Type, size int) ([]float64, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be > 0: %d", size)
	}

	out := make([]float64, size)
	for n := range out {
		x := 2 * math.Pi * float64(n) / float64(size)
		switch t {
		case Hann:
			out[n] = 0.5 - 0.5*math.Cos(x)
		case Hamming:
			out[n] = 0.54 - 0.46*math.Cos(x)
		case Blackman:
			out[n] = 0.42 - 0.5*math.Cos(x) + 0.08*math.Cos(2*x)
		default:
			out[n] = 1
		}
	}

	return out, nil
}

// CoherentGain returns the mean of the coefficients, the amplitude a
// windowed sinusoid keeps at its bin centre.
func CoherentGain(coeffs []float64) float64 {
	if len(coeffs) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range coeffs {
		sum += c
	}
	return sum / float64(len(coeffs))
}

// ApplyInPlace multiplies samples by coeffs element-wise.
func ApplyInPlace(samples, coeffs []float64) error {
	if len(samples) != len(coeffs) {
		return errMismatchedLength
	}
	vecmath.MulBlockInPlace(samples, coeffs)
	return nil
}
