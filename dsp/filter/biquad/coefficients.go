package biquad

import (
	"math"
	"math/cmplx"
)

// Coefficients holds the transfer function coefficients of a single
// second-order section with a0 normalized to 1:
//
//	H(z) = (B0 + B1 z^-1 + B2 z^-2) / (1 + A1 z^-1 + A2 z^-2)
type Coefficients struct {
	B0, B1, B2 float64 // feedforward (numerator)
	A1, A2     float64 // feedback (denominator)
}

// Identity returns pass-through coefficients.
func Identity() Coefficients {
	return Coefficients{B0: 1}
}

// Response computes the complex frequency response H(e^jw) at the given
// frequency (Hz) and sample rate (Hz).
func (c Coefficients) Response(freqHz, sampleRate float64) complex128 {
	w := 2 * math.Pi * freqHz / sampleRate
	ejw := cmplx.Exp(complex(0, -w))
	ej2w := cmplx.Exp(complex(0, -2*w))

	num := complex(c.B0, 0) + complex(c.B1, 0)*ejw + complex(c.B2, 0)*ej2w
	den := complex(1, 0) + complex(c.A1, 0)*ejw + complex(c.A2, 0)*ej2w
	return num / den
}

// MagnitudeSquared returns |H(f)|^2 using a closed-form expression.
func (c Coefficients) MagnitudeSquared(freqHz, sampleRate float64) float64 {
	cw := 2 * math.Cos(2*math.Pi*freqHz/sampleRate)
	b0, b1, b2 := c.B0, c.B1, c.B2
	a1, a2 := c.A1, c.A2

	num := (b0-b2)*(b0-b2) + b1*b1 + (b1*(b0+b2)+b0*b2*cw)*cw
	den := (1-a2)*(1-a2) + a1*a1 + (a1*(a2+1)+cw*a2)*cw
	return num / den
}

// MagnitudeDB returns 10*log10(|H(f)|^2).
func (c Coefficients) MagnitudeDB(freqHz, sampleRate float64) float64 {
	return 10 * math.Log10(c.MagnitudeSquared(freqHz, sampleRate))
}

// Stable reports whether both poles lie strictly inside the unit circle.
func (c Coefficients) Stable() bool {
	return math.Abs(c.A2) < 1 && math.Abs(c.A1) < 1+c.A2
}

func (c Coefficients) finite() bool {
	for _, v := range [...]float64{c.B0, c.B1, c.B2, c.A1, c.A2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
