package biquad

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-voicefx/dsp/core"
)

// Type selects the filter response.
type Type int

const (
	// Lowpass passes frequencies below the corner.
	Lowpass Type = iota
	// Highpass passes frequencies above the corner.
	Highpass
	// Bandpass is the constant 0 dB peak gain band-pass.
	Bandpass
	// LowShelf boosts or cuts below the corner by gainDB.
	LowShelf
	// HighShelf boosts or cuts above the corner by gainDB.
	HighShelf
	// Peak is a parametric bell centred on the frequency.
	Peak
)

const (
	// MinQ is the smallest accepted resonance.
	MinQ = 0.5
	// MaxQ is the largest accepted resonance.
	MaxQ = 40.0
	// DefaultQ is the Butterworth resonance.
	DefaultQ = 1 / math.Sqrt2

	minFreqHz       = 10.0
	maxNyquistRatio = 0.45
	maxGainDB       = 36.0
)

// String implements fmt.Stringer.
func (t Type) String() string {
	switch t {
	case Lowpass:
		return "lowpass"
	case Highpass:
		return "highpass"
	case Bandpass:
		return "bandpass"
	case LowShelf:
		return "lowshelf"
	case HighShelf:
		return "highshelf"
	case Peak:
		return "peak"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// ClampFreq limits freqHz to the range a biquad can realise at sampleRate.
func ClampFreq(freqHz, sampleRate float64) float64 {
	return core.ClampOr(freqHz, 1000, minFreqHz, sampleRate*maxNyquistRatio)
}

// ClampQ limits q to [MinQ, MaxQ]; non-finite values map to DefaultQ.
func ClampQ(q float64) float64 {
	return core.ClampOr(q, DefaultQ, MinQ, MaxQ)
}

// Design computes RBJ cookbook coefficients. gainDB is only used by the
// shelf and peak types. An unusable sample rate yields Identity.
func Design(t Type, freqHz, q, gainDB, sampleRate float64) Coefficients {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return Identity()
	}

	freqHz = ClampFreq(freqHz, sampleRate)
	q = ClampQ(q)
	gainDB = core.ClampOr(gainDB, 0, -maxGainDB, maxGainDB)

	w0 := 2 * math.Pi * freqHz / sampleRate
	cw := math.Cos(w0)
	sw := math.Sin(w0)
	alpha := sw / (2 * q)
	a := math.Pow(10, gainDB/40)

	var b0, b1, b2, a0, a1, a2 float64

	switch t {
	case Lowpass:
		b0 = (1 - cw) / 2
		b1 = 1 - cw
		b2 = (1 - cw) / 2
		a0 = 1 + alpha
		a1 = -2 * cw
		a2 = 1 - alpha
	case Highpass:
		b0 = (1 + cw) / 2
		b1 = -(1 + cw)
		b2 = (1 + cw) / 2
		a0 = 1 + alpha
		a1 = -2 * cw
		a2 = 1 - alpha
	case Bandpass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
		a0 = 1 + alpha
		a1 = -2 * cw
		a2 = 1 - alpha
	case LowShelf:
		beta := 2 * math.Sqrt(a) * alpha
		b0 = a * ((a + 1) - (a-1)*cw + beta)
		b1 = 2 * a * ((a - 1) - (a+1)*cw)
		b2 = a * ((a + 1) - (a-1)*cw - beta)
		a0 = (a + 1) + (a-1)*cw + beta
		a1 = -2 * ((a - 1) + (a+1)*cw)
		a2 = (a + 1) + (a-1)*cw - beta
	case HighShelf:
		beta := 2 * math.Sqrt(a) * alpha
		b0 = a * ((a + 1) + (a-1)*cw + beta)
		b1 = -2 * a * ((a - 1) + (a+1)*cw)
		b2 = a * ((a + 1) + (a-1)*cw - beta)
		a0 = (a + 1) - (a-1)*cw + beta
		a1 = 2 * ((a - 1) - (a+1)*cw)
		a2 = (a + 1) - (a-1)*cw - beta
	case Peak:
		b0 = 1 + alpha*a
		b1 = -2 * cw
		b2 = 1 - alpha*a
		a0 = 1 + alpha/a
		a1 = -2 * cw
		a2 = 1 - alpha/a
	default:
		return Identity()
	}

	return normalize(b0, b1, b2, a0, a1, a2)
}

func normalize(b0, b1, b2, a0, a1, a2 float64) Coefficients {
	if a0 == 0 || !core.IsFinite(a0) {
		return Identity()
	}

	c := Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
	if !c.finite() {
		return Identity()
	}
	return c
}
