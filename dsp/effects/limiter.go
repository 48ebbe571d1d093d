package effects

import (
	"math"

	"github.com/cwbudde/algo-voicefx/dsp/core"
	"github.com/cwbudde/algo-voicefx/dsp/envelope"
)

// Limiter keeps every output sample within a ceiling.
//
// A peak envelope with instantaneous attack and exponential release sets
// the gain ceiling/envelope whenever the envelope exceeds the ceiling. The
// envelope is never below the current input magnitude, so the scaled
// sample cannot exceed the ceiling; a final hard clamp covers rounding.
// Non-finite input is sanitised first: NaN becomes silence and infinities
// are pinned to the ceiling.
type Limiter struct {
	BypassFlag

	params     LimiterParams
	sampleRate float64
	prepared   bool

	ceiling      float64
	releaseCoeff float64
	env          float64
}

// NewLimiter returns a limiter with default parameters.
func NewLimiter() *Limiter {
	l := &Limiter{params: DefaultLimiterParams()}
	l.update()
	return l
}

// Kind implements Effect.
func (l *Limiter) Kind() Kind { return KindLimiter }

// Params returns the active parameters.
func (l *Limiter) Params() LimiterParams { return l.params }

// Ceiling returns the linear output ceiling.
func (l *Limiter) Ceiling() float64 { return l.ceiling }

// Prepare implements Effect.
func (l *Limiter) Prepare(sampleRate float64) error {
	if err := CheckSampleRate(sampleRate); err != nil {
		return err
	}
	l.sampleRate = sampleRate
	l.update()
	l.Reset()
	l.prepared = true
	return nil
}

// Configure implements Effect.
func (l *Limiter) Configure(p Params) error {
	v, ok := p.(LimiterParams)
	if !ok {
		return Mismatch(KindLimiter, p)
	}
	l.params = v.Clamped()
	l.update()
	return nil
}

// Process implements Effect.
func (l *Limiter) Process(buf []float64) {
	if !l.prepared || l.Bypassed() {
		return
	}

	ceil := l.ceiling
	for i, x := range buf {
		switch {
		case math.IsNaN(x):
			x = 0
		case math.IsInf(x, 1):
			x = ceil
		case math.IsInf(x, -1):
			x = -ceil
		}

		peak := math.Abs(x)
		l.env = core.FlushDenormals(math.Max(peak, l.env*l.releaseCoeff))

		if l.env > ceil {
			x *= ceil / l.env
		}
		buf[i] = core.Clamp(x, -ceil, ceil)
	}
}

// Reset implements Effect.
func (l *Limiter) Reset() {
	l.env = 0
}

func (l *Limiter) update() {
	l.ceiling = core.DBToLinear(l.params.CeilingDB)
	if l.sampleRate > 0 {
		l.releaseCoeff = envelope.Coefficient(l.params.ReleaseMs, l.sampleRate)
	}
}
