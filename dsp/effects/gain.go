package effects

import "github.com/cwbudde/algo-vecmath"

// Gain scales the signal by a linear factor in [0, 2].
type Gain struct {
	BypassFlag

	params   GainParams
	prepared bool
}

// NewGain returns a unity-gain effect.
func NewGain() *Gain {
	return &Gain{params: DefaultGainParams()}
}

// Kind implements Effect.
func (g *Gain) Kind() Kind { return KindGain }

// Params returns the active parameters.
func (g *Gain) Params() GainParams { return g.params }

// Prepare implements Effect.
func (g *Gain) Prepare(sampleRate float64) error {
	if err := CheckSampleRate(sampleRate); err != nil {
		return err
	}
	g.prepared = true
	return nil
}

// Configure implements Effect.
func (g *Gain) Configure(p Params) error {
	v, ok := p.(GainParams)
	if !ok {
		return Mismatch(KindGain, p)
	}
	g.params = v.Clamped()
	return nil
}

// Process implements Effect.
func (g *Gain) Process(buf []float64) {
	if !g.prepared || g.Bypassed() || len(buf) == 0 || g.params.Gain == 1 {
		return
	}
	vecmath.ScaleBlock(buf, buf, g.params.Gain)
}

// Reset implements Effect. Gain is stateless.
func (g *Gain) Reset() {}
