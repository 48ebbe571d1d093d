package effects

import (
	"github.com/cwbudde/algo-voicefx/dsp/core"
	"github.com/cwbudde/algo-voicefx/dsp/envelope"
)

const (
	gateDetectorAttackMs  = 0.5
	gateDetectorReleaseMs = 20.0
)

// NoiseGate mutes the signal while its peak level stays below a threshold.
//
// A peak detector drives an open/closed decision; once the level drops
// below the threshold the gate stays open for the hold time. The applied
// gain glides towards the decision with the attack (opening) and release
// (closing) times, so the gate never switches abruptly. A fresh gate starts
// closed.
type NoiseGate struct {
	BypassFlag

	params     NoiseGateParams
	sampleRate float64
	prepared   bool

	detector     *envelope.Follower
	threshold    float64
	attackCoeff  float64
	releaseCoeff float64
	holdSamples  int

	holdCounter int
	gain        float64
}

// NewNoiseGate returns a gate with default parameters.
func NewNoiseGate() *NoiseGate {
	return &NoiseGate{params: DefaultNoiseGateParams()}
}

// Kind implements Effect.
func (g *NoiseGate) Kind() Kind { return KindNoiseGate }

// Params returns the active parameters.
func (g *NoiseGate) Params() NoiseGateParams { return g.params }

// Prepare implements Effect.
func (g *NoiseGate) Prepare(sampleRate float64) error {
	if err := CheckSampleRate(sampleRate); err != nil {
		return err
	}
	g.sampleRate = sampleRate
	g.detector = envelope.NewFollower(envelope.Peak, gateDetectorAttackMs, gateDetectorReleaseMs, sampleRate)
	g.update()
	g.Reset()
	g.prepared = true
	return nil
}

// Configure implements Effect.
func (g *NoiseGate) Configure(p Params) error {
	v, ok := p.(NoiseGateParams)
	if !ok {
		return Mismatch(KindNoiseGate, p)
	}
	g.params = v.Clamped()
	g.update()
	return nil
}

// Process implements Effect.
func (g *NoiseGate) Process(buf []float64) {
	if !g.prepared || g.Bypassed() {
		return
	}

	for i, x := range buf {
		target := 0.0
		if g.detector.Process(x) >= g.threshold {
			g.holdCounter = g.holdSamples
			target = 1
		} else if g.holdCounter > 0 {
			g.holdCounter--
			target = 1
		}

		coeff := g.releaseCoeff
		if target > g.gain {
			coeff = g.attackCoeff
		}
		g.gain = core.FlushDenormals(coeff*g.gain + (1-coeff)*target)

		buf[i] = x * g.gain
	}
}

// Reset implements Effect. The gate returns to its closed state.
func (g *NoiseGate) Reset() {
	if g.detector != nil {
		g.detector.Reset()
	}
	g.holdCounter = 0
	g.gain = 0
}

// Open reports whether the gate is currently passing signal.
func (g *NoiseGate) Open() bool { return g.gain > 0.5 }

func (g *NoiseGate) update() {
	g.threshold = core.DBToLinear(g.params.ThresholdDB)
	if g.sampleRate <= 0 {
		return
	}
	g.attackCoeff = envelope.Coefficient(g.params.AttackMs, g.sampleRate)
	g.releaseCoeff = envelope.Coefficient(g.params.ReleaseMs, g.sampleRate)
	g.holdSamples = core.MillisToSamples(g.params.HoldMs, g.sampleRate, 0)
}
