// Package envelope provides one-pole level detectors used by the dynamics
// effects.
package envelope

import (
	"math"

	"github.com/cwbudde/algo-voicefx/dsp/core"
)

// Coefficient returns the one-pole smoothing coefficient for a time
// constant of timeMs at sampleRate: exp(-1 / (timeMs/1000 * sampleRate)).
// Non-positive or non-finite inputs yield 0, i.e. no smoothing.
func Coefficient(timeMs, sampleRate float64) float64 {
	if !(timeMs > 0) || !(sampleRate > 0) || !core.IsFinite(timeMs) || !core.IsFinite(sampleRate) {
		return 0
	}

	return math.Exp(-1 / (timeMs * 0.001 * sampleRate))
}

// Mode selects the detector law.
type Mode int

const (
	// Peak tracks the rectified signal.
	Peak Mode = iota
	// RMS tracks the mean square and reports its square root.
	RMS
)

// Follower is an attack/release envelope detector. It is mono and not safe
// for concurrent use.
type Follower struct {
	mode       Mode
	sampleRate float64
	attackMs   float64
	releaseMs  float64

	attack  float64
	release float64
	state   float64
}

// NewFollower returns a follower with the given times.
func NewFollower(mode Mode, attackMs, releaseMs, sampleRate float64) *Follower {
	f := &Follower{mode: mode, sampleRate: sampleRate}
	f.SetTimes(attackMs, releaseMs)
	return f
}

// SetTimes updates attack and release in milliseconds. State is kept.
func (f *Follower) SetTimes(attackMs, releaseMs float64) {
	f.attackMs = attackMs
	f.releaseMs = releaseMs
	f.attack = Coefficient(attackMs, f.sampleRate)
	f.release = Coefficient(releaseMs, f.sampleRate)
}

// SetSampleRate recomputes the coefficients for a new rate.
func (f *Follower) SetSampleRate(sampleRate float64) {
	f.sampleRate = sampleRate
	f.SetTimes(f.attackMs, f.releaseMs)
}

// Mode returns the detector law.
func (f *Follower) Mode() Mode { return f.mode }

// Process feeds one sample and returns the current level as a linear
// amplitude.
func (f *Follower) Process(x float64) float64 {
	var in float64
	if f.mode == RMS {
		in = x * x
	} else {
		in = math.Abs(x)
	}
	if !core.IsFinite(in) {
		in = 0
	}

	coeff := f.release
	if in > f.state {
		coeff = f.attack
	}
	f.state = core.FlushDenormals(coeff*f.state + (1-coeff)*in)

	return f.Level()
}

// Level returns the last detected level without advancing.
func (f *Follower) Level() float64 {
	if f.mode == RMS {
		return math.Sqrt(f.state)
	}
	return f.state
}

// Reset clears the detector state.
func (f *Follower) Reset() {
	f.state = 0
}
