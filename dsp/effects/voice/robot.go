package voice

import (
	"math"

	"github.com/cwbudde/algo-voicefx/dsp/effects"
	"github.com/cwbudde/algo-voicefx/dsp/pitch"
)

// Robot ring-modulates the voice against a low-frequency sine carrier:
//
//	src = shift(x, 12*octaves)
//	y   = src*(1-intensity) + src*sin(2π·carrier·t)*intensity
type Robot struct {
	effects.BypassFlag

	params     RobotParams
	sampleRate float64
	prepared   bool

	shifter  *pitch.Shifter
	phase    float64
	phaseInc float64
}

// NewRobot returns a robot voice with default parameters.
func NewRobot() *Robot {
	return &Robot{params: DefaultRobotParams(), shifter: pitch.NewShifter()}
}

// Kind implements effects.Effect.
func (r *Robot) Kind() effects.Kind { return effects.KindRobot }

// Params returns the active parameters.
func (r *Robot) Params() RobotParams { return r.params }

// Prepare implements effects.Effect.
func (r *Robot) Prepare(sampleRate float64) error {
	if err := effects.CheckSampleRate(sampleRate); err != nil {
		return err
	}
	if err := r.shifter.Prepare(sampleRate); err != nil {
		return err
	}
	r.sampleRate = sampleRate
	r.update()
	r.Reset()
	r.prepared = true
	return nil
}

// Configure implements effects.Effect.
func (r *Robot) Configure(p effects.Params) error {
	v, ok := p.(RobotParams)
	if !ok {
		return effects.Mismatch(effects.KindRobot, p)
	}
	r.params = v.Clamped()
	r.update()
	return nil
}

// Process implements effects.Effect.
func (r *Robot) Process(buf []float64) {
	if !r.prepared || r.Bypassed() {
		return
	}

	wet := r.params.Intensity
	shift := r.params.Octaves != 0
	for i, x := range buf {
		if shift {
			x = r.shifter.ProcessSample(x)
		}
		carrier := math.Sin(r.phase)
		r.phase += r.phaseInc
		if r.phase >= 2*math.Pi {
			r.phase -= 2 * math.Pi
		}
		buf[i] = x*(1-wet) + x*carrier*wet
	}
}

// Reset implements effects.Effect.
func (r *Robot) Reset() {
	r.shifter.Reset()
	r.phase = 0
}

func (r *Robot) update() {
	r.shifter.SetSemitones(12 * r.params.Octaves)
	if r.sampleRate > 0 {
		r.phaseInc = 2 * math.Pi * r.params.CarrierHz / r.sampleRate
	}
}
