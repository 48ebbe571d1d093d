package voice

import (
	"github.com/cwbudde/algo-voicefx/dsp/effects"
	"github.com/cwbudde/algo-voicefx/dsp/filter/biquad"
	"github.com/cwbudde/algo-voicefx/dsp/pitch"
)

const (
	deepShelfHz    = 200.0
	deepFormantHz  = 500.0
	deepPresenceHz = 3000.0
	deepPresenceQ  = 0.8
	formantMaxDB   = 6.0
)

var deepSmoother = effects.CompressorParams{
	ThresholdDB: -20,
	Ratio:       3,
	AttackMs:    5,
	ReleaseMs:   100,
}

// Deep lowers the pitch and approximates the matching downward formant
// movement: a low shelf at 200 Hz and a peak at 500 Hz, both moved down by
// FormantShift of the pitch ratio, with the peak gain growing as
// 6·(1-ratio) dB. An upper-mid
// cut removes presence, the shelf boosts lows, and moderate compression
// smooths grain artefacts.
type Deep struct {
	effects.BypassFlag

	params     DeepParams
	sampleRate float64
	prepared   bool

	shifter  *pitch.Shifter
	shelf    biquad.Filter
	formant  biquad.Filter
	presence biquad.Filter
	smoother *effects.Compressor
}

// NewDeep returns a deep voice with default parameters.
func NewDeep() *Deep {
	d := &Deep{
		params:   DefaultDeepParams(),
		shifter:  pitch.NewShifter(),
		smoother: effects.NewCompressorWith(deepSmoother),
	}
	d.update()
	return d
}

// Kind implements effects.Effect.
func (d *Deep) Kind() effects.Kind { return effects.KindDeepVoice }

// Params returns the active parameters.
func (d *Deep) Params() DeepParams { return d.params }

// Prepare implements effects.Effect.
func (d *Deep) Prepare(sampleRate float64) error {
	if err := effects.CheckSampleRate(sampleRate); err != nil {
		return err
	}
	if err := d.shifter.Prepare(sampleRate); err != nil {
		return err
	}
	if err := d.smoother.Prepare(sampleRate); err != nil {
		return err
	}
	d.sampleRate = sampleRate
	d.update()
	d.Reset()
	d.prepared = true
	return nil
}

// Configure implements effects.Effect.
func (d *Deep) Configure(p effects.Params) error {
	v, ok := p.(DeepParams)
	if !ok {
		return effects.Mismatch(effects.KindDeepVoice, p)
	}
	d.params = v.Clamped()
	d.update()
	return nil
}

// Process implements effects.Effect.
func (d *Deep) Process(buf []float64) {
	if !d.prepared || d.Bypassed() {
		return
	}
	for i, x := range buf {
		y := d.shifter.ProcessSample(x)
		y = d.presence.Process(d.formant.Process(d.shelf.Process(y)))
		buf[i] = d.smoother.ProcessSample(y)
	}
}

// Reset implements effects.Effect.
func (d *Deep) Reset() {
	d.shifter.Reset()
	d.shelf.Reset()
	d.formant.Reset()
	d.presence.Reset()
	d.smoother.Reset()
}

func (d *Deep) update() {
	p := d.params
	d.shifter.SetSemitones(p.Semitones)
	d.shifter.SetGrain(p.GrainMs)
	if d.sampleRate <= 0 {
		return
	}

	ratio := d.shifter.Ratio()
	scale := FormantShift(p.FormantPercent, ratio)
	d.shelf.Design(biquad.LowShelf, deepShelfHz*scale, biquad.DefaultQ, p.BassBoostDB, d.sampleRate)
	d.formant.Design(biquad.Peak, deepFormantHz*scale, 1, formantMaxDB*(1-ratio), d.sampleRate)
	d.presence.Design(biquad.Peak, deepPresenceHz, deepPresenceQ, p.PresenceCutDB, d.sampleRate)
}
