package voice

import (
	"github.com/cwbudde/algo-voicefx/dsp/effects"
	"github.com/cwbudde/algo-voicefx/dsp/filter/biquad"
	"github.com/cwbudde/algo-voicefx/dsp/pitch"
)

const (
	heliumShelfHz   = 4000.0
	heliumFormantHz = 2500.0
)

var heliumSmoother = effects.CompressorParams{
	ThresholdDB: -18,
	Ratio:       2,
	AttackMs:    3,
	ReleaseMs:   80,
}

// Helium raises the pitch and approximates the upward formant movement: a
// high shelf at 4 kHz and a peak at 2.5 kHz, both moved up by FormantShift
// of the pitch ratio, with the peak gain growing as 6·(ratio-1) dB. A high-pass removes
// the low-frequency residue of the shift, the shelf adds brightness, and a
// light compressor follows.
type Helium struct {
	effects.BypassFlag

	params     HeliumParams
	sampleRate float64
	prepared   bool

	shifter  *pitch.Shifter
	lowCut   biquad.Filter
	shelf    biquad.Filter
	formant  biquad.Filter
	smoother *effects.Compressor
}

// NewHelium returns a helium voice with default parameters.
func NewHelium() *Helium {
	h := &Helium{
		params:   DefaultHeliumParams(),
		shifter:  pitch.NewShifter(),
		smoother: effects.NewCompressorWith(heliumSmoother),
	}
	h.update()
	return h
}

// Kind implements effects.Effect.
func (h *Helium) Kind() effects.Kind { return effects.KindHeliumVoice }

// Params returns the active parameters.
func (h *Helium) Params() HeliumParams { return h.params }

// Prepare implements effects.Effect.
func (h *Helium) Prepare(sampleRate float64) error {
	if err := effects.CheckSampleRate(sampleRate); err != nil {
		return err
	}
	if err := h.shifter.Prepare(sampleRate); err != nil {
		return err
	}
	if err := h.smoother.Prepare(sampleRate); err != nil {
		return err
	}
	h.sampleRate = sampleRate
	h.update()
	h.Reset()
	h.prepared = true
	return nil
}

// Configure implements effects.Effect.
func (h *Helium) Configure(p effects.Params) error {
	v, ok := p.(HeliumParams)
	if !ok {
		return effects.Mismatch(effects.KindHeliumVoice, p)
	}
	h.params = v.Clamped()
	h.update()
	return nil
}

// Process implements effects.Effect.
func (h *Helium) Process(buf []float64) {
	if !h.prepared || h.Bypassed() {
		return
	}
	for i, x := range buf {
		y := h.lowCut.Process(h.shifter.ProcessSample(x))
		y = h.formant.Process(h.shelf.Process(y))
		buf[i] = h.smoother.ProcessSample(y)
	}
}

// Reset implements effects.Effect.
func (h *Helium) Reset() {
	h.shifter.Reset()
	h.lowCut.Reset()
	h.shelf.Reset()
	h.formant.Reset()
	h.smoother.Reset()
}

func (h *Helium) update() {
	p := h.params
	h.shifter.SetSemitones(p.Semitones)
	h.shifter.SetGrain(p.GrainMs)
	if h.sampleRate <= 0 {
		return
	}

	ratio := h.shifter.Ratio()
	scale := FormantShift(p.FormantPercent, ratio)
	h.lowCut.Design(biquad.Highpass, p.LowCutHz, biquad.DefaultQ, 0, h.sampleRate)
	h.shelf.Design(biquad.HighShelf, heliumShelfHz*scale, biquad.DefaultQ, p.BrightnessDB, h.sampleRate)
	h.formant.Design(biquad.Peak, heliumFormantHz*scale, 1, formantMaxDB*(ratio-1), h.sampleRate)
}
