package voice

import (
	"math"

	"github.com/cwbudde/algo-voicefx/dsp/core"
	"github.com/cwbudde/algo-voicefx/dsp/effects"
	"github.com/cwbudde/algo-voicefx/dsp/filter/biquad"
)

const (
	megaphoneBandQ      = biquad.DefaultQ
	megaphoneResonanceQ = 2.0
	megaphoneMaxDrive   = 9.0
)

// Megaphone simulates a narrow-band horn driver: pre gain, a high-pass and
// low-pass band limit, a resonant peak, a tanh soft clipper normalised so
// that full scale maps to full scale, and post gain.
type Megaphone struct {
	effects.BypassFlag

	params     MegaphoneParams
	sampleRate float64
	prepared   bool

	hp, lp, peak biquad.Filter

	pre, post float64
	k, norm   float64
}

// NewMegaphone returns a megaphone with default parameters.
func NewMegaphone() *Megaphone {
	m := &Megaphone{params: DefaultMegaphoneParams()}
	m.update()
	return m
}

// Kind implements effects.Effect.
func (m *Megaphone) Kind() effects.Kind { return effects.KindMegaphone }

// Params returns the active parameters.
func (m *Megaphone) Params() MegaphoneParams { return m.params }

// Prepare implements effects.Effect.
func (m *Megaphone) Prepare(sampleRate float64) error {
	if err := effects.CheckSampleRate(sampleRate); err != nil {
		return err
	}
	m.sampleRate = sampleRate
	m.update()
	m.Reset()
	m.prepared = true
	return nil
}

// Configure implements effects.Effect.
func (m *Megaphone) Configure(p effects.Params) error {
	v, ok := p.(MegaphoneParams)
	if !ok {
		return effects.Mismatch(effects.KindMegaphone, p)
	}
	m.params = v.Clamped()
	m.update()
	return nil
}

// Process implements effects.Effect.
func (m *Megaphone) Process(buf []float64) {
	if !m.prepared || m.Bypassed() {
		return
	}
	for i, x := range buf {
		y := m.peak.Process(m.lp.Process(m.hp.Process(x * m.pre)))
		buf[i] = math.Tanh(m.k*y) * m.norm * m.post
	}
}

// Reset implements effects.Effect.
func (m *Megaphone) Reset() {
	m.hp.Reset()
	m.lp.Reset()
	m.peak.Reset()
}

// Shape applies the soft clipper alone; exposed for inspection.
func (m *Megaphone) Shape(x float64) float64 {
	return math.Tanh(m.k*x) * m.norm
}

func (m *Megaphone) update() {
	p := m.params
	m.pre = core.DBToLinear(p.PreGainDB)
	m.post = core.DBToLinear(p.PostGainDB)
	m.k = 1 + megaphoneMaxDrive*p.Drive
	m.norm = 1 / math.Tanh(m.k)

	if m.sampleRate <= 0 {
		return
	}
	m.hp.Design(biquad.Highpass, p.LowCutHz, megaphoneBandQ, 0, m.sampleRate)
	m.lp.Design(biquad.Lowpass, p.HighCutHz, megaphoneBandQ, 0, m.sampleRate)
	m.peak.Design(biquad.Peak, p.ResonanceHz, megaphoneResonanceQ, p.ResonanceDB, m.sampleRate)
}
