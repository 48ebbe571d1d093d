package voice

import (
	"github.com/cwbudde/algo-voicefx/dsp/effects"
	"github.com/cwbudde/algo-voicefx/dsp/effects/reverb"
	"github.com/cwbudde/algo-voicefx/dsp/filter/biquad"
)

const presenceHz = 3000.0

var reverbLeveler = effects.CompressorParams{
	ThresholdDB: -24,
	Ratio:       2,
	AttackMs:    10,
	ReleaseMs:   120,
}

// Reverb is the karaoke/stadium voice. A light compressor and a presence
// boost even out amateur input before a Schroeder reverberator; the result
// is blended as y = d*(1-mix) + wet*mix where d is the levelled signal.
type Reverb struct {
	effects.BypassFlag

	params     ReverbParams
	sampleRate float64
	prepared   bool

	leveler  *effects.Compressor
	presence biquad.Filter
	room     *reverb.Schroeder
}

// NewReverb returns a reverb voice with default parameters.
func NewReverb() *Reverb {
	r := &Reverb{
		params:  DefaultReverbParams(),
		leveler: effects.NewCompressorWith(reverbLeveler),
		room:    reverb.New(),
	}
	r.update()
	return r
}

// Kind implements effects.Effect.
func (r *Reverb) Kind() effects.Kind { return effects.KindReverb }

// Params returns the active parameters.
func (r *Reverb) Params() ReverbParams { return r.params }

// Prepare implements effects.Effect.
func (r *Reverb) Prepare(sampleRate float64) error {
	if err := effects.CheckSampleRate(sampleRate); err != nil {
		return err
	}
	if err := r.leveler.Prepare(sampleRate); err != nil {
		return err
	}
	if err := r.room.Prepare(sampleRate); err != nil {
		return err
	}
	r.sampleRate = sampleRate
	r.update()
	r.Reset()
	r.prepared = true
	return nil
}

// Configure implements effects.Effect.
func (r *Reverb) Configure(p effects.Params) error {
	v, ok := p.(ReverbParams)
	if !ok {
		return effects.Mismatch(effects.KindReverb, p)
	}
	r.params = v.Clamped()
	r.update()
	return nil
}

// Process implements effects.Effect.
func (r *Reverb) Process(buf []float64) {
	if !r.prepared || r.Bypassed() {
		return
	}
	mix := r.params.Mix
	for i, x := range buf {
		d := r.presence.Process(r.leveler.ProcessSample(x))
		buf[i] = d*(1-mix) + r.room.ProcessSample(d)*mix
	}
}

// Reset implements effects.Effect. It silences the reverb tail.
func (r *Reverb) Reset() {
	r.leveler.Reset()
	r.presence.Reset()
	r.room.Reset()
}

func (r *Reverb) update() {
	p := r.params
	r.room.SetRoomSize(p.RoomSize)
	r.room.SetDecay(p.Decay)
	r.room.SetDamping(p.Damping)
	if r.sampleRate > 0 {
		r.presence.Design(biquad.Peak, presenceHz, 1, p.PresenceDB, r.sampleRate)
	}
}
