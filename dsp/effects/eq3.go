package effects

import "github.com/cwbudde/algo-voicefx/dsp/filter/biquad"

// EQ3 is a three-band equalizer: a low shelf, a peaking mid band and a
// high shelf in series.
type EQ3 struct {
	BypassFlag

	params     EQ3Params
	sampleRate float64
	prepared   bool

	low, mid, high biquad.Filter
}

// NewEQ3 returns a flat equalizer.
func NewEQ3() *EQ3 {
	return &EQ3{params: DefaultEQ3Params()}
}

// Kind implements Effect.
func (e *EQ3) Kind() Kind { return KindEQ3 }

// Params returns the active parameters.
func (e *EQ3) Params() EQ3Params { return e.params }

// Prepare implements Effect.
func (e *EQ3) Prepare(sampleRate float64) error {
	if err := CheckSampleRate(sampleRate); err != nil {
		return err
	}
	e.sampleRate = sampleRate
	e.design()
	e.Reset()
	e.prepared = true
	return nil
}

// Configure implements Effect.
func (e *EQ3) Configure(p Params) error {
	v, ok := p.(EQ3Params)
	if !ok {
		return Mismatch(KindEQ3, p)
	}
	e.params = v.Clamped()
	if e.sampleRate > 0 {
		e.design()
	}
	return nil
}

// Process implements Effect.
func (e *EQ3) Process(buf []float64) {
	if !e.prepared || e.Bypassed() {
		return
	}
	for i, x := range buf {
		buf[i] = e.high.Process(e.mid.Process(e.low.Process(x)))
	}
}

// Reset implements Effect.
func (e *EQ3) Reset() {
	e.low.Reset()
	e.mid.Reset()
	e.high.Reset()
}

// Response returns the combined magnitude response in dB at freqHz.
func (e *EQ3) Response(freqHz float64) float64 {
	if e.sampleRate <= 0 {
		return 0
	}
	return e.low.Coefficients().MagnitudeDB(freqHz, e.sampleRate) +
		e.mid.Coefficients().MagnitudeDB(freqHz, e.sampleRate) +
		e.high.Coefficients().MagnitudeDB(freqHz, e.sampleRate)
}

func (e *EQ3) design() {
	p := e.params
	e.low.Design(biquad.LowShelf, p.LowFreqHz, biquad.DefaultQ, p.LowGainDB, e.sampleRate)
	e.mid.Design(biquad.Peak, p.MidFreqHz, p.MidQ, p.MidGainDB, e.sampleRate)
	e.high.Design(biquad.HighShelf, p.HighFreqHz, biquad.DefaultQ, p.HighGainDB, e.sampleRate)
}
