package biquad

import "github.com/cwbudde/algo-voicefx/dsp/core"

// Filter is a single biquad with its design parameters and Direct Form I
// state. The zero value is a pass-through filter.
type Filter struct {
	coeffs Coefficients

	typ        Type
	freqHz     float64
	q          float64
	gainDB     float64
	sampleRate float64

	x1, x2 float64
	y1, y2 float64
}

// NewFilter returns a filter designed with the given parameters.
func NewFilter(t Type, freqHz, q, gainDB, sampleRate float64) *Filter {
	f := &Filter{}
	f.Design(t, freqHz, q, gainDB, sampleRate)
	return f
}

// Design recomputes the coefficients. State registers are kept so the
// filter can be retuned while running.
func (f *Filter) Design(t Type, freqHz, q, gainDB, sampleRate float64) {
	f.typ = t
	f.sampleRate = sampleRate
	f.coeffs = Design(t, freqHz, q, gainDB, sampleRate)
	if sampleRate > 0 && core.IsFinite(sampleRate) {
		f.freqHz = ClampFreq(freqHz, sampleRate)
	} else {
		f.freqHz = freqHz
	}
	f.q = ClampQ(q)
	f.gainDB = gainDB
}

// SetCoefficients installs precomputed coefficients.
func (f *Filter) SetCoefficients(c Coefficients) {
	if !c.finite() {
		c = Identity()
	}
	f.coeffs = c
}

// Coefficients returns the current coefficients.
func (f *Filter) Coefficients() Coefficients {
	if f.coeffs == (Coefficients{}) {
		return Identity()
	}
	return f.coeffs
}

// Type returns the designed response type.
func (f *Filter) Type() Type { return f.typ }

// Freq returns the (clamped) design frequency in Hz.
func (f *Filter) Freq() float64 { return f.freqHz }

// Q returns the (clamped) resonance.
func (f *Filter) Q() float64 { return f.q }

// GainDB returns the shelf/peak gain in dB.
func (f *Filter) GainDB() float64 { return f.gainDB }

// Process filters one sample.
func (f *Filter) Process(x float64) float64 {
	c := &f.coeffs
	if *c == (Coefficients{}) {
		return x
	}

	y := c.B0*x + c.B1*f.x1 + c.B2*f.x2 - c.A1*f.y1 - c.A2*f.y2
	if !core.IsFinite(y) {
		f.Reset()
		return 0
	}
	y = core.FlushDenormals(y)

	f.x2 = f.x1
	f.x1 = x
	f.y2 = f.y1
	f.y1 = y

	return y
}

// ProcessBlock filters buf in place. Zero-alloc.
func (f *Filter) ProcessBlock(buf []float64) {
	for i, x := range buf {
		buf[i] = f.Process(x)
	}
}

// Reset clears the state registers.
func (f *Filter) Reset() {
	f.x1, f.x2 = 0, 0
	f.y1, f.y2 = 0, 0
}
