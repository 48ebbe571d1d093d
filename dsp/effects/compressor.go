package effects

import (
	"github.com/cwbudde/algo-voicefx/dsp/core"
	"github.com/cwbudde/algo-voicefx/dsp/envelope"
)

// Compressor reduces the level of signal above a threshold at a fixed ratio.
//
// The detector is an RMS envelope follower with independent attack and
// release. For a detected level L dB above the threshold T, the gain is
//
//	gain = -(L - T) * (1 - 1/ratio) + makeup   [dB]
//
// Below the threshold only the makeup gain applies.
type Compressor struct {
	BypassFlag

	params     CompressorParams
	sampleRate float64
	prepared   bool

	detector *envelope.Follower
	slope    float64
	makeup   float64
	lastGain float64
}

// NewCompressor returns a compressor with default parameters.
func NewCompressor() *Compressor {
	return &Compressor{params: DefaultCompressorParams(), lastGain: 1}
}

// NewCompressorWith returns a compressor configured with p.
func NewCompressorWith(p CompressorParams) *Compressor {
	c := NewCompressor()
	_ = c.Configure(p)
	return c
}

// Kind implements Effect.
func (c *Compressor) Kind() Kind { return KindCompressor }

// Params returns the active parameters.
func (c *Compressor) Params() CompressorParams { return c.params }

// Prepare implements Effect.
func (c *Compressor) Prepare(sampleRate float64) error {
	if err := CheckSampleRate(sampleRate); err != nil {
		return err
	}
	c.sampleRate = sampleRate
	c.detector = envelope.NewFollower(envelope.RMS, c.params.AttackMs, c.params.ReleaseMs, sampleRate)
	c.update()
	c.Reset()
	c.prepared = true
	return nil
}

// Configure implements Effect.
func (c *Compressor) Configure(p Params) error {
	v, ok := p.(CompressorParams)
	if !ok {
		return Mismatch(KindCompressor, p)
	}
	c.params = v.Clamped()
	c.update()
	return nil
}

// Process implements Effect.
func (c *Compressor) Process(buf []float64) {
	if !c.prepared || c.Bypassed() {
		return
	}
	for i, x := range buf {
		buf[i] = c.ProcessSample(x)
	}
}

// ProcessSample compresses one sample. It is used directly by composite
// voice effects.
func (c *Compressor) ProcessSample(x float64) float64 {
	if c.detector == nil {
		return x
	}

	level := c.detector.Process(x)
	gainDB := c.makeup
	if over := core.LinearToDB(level) - c.params.ThresholdDB; over > 0 {
		gainDB -= over * c.slope
	}
	c.lastGain = core.DBToLinear(gainDB)

	return x * c.lastGain
}

// GainReductionDB returns the most recent gain change in dB, excluding
// makeup gain. It is zero or negative.
func (c *Compressor) GainReductionDB() float64 {
	return core.LinearToDB(c.lastGain) - c.makeup
}

// Reset implements Effect.
func (c *Compressor) Reset() {
	if c.detector != nil {
		c.detector.Reset()
	}
	c.lastGain = core.DBToLinear(c.makeup)
}

func (c *Compressor) update() {
	c.slope = 1 - 1/c.params.Ratio
	c.makeup = c.params.MakeupDB
	if c.detector != nil {
		c.detector.SetTimes(c.params.AttackMs, c.params.ReleaseMs)
	}
}
