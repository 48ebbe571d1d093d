package effects

import "github.com/cwbudde/algo-voicefx/dsp/core"

// GainParams configures [Gain].
type GainParams struct {
	Gain float64 // linear factor in [0, 2]
}

// DefaultGainParams returns unity gain.
func DefaultGainParams() GainParams { return GainParams{Gain: 1} }

// Kind implements Params.
func (GainParams) Kind() Kind { return KindGain }

// Clamped returns p with every field forced into its safe range.
func (p GainParams) Clamped() GainParams {
	p.Gain = core.ClampOr(p.Gain, 1, 0, 2)
	return p
}

// NoiseGateParams configures [NoiseGate].
type NoiseGateParams struct {
	ThresholdDB float64 // open level, [-96, 0] dBFS
	AttackMs    float64 // opening time, [0.1, 500]
	ReleaseMs   float64 // closing time, [1, 5000]
	HoldMs      float64 // time kept open after the level drops, [0, 2000]
}

// DefaultNoiseGateParams returns a gate tuned for speech.
func DefaultNoiseGateParams() NoiseGateParams {
	return NoiseGateParams{ThresholdDB: -45, AttackMs: 2, ReleaseMs: 120, HoldMs: 50}
}

// Kind implements Params.
func (NoiseGateParams) Kind() Kind { return KindNoiseGate }

// Clamped returns p with every field forced into its safe range.
func (p NoiseGateParams) Clamped() NoiseGateParams {
	d := DefaultNoiseGateParams()
	p.ThresholdDB = core.ClampOr(p.ThresholdDB, d.ThresholdDB, -96, 0)
	p.AttackMs = core.ClampOr(p.AttackMs, d.AttackMs, 0.1, 500)
	p.ReleaseMs = core.ClampOr(p.ReleaseMs, d.ReleaseMs, 1, 5000)
	p.HoldMs = core.ClampOr(p.HoldMs, d.HoldMs, 0, 2000)
	return p
}

// EQ3Params configures [EQ3].
type EQ3Params struct {
	LowGainDB  float64
	LowFreqHz  float64
	MidGainDB  float64
	MidFreqHz  float64
	MidQ       float64
	HighGainDB float64
	HighFreqHz float64
}

// DefaultEQ3Params returns a flat equalizer with 200 Hz / 1 kHz / 5 kHz
// band centres.
func DefaultEQ3Params() EQ3Params {
	return EQ3Params{LowFreqHz: 200, MidFreqHz: 1000, MidQ: 1, HighFreqHz: 5000}
}

// Kind implements Params.
func (EQ3Params) Kind() Kind { return KindEQ3 }

// Clamped returns p with every field forced into its safe range. Gains are
// limited to ±24 dB and frequencies to the audible band.
func (p EQ3Params) Clamped() EQ3Params {
	d := DefaultEQ3Params()
	p.LowGainDB = core.ClampOr(p.LowGainDB, 0, -24, 24)
	p.MidGainDB = core.ClampOr(p.MidGainDB, 0, -24, 24)
	p.HighGainDB = core.ClampOr(p.HighGainDB, 0, -24, 24)
	p.LowFreqHz = core.ClampOr(p.LowFreqHz, d.LowFreqHz, 20, 2000)
	p.MidFreqHz = core.ClampOr(p.MidFreqHz, d.MidFreqHz, 100, 10000)
	p.HighFreqHz = core.ClampOr(p.HighFreqHz, d.HighFreqHz, 1000, 20000)
	p.MidQ = core.ClampOr(p.MidQ, d.MidQ, 0.5, 10)
	return p
}

// CompressorParams configures [Compressor].
type CompressorParams struct {
	ThresholdDB float64 // [-60, 0] dBFS
	Ratio       float64 // [1, 20]
	AttackMs    float64 // [0.1, 500]
	ReleaseMs   float64 // [1, 5000]
	MakeupDB    float64 // [0, 24]
}

// DefaultCompressorParams returns a moderate vocal compressor.
func DefaultCompressorParams() CompressorParams {
	return CompressorParams{ThresholdDB: -18, Ratio: 3, AttackMs: 5, ReleaseMs: 80}
}

// Kind implements Params.
func (CompressorParams) Kind() Kind { return KindCompressor }

// Clamped returns p with every field forced into its safe range.
func (p CompressorParams) Clamped() CompressorParams {
	d := DefaultCompressorParams()
	p.ThresholdDB = core.ClampOr(p.ThresholdDB, d.ThresholdDB, -60, 0)
	p.Ratio = core.ClampOr(p.Ratio, d.Ratio, 1, 20)
	p.AttackMs = core.ClampOr(p.AttackMs, d.AttackMs, 0.1, 500)
	p.ReleaseMs = core.ClampOr(p.ReleaseMs, d.ReleaseMs, 1, 5000)
	p.MakeupDB = core.ClampOr(p.MakeupDB, 0, 0, 24)
	return p
}

// LimiterParams configures [Limiter].
type LimiterParams struct {
	CeilingDB float64 // [-24, 0] dBFS
	ReleaseMs float64 // [1, 1000]
}

// DefaultLimiterParams returns a -1 dBFS ceiling with 50 ms release.
func DefaultLimiterParams() LimiterParams {
	return LimiterParams{CeilingDB: -1, ReleaseMs: 50}
}

// Kind implements Params.
func (LimiterParams) Kind() Kind { return KindLimiter }

// Clamped returns p with every field forced into its safe range.
func (p LimiterParams) Clamped() LimiterParams {
	d := DefaultLimiterParams()
	p.CeilingDB = core.ClampOr(p.CeilingDB, d.CeilingDB, -24, 0)
	p.ReleaseMs = core.ClampOr(p.ReleaseMs, d.ReleaseMs, 1, 1000)
	return p
}

// MaxEchoDelayMs is the longest echo delay; Echo sizes its line for it.
const MaxEchoDelayMs = 2000.0

// EchoParams configures [Echo].
type EchoParams struct {
	DelayMs  float64 // [1, MaxEchoDelayMs]
	Feedback float64 // [0, 0.95]
	Mix      float64 // wet amount, [0, 1]
}

// DefaultEchoParams returns a 250 ms slap-back echo.
func DefaultEchoParams() EchoParams {
	return EchoParams{DelayMs: 250, Feedback: 0.3, Mix: 0.25}
}

// Kind implements Params.
func (EchoParams) Kind() Kind { return KindEcho }

// Clamped returns p with every field forced into its safe range.
func (p EchoParams) Clamped() EchoParams {
	d := DefaultEchoParams()
	p.DelayMs = core.ClampOr(p.DelayMs, d.DelayMs, 1, MaxEchoDelayMs)
	p.Feedback = core.ClampOr(p.Feedback, d.Feedback, 0, 0.95)
	p.Mix = core.ClampOr(p.Mix, d.Mix, 0, 1)
	return p
}
