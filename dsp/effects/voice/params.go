package voice

import (
	"math"

	"github.com/cwbudde/algo-voicefx/dsp/core"
	"github.com/cwbudde/algo-voicefx/dsp/effects"
	"github.com/cwbudde/algo-voicefx/dsp/pitch"
)

const (
	minFormantScale = 0.6
	maxFormantScale = 1.4

	// formantTracking is the exponent applied to the pitch ratio when
	// moving the formant filters. Formants move about half as far as the
	// pitch in log frequency.
	formantTracking = 0.5
)

// RobotParams configures [Robot].
type RobotParams struct {
	CarrierHz float64 // ring-modulation carrier, [20, 400] Hz
	Octaves   float64 // whole-octave pre-shift, rounded, [-1, 1]
	Intensity float64 // wet amount, [0, 1]
}

// DefaultRobotParams returns a classic 60 Hz robot.
func DefaultRobotParams() RobotParams {
	return RobotParams{CarrierHz: 60, Intensity: 0.85}
}

// Kind implements effects.Params.
func (RobotParams) Kind() effects.Kind { return effects.KindRobot }

// Clamped returns p with every field forced into its safe range.
func (p RobotParams) Clamped() RobotParams {
	d := DefaultRobotParams()
	p.CarrierHz = core.ClampOr(p.CarrierHz, d.CarrierHz, 20, 400)
	p.Octaves = math.Round(core.ClampOr(p.Octaves, 0, -1, 1))
	p.Intensity = core.ClampOr(p.Intensity, d.Intensity, 0, 1)
	return p
}

// MegaphoneParams configures [Megaphone].
type MegaphoneParams struct {
	Drive       float64 // waveshaper amount, [0, 1]
	PreGainDB   float64 // [-12, 24]
	PostGainDB  float64 // [-24, 12]
	LowCutHz    float64 // high-pass corner, [100, 2000]
	HighCutHz   float64 // low-pass corner, [1000, 8000]
	ResonanceHz float64 // horn resonance, [300, 5000]
	ResonanceDB float64 // [0, 18]
}

// DefaultMegaphoneParams returns a narrow, mildly driven horn.
func DefaultMegaphoneParams() MegaphoneParams {
	return MegaphoneParams{
		Drive:       0.5,
		PreGainDB:   6,
		PostGainDB:  -3,
		LowCutHz:    500,
		HighCutHz:   3500,
		ResonanceHz: 1800,
		ResonanceDB: 6,
	}
}

// Kind implements effects.Params.
func (MegaphoneParams) Kind() effects.Kind { return effects.KindMegaphone }

// Clamped returns p with every field forced into its safe range.
func (p MegaphoneParams) Clamped() MegaphoneParams {
	d := DefaultMegaphoneParams()
	p.Drive = core.ClampOr(p.Drive, d.Drive, 0, 1)
	p.PreGainDB = core.ClampOr(p.PreGainDB, d.PreGainDB, -12, 24)
	p.PostGainDB = core.ClampOr(p.PostGainDB, d.PostGainDB, -24, 12)
	p.LowCutHz = core.ClampOr(p.LowCutHz, d.LowCutHz, 100, 2000)
	p.HighCutHz = core.ClampOr(p.HighCutHz, d.HighCutHz, 1000, 8000)
	p.ResonanceHz = core.ClampOr(p.ResonanceHz, d.ResonanceHz, 300, 5000)
	p.ResonanceDB = core.ClampOr(p.ResonanceDB, d.ResonanceDB, 0, 18)
	return p
}

// ReverbParams configures [Reverb].
type ReverbParams struct {
	RoomSize   float64 // [0, 1]
	Decay      float64 // [0, 1]
	Damping    float64 // [0, 1]
	Mix        float64 // wet amount, [0, 1]
	PresenceDB float64 // presence boost ahead of the reverb, [0, 12]
}

// DefaultReverbParams returns the karaoke room.
func DefaultReverbParams() ReverbParams {
	return ReverbParams{RoomSize: 0.4, Decay: 0.5, Damping: 0.4, Mix: 0.25, PresenceDB: 3}
}

// Kind implements effects.Params.
func (ReverbParams) Kind() effects.Kind { return effects.KindReverb }

// Clamped returns p with every field forced into its safe range.
func (p ReverbParams) Clamped() ReverbParams {
	d := DefaultReverbParams()
	p.RoomSize = core.ClampOr(p.RoomSize, d.RoomSize, 0, 1)
	p.Decay = core.ClampOr(p.Decay, d.Decay, 0, 1)
	p.Damping = core.ClampOr(p.Damping, d.Damping, 0, 1)
	p.Mix = core.ClampOr(p.Mix, d.Mix, 0, 1)
	p.PresenceDB = core.ClampOr(p.PresenceDB, d.PresenceDB, 0, 12)
	return p
}

// DeepParams configures [Deep].
type DeepParams struct {
	Semitones      float64 // [-12, 0]
	FormantPercent float64 // formant trim on top of pitch tracking, [-40, 40] %
	BassBoostDB    float64 // [0, 12]
	PresenceCutDB  float64 // upper-mid cut, [-12, 0]
	GrainMs        float64 // pitch shifter grain, [20, 100]
}

// DefaultDeepParams returns a deep voice five semitones down.
func DefaultDeepParams() DeepParams {
	return DeepParams{
		Semitones:      -5,
		FormantPercent: 0,
		BassBoostDB:    4,
		PresenceCutDB:  -3,
		GrainMs:        pitch.DefaultGrainMs,
	}
}

// Kind implements effects.Params.
func (DeepParams) Kind() effects.Kind { return effects.KindDeepVoice }

// Clamped returns p with every field forced into its safe range.
func (p DeepParams) Clamped() DeepParams {
	d := DefaultDeepParams()
	p.Semitones = core.ClampOr(p.Semitones, d.Semitones, -pitch.MaxSemitones, 0)
	p.FormantPercent = core.ClampOr(p.FormantPercent, d.FormantPercent, -40, 40)
	p.BassBoostDB = core.ClampOr(p.BassBoostDB, d.BassBoostDB, 0, 12)
	p.PresenceCutDB = core.ClampOr(p.PresenceCutDB, d.PresenceCutDB, -12, 0)
	p.GrainMs = core.ClampOr(p.GrainMs, d.GrainMs, pitch.MinGrainMs, pitch.MaxGrainMs)
	return p
}

// HeliumParams configures [Helium]; the chipmunk and anime presets are
// variations of it.
type HeliumParams struct {
	Semitones      float64 // [0, 12]
	FormantPercent float64 // formant trim on top of pitch tracking, [-40, 40] %
	BrightnessDB   float64 // high-shelf boost, [0, 12]
	LowCutHz       float64 // high-pass corner, [40, 600]
	GrainMs        float64 // pitch shifter grain, [20, 100]
}

// DefaultHeliumParams returns a helium voice five semitones up.
func DefaultHeliumParams() HeliumParams {
	return HeliumParams{
		Semitones:      5,
		FormantPercent: 0,
		BrightnessDB:   4,
		LowCutHz:       180,
		GrainMs:        pitch.DefaultGrainMs,
	}
}

// Kind implements effects.Params.
func (HeliumParams) Kind() effects.Kind { return effects.KindHeliumVoice }

// Clamped returns p with every field forced into its safe range.
func (p HeliumParams) Clamped() HeliumParams {
	d := DefaultHeliumParams()
	p.Semitones = core.ClampOr(p.Semitones, d.Semitones, 0, pitch.MaxSemitones)
	p.FormantPercent = core.ClampOr(p.FormantPercent, d.FormantPercent, -40, 40)
	p.BrightnessDB = core.ClampOr(p.BrightnessDB, d.BrightnessDB, 0, 12)
	p.LowCutHz = core.ClampOr(p.LowCutHz, d.LowCutHz, 40, 600)
	p.GrainMs = core.ClampOr(p.GrainMs, d.GrainMs, pitch.MinGrainMs, pitch.MaxGrainMs)
	return p
}

// FormantScale converts a formant percentage into a frequency multiplier
// in [0.6, 1.4].
func FormantScale(percent float64) float64 {
	return core.ClampOr(1+percent/100, 1, minFormantScale, maxFormantScale)
}

// FormantShift returns the frequency multiplier for the formant filters of
// a voice shifted by ratio: the square root of ratio, trimmed by percent
// and clamped to [0.6, 1.4].
func FormantShift(percent, ratio float64) float64 {
	if !(ratio > 0) || !core.IsFinite(ratio) {
		ratio = 1
	}
	shift := math.Pow(ratio, formantTracking) * FormantScale(percent)
	return core.Clamp(shift, minFormantScale, maxFormantScale)
}
