package effectchain

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-voicefx/dsp/effects"
	"github.com/cwbudde/algo-voicefx/dsp/effects/voice"
)

var (
	// ErrUnknownEffect is returned when a stage references an unregistered
	// effect kind.
	ErrUnknownEffect = errors.New("effectchain: unknown effect kind")

	// ErrUnknownParam is returned when a parameter key does not belong to
	// the effect kind.
	ErrUnknownParam = errors.New("effectchain: unknown parameter")
)

// field binds a descriptor key to one float64 of a typed parameter struct.
type field struct {
	key string
	ptr *float64
}

// entry is the compile-time registration of one effect kind.
type entry struct {
	newEffect func() effects.Effect
	defaults  func() effects.Params
	decode    func(values map[string]float64) effects.Params
	encode    func(p effects.Params) map[string]float64
	keys      []string
}

// define builds an entry for parameter type P. fields lists the flat keys
// of P in descriptor order.
func define[P effects.Params](newEffect func() effects.Effect, defaults func() P, fields func(p *P) []field) entry {
	proto := defaults()

	keys := make([]string, 0, 8)
	for _, f := range fields(&proto) {
		keys = append(keys, f.key)
	}

	return entry{
		newEffect: newEffect,
		defaults:  func() effects.Params { return defaults() },
		decode: func(values map[string]float64) effects.Params {
			p := defaults()
			for _, f := range fields(&p) {
				v, ok := values[f.key]
				if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
					continue
				}
				*f.ptr = v
			}
			return p
		},
		encode: func(params effects.Params) map[string]float64 {
			p, ok := params.(P)
			if !ok {
				p = defaults()
			}
			fs := fields(&p)
			out := make(map[string]float64, len(fs))
			for _, f := range fs {
				out[f.key] = *f.ptr
			}
			return out
		},
		keys: keys,
	}
}

var registry = map[effects.Kind]entry{
	effects.KindGain: define(
		func() effects.Effect { return effects.NewGain() },
		effects.DefaultGainParams,
		func(p *effects.GainParams) []field {
			return []field{{"gain", &p.Gain}}
		}),
	effects.KindNoiseGate: define(
		func() effects.Effect { return effects.NewNoiseGate() },
		effects.DefaultNoiseGateParams,
		func(p *effects.NoiseGateParams) []field {
			return []field{
				{"thresholdDB", &p.ThresholdDB},
				{"attackMs", &p.AttackMs},
				{"releaseMs", &p.ReleaseMs},
				{"holdMs", &p.HoldMs},
			}
		}),
	effects.KindEQ3: define(
		func() effects.Effect { return effects.NewEQ3() },
		effects.DefaultEQ3Params,
		func(p *effects.EQ3Params) []field {
			return []field{
				{"lowGainDB", &p.LowGainDB},
				{"lowFreqHz", &p.LowFreqHz},
				{"midGainDB", &p.MidGainDB},
				{"midFreqHz", &p.MidFreqHz},
				{"midQ", &p.MidQ},
				{"highGainDB", &p.HighGainDB},
				{"highFreqHz", &p.HighFreqHz},
			}
		}),
	effects.KindCompressor: define(
		func() effects.Effect { return effects.NewCompressor() },
		effects.DefaultCompressorParams,
		func(p *effects.CompressorParams) []field {
			return []field{
				{"thresholdDB", &p.ThresholdDB},
				{"ratio", &p.Ratio},
				{"attackMs", &p.AttackMs},
				{"releaseMs", &p.ReleaseMs},
				{"makeupDB", &p.MakeupDB},
			}
		}),
	effects.KindLimiter: define(
		func() effects.Effect { return effects.NewLimiter() },
		effects.DefaultLimiterParams,
		func(p *effects.LimiterParams) []field {
			return []field{
				{"ceilingDB", &p.CeilingDB},
				{"releaseMs", &p.ReleaseMs},
			}
		}),
	effects.KindEcho: define(
		func() effects.Effect { return effects.NewEcho() },
		effects.DefaultEchoParams,
		func(p *effects.EchoParams) []field {
			return []field{
				{"delayMs", &p.DelayMs},
				{"feedback", &p.Feedback},
				{"mix", &p.Mix},
			}
		}),
	effects.KindRobot: define(
		func() effects.Effect { return voice.NewRobot() },
		voice.DefaultRobotParams,
		func(p *voice.RobotParams) []field {
			return []field{
				{"carrierHz", &p.CarrierHz},
				{"octaves", &p.Octaves},
				{"intensity", &p.Intensity},
			}
		}),
	effects.KindMegaphone: define(
		func() effects.Effect { return voice.NewMegaphone() },
		voice.DefaultMegaphoneParams,
		func(p *voice.MegaphoneParams) []field {
			return []field{
				{"drive", &p.Drive},
				{"preGainDB", &p.PreGainDB},
				{"postGainDB", &p.PostGainDB},
				{"lowCutHz", &p.LowCutHz},
				{"highCutHz", &p.HighCutHz},
				{"resonanceHz", &p.ResonanceHz},
				{"resonanceDB", &p.ResonanceDB},
			}
		}),
	effects.KindReverb: define(
		func() effects.Effect { return voice.NewReverb() },
		voice.DefaultReverbParams,
		func(p *voice.ReverbParams) []field {
			return []field{
				{"roomSize", &p.RoomSize},
				{"decay", &p.Decay},
				{"damping", &p.Damping},
				{"mix", &p.Mix},
				{"presenceDB", &p.PresenceDB},
			}
		}),
	effects.KindDeepVoice: define(
		func() effects.Effect { return voice.NewDeep() },
		voice.DefaultDeepParams,
		func(p *voice.DeepParams) []field {
			return []field{
				{"semitones", &p.Semitones},
				{"formantPercent", &p.FormantPercent},
				{"bassBoostDB", &p.BassBoostDB},
				{"presenceCutDB", &p.PresenceCutDB},
				{"grainMs", &p.GrainMs},
			}
		}),
	effects.KindHeliumVoice: define(
		func() effects.Effect { return voice.NewHelium() },
		voice.DefaultHeliumParams,
		func(p *voice.HeliumParams) []field {
			return []field{
				{"semitones", &p.Semitones},
				{"formantPercent", &p.FormantPercent},
				{"brightnessDB", &p.BrightnessDB},
				{"lowCutHz", &p.LowCutHz},
				{"grainMs", &p.GrainMs},
			}
		}),
}

func lookup(kind effects.Kind) (entry, error) {
	e, ok := registry[kind]
	if !ok {
		return entry{}, fmt.Errorf("%w: %s", ErrUnknownEffect, kind)
	}
	return e, nil
}

// Registered reports whether kind has a constructor.
func Registered(kind effects.Kind) bool {
	_, ok := registry[kind]
	return ok
}

// RegisteredKinds returns every registered kind in enumeration order.
func RegisteredKinds() []effects.Kind {
	kinds := make([]effects.Kind, 0, len(registry))
	for _, k := range effects.Kinds() {
		if Registered(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// NewEffect constructs an unprepared effect of the given kind with default
// parameters.
func NewEffect(kind effects.Kind) (effects.Effect, error) {
	e, err := lookup(kind)
	if err != nil {
		return nil, err
	}
	return e.newEffect(), nil
}

// DefaultParams returns the default parameter set of kind.
func DefaultParams(kind effects.Kind) (effects.Params, error) {
	e, err := lookup(kind)
	if err != nil {
		return nil, err
	}
	return e.defaults(), nil
}

// DecodeParams maps a flat key/value map onto the typed parameters of kind.
// Missing keys keep their defaults, unknown keys and non-finite values are
// ignored. Range clamping happens when the effect is configured.
func DecodeParams(kind effects.Kind, values map[string]float64) (effects.Params, error) {
	e, err := lookup(kind)
	if err != nil {
		return nil, err
	}
	return e.decode(values), nil
}

// EncodeParams flattens typed parameters into descriptor keys.
func EncodeParams(p effects.Params) (map[string]float64, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil params", ErrUnknownEffect)
	}
	e, err := lookup(p.Kind())
	if err != nil {
		return nil, err
	}
	return e.encode(p), nil
}

// ParamKeys lists the descriptor keys accepted by kind.
func ParamKeys(kind effects.Kind) []string {
	e, ok := registry[kind]
	if !ok {
		return nil
	}
	return append([]string(nil), e.keys...)
}

// HasParam reports whether key is a parameter of kind.
func HasParam(kind effects.Kind, key string) bool {
	e, ok := registry[kind]
	if !ok {
		return false
	}
	for _, k := range e.keys {
		if k == key {
			return true
		}
	}
	return false
}
