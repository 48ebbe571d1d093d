package effectchain

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-voicefx/dsp/effects"
)

// ErrStageIndex is returned when a stage index is outside the preset.
var ErrStageIndex = errors.New("effectchain: stage index out of range")

// Stage is one entry of a preset: an effect kind, its typed parameters and
// its bypass flag. Name keeps the identifier as written in the descriptor,
// so stages with an unrecognised kind can still be reported.
type Stage struct {
	Kind   effects.Kind
	Name   string
	Params effects.Params
	Bypass bool
}

// NewStage returns an active stage for p.
func NewStage(p effects.Params) Stage {
	return Stage{Kind: p.Kind(), Name: p.Kind().String(), Params: p}
}

// Known reports whether the stage resolves to a registered effect.
func (s Stage) Known() bool { return Registered(s.Kind) }

// Preset is an immutable, named, ordered list of stages. Modifications
// return a new preset.
type Preset struct {
	name   string
	stages []Stage
}

// NewPreset copies stages into a new preset.
func NewPreset(name string, stages ...Stage) *Preset {
	return &Preset{name: name, stages: append([]Stage(nil), stages...)}
}

// Name returns the preset name.
func (p *Preset) Name() string { return p.name }

// Len returns the number of stages, including unknown ones.
func (p *Preset) Len() int { return len(p.stages) }

// Stage returns stage i.
func (p *Preset) Stage(i int) (Stage, error) {
	if i < 0 || i >= len(p.stages) {
		return Stage{}, fmt.Errorf("%w: %d of %d", ErrStageIndex, i, len(p.stages))
	}
	return p.stages[i], nil
}

// Stages returns a copy of all stages.
func (p *Preset) Stages() []Stage {
	return append([]Stage(nil), p.stages...)
}

// Rename returns a copy of the preset under another name.
func (p *Preset) Rename(name string) *Preset {
	return NewPreset(name, p.stages...)
}

// WithBypass returns a copy with the bypass flag of stage i replaced.
func (p *Preset) WithBypass(i int, bypass bool) (*Preset, error) {
	if i < 0 || i >= len(p.stages) {
		return nil, fmt.Errorf("%w: %d of %d", ErrStageIndex, i, len(p.stages))
	}
	out := NewPreset(p.name, p.stages...)
	out.stages[i].Bypass = bypass
	return out, nil
}

// WithParameter returns a copy with one parameter of stage i replaced.
// The value is stored as given and clamped when the effect is configured.
func (p *Preset) WithParameter(i int, key string, value float64) (*Preset, error) {
	if i < 0 || i >= len(p.stages) {
		return nil, fmt.Errorf("%w: %d of %d", ErrStageIndex, i, len(p.stages))
	}

	st := p.stages[i]
	if !st.Known() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEffect, st.Name)
	}
	if !HasParam(st.Kind, key) {
		return nil, fmt.Errorf("%w: %s has no %q", ErrUnknownParam, st.Kind, key)
	}

	params := st.Params
	if params == nil {
		def, err := DefaultParams(st.Kind)
		if err != nil {
			return nil, err
		}
		params = def
	}

	values, err := EncodeParams(params)
	if err != nil {
		return nil, err
	}
	values[key] = value

	decoded, err := DecodeParams(st.Kind, values)
	if err != nil {
		return nil, err
	}

	out := NewPreset(p.name, p.stages...)
	out.stages[i].Params = decoded
	return out, nil
}

// ActiveKinds lists the registered kinds of non-bypassed stages in order.
func (p *Preset) ActiveKinds() []effects.Kind {
	kinds := make([]effects.Kind, 0, len(p.stages))
	for _, st := range p.stages {
		if st.Known() && !st.Bypass {
			kinds = append(kinds, st.Kind)
		}
	}
	return kinds
}
