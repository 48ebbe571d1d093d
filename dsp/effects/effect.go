package effects

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/algo-voicefx/dsp/core"
)

var (
	// ErrParamsMismatch is returned by Configure when the parameter set
	// belongs to a different effect kind.
	ErrParamsMismatch = errors.New("effects: parameter kind mismatch")

	// ErrSampleRate is returned by Prepare for non-positive or non-finite
	// sample rates.
	ErrSampleRate = errors.New("effects: sample rate must be positive and finite")
)

// Params is a typed parameter set for one effect kind.
type Params interface {
	Kind() Kind
}

// Effect is a stateful mono processing stage.
type Effect interface {
	// Kind identifies the effect.
	Kind() Kind
	// Prepare sizes all internal buffers for sampleRate and clears state.
	Prepare(sampleRate float64) error
	// Configure assigns clamped parameters.
	Configure(p Params) error
	// Process transforms buf in place.
	Process(buf []float64)
	// Reset clears audible state without reallocating.
	Reset()
	// SetBypass toggles pass-through.
	SetBypass(bypass bool)
	// Bypassed reports the bypass state.
	Bypassed() bool
}

// BypassFlag implements the bypass half of [Effect]. Embed it in effect
// types.
type BypassFlag struct {
	bypass atomic.Bool
}

// SetBypass toggles pass-through.
func (b *BypassFlag) SetBypass(bypass bool) { b.bypass.Store(bypass) }

// Bypassed reports the bypass state.
func (b *BypassFlag) Bypassed() bool { return b.bypass.Load() }

// CheckSampleRate validates a sample rate for Prepare.
func CheckSampleRate(sampleRate float64) error {
	if !(sampleRate > 0) || !core.IsFinite(sampleRate) {
		return fmt.Errorf("%w: %v", ErrSampleRate, sampleRate)
	}
	return nil
}

// Mismatch builds the error returned when Configure receives parameters of
// another kind.
func Mismatch(want Kind, got Params) error {
	if got == nil {
		return fmt.Errorf("%w: %s effect got nil params", ErrParamsMismatch, want)
	}
	return fmt.Errorf("%w: %s effect got %s params", ErrParamsMismatch, want, got.Kind())
}
