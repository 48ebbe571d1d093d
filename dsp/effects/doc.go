// Package effects defines the [Effect] capability shared by every stage of
// a voice chain, the [Kind] enumeration naming them, and the basic effects
// built on the dsp primitives: [Gain], [NoiseGate], [EQ3], [Compressor],
// [Limiter] and [Echo].
//
// All effects are mono. They are configured with a typed parameter struct
// whose values are clamped when assigned; Process never validates, never
// allocates and never fails. Processing before Prepare leaves the buffer
// untouched, as does processing while bypassed.
//
// Effects are not safe for concurrent use, with the exception of
// SetBypass/Bypassed which may be called from any goroutine.
package effects
