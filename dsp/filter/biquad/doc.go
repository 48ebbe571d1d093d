// Package biquad provides a second-order IIR filter and the standard
// audio-EQ-cookbook (RBJ) designs used by the voice effects.
//
// A [Filter] keeps two feedforward and two feedback registers (Direct
// Form I) so that coefficients can be redesigned between buffers without
// transient blow-ups. Design parameters are clamped to a safe range
// instead of being rejected: Q is kept at or above 0.5 and the corner
// frequency below 0.45 of the sample rate.
package biquad
