// Package interp provides the fractional interpolation primitives used by
// delay-based DSP blocks: 2-point linear and 4-point cubic Hermite.
package interp
