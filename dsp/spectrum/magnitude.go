package spectrum

import "github.com/cwbudde/algo-vecmath"

// MagnitudeFromParts computes sqrt(re[k]^2 + im[k]^2) into dst. All three
// slices must have the same length.
func MagnitudeFromParts(dst, re, im []float64) {
	vecmath.Magnitude(dst, re, im)
}

func splitComplex(re, im []float64, in []complex128) {
	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}
}
