package core

import "math"

const (
	// LevelFloor is the smallest linear amplitude considered by LinearToDB.
	// It maps to -200 dBFS.
	LevelFloor = 1e-10

	// SafeAmplitude bounds sanitised samples. It leaves roughly 18 dB of
	// headroom above full scale for intermediate stages.
	SafeAmplitude = 8.0
)

// Clamp limits value to the inclusive range [min, max].
// NaN values are mapped to min.
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min || math.IsNaN(value) {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// ClampOr returns def when value is not finite, and Clamp(value, min, max) otherwise.
func ClampOr(value, def, min, max float64) float64 {
	if !IsFinite(value) {
		return Clamp(def, min, max)
	}

	return Clamp(value, min, max)
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FlushDenormals converts tiny denormal-like values to exact zero.
// This can reduce denormal-related CPU slowdowns in hot DSP loops.
func FlushDenormals(x float64) float64 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0
	}

	return x
}

// Sanitize maps NaN to 0, clamps infinities and out-of-range values to
// ±SafeAmplitude and flushes denormals.
func Sanitize(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}

	if x > SafeAmplitude {
		return SafeAmplitude
	}

	if x < -SafeAmplitude {
		return -SafeAmplitude
	}

	return FlushDenormals(x)
}

// DBToLinear converts dB to linear amplitude (20*log10 convention).
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDB converts linear amplitude to dB (20*log10 convention).
// The magnitude of the input is floored to LevelFloor, so the result is
// always finite for finite input.
func LinearToDB(linear float64) float64 {
	linear = math.Abs(linear)
	if linear < LevelFloor || math.IsNaN(linear) {
		linear = LevelFloor
	}

	return 20 * math.Log10(linear)
}

// SemitonesToRatio converts a pitch offset in semitones to a frequency ratio.
func SemitonesToRatio(semitones float64) float64 {
	return math.Pow(2, semitones/12)
}

// MillisToSamples converts a duration in milliseconds to a whole number of
// samples at sampleRate, never returning less than min.
func MillisToSamples(ms, sampleRate float64, min int) int {
	n := int(math.Round(ms * 0.001 * sampleRate))
	if n < min {
		return min
	}

	return n
}
