package testutil

import (
	"fmt"
	"math"
	"testing"
)

// RequireSliceNearlyEqual fails t unless got and want have the same length
// and every pair differs by at most eps.
func RequireSliceNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i, g := range got {
		if d := math.Abs(g - want[i]); d > eps {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, g, want[i], d, eps)
		}
	}
}

// RequireFinite fails t on the first NaN or Inf in data.
func RequireFinite(t *testing.T, data []float64) {
	t.Helper()
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

// RequireSilent fails t unless every sample is exactly zero.
func RequireSilent(t *testing.T, data []float64) {
	t.Helper()
	for i, v := range data {
		if v != 0 {
			t.Fatalf("index %d: got %v, want silence", i, v)
		}
	}
}

// RequirePeakAtMost fails t if any sample magnitude exceeds limit.
func RequirePeakAtMost(t *testing.T, data []float64, limit float64) {
	t.Helper()
	RequireFinite(t, data)
	if p := Peak(data); p > limit {
		t.Fatalf("peak %v exceeds %v", p, limit)
	}
}

// Peak returns the largest sample magnitude.
func Peak(data []float64) float64 {
	p := 0.0
	for _, v := range data {
		p = max(p, math.Abs(v))
	}
	return p
}

// RMS returns the root mean square of data, or 0 for an empty slice.
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	var sum float64
	for _, v := range data {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(data)))
}

// MaxAbsDiff returns the largest element-wise difference between a and b.
func MaxAbsDiff(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(a), len(b))
	}
	d := 0.0
	for i := range a {
		d = max(d, math.Abs(a[i]-b[i]))
	}
	return d, nil
}
