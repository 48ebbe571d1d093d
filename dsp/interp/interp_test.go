package interp

import "testing"

func TestHermite4IdentityOnLinearRamp(t *testing.T) {
	xm1, x0, x1, x2 := -1.0, 0.0, 1.0, 2.0
	for _, tc := range []struct {
		t float64
		w float64
	}{
		{t: 0.0, w: 0.0},
		{t: 0.25, w: 0.25},
		{t: 0.5, w: 0.5},
		{t: 1.0, w: 1.0},
	} {
		got := Hermite4(tc.t, xm1, x0, x1, x2)
		if diff := got - tc.w; diff < -1e-12 || diff > 1e-12 {
			t.Fatalf("t=%v: got %v want %v", tc.t, got, tc.w)
		}
	}
}

func TestHermite4PassesThroughEndpoints(t *testing.T) {
	if got := Hermite4(0, 3, -2, 5, 7); got != -2 {
		t.Fatalf("t=0: got %v want -2", got)
	}
	if got := Hermite4(1, 3, -2, 5, 7); got != 5 {
		t.Fatalf("t=1: got %v want 5", got)
	}
}
