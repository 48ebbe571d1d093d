package spectrum

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-voicefx/internal/testutil"
)

func TestToneAmplitude(t *testing.T) {
	const fs = 48000.0
	sig := testutil.DeterministicSine(1000, fs, 0.3, 4800)
	for i, v := range testutil.DeterministicSine(3000, fs, 0.1, 4800) {
		sig[i] += v
	}

	tests := []struct {
		freq float64
		want float64
	}{
		{1000, 0.3},
		{3000, 0.1},
		{2000, 0},
	}
	for _, tc := range tests {
		got, err := ToneAmplitude(sig, tc.freq, fs)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-tc.want) > 1e-6 {
			t.Fatalf("amplitude at %v = %v, want %v", tc.freq, got, tc.want)
		}
	}
}

func TestGoertzelValidation(t *testing.T) {
	if _, err := NewGoertzel(30000, 48000); err == nil {
		t.Fatal("expected error above Nyquist")
	}
	if _, err := NewGoertzel(1000, -1); err == nil {
		t.Fatal("expected error for negative rate")
	}
}

func TestGoertzelReset(t *testing.T) {
	g, err := NewGoertzel(440, 44100)
	if err != nil {
		t.Fatal(err)
	}
	g.ProcessBlock(testutil.DeterministicSine(440, 44100, 1, 441))
	g.Reset()
	if g.Amplitude() != 0 {
		t.Fatalf("Amplitude after Reset = %v", g.Amplitude())
	}
}
