package spectrum

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-voicefx/internal/testutil"
)

func TestDominantFrequency(t *testing.T) {
	const fs = 48000.0

	for _, freq := range []float64{110, 440, 880, 1234.5, 5000} {
		sig := testutil.DeterministicSine(freq, fs, 0.5, 48000)
		got, err := DominantFrequency(sig, fs)
		if err != nil {
			t.Fatalf("DominantFrequency: %v", err)
		}
		if math.Abs(got-freq) > 0.5 {
			t.Fatalf("freq %v: got %v", freq, got)
		}
	}
}

func TestDominantFrequencyTooShort(t *testing.T) {
	_, err := DominantFrequency(make([]float64, 8), 48000)
	if !errors.Is(err, ErrTooShort) {
		t.Fatalf("err = %v, want ErrTooShort", err)
	}
}

func TestAnalyzerAmplitude(t *testing.T) {
	const (
		fs   = 48000.0
		size = 4096
	)
	a, err := NewAnalyzer(size, fs)
	if err != nil {
		t.Fatal(err)
	}
	// Exactly on bin 100.
	freq := 100 * a.BinHz()
	sig := testutil.DeterministicSine(freq, fs, 0.25, size)

	p, err := a.Dominant(sig)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(p.Amplitude-0.25) > 1e-3 {
		t.Fatalf("amplitude = %v, want 0.25", p.Amplitude)
	}
	if math.Abs(p.FrequencyHz-freq) > 1e-6*freq {
		t.Fatalf("frequency = %v, want %v", p.FrequencyHz, freq)
	}
}

func TestAnalyzerZeroPadsShortInput(t *testing.T) {
	a, err := NewAnalyzer(1024, 48000)
	if err != nil {
		t.Fatal(err)
	}
	mag, err := a.Magnitudes(make([]float64, 10))
	if err != nil {
		t.Fatal(err)
	}
	if len(mag) != 513 {
		t.Fatalf("len = %d, want 513", len(mag))
	}
	for i, v := range mag {
		if v != 0 {
			t.Fatalf("mag[%d] = %v, want 0", i, v)
		}
	}
}

func TestNewAnalyzerValidation(t *testing.T) {
	tests := []struct {
		name string
		size int
		fs   float64
	}{
		{"not power of two", 1000, 48000},
		{"too small", 8, 48000},
		{"zero rate", 1024, 0},
		{"nan rate", 1024, math.NaN()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewAnalyzer(tc.size, tc.fs); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestMagnitudeFromParts(t *testing.T) {
	in := []complex128{3 + 4i, -1, 2i}
	re := make([]float64, len(in))
	im := make([]float64, len(in))
	splitComplex(re, im, in)

	got := make([]float64, len(in))
	MagnitudeFromParts(got, re, im)
	testutil.RequireSliceNearlyEqual(t, got, []float64{5, 1, 2}, 1e-12)
}
