package voice

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-voicefx/dsp/effects"
	"github.com/cwbudde/algo-voicefx/dsp/spectrum"
	"github.com/cwbudde/algo-voicefx/internal/testutil"
)

const testRate = 48000.0

func voices() map[string]func() effects.Effect {
	return map[string]func() effects.Effect{
		"robot": func() effects.Effect { return NewRobot() },
		"robot_oct": func() effects.Effect {
			r := NewRobot()
			_ = r.Configure(RobotParams{CarrierHz: 80, Octaves: -1, Intensity: 0.7})
			return r
		},
		"megaphone": func() effects.Effect { return NewMegaphone() },
		"reverb":    func() effects.Effect { return NewReverb() },
		"deep":      func() effects.Effect { return NewDeep() },
		"helium":    func() effects.Effect { return NewHelium() },
	}
}

func mustPrepare(t *testing.T, e effects.Effect) {
	t.Helper()
	if err := e.Prepare(testRate); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
}

func TestVoiceBypassIsBitIdentical(t *testing.T) {
	for name, mk := range voices() {
		t.Run(name, func(t *testing.T) {
			e := mk()
			mustPrepare(t, e)
			e.SetBypass(true)

			in := testutil.DeterministicNoise(1, 0.9, 4096)
			buf := append([]float64(nil), in...)
			e.Process(buf)
			for i := range in {
				if math.Float64bits(buf[i]) != math.Float64bits(in[i]) {
					t.Fatalf("sample %d changed", i)
				}
			}
		})
	}
}

func TestVoiceZeroInZeroOut(t *testing.T) {
	for name, mk := range voices() {
		t.Run(name, func(t *testing.T) {
			e := mk()
			mustPrepare(t, e)
			buf := make([]float64, 9600)
			e.Process(buf)
			testutil.RequireSilent(t, buf)
		})
	}
}

func TestVoiceLoudInputStaysFinite(t *testing.T) {
	for name, mk := range voices() {
		t.Run(name, func(t *testing.T) {
			e := mk()
			mustPrepare(t, e)
			buf := testutil.DeterministicNoise(2, 4, 48000)
			e.Process(buf)
			testutil.RequireFinite(t, buf)
		})
	}
}

func TestVoiceResetMatchesFreshInstance(t *testing.T) {
	for name, mk := range voices() {
		t.Run(name, func(t *testing.T) {
			used := mk()
			mustPrepare(t, used)
			used.Process(testutil.DeterministicSine(220, testRate, 0.8, 12000))
			used.Reset()

			fresh := mk()
			mustPrepare(t, fresh)

			ref := testutil.DeterministicNoise(3, 0.5, 8192)
			a := append([]float64(nil), ref...)
			b := append([]float64(nil), ref...)
			used.Process(a)
			fresh.Process(b)
			testutil.RequireSliceNearlyEqual(t, a, b, 0)
		})
	}
}

func TestVoiceUnpreparedIsNoOp(t *testing.T) {
	for name, mk := range voices() {
		t.Run(name, func(t *testing.T) {
			in := testutil.DeterministicNoise(4, 0.5, 512)
			buf := append([]float64(nil), in...)
			mk().Process(buf)
			testutil.RequireSliceNearlyEqual(t, buf, in, 0)
		})
	}
}

func TestVoiceProcessDoesNotAllocate(t *testing.T) {
	for name, mk := range voices() {
		t.Run(name, func(t *testing.T) {
			e := mk()
			mustPrepare(t, e)
			buf := testutil.DeterministicNoise(5, 0.5, 960)
			allocs := testing.AllocsPerRun(20, func() {
				e.Process(buf)
			})
			if allocs != 0 {
				t.Fatalf("allocs = %v, want 0", allocs)
			}
		})
	}
}

func TestVoiceConfigureMismatch(t *testing.T) {
	for name, mk := range voices() {
		t.Run(name, func(t *testing.T) {
			err := mk().Configure(effects.GainParams{Gain: 1})
			if !errors.Is(err, effects.ErrParamsMismatch) {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestRobotRingModulation(t *testing.T) {
	r := NewRobot()
	mustPrepare(t, r)
	if err := r.Configure(RobotParams{CarrierHz: 100, Intensity: 1}); err != nil {
		t.Fatal(err)
	}

	buf := testutil.DeterministicSine(1000, testRate, 1, 4800)
	r.Process(buf)

	tests := []struct {
		freq, want float64
	}{
		{900, 0.5},
		{1100, 0.5},
		{1000, 0},
	}
	for _, tc := range tests {
		got, err := spectrum.ToneAmplitude(buf, tc.freq, testRate)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-tc.want) > 0.01 {
			t.Fatalf("amplitude at %v Hz = %v, want %v", tc.freq, got, tc.want)
		}
	}
}

func TestRobotParamsClamp(t *testing.T) {
	p := RobotParams{CarrierHz: 5, Octaves: 1.6, Intensity: 3}.Clamped()
	if p.CarrierHz != 20 || p.Octaves != 1 || p.Intensity != 1 {
		t.Fatalf("clamped = %+v", p)
	}
	p = RobotParams{Octaves: -0.4, CarrierHz: math.NaN()}.Clamped()
	if p.Octaves != 0 || p.CarrierHz != DefaultRobotParams().CarrierHz {
		t.Fatalf("clamped = %+v", p)
	}
}

func TestMegaphoneBandLimits(t *testing.T) {
	level := func(freq float64) float64 {
		m := NewMegaphone()
		mustPrepare(t, m)
		if err := m.Configure(MegaphoneParams{Drive: 0, LowCutHz: 500, HighCutHz: 3500, ResonanceHz: 1800}); err != nil {
			t.Fatal(err)
		}
		buf := testutil.DeterministicSine(freq, testRate, 0.05, 9600)
		m.Process(buf)
		amp, err := spectrum.ToneAmplitude(buf[4800:], freq, testRate)
		if err != nil {
			t.Fatal(err)
		}
		return amp
	}

	mid := level(1500)
	if low := level(60); low > mid*0.05 {
		t.Fatalf("60 Hz level %v not attenuated against %v", low, mid)
	}
	if high := level(15000); high > mid*0.05 {
		t.Fatalf("15 kHz level %v not attenuated against %v", high, mid)
	}
}

func TestMegaphoneShaperBounded(t *testing.T) {
	m := NewMegaphone()
	if err := m.Configure(MegaphoneParams{Drive: 1}); err != nil {
		t.Fatal(err)
	}
	if got := m.Shape(1); math.Abs(got-1) > 1e-12 {
		t.Fatalf("Shape(1) = %v, want 1", got)
	}
	if got := m.Shape(100); got > 1.0001 {
		t.Fatalf("Shape(100) = %v exceeds normalised bound", got)
	}
	if m.Shape(0) != 0 {
		t.Fatal("Shape(0) != 0")
	}
}

func TestReverbAddsTail(t *testing.T) {
	r := NewReverb()
	mustPrepare(t, r)
	if err := r.Configure(ReverbParams{RoomSize: 0.9, Decay: 0.9, Damping: 0.2, Mix: 0.5, PresenceDB: 0}); err != nil {
		t.Fatal(err)
	}

	buf := testutil.DeterministicSine(300, testRate, 0.5, 4800)
	buf = append(buf, make([]float64, 24000)...)
	r.Process(buf)
	testutil.RequireFinite(t, buf)

	tail := 0.0
	for _, v := range buf[9600:] {
		tail += v * v
	}
	if tail == 0 {
		t.Fatal("reverb produced no tail after input stopped")
	}

	r.Reset()
	silent := make([]float64, 4800)
	r.Process(silent)
	for i, v := range silent {
		if v != 0 {
			t.Fatalf("tail survived Reset at %d: %v", i, v)
		}
	}
}

func pitchOf(t *testing.T, e effects.Effect, inHz float64) float64 {
	t.Helper()
	mustPrepare(t, e)
	buf := testutil.DeterministicSine(inHz, testRate, 0.3, 48000)
	e.Process(buf)
	got, err := spectrum.DominantFrequency(buf[9600:], testRate)
	if err != nil {
		t.Fatal(err)
	}
	return got
}

func TestDeepLowersPitch(t *testing.T) {
	d := NewDeep()
	if err := d.Configure(DeepParams{Semitones: -12, FormantPercent: -10, BassBoostDB: 4, PresenceCutDB: -3, GrainMs: 50}); err != nil {
		t.Fatal(err)
	}
	got := pitchOf(t, d, 880)
	if math.Abs(got-440)/440 > 0.03 {
		t.Fatalf("dominant = %v Hz, want ~440", got)
	}
}

func TestHeliumRaisesPitch(t *testing.T) {
	h := NewHelium()
	if err := h.Configure(HeliumParams{Semitones: 12, FormantPercent: 15, BrightnessDB: 4, LowCutHz: 180, GrainMs: 50}); err != nil {
		t.Fatal(err)
	}
	got := pitchOf(t, h, 440)
	if math.Abs(got-880)/880 > 0.03 {
		t.Fatalf("dominant = %v Hz, want ~880", got)
	}
}

func TestPitchVoiceClamps(t *testing.T) {
	d := DeepParams{Semitones: 5, GrainMs: 1}.Clamped()
	if d.Semitones != 0 || d.GrainMs != 20 {
		t.Fatalf("deep clamped = %+v", d)
	}
	h := HeliumParams{Semitones: -3, FormantPercent: 90}.Clamped()
	if h.Semitones != 0 || h.FormantPercent != 40 {
		t.Fatalf("helium clamped = %+v", h)
	}
	if FormantScale(-80) != 0.6 || FormantScale(0) != 1 {
		t.Fatalf("FormantScale out of range")
	}
}

func TestFormantShiftTracksPitchRatio(t *testing.T) {
	tests := []struct {
		name    string
		percent float64
		ratio   float64
		want    float64
	}{
		{name: "unshifted", percent: 0, ratio: 1, want: 1},
		{name: "octave down", percent: 0, ratio: 0.5, want: math.Sqrt(0.5)},
		{name: "octave up", percent: 0, ratio: 2, want: math.Sqrt2},
		{name: "octave up clamped", percent: 20, ratio: 2, want: 1.4},
		{name: "trim only", percent: -10, ratio: 1, want: 0.9},
		{name: "invalid ratio", percent: 0, ratio: math.NaN(), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormantShift(tt.percent, tt.ratio); math.Abs(got-tt.want) > 1e-12 {
				t.Fatalf("FormantShift(%v, %v) = %v, want %v", tt.percent, tt.ratio, got, tt.want)
			}
		})
	}
}

func TestFormantFiltersFollowPitch(t *testing.T) {
	for _, semitones := range []float64{-3, -7, -12} {
		d := NewDeep()
		if err := d.Configure(DeepParams{Semitones: semitones, BassBoostDB: 4, PresenceCutDB: -3, GrainMs: 50}); err != nil {
			t.Fatal(err)
		}
		mustPrepare(t, d)

		scale := math.Pow(2, semitones/24)
		if got, want := d.shelf.Freq(), deepShelfHz*scale; math.Abs(got-want) > 1e-9 {
			t.Fatalf("deep %v st: shelf at %v Hz, want %v", semitones, got, want)
		}
		if got, want := d.formant.Freq(), deepFormantHz*scale; math.Abs(got-want) > 1e-9 {
			t.Fatalf("deep %v st: formant peak at %v Hz, want %v", semitones, got, want)
		}
	}

	for _, semitones := range []float64{3, 5} {
		h := NewHelium()
		if err := h.Configure(HeliumParams{Semitones: semitones, BrightnessDB: 4, LowCutHz: 180, GrainMs: 50}); err != nil {
			t.Fatal(err)
		}
		mustPrepare(t, h)

		scale := math.Pow(2, semitones/24)
		if got, want := h.shelf.Freq(), heliumShelfHz*scale; math.Abs(got-want) > 1e-9 {
			t.Fatalf("helium %v st: shelf at %v Hz, want %v", semitones, got, want)
		}
		if got, want := h.formant.Freq(), heliumFormantHz*scale; math.Abs(got-want) > 1e-9 {
			t.Fatalf("helium %v st: formant peak at %v Hz, want %v", semitones, got, want)
		}
	}
}
