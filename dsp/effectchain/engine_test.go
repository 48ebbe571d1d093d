package effectchain

import (
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/cwbudde/algo-voicefx/dsp/effects"
	"github.com/cwbudde/algo-voicefx/dsp/effects/voice"
	"github.com/cwbudde/algo-voicefx/internal/testutil"
)

const testRate = 48000.0

func newTestEngine(t *testing.T, p *Preset, channels int) *Engine {
	t.Helper()

	e := NewEngine(WithLogger(quietLogger()), WithPreset(p))
	if err := e.Prepare(testRate, channels); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	return e
}

func everyKindPreset() *Preset {
	stages := make([]Stage, 0, len(RegisteredKinds()))
	for _, k := range RegisteredKinds() {
		def, _ := DefaultParams(k)
		stages = append(stages, NewStage(def))
	}
	return NewPreset("everything", stages...)
}

func TestEngineProcessBeforePrepareIsNoOp(t *testing.T) {
	t.Parallel()

	e := NewEngine(WithLogger(quietLogger()))
	if e.State() != StateUnprepared {
		t.Fatalf("State() = %s, want unprepared", e.State())
	}

	in := testutil.DeterministicNoise(1, 0.5, 512)
	buf := append([]float64(nil), in...)
	e.Process(buf)
	testutil.RequireSliceNearlyEqual(t, buf, in, 0)

	pcm := []int16{1, -2, 3}
	e.ProcessPCM16(pcm)
	if !reflect.DeepEqual(pcm, []int16{1, -2, 3}) {
		t.Fatalf("ProcessPCM16 before Prepare changed samples: %v", pcm)
	}

	e.Reset()
	if e.State() != StateUnprepared {
		t.Fatal("Reset moved an unprepared engine")
	}
}

func TestEngineStateMachine(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, NewPreset("gain", NewStage(effects.GainParams{Gain: 0.5})), 1)
	if e.State() != StatePrepared {
		t.Fatalf("State() = %s, want prepared", e.State())
	}

	e.Process(make([]float64, 64))
	if e.State() != StateProcessing {
		t.Fatalf("State() = %s, want processing", e.State())
	}

	e.Reset()
	if e.State() != StatePrepared {
		t.Fatalf("State() = %s after Reset, want prepared", e.State())
	}

	if err := e.Prepare(0, 1); !errors.Is(err, effects.ErrSampleRate) {
		t.Fatalf("Prepare(0) error = %v, want ErrSampleRate", err)
	}
	if err := e.Prepare(testRate, 0); !errors.Is(err, ErrChannels) {
		t.Fatalf("Prepare(channels=0) error = %v, want ErrChannels", err)
	}
	if e.Chain() == nil || e.Chain().SampleRate() != testRate {
		t.Fatal("failed Prepare replaced the chain")
	}
}

func TestEngineBypassIsBitIdentical(t *testing.T) {
	t.Parallel()

	p := everyKindPreset()
	for i := range p.Len() {
		p, _ = p.WithBypass(i, true)
	}
	e := newTestEngine(t, p, 1)
	if got := e.Stats().Effects; got != 0 {
		t.Fatalf("Stats().Effects = %d, want 0", got)
	}

	in := testutil.DeterministicNoise(2, 0.9, 4096)
	buf := append([]float64(nil), in...)
	e.Process(buf)
	for i := range in {
		if math.Float64bits(buf[i]) != math.Float64bits(in[i]) {
			t.Fatalf("sample %d changed: %v -> %v", i, in[i], buf[i])
		}
	}
}

func TestEngineSetBypassKeepsChain(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, NewPreset("gain", NewStage(effects.GainParams{Gain: 0.5})), 1)
	before := e.Chain()

	if err := e.SetBypass(0, true); err != nil {
		t.Fatalf("SetBypass: %v", err)
	}
	if e.Chain() != before {
		t.Fatal("SetBypass rebuilt the chain")
	}
	if st, _ := e.Preset().Stage(0); !st.Bypass {
		t.Fatal("preset not updated")
	}

	buf := []float64{1, 1}
	e.Process(buf)
	if buf[0] != 1 {
		t.Fatalf("bypassed gain changed signal: %v", buf)
	}

	if err := e.SetBypass(0, false); err != nil {
		t.Fatalf("SetBypass: %v", err)
	}
	e.Process(buf)
	if buf[0] != 0.5 {
		t.Fatalf("gain not applied after un-bypass: %v", buf)
	}

	if err := e.SetBypass(3, true); !errors.Is(err, ErrStageIndex) {
		t.Fatalf("SetBypass(3) error = %v, want ErrStageIndex", err)
	}
}

func TestEngineZeroInputStaysZero(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, everyKindPreset(), 1)
	buf := make([]float64, 8192)
	e.Process(buf)
	testutil.RequireSilent(t, buf)
}

func TestEngineOutputIsSanitized(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, NewPreset("unity", NewStage(effects.GainParams{Gain: 1})), 1)
	buf := []float64{math.NaN(), math.Inf(1), math.Inf(-1), 100, 0.5}
	e.Process(buf)

	want := []float64{0, 8, -8, 8, 0.5}
	testutil.RequireSliceNearlyEqual(t, buf, want, 0)

	if got := e.Stats().Sanitized; got != 3 {
		t.Fatalf("Stats().Sanitized = %d, want 3", got)
	}
}

func TestEngineBypassedChainIsBitIdentical(t *testing.T) {
	t.Parallel()

	gain := NewStage(effects.GainParams{Gain: 0.5})
	gain.Bypass = true

	for _, p := range []*Preset{NewPreset("dry"), NewPreset("bypassed", gain)} {
		t.Run(p.Name(), func(t *testing.T) {
			e := newTestEngine(t, p, 1)
			in := []float64{1e-35, 9, -0.5}
			buf := append([]float64(nil), in...)
			e.Process(buf)

			for i := range in {
				if math.Float64bits(buf[i]) != math.Float64bits(in[i]) {
					t.Fatalf("buf[%d] = %v, want %v", i, buf[i], in[i])
				}
			}

			e.SetGain(0.5)
			e.Process(buf)
			if want := []float64{0, 4.5, -0.25}; buf[0] != want[0] || buf[1] != want[1] || buf[2] != want[2] {
				t.Fatalf("with gain 0.5: %v, want %v", buf, want)
			}
		})
	}
}

func TestEngineUnknownStageIsSkipped(t *testing.T) {
	t.Parallel()

	presets, err := ParseDescriptor([]byte(`{"presets":[{"name":"mixed","effects":[
		{"kind":"gain","params":{"gain":0.5}},
		{"kind":"vocoder"},
		{"kind":"echo","params":{"delayMs":10}}
	]}]}`), FormatJSON)
	if err != nil {
		t.Fatalf("ParseDescriptor: %v", err)
	}

	e := newTestEngine(t, nil, 1)
	if err := e.ApplyPreset(presets[0]); err != nil {
		t.Fatalf("ApplyPreset: %v", err)
	}

	want := []effects.Kind{effects.KindGain, effects.KindEcho}
	if got := e.Kinds(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Kinds() = %v, want %v", got, want)
	}

	st := e.Stats()
	if st.Effects != 2 || st.SkippedStages != 1 || st.Preset != "mixed" {
		t.Fatalf("Stats() = %+v", st)
	}

	if e.Chain().Effect(0, 1) != nil {
		t.Fatal("skipped stage has an effect")
	}
	if fx := e.Chain().Effect(0, 2); fx == nil || fx.Kind() != effects.KindEcho {
		t.Fatalf("Effect(0, 2) = %v", fx)
	}
}

func TestEngineMisconfiguredStageIsSkipped(t *testing.T) {
	t.Parallel()

	p := NewPreset("mismatched",
		NewStage(effects.GainParams{Gain: 0.5}),
		Stage{Kind: effects.KindGain, Name: "gain", Params: effects.DefaultEchoParams()},
		NewStage(effects.DefaultEchoParams()),
	)

	e := newTestEngine(t, nil, 2)
	if err := e.ApplyPreset(p); err != nil {
		t.Fatalf("ApplyPreset: %v", err)
	}

	st := e.Stats()
	if st.Effects != 2 || st.SkippedStages != 1 || st.Preset != "mismatched" {
		t.Fatalf("Stats() = %+v", st)
	}
	for ch := range 2 {
		if e.Chain().Effect(ch, 1) != nil {
			t.Fatalf("channel %d: misconfigured stage has an effect", ch)
		}
	}

	_, skipped, err := BuildChain(p, testRate, 2, 0, quietLogger())
	if err != nil {
		t.Fatalf("BuildChain: %v", err)
	}
	if !reflect.DeepEqual(skipped, []int{1}) {
		t.Fatalf("skipped = %v, want [1]", skipped)
	}
}

func TestEngineEcho(t *testing.T) {
	t.Parallel()

	p := NewPreset("echo", NewStage(effects.EchoParams{DelayMs: 200, Feedback: 0.3, Mix: 0.25}))
	e := newTestEngine(t, p, 1)

	const delay = 9600
	buf := testutil.Impulse(4*delay, 0)
	e.Process(buf)

	want := map[int]float64{0: 0.75, delay: 0.25, 2 * delay: 0.075, 3 * delay: 0.0225}
	for i, v := range buf {
		if w, ok := want[i]; ok {
			if math.Abs(v-w) > 1e-12 {
				t.Fatalf("sample %d = %v, want %v", i, v, w)
			}
			continue
		}
		if math.Abs(v) > 1e-12 {
			t.Fatalf("unexpected energy %v at %d", v, i)
		}
	}
}

func TestEngineResetMatchesFresh(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"stadium", "deep", "robot", "echo"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			p, err := DefaultLibrary().Get(name)
			if err != nil {
				t.Fatal(err)
			}

			used := newTestEngine(t, p, 1)
			used.Process(testutil.DeterministicNoise(4, 0.8, 12000))
			used.Reset()

			fresh := newTestEngine(t, p, 1)

			ref := testutil.DeterministicSine(330, testRate, 0.6, 6000)
			a := append([]float64(nil), ref...)
			b := append([]float64(nil), ref...)
			used.Process(a)
			fresh.Process(b)

			testutil.RequireSliceNearlyEqual(t, a, b, 1e-12)
		})
	}
}

func TestEngineSelectPreset(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, nil, 1)

	if err := e.SelectPreset("megaphone"); err != nil {
		t.Fatalf("SelectPreset: %v", err)
	}
	before := e.Chain()
	if e.Preset().Name() != "megaphone" {
		t.Fatalf("Preset() = %q", e.Preset().Name())
	}

	if err := e.SelectPreset("opera"); !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("SelectPreset(opera) error = %v, want ErrUnknownPreset", err)
	}
	if e.Chain() != before || e.Preset().Name() != "megaphone" {
		t.Fatal("unknown preset replaced the chain")
	}

	if got := e.Stats().PresetSwaps; got != 1 {
		t.Fatalf("PresetSwaps = %d, want 1", got)
	}

	if err := e.ApplyPreset(nil); !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("ApplyPreset(nil) error = %v", err)
	}
}

func TestEnginePresetBeforePrepare(t *testing.T) {
	t.Parallel()

	e := NewEngine(WithLogger(quietLogger()))
	if err := e.SelectPreset("robot"); err != nil {
		t.Fatalf("SelectPreset: %v", err)
	}
	if e.Chain() != nil {
		t.Fatal("chain built before Prepare")
	}
	if err := e.Prepare(testRate, 1); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if got := e.Chain().Preset().Name(); got != "robot" {
		t.Fatalf("prepared preset = %q, want robot", got)
	}
}

func TestEngineSetParameter(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, NewPreset("echo", NewStage(effects.DefaultEchoParams())), 1)

	if err := e.SetParameter(0, "delayMs", 100); err != nil {
		t.Fatalf("SetParameter: %v", err)
	}
	echo, ok := e.Chain().Effect(0, 0).(*effects.Echo)
	if !ok {
		t.Fatalf("stage 0 is %T", e.Chain().Effect(0, 0))
	}
	if got := echo.DelaySamples(); got != 4800 {
		t.Fatalf("DelaySamples() = %d, want 4800", got)
	}

	if err := e.SetParameter(0, "feedback", 5); err != nil {
		t.Fatalf("SetParameter: %v", err)
	}
	echo = e.Chain().Effect(0, 0).(*effects.Echo)
	if got := echo.Params().Feedback; got != 0.95 {
		t.Fatalf("Feedback = %v, want clamped 0.95", got)
	}

	if err := e.SetParameter(0, "drive", 1); !errors.Is(err, ErrUnknownParam) {
		t.Fatalf("SetParameter(drive) error = %v, want ErrUnknownParam", err)
	}
	if err := e.SetParameter(4, "mix", 1); !errors.Is(err, ErrStageIndex) {
		t.Fatalf("SetParameter(4) error = %v, want ErrStageIndex", err)
	}
}

func TestEngineGain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		set  float64
		want float64
	}{
		{"unity", 1, 1},
		{"half", 0.5, 0.5},
		{"silence", 0, 0},
		{"clamped", 10, 2},
		{"nan", math.NaN(), 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			e := newTestEngine(t, nil, 1)
			e.SetGain(tc.set)
			if e.Gain() != tc.want {
				t.Fatalf("Gain() = %v, want %v", e.Gain(), tc.want)
			}

			in := testutil.DeterministicSine(440, testRate, 0.25, 256)
			buf := append([]float64(nil), in...)
			e.Process(buf)
			for i := range in {
				if buf[i] != in[i]*tc.want {
					t.Fatalf("sample %d = %v, want %v", i, buf[i], in[i]*tc.want)
				}
			}
		})
	}
}

func TestEngineProcessRange(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, NewPreset("gain", NewStage(effects.GainParams{Gain: 0})), 1)

	buf := testutil.Ones(10)
	e.ProcessRange(buf, 2, 3)
	want := []float64{1, 1, 0, 0, 0, 1, 1, 1, 1, 1}
	testutil.RequireSliceNearlyEqual(t, buf, want, 0)

	buf = testutil.Ones(4)
	e.ProcessRange(buf, 3, 100)
	testutil.RequireSliceNearlyEqual(t, buf, []float64{1, 1, 1, 0}, 0)

	buf = testutil.Ones(4)
	e.ProcessRange(buf, -1, 2)
	e.ProcessRange(buf, 4, 2)
	e.ProcessRange(buf, 0, 0)
	testutil.RequireSliceNearlyEqual(t, buf, testutil.Ones(4), 0)
}

func TestEngineProcessPCM16(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, NewPreset("dry"), 1)

	samples := make([]int16, 5000)
	for i := range samples {
		samples[i] = int16(i*13 - 32768)
	}
	want := append([]int16(nil), samples...)
	e.ProcessPCM16(samples)
	if !reflect.DeepEqual(samples, want) {
		t.Fatal("dry PCM16 processing is not the identity")
	}

	e.SetGain(0.5)
	pcm := []int16{1000, -1000, 32767}
	e.ProcessPCM16(pcm)
	if !reflect.DeepEqual(pcm, []int16{500, -500, 16384}) {
		t.Fatalf("half gain = %v", pcm)
	}

	data := []byte{0xe8, 0x03, 0x18, 0xfc, 0x7f} // 1000, -1000, trailing byte
	e.ProcessPCM16Bytes(data)
	if !reflect.DeepEqual(data, []byte{0xf4, 0x01, 0x0c, 0xfe, 0x7f}) {
		t.Fatalf("half gain bytes = %x", data)
	}
}

func TestEngineStereoLanes(t *testing.T) {
	t.Parallel()

	p := NewPreset("stereo",
		NewStage(voice.DefaultRobotParams()),
		NewStage(effects.DefaultEchoParams()),
	)
	e := NewEngine(WithLogger(quietLogger()), WithPreset(p), WithMaxBlock(64))
	if err := e.Prepare(testRate, 2); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if e.Chain().MaxBlock() != 64 || e.Chain().Channels() != 2 {
		t.Fatalf("chain format = %d ch, %d block", e.Chain().Channels(), e.Chain().MaxBlock())
	}

	mono := testutil.DeterministicSine(220, testRate, 0.5, 3001)
	ref := newTestEngine(t, p, 1)
	monoOut := append([]float64(nil), mono...)
	ref.Process(monoOut)

	left := make([]float64, 2*len(mono)+1)
	for i, v := range mono {
		left[2*i] = v
	}
	left[len(left)-1] = 0.125
	e.Process(left)

	for i := range mono {
		if math.Abs(left[2*i]-monoOut[i]) > 1e-12 {
			t.Fatalf("left frame %d = %v, mono %v", i, left[2*i], monoOut[i])
		}
		if left[2*i+1] != 0 {
			t.Fatalf("silent right channel produced %v at frame %d", left[2*i+1], i)
		}
	}
	if left[len(left)-1] != 0.125 {
		t.Fatal("trailing partial frame was modified")
	}
}

func TestEngineProcessDoesNotAllocate(t *testing.T) {
	e := newTestEngine(t, everyKindPreset(), 1)
	buf := testutil.DeterministicNoise(5, 0.3, 512)
	pcm := make([]int16, 512)

	allocs := testing.AllocsPerRun(50, func() {
		e.Process(buf)
		e.ProcessPCM16(pcm)
	})
	if allocs != 0 {
		t.Fatalf("Process allocated %v times per run", allocs)
	}
}

func TestEngineConcurrentPresetSwap(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, nil, 1)
	names := e.Library().Names()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range 40 {
			_ = e.SelectPreset(names[i%len(names)])
			e.SetGain(float64(i%3) * 0.5)
		}
	}()

	buf := make([]float64, 256)
	for i := range 200 {
		copy(buf, testutil.DeterministicSine(300, testRate, 0.5, len(buf)))
		e.Process(buf)
		testutil.RequireFinite(t, buf)
		if i%50 == 0 {
			e.Reset()
		}
	}
	wg.Wait()

	if got := e.Stats().Buffers; got != 200 {
		t.Fatalf("Buffers = %d, want 200", got)
	}
}
