package effectchain

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-vecmath"
	"github.com/cwbudde/algo-voicefx/dsp/buffer"
	"github.com/cwbudde/algo-voicefx/dsp/core"
	"github.com/cwbudde/algo-voicefx/dsp/effects"
)

const (
	defaultGain = 1.0
	minGain     = 0.0
	maxGain     = 2.0
)

// ErrChannels is returned by Prepare for unsupported channel counts.
var ErrChannels = errors.New("effectchain: channel count must be in [1, 8]")

// State is the engine lifecycle state.
type State int32

const (
	StateUnprepared State = iota
	StatePrepared
	StateProcessing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnprepared:
		return "unprepared"
	case StatePrepared:
		return "prepared"
	case StateProcessing:
		return "processing"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Stats is a point-in-time view of the engine counters.
type Stats struct {
	State         State
	Preset        string
	SampleRate    float64
	Channels      int
	Effects       int
	Gain          float64
	Buffers       uint64
	Samples       uint64
	Sanitized     uint64
	PresetSwaps   uint64
	SkippedStages uint64
	Resets        uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used by control operations.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithLibrary sets the preset library used by SelectPreset.
func WithLibrary(l *Library) Option {
	return func(e *Engine) {
		if l != nil {
			e.library = l
		}
	}
}

// WithMaxBlock sets the de-interleave block size in frames for
// multi-channel processing.
func WithMaxBlock(frames int) Option {
	return func(e *Engine) { e.maxBlock = frames }
}

// WithPreset sets the preset applied at Prepare.
func WithPreset(p *Preset) Option {
	return func(e *Engine) {
		if p != nil {
			e.preset = p
		}
	}
}

// Engine runs a preset chain over audio buffers.
//
// Control methods (Prepare, ApplyPreset, SelectPreset, SetBypass,
// SetParameter, SetGain, Reset) may be called from any goroutine and are
// serialised among themselves. Process, ProcessRange and ProcessPCM16 are
// meant for a single audio goroutine: they never lock or allocate, and
// they see either the chain before or after a concurrent preset change,
// never a mix. Changes take effect at the start of the next buffer.
//
// Output is sanitised after the chain and master gain: NaN becomes 0,
// values are clamped to ±core.SafeAmplitude and denormals are flushed.
// When every stage is bypassed (or the chain is empty) and the gain is
// unity, the buffer is passed through bit-identical instead.
type Engine struct {
	mu       sync.Mutex
	logger   *slog.Logger
	library  *Library
	maxBlock int

	// guarded by mu
	preset     *Preset
	sampleRate float64
	channels   int

	chain        atomic.Pointer[Chain]
	state        atomic.Int32
	gainBits     atomic.Uint64
	resetPending atomic.Bool

	buffers       atomic.Uint64
	samples       atomic.Uint64
	sanitized     atomic.Uint64
	presetSwaps   atomic.Uint64
	skippedStages atomic.Uint64
	resets        atomic.Uint64
}

// NewEngine returns an unprepared engine with an empty preset, the default
// library and unity gain.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger:   slog.Default(),
		maxBlock: defaultMaxBlock,
		preset:   NewPreset("dry"),
	}
	e.gainBits.Store(math.Float64bits(defaultGain))

	for _, opt := range opts {
		opt(e)
	}

	if e.library == nil {
		e.library = DefaultLibrary()
	}

	return e
}

// Library returns the preset library.
func (e *Engine) Library() *Library { return e.library }

// State returns the lifecycle state.
func (e *Engine) State() State { return State(e.state.Load()) }

// Chain returns the published chain, or nil before Prepare.
func (e *Engine) Chain() *Chain { return e.chain.Load() }

// Preset returns the current preset, including bypass and parameter edits.
func (e *Engine) Preset() *Preset {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.preset
}

// Gain returns the master gain.
func (e *Engine) Gain() float64 { return math.Float64frombits(e.gainBits.Load()) }

// SetGain sets the linear master gain applied after the chain, clamped to
// [0, 2]. Non-finite values restore unity.
func (e *Engine) SetGain(g float64) {
	e.gainBits.Store(math.Float64bits(core.ClampOr(g, defaultGain, minGain, maxGain)))
}

// Prepare builds the current preset for sampleRate and channels and moves
// the engine to the prepared state. It may be called again to change the
// session format.
func (e *Engine) Prepare(sampleRate float64, channels int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.build(e.preset, sampleRate, channels)
	if err != nil {
		return err
	}

	e.sampleRate = sampleRate
	e.channels = channels
	e.resetPending.Store(false)
	e.chain.Store(c)
	e.state.Store(int32(StatePrepared))

	e.logger.Debug("effectchain: engine prepared",
		"preset", e.preset.Name(), "sample_rate", sampleRate, "channels", channels, "effects", c.Len())
	return nil
}

// ApplyPreset builds p off the audio path and publishes it with a single
// pointer swap. Before Prepare the preset is only stored.
func (e *Engine) ApplyPreset(p *Preset) error {
	if p == nil {
		return fmt.Errorf("%w: nil preset", ErrUnknownPreset)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.applyLocked(p)
}

// SelectPreset applies the library preset called name. An unknown name is
// logged and returned; the current chain stays active.
func (e *Engine) SelectPreset(name string) error {
	p, err := e.library.Get(name)
	if err != nil {
		e.logger.Warn("effectchain: preset not found, keeping current chain", "preset", name)
		return err
	}
	return e.ApplyPreset(p)
}

// SetBypass toggles stage i of the current preset. The live chain is
// updated in place, so effect state such as a reverb tail is kept.
func (e *Engine) SetBypass(stage int, bypass bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	np, err := e.preset.WithBypass(stage, bypass)
	if err != nil {
		return err
	}
	e.preset = np

	if c := e.chain.Load(); c != nil {
		c.SetBypass(stage, bypass)
	}
	return nil
}

// SetParameter changes one parameter of stage i. A new preset is derived
// and applied, so the stage restarts from silence.
func (e *Engine) SetParameter(stage int, key string, value float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	np, err := e.preset.WithParameter(stage, key, value)
	if err != nil {
		return err
	}
	return e.applyLocked(np)
}

// Reset requests that every effect clears its state before the next
// buffer. Nothing is reallocated.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.State() == StateUnprepared {
		return
	}
	e.resetPending.Store(true)
	e.state.Store(int32(StatePrepared))
	e.resets.Add(1)
}

// Stats returns the current counters.
func (e *Engine) Stats() Stats {
	st := Stats{
		State:         e.State(),
		Gain:          e.Gain(),
		Buffers:       e.buffers.Load(),
		Samples:       e.samples.Load(),
		Sanitized:     e.sanitized.Load(),
		PresetSwaps:   e.presetSwaps.Load(),
		SkippedStages: e.skippedStages.Load(),
		Resets:        e.resets.Load(),
	}

	e.mu.Lock()
	st.Preset = e.preset.Name()
	st.SampleRate = e.sampleRate
	st.Channels = e.channels
	e.mu.Unlock()

	if c := e.chain.Load(); c != nil {
		st.Effects = c.Active()
	}
	return st
}

// Process transforms buf, interleaved with the prepared channel count, in
// place. Before Prepare it leaves buf unchanged.
func (e *Engine) Process(buf []float64) {
	c := e.chain.Load()
	if c == nil || len(buf) == 0 {
		return
	}
	e.run(c, buf)
	e.buffers.Add(1)
}

// ProcessRange processes count samples of buf starting at offset. Ranges
// reaching past the end of buf are shortened; invalid ranges are ignored.
func (e *Engine) ProcessRange(buf []float64, offset, count int) {
	if offset < 0 || count <= 0 || offset >= len(buf) {
		return
	}
	e.Process(buf[offset:min(offset+count, len(buf))])
}

// ProcessPCM16 converts samples to float, processes them and writes them
// back with clamping.
func (e *Engine) ProcessPCM16(samples []int16) {
	c := e.chain.Load()
	if c == nil || len(samples) == 0 {
		return
	}

	for start := 0; start < len(samples); start += len(c.pcm) {
		block := samples[start:min(start+len(c.pcm), len(samples))]
		n := buffer.ToFloat(c.pcm, block)
		e.run(c, c.pcm[:n])
		buffer.ToPCM16(block, c.pcm[:n])
	}
	e.buffers.Add(1)
}

// ProcessPCM16Bytes processes little-endian PCM16 bytes in place. A
// trailing odd byte is left untouched.
func (e *Engine) ProcessPCM16Bytes(data []byte) {
	c := e.chain.Load()
	if c == nil || len(data) < 2 {
		return
	}

	step := len(c.pcm) * 2
	for start := 0; start+1 < len(data); start += step {
		block := data[start:min(start+step, len(data))]
		n := buffer.BytesToFloat(c.pcm, block)
		e.run(c, c.pcm[:n])
		buffer.FloatToBytes(block, c.pcm[:n])
	}
	e.buffers.Add(1)
}

func (e *Engine) run(c *Chain, buf []float64) {
	if e.resetPending.Swap(false) {
		c.Reset()
	}
	e.state.CompareAndSwap(int32(StatePrepared), int32(StateProcessing))

	c.Process(buf)

	g := e.Gain()
	if g != 1 {
		vecmath.ScaleBlock(buf, buf, g)
	} else if c.Active() == 0 {
		e.samples.Add(uint64(len(buf)))
		return
	}

	var bad uint64
	for i, x := range buf {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			bad++
		}
		buf[i] = core.Sanitize(x)
	}
	if bad > 0 {
		e.sanitized.Add(bad)
	}
	e.samples.Add(uint64(len(buf)))
}

func (e *Engine) applyLocked(p *Preset) error {
	if e.State() == StateUnprepared {
		e.preset = p
		e.logger.Debug("effectchain: preset stored until prepare", "preset", p.Name())
		return nil
	}

	c, err := e.build(p, e.sampleRate, e.channels)
	if err != nil {
		return err
	}

	e.preset = p
	e.chain.Store(c)
	e.resetPending.Store(false)
	e.presetSwaps.Add(1)

	e.logger.Info("effectchain: preset applied", "preset", p.Name(), "effects", c.Len())
	return nil
}

func (e *Engine) build(p *Preset, sampleRate float64, channels int) (*Chain, error) {
	c, skipped, err := BuildChain(p, sampleRate, channels, e.maxBlock, e.logger)
	if err != nil {
		return nil, err
	}
	if len(skipped) > 0 {
		e.skippedStages.Add(uint64(len(skipped)))
	}
	return c, nil
}

// Kinds returns the kinds of the active chain in processing order.
func (e *Engine) Kinds() []effects.Kind {
	c := e.chain.Load()
	if c == nil {
		return nil
	}
	return c.Kinds()
}
