package effectchain

import (
	"fmt"
	"log/slog"

	"github.com/cwbudde/algo-voicefx/dsp/core"
	"github.com/cwbudde/algo-voicefx/dsp/effects"
)

const (
	defaultMaxBlock = 1024
	minMaxBlock     = 16
	maxMaxBlock     = 1 << 16
	maxChannels     = 8
)

// Chain is one built, prepared instance of a preset: an effect lane per
// channel, all effects in stage order. A chain is immutable once built
// except for effect state and bypass flags; it is published to the audio
// goroutine as a whole.
type Chain struct {
	preset     *Preset
	sampleRate float64
	channels   int
	maxBlock   int

	lanes [][]effects.Effect
	// slots maps a preset stage index to its position in each lane, or -1
	// for skipped stages.
	slots []int
	kinds []effects.Kind

	scratch []float64
	pcm     []float64
}

// BuildChain constructs, configures and prepares an effect lane per
// channel for preset p. Stages with an unknown kind, or whose parameters
// the effect rejects, are skipped and logged; their indexes are returned.
func BuildChain(p *Preset, sampleRate float64, channels, maxBlock int, logger *slog.Logger) (*Chain, []int, error) {
	if err := effects.CheckSampleRate(sampleRate); err != nil {
		return nil, nil, err
	}
	if channels < 1 || channels > maxChannels {
		return nil, nil, fmt.Errorf("%w: %d", ErrChannels, channels)
	}
	if maxBlock <= 0 {
		maxBlock = defaultMaxBlock
	}
	maxBlock = min(max(maxBlock, minMaxBlock), maxMaxBlock)
	if logger == nil {
		logger = slog.Default()
	}
	if p == nil {
		p = NewPreset("")
	}

	c := &Chain{
		preset:     p,
		sampleRate: sampleRate,
		channels:   channels,
		maxBlock:   maxBlock,
		lanes:      make([][]effects.Effect, channels),
		slots:      make([]int, p.Len()),
		scratch:    make([]float64, maxBlock),
		pcm:        make([]float64, maxBlock*channels),
	}

	var skipped []int
	for i, st := range p.stages {
		c.slots[i] = -1
		if !st.Known() {
			logger.Warn("effectchain: skipping unknown effect",
				"preset", p.Name(), "stage", i, "kind", st.Name)
			skipped = append(skipped, i)
			continue
		}

		fxs, err := newStageEffects(st, sampleRate, channels)
		if err != nil {
			logger.Warn("effectchain: skipping misconfigured effect",
				"preset", p.Name(), "stage", i, "kind", st.Kind, "error", err)
			skipped = append(skipped, i)
			continue
		}
		for ch, fx := range fxs {
			c.lanes[ch] = append(c.lanes[ch], fx)
		}
		c.slots[i] = len(c.kinds)
		c.kinds = append(c.kinds, st.Kind)
	}

	return c, skipped, nil
}

// newStageEffects returns one instance of st per channel, or the first
// construction error.
func newStageEffects(st Stage, sampleRate float64, channels int) ([]effects.Effect, error) {
	fxs := make([]effects.Effect, channels)
	for ch := range fxs {
		fx, err := newStageEffect(st, sampleRate)
		if err != nil {
			return nil, err
		}
		fxs[ch] = fx
	}
	return fxs, nil
}

func newStageEffect(st Stage, sampleRate float64) (effects.Effect, error) {
	fx, err := NewEffect(st.Kind)
	if err != nil {
		return nil, err
	}
	if st.Params != nil {
		if err := fx.Configure(st.Params); err != nil {
			return nil, err
		}
	}
	if err := fx.Prepare(sampleRate); err != nil {
		return nil, err
	}
	fx.SetBypass(st.Bypass)
	return fx, nil
}

// Preset returns the preset the chain was built from.
func (c *Chain) Preset() *Preset { return c.preset }

// SampleRate returns the prepared sample rate.
func (c *Chain) SampleRate() float64 { return c.sampleRate }

// Channels returns the number of lanes.
func (c *Chain) Channels() int { return c.channels }

// MaxBlock returns the de-interleave block size in frames.
func (c *Chain) MaxBlock() int { return c.maxBlock }

// Kinds returns the kinds of the built effects in processing order.
func (c *Chain) Kinds() []effects.Kind { return append([]effects.Kind(nil), c.kinds...) }

// Len returns the number of built effects per lane.
func (c *Chain) Len() int { return len(c.kinds) }

// Active returns the number of built effects that are not bypassed.
func (c *Chain) Active() int {
	if len(c.lanes) == 0 {
		return 0
	}
	n := 0
	for _, fx := range c.lanes[0] {
		if !fx.Bypassed() {
			n++
		}
	}
	return n
}

// Effect returns the effect built for preset stage i on channel ch, or nil
// if the stage was skipped.
func (c *Chain) Effect(ch, stage int) effects.Effect {
	if ch < 0 || ch >= len(c.lanes) || stage < 0 || stage >= len(c.slots) {
		return nil
	}
	slot := c.slots[stage]
	if slot < 0 {
		return nil
	}
	return c.lanes[ch][slot]
}

// SetBypass toggles preset stage i on every lane. It reports false for
// skipped or out-of-range stages.
func (c *Chain) SetBypass(stage int, bypass bool) bool {
	if stage < 0 || stage >= len(c.slots) || c.slots[stage] < 0 {
		return false
	}
	for _, lane := range c.lanes {
		lane[c.slots[stage]].SetBypass(bypass)
	}
	return true
}

// Process runs buf, interleaved with the chain's channel count, through
// every lane. A trailing partial frame is left untouched.
func (c *Chain) Process(buf []float64) {
	if len(buf) == 0 || len(c.kinds) == 0 {
		return
	}

	if c.channels == 1 {
		for _, fx := range c.lanes[0] {
			fx.Process(buf)
		}
		return
	}

	frames := len(buf) / c.channels
	for start := 0; start < frames; start += c.maxBlock {
		n := min(c.maxBlock, frames-start)
		block := buf[start*c.channels : (start+n)*c.channels]
		lane := c.scratch[:n]

		for ch, fxs := range c.lanes {
			core.Deinterleave(lane, block, c.channels, ch)
			for _, fx := range fxs {
				fx.Process(lane)
			}
			core.Interleave(block, lane, c.channels, ch)
		}
	}
}

// Reset clears the state of every effect without reallocating.
func (c *Chain) Reset() {
	for _, lane := range c.lanes {
		for _, fx := range lane {
			fx.Reset()
		}
	}
}
