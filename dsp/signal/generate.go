// Package signal generates deterministic test material for voice effects:
// tones, noise, sweeps and a harmonic pulse train that stands in for a
// voiced speaker.
package signal

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/cwbudde/algo-voicefx/dsp/buffer"
	"github.com/cwbudde/algo-voicefx/dsp/core"
)

// ErrUnknownShape is returned by ParseShape for unrecognised names.
var ErrUnknownShape = errors.New("signal: unknown shape")

// Shape selects the waveform produced by Generator.Generate.
type Shape int

const (
	ShapeSine Shape = iota
	ShapeNoise
	ShapeSweep
	ShapeVoice
)

var shapeNames = [...]string{
	ShapeSine:  "sine",
	ShapeNoise: "noise",
	ShapeSweep: "sweep",
	ShapeVoice: "voice",
}

func (s Shape) String() string {
	if s < 0 || int(s) >= len(shapeNames) {
		return fmt.Sprintf("Shape(%d)", int(s))
	}
	return shapeNames[s]
}

// ParseShape resolves a case-insensitive shape name.
func ParseShape(name string) (Shape, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range shapeNames {
		if n == name {
			return Shape(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownShape, name)
}

// Generator creates signals at a fixed sample rate and channel count.
// Multi-channel output repeats the same signal on every channel.
type Generator struct {
	sampleRate float64
	channels   int
	seed       int64
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed sets the noise seed. Default: 1.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// NewGenerator returns a generator for sampleRate and channels.
func NewGenerator(sampleRate float64, channels int, opts ...Option) (*Generator, error) {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return nil, fmt.Errorf("signal: sample rate must be > 0: %v", sampleRate)
	}
	if channels < 1 {
		return nil, fmt.Errorf("signal: channels must be >= 1: %d", channels)
	}

	g := &Generator{sampleRate: sampleRate, channels: channels, seed: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g, nil
}

// SampleRate returns the output sample rate.
func (g *Generator) SampleRate() float64 { return g.sampleRate }

// Channels returns the output channel count.
func (g *Generator) Channels() int { return g.channels }

// Generate renders seconds of shape. freqHz is the tone frequency, the
// sweep end frequency or the voice fundamental; it is ignored for noise.
func (g *Generator) Generate(shape Shape, freqHz, amplitude, seconds float64) (*buffer.Buffer, error) {
	switch shape {
	case ShapeSine:
		return g.Sine(freqHz, amplitude, seconds)
	case ShapeNoise:
		return g.Noise(amplitude, seconds)
	case ShapeSweep:
		return g.Sweep(20, freqHz, amplitude, seconds)
	case ShapeVoice:
		return g.Voice(freqHz, amplitude, seconds)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownShape, shape)
	}
}

// Sine renders a sine tone.
func (g *Generator) Sine(freqHz, amplitude, seconds float64) (*buffer.Buffer, error) {
	frames, err := g.frames(seconds)
	if err != nil {
		return nil, err
	}
	step := 2 * math.Pi * freqHz / g.sampleRate
	return g.fill(frames, func(i int) float64 {
		return amplitude * math.Sin(step*float64(i))
	}), nil
}

// Noise renders uniform white noise in [-amplitude, amplitude]. The same
// seed always yields the same samples.
func (g *Generator) Noise(amplitude, seconds float64) (*buffer.Buffer, error) {
	frames, err := g.frames(seconds)
	if err != nil {
		return nil, err
	}
	if amplitude < 0 {
		return nil, fmt.Errorf("signal: noise amplitude must be >= 0: %v", amplitude)
	}
	rng := rand.New(rand.NewSource(g.seed))
	return g.fill(frames, func(int) float64 {
		return (rng.Float64()*2 - 1) * amplitude
	}), nil
}

// Sweep renders an exponential sine sweep from startHz to endHz.
func (g *Generator) Sweep(startHz, endHz, amplitude, seconds float64) (*buffer.Buffer, error) {
	frames, err := g.frames(seconds)
	if err != nil {
		return nil, err
	}
	nyquist := g.sampleRate / 2
	if startHz <= 0 || endHz <= startHz || endHz > nyquist {
		return nil, fmt.Errorf("signal: sweep range %v..%v Hz is outside (0, %v]", startHz, endHz, nyquist)
	}

	k := math.Log(endHz / startHz)
	scale := 2 * math.Pi * startHz * seconds / k
	return g.fill(frames, func(i int) float64 {
		t := float64(i) / g.sampleRate
		return amplitude * math.Sin(scale*(math.Exp(t*k/seconds)-1))
	}), nil
}

// Voice renders a harmonic pulse train at f0Hz with a 1/n spectral tilt
// and a slow vibrato. Harmonics stop below half the Nyquist frequency.
func (g *Generator) Voice(f0Hz, amplitude, seconds float64) (*buffer.Buffer, error) {
	frames, err := g.frames(seconds)
	if err != nil {
		return nil, err
	}
	if f0Hz <= 0 || f0Hz >= g.sampleRate/4 {
		return nil, fmt.Errorf("signal: voice fundamental %v Hz is out of range", f0Hz)
	}

	harmonics := int(g.sampleRate / 4 / f0Hz)
	norm := 0.0
	for n := 1; n <= harmonics; n++ {
		norm += 1 / float64(n)
	}

	const (
		vibratoHz    = 5.0
		vibratoDepth = 0.01
	)
	phase := 0.0
	return g.fill(frames, func(i int) float64 {
		t := float64(i) / g.sampleRate
		f := f0Hz * (1 + vibratoDepth*math.Sin(2*math.Pi*vibratoHz*t))
		phase += 2 * math.Pi * f / g.sampleRate
		var v float64
		for n := 1; n <= harmonics; n++ {
			v += math.Sin(float64(n)*phase) / float64(n)
		}
		return amplitude * v / norm
	}), nil
}

// Normalize scales data in place so its peak equals targetPeak. Silent
// input is left unchanged.
func Normalize(data []float64, targetPeak float64) error {
	if targetPeak < 0 {
		return fmt.Errorf("signal: normalize target peak must be >= 0: %v", targetPeak)
	}

	peak := 0.0
	for _, v := range data {
		peak = max(peak, math.Abs(v))
	}
	if peak == 0 {
		return nil
	}

	scale := targetPeak / peak
	for i := range data {
		data[i] *= scale
	}
	return nil
}

func (g *Generator) frames(seconds float64) (int, error) {
	if seconds <= 0 || !core.IsFinite(seconds) {
		return 0, fmt.Errorf("signal: duration must be > 0: %v", seconds)
	}
	return max(int(math.Round(seconds*g.sampleRate)), 1), nil
}

// fill evaluates next once per frame and copies the value to every channel.
func (g *Generator) fill(frames int, next func(i int) float64) *buffer.Buffer {
	b := buffer.New(frames, g.channels, g.sampleRate)
	s := b.Samples()
	for i := range frames {
		v := next(i)
		for ch := range g.channels {
			s[i*g.channels+ch] = v
		}
	}
	return b
}
