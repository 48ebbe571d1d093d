package buffer

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidFormat is returned by Validate for unusable sample formats.
var ErrInvalidFormat = errors.New("buffer: invalid format")

// Buffer wraps interleaved float64 samples tagged with their format.
// DSP functions accept raw []float64; use Samples() to bridge.
type Buffer struct {
	samples    []float64
	sampleRate float64
	channels   int
}

// New returns a zero-filled Buffer holding frames*channels samples.
func New(frames, channels int, sampleRate float64) *Buffer {
	if frames < 0 {
		frames = 0
	}
	if channels < 1 {
		channels = 1
	}
	return &Buffer{
		samples:    make([]float64, frames*channels),
		sampleRate: sampleRate,
		channels:   channels,
	}
}

// FromSlice wraps an existing slice without copying.
// Mutations to the slice are visible through the Buffer and vice versa.
func FromSlice(s []float64, channels int, sampleRate float64) *Buffer {
	if channels < 1 {
		channels = 1
	}
	return &Buffer{samples: s, sampleRate: sampleRate, channels: channels}
}

// Samples returns the underlying slice.
func (b *Buffer) Samples() []float64 {
	return b.samples
}

// SampleRate returns the sample rate in Hz.
func (b *Buffer) SampleRate() float64 { return b.sampleRate }

// Channels returns the interleaved channel count.
func (b *Buffer) Channels() int { return b.channels }

// Len returns the current number of samples across all channels.
func (b *Buffer) Len() int {
	return len(b.samples)
}

// Frames returns the number of complete frames.
func (b *Buffer) Frames() int {
	return len(b.samples) / b.channels
}

// Duration returns the playback duration of the buffer in seconds.
func (b *Buffer) Duration() float64 {
	if b.sampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / b.sampleRate
}

// Validate reports whether the buffer format can be processed.
func (b *Buffer) Validate() error {
	if b.sampleRate <= 0 || math.IsNaN(b.sampleRate) || math.IsInf(b.sampleRate, 0) {
		return fmt.Errorf("%w: sample rate %v", ErrInvalidFormat, b.sampleRate)
	}
	if len(b.samples)%b.channels != 0 {
		return fmt.Errorf("%w: %d samples not divisible by %d channels", ErrInvalidFormat, len(b.samples), b.channels)
	}
	return nil
}

// Resize sets the length to frames*channels, reusing existing capacity when
// possible. New elements beyond the previous length are zeroed.
func (b *Buffer) Resize(frames int) {
	n := frames * b.channels
	if n < 0 {
		n = 0
	}
	oldLen := len(b.samples)
	if n <= cap(b.samples) {
		b.samples = b.samples[:n]
	} else {
		s := make([]float64, n)
		copy(s, b.samples)
		b.samples = s
	}
	// Zero any newly exposed elements that may have stale data from
	// previous use of the backing array.
	for i := oldLen; i < n; i++ {
		b.samples[i] = 0
	}
}

// Zero sets all samples to 0.
func (b *Buffer) Zero() {
	for i := range b.samples {
		b.samples[i] = 0
	}
}
