// Package delay provides a fixed-size circular delay line shared by the
// echo, reverb and pitch-shifting blocks.
package delay

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-voicefx/dsp/interp"
)

// Line is a circular delay line. Its storage is allocated once by New;
// Write, Read and ReadFractional never allocate.
type Line struct {
	buffer   []float64
	writePos int
}

// New returns a delay line of fixed size.
func New(size int) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("delay size must be > 0: %d", size)
	}
	return &Line{buffer: make([]float64, size)}, nil
}

// Len returns internal buffer size.
func (d *Line) Len() int {
	return len(d.buffer)
}

// Write writes one sample.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = sample
	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Read returns the sample written delay samples ago, where a delay of 1 is
// the most recent write. Delays are clamped to [1, Len()].
func (d *Line) Read(delay int) float64 {
	size := len(d.buffer)
	if delay < 1 {
		delay = 1
	} else if delay > size {
		delay = size
	}
	readPos := d.writePos - delay
	if readPos < 0 {
		readPos += size
	}
	return d.buffer[readPos]
}

// ReadFractional reads a fractional delay with cubic Hermite interpolation.
// The delay is clamped to [1, Len()-2].
func (d *Line) ReadFractional(delay float64) float64 {
	size := len(d.buffer)
	maxDelay := float64(size - 2)
	if delay < 1 || math.IsNaN(delay) {
		delay = 1
	}
	if delay > maxDelay {
		delay = maxDelay
	}

	p := int(delay)
	t := delay - float64(p)

	// Older samples sit at larger delays, so interpolation runs from p
	// towards p+1 with p-1 as the newer neighbour.
	xm1 := d.Read(p - 1)
	x0 := d.Read(p)
	x1 := d.Read(p + 1)
	x2 := d.Read(p + 2)
	return interp.Hermite4(t, xm1, x0, x1, x2)
}

// Reset clears line state.
func (d *Line) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writePos = 0
}
