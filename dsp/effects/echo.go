package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-voicefx/dsp/core"
	"github.com/cwbudde/algo-voicefx/dsp/delay"
)

// Echo is a feedback delay with dry/wet mix:
//
//	delayed = line[n - D]
//	line[n] = x + delayed*feedback
//	y       = x*(1-mix) + delayed*mix
//
// The line is sized for MaxEchoDelayMs in Prepare, so changing the delay
// time later never allocates.
type Echo struct {
	BypassFlag

	params     EchoParams
	sampleRate float64
	prepared   bool

	line         *delay.Line
	delaySamples int
}

// NewEcho returns an echo with default parameters.
func NewEcho() *Echo {
	return &Echo{params: DefaultEchoParams()}
}

// Kind implements Effect.
func (e *Echo) Kind() Kind { return KindEcho }

// Params returns the active parameters.
func (e *Echo) Params() EchoParams { return e.params }

// DelaySamples returns the delay in samples at the prepared rate.
func (e *Echo) DelaySamples() int { return e.delaySamples }

// Prepare implements Effect.
func (e *Echo) Prepare(sampleRate float64) error {
	if err := CheckSampleRate(sampleRate); err != nil {
		return err
	}

	size := int(math.Ceil(MaxEchoDelayMs*0.001*sampleRate)) + 1
	line, err := delay.New(size)
	if err != nil {
		return fmt.Errorf("echo: %w", err)
	}

	e.sampleRate = sampleRate
	e.line = line
	e.update()
	e.prepared = true
	return nil
}

// Configure implements Effect.
func (e *Echo) Configure(p Params) error {
	v, ok := p.(EchoParams)
	if !ok {
		return Mismatch(KindEcho, p)
	}
	e.params = v.Clamped()
	e.update()
	return nil
}

// Process implements Effect.
func (e *Echo) Process(buf []float64) {
	if !e.prepared || e.Bypassed() {
		return
	}

	fb, mix := e.params.Feedback, e.params.Mix
	for i, x := range buf {
		delayed := e.line.Read(e.delaySamples)
		e.line.Write(core.FlushDenormals(x + delayed*fb))
		buf[i] = x*(1-mix) + delayed*mix
	}
}

// Reset implements Effect.
func (e *Echo) Reset() {
	if e.line != nil {
		e.line.Reset()
	}
}

func (e *Echo) update() {
	if e.sampleRate <= 0 {
		return
	}
	e.delaySamples = core.MillisToSamples(e.params.DelayMs, e.sampleRate, 1)
}
