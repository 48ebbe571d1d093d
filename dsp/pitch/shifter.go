package pitch

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-voicefx/dsp/core"
	"github.com/cwbudde/algo-voicefx/dsp/delay"
)

const (
	// DefaultGrainMs is the grain (cross-fade) length used by NewShifter.
	DefaultGrainMs = 50.0
	// MinGrainMs and MaxGrainMs bound the grain length.
	MinGrainMs = 20.0
	MaxGrainMs = 100.0

	// MaxSemitones bounds the shift in either direction.
	MaxSemitones = 12.0

	// Minimum read distance behind the write head so that the cubic
	// interpolator never touches unwritten samples.
	minTapDelay = 2.0

	identityEps = 1e-9
)

// Shifter is a two-tap delay-line pitch shifter. It is mono and not safe
// for concurrent use.
type Shifter struct {
	sampleRate float64
	semitones  float64
	ratio      float64
	grainMs    float64
	grain      float64

	history *delay.Line
	phase   float64
}

// NewShifter returns an unprepared shifter with no shift and the default
// grain.
func NewShifter() *Shifter {
	return &Shifter{
		ratio:   1,
		grainMs: DefaultGrainMs,
	}
}

// Prepare allocates the history for sampleRate and clears state. It is the
// only method that allocates.
func (s *Shifter) Prepare(sampleRate float64) error {
	if !(sampleRate > 0) || !core.IsFinite(sampleRate) {
		return fmt.Errorf("pitch shifter sample rate must be positive and finite: %f", sampleRate)
	}

	size := int(math.Ceil(MaxGrainMs*0.001*sampleRate)) + 2*int(minTapDelay) + 4
	line, err := delay.New(size)
	if err != nil {
		return fmt.Errorf("pitch shifter history: %w", err)
	}

	s.sampleRate = sampleRate
	s.history = line
	s.updateGrain()
	s.phase = 0

	return nil
}

// Prepared reports whether Prepare succeeded.
func (s *Shifter) Prepared() bool { return s.history != nil }

// SetSemitones sets the shift, clamped to ±MaxSemitones. Non-finite values
// select no shift.
func (s *Shifter) SetSemitones(semitones float64) {
	s.semitones = core.ClampOr(semitones, 0, -MaxSemitones, MaxSemitones)
	s.ratio = core.SemitonesToRatio(s.semitones)
}

// SetGrain sets the grain length in milliseconds, clamped to
// [MinGrainMs, MaxGrainMs]. The tap phase is folded into the new grain.
func (s *Shifter) SetGrain(ms float64) {
	s.grainMs = core.ClampOr(ms, DefaultGrainMs, MinGrainMs, MaxGrainMs)
	s.updateGrain()
}

// Semitones returns the clamped shift.
func (s *Shifter) Semitones() float64 { return s.semitones }

// Ratio returns the frequency ratio 2^(semitones/12).
func (s *Shifter) Ratio() float64 { return s.ratio }

// Grain returns the grain length in milliseconds.
func (s *Shifter) Grain() float64 { return s.grainMs }

// Latency returns the nominal delay of the shifter in samples.
func (s *Shifter) Latency() int {
	return int(math.Round(minTapDelay + s.grain/2))
}

// ProcessSample shifts one sample. Before Prepare the input is returned
// unchanged.
func (s *Shifter) ProcessSample(x float64) float64 {
	if s.history == nil {
		return x
	}

	s.history.Write(x)
	if math.Abs(s.ratio-1) <= identityEps {
		return x
	}

	g := s.grain
	d1 := s.phase
	d2 := d1 + g/2
	if d2 >= g {
		d2 -= g
	}

	w1 := 0.5 - 0.5*math.Cos(2*math.Pi*d1/g)
	w2 := 1 - w1

	y := w1*s.history.ReadFractional(minTapDelay+d1) +
		w2*s.history.ReadFractional(minTapDelay+d2)

	s.phase += 1 - s.ratio
	if s.phase >= g {
		s.phase -= g
	} else if s.phase < 0 {
		s.phase += g
	}

	return core.FlushDenormals(y)
}

// ProcessBlock shifts buf in place. Zero-alloc.
func (s *Shifter) ProcessBlock(buf []float64) {
	if s.history == nil {
		return
	}
	for i, x := range buf {
		buf[i] = s.ProcessSample(x)
	}
}

// Reset clears the history and tap phase.
func (s *Shifter) Reset() {
	if s.history != nil {
		s.history.Reset()
	}
	s.phase = 0
}

func (s *Shifter) updateGrain() {
	if s.sampleRate <= 0 {
		return
	}
	s.grain = s.grainMs * 0.001 * s.sampleRate
	s.phase = math.Mod(s.phase, s.grain)
	if s.phase < 0 {
		s.phase += s.grain
	}
}
