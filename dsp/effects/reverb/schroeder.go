package reverb

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-voicefx/dsp/core"
)

const (
	numCombs     = 4
	numAllpasses = 3

	// Tuning values are calibrated for 44.1 kHz and scaled to the actual
	// rate in Prepare.
	referenceRate = 44100.0

	allpassFeedback = 0.5
	inputGain       = 0.05

	minRoomScale = 0.5
	maxRoomScale = 1.5

	minCombFeedback   = 0.7
	combFeedbackRange = 0.28

	defaultRoomSize = 0.5
	defaultDecay    = 0.5
	defaultDamping  = 0.5
)

var (
	combTuning    = [numCombs]int{1116, 1188, 1277, 1356}
	allpassTuning = [numAllpasses]int{556, 441, 341}
)

type comb struct {
	buffer      []float64
	length      int
	index       int
	feedback    float64
	dampA       float64
	dampB       float64
	filterStore float64
}

func (c *comb) process(input float64) float64 {
	output := c.buffer[c.index]
	c.filterStore = core.FlushDenormals(output*c.dampB + c.filterStore*c.dampA)
	c.buffer[c.index] = input + c.filterStore*c.feedback
	c.index++
	if c.index >= c.length {
		c.index = 0
	}
	return output
}

func (c *comb) reset() {
	core.Zero(c.buffer)
	c.index = 0
	c.filterStore = 0
}

type allpass struct {
	buffer []float64
	index  int
}

func (a *allpass) process(input float64) float64 {
	bufOut := a.buffer[a.index]
	output := bufOut - input
	a.buffer[a.index] = core.FlushDenormals(input + bufOut*allpassFeedback)
	a.index++
	if a.index >= len(a.buffer) {
		a.index = 0
	}
	return output
}

func (a *allpass) reset() {
	core.Zero(a.buffer)
	a.index = 0
}

// Schroeder is a mono Schroeder reverberator producing a wet-only signal.
//
// Room size in [0, 1] scales the comb delays between half and one and a
// half times their tuning; decay in [0, 1] sets the comb feedback; damping
// in [0, 1] sets the one-pole low-pass inside each comb loop. Buffers are
// allocated once in Prepare for the largest room, so parameter changes
// never allocate.
type Schroeder struct {
	sampleRate float64
	roomSize   float64
	decay      float64
	damping    float64

	combs     [numCombs]comb
	allpasses [numAllpasses]allpass
}

// New returns an unprepared reverberator with medium settings.
func New() *Schroeder {
	return &Schroeder{
		roomSize: defaultRoomSize,
		decay:    defaultDecay,
		damping:  defaultDamping,
	}
}

// Prepare allocates the delay buffers for sampleRate and clears state.
func (s *Schroeder) Prepare(sampleRate float64) error {
	if !(sampleRate > 0) || !core.IsFinite(sampleRate) {
		return fmt.Errorf("reverb sample rate must be positive and finite: %f", sampleRate)
	}

	scale := sampleRate / referenceRate
	for i := range s.combs {
		size := int(math.Ceil(float64(combTuning[i]) * scale * maxRoomScale))
		s.combs[i] = comb{buffer: make([]float64, max(size, 1))}
	}
	for i := range s.allpasses {
		size := int(math.Round(float64(allpassTuning[i]) * scale))
		s.allpasses[i] = allpass{buffer: make([]float64, max(size, 1))}
	}

	s.sampleRate = sampleRate
	s.update()
	return nil
}

// Prepared reports whether Prepare succeeded.
func (s *Schroeder) Prepared() bool { return s.sampleRate > 0 }

// SetRoomSize sets the room size in [0, 1].
func (s *Schroeder) SetRoomSize(v float64) {
	s.roomSize = core.ClampOr(v, defaultRoomSize, 0, 1)
	s.update()
}

// SetDecay sets the decay amount in [0, 1].
func (s *Schroeder) SetDecay(v float64) {
	s.decay = core.ClampOr(v, defaultDecay, 0, 1)
	s.update()
}

// SetDamping sets high-frequency damping in [0, 1].
func (s *Schroeder) SetDamping(v float64) {
	s.damping = core.ClampOr(v, defaultDamping, 0, 1)
	s.update()
}

// RoomSize returns the room size.
func (s *Schroeder) RoomSize() float64 { return s.roomSize }

// Decay returns the decay amount.
func (s *Schroeder) Decay() float64 { return s.decay }

// Damping returns the damping amount.
func (s *Schroeder) Damping() float64 { return s.damping }

// CombLengths returns the active comb delays in samples.
func (s *Schroeder) CombLengths() [numCombs]int {
	var out [numCombs]int
	for i := range s.combs {
		out[i] = s.combs[i].length
	}
	return out
}

// ProcessSample returns the wet reverb output for one input sample. Before
// Prepare it returns 0.
func (s *Schroeder) ProcessSample(x float64) float64 {
	if s.sampleRate <= 0 {
		return 0
	}

	in := x * inputGain
	out := 0.0
	for i := range s.combs {
		out += s.combs[i].process(in)
	}
	for i := range s.allpasses {
		out = s.allpasses[i].process(out)
	}
	return out
}

// Reset clears all delay and filter state.
func (s *Schroeder) Reset() {
	for i := range s.combs {
		s.combs[i].reset()
	}
	for i := range s.allpasses {
		s.allpasses[i].reset()
	}
}

func (s *Schroeder) update() {
	if s.sampleRate <= 0 {
		return
	}

	scale := s.sampleRate / referenceRate * (minRoomScale + (maxRoomScale-minRoomScale)*s.roomSize)
	feedback := minCombFeedback + combFeedbackRange*s.decay

	for i := range s.combs {
		c := &s.combs[i]
		c.length = min(max(int(math.Round(float64(combTuning[i])*scale)), 1), len(c.buffer))
		if c.index >= c.length {
			c.index = 0
		}
		c.feedback = feedback
		c.dampA = s.damping
		c.dampB = 1 - s.damping
	}
}
