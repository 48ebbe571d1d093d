package spectrum

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-voicefx/dsp/core"
	"github.com/cwbudde/algo-voicefx/dsp/window"
)

const (
	minAnalyzerSize = 16
	maxAnalyzerSize = 1 << 16
)

// ErrTooShort is returned when a signal is too short to analyze.
var ErrTooShort = errors.New("spectrum: signal too short")

// Peak describes a spectral peak.
type Peak struct {
	FrequencyHz float64
	Amplitude   float64
}

// Analyzer computes Hann-windowed magnitude spectra of a fixed size. Its
// buffers are allocated once; it is not safe for concurrent use.
type Analyzer struct {
	size       int
	sampleRate float64

	plan *algofft.Plan[complex128]
	win  []float64
	norm float64

	frame []float64
	in    []complex128
	out   []complex128
	re    []float64
	im    []float64
	mag   []float64
}

// NewAnalyzer returns an analyzer for power-of-two frames of size samples.
func NewAnalyzer(size int, sampleRate float64) (*Analyzer, error) {
	if size < minAnalyzerSize || size > maxAnalyzerSize || size&(size-1) != 0 {
		return nil, fmt.Errorf("spectrum: size must be a power of two in [%d, %d]: %d",
			minAnalyzerSize, maxAnalyzerSize, size)
	}
	if !(sampleRate > 0) || !core.IsFinite(sampleRate) {
		return nil, fmt.Errorf("spectrum: sample rate must be positive and finite: %f", sampleRate)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("spectrum: fft plan: %w", err)
	}

	win, err := window.Generate(window.Hann, size)
	if err != nil {
		return nil, err
	}

	bins := size/2 + 1

	return &Analyzer{
		size:       size,
		sampleRate: sampleRate,
		plan:       plan,
		win:        win,
		norm:       2 / (float64(size) * window.CoherentGain(win)),
		frame:      make([]float64, size),
		in:         make([]complex128, size),
		out:        make([]complex128, size),
		re:         make([]float64, bins),
		im:         make([]float64, bins),
		mag:        make([]float64, bins),
	}, nil
}

// Size returns the frame size.
func (a *Analyzer) Size() int { return a.size }

// BinHz returns the spacing of the spectrum bins.
func (a *Analyzer) BinHz() float64 { return a.sampleRate / float64(a.size) }

// Magnitudes analyzes the last Size() samples of samples (zero-padded when
// shorter) and returns Size()/2+1 amplitude-normalized bins: a sinusoid of
// amplitude A centred on a bin reads as A. The returned slice is owned by
// the analyzer and overwritten by the next call.
func (a *Analyzer) Magnitudes(samples []float64) ([]float64, error) {
	core.Zero(a.frame)
	if len(samples) > a.size {
		samples = samples[len(samples)-a.size:]
	}
	copy(a.frame, samples)

	if err := window.ApplyInPlace(a.frame, a.win); err != nil {
		return nil, err
	}
	for i, v := range a.frame {
		a.in[i] = complex(v, 0)
	}

	if err := a.plan.Forward(a.out, a.in); err != nil {
		return nil, fmt.Errorf("spectrum: forward fft: %w", err)
	}

	splitComplex(a.re, a.im, a.out[:len(a.mag)])
	MagnitudeFromParts(a.mag, a.re, a.im)
	for i := range a.mag {
		a.mag[i] *= a.norm
	}
	a.mag[0] /= 2

	return a.mag, nil
}

// Dominant returns the strongest non-DC peak, refined by Gaussian
// (log-parabolic) interpolation between neighbouring bins.
func (a *Analyzer) Dominant(samples []float64) (Peak, error) {
	mag, err := a.Magnitudes(samples)
	if err != nil {
		return Peak{}, err
	}

	k := 1
	for i := 2; i < len(mag); i++ {
		if mag[i] > mag[k] {
			k = i
		}
	}

	offset := 0.0
	if k > 1 && k < len(mag)-1 {
		l := math.Log(mag[k-1] + core.LevelFloor)
		c := math.Log(mag[k] + core.LevelFloor)
		r := math.Log(mag[k+1] + core.LevelFloor)
		if den := l - 2*c + r; den < 0 {
			offset = core.Clamp(0.5*(l-r)/den, -0.5, 0.5)
		}
	}

	return Peak{
		FrequencyHz: (float64(k) + offset) * a.BinHz(),
		Amplitude:   mag[k],
	}, nil
}

// DominantFrequency estimates the strongest frequency in samples using the
// largest power-of-two frame that fits.
func DominantFrequency(samples []float64, sampleRate float64) (float64, error) {
	size := maxAnalyzerSize
	for size > len(samples) {
		size >>= 1
	}
	if size < minAnalyzerSize {
		return 0, fmt.Errorf("%w: %d samples", ErrTooShort, len(samples))
	}

	a, err := NewAnalyzer(size, sampleRate)
	if err != nil {
		return 0, err
	}

	p, err := a.Dominant(samples)
	if err != nil {
		return 0, err
	}

	return p.FrequencyHz, nil
}
