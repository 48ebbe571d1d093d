// Package wavio reads and writes PCM WAV files as interleaved float
// buffers.
package wavio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/cwbudde/algo-voicefx/dsp/buffer"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrInvalidWAV is returned for files that are not PCM WAV.
var ErrInvalidWAV = errors.New("wavio: not a valid PCM wav file")

const (
	bitDepth16    = 16
	pcmFormatCode = 1
)

// Decode reads a whole WAV stream. Samples are scaled to [-1, 1) by the
// source bit depth.
func Decode(r io.ReadSeeker) (*buffer.Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidWAV
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wavio: decode: %w", err)
	}

	depth := pcm.SourceBitDepth
	if depth <= 0 {
		depth = int(dec.BitDepth)
	}
	if depth <= 0 || depth > 32 {
		return nil, fmt.Errorf("%w: bit depth %d", ErrInvalidWAV, depth)
	}

	channels := 1
	sampleRate := float64(dec.SampleRate)
	if pcm.Format != nil {
		channels = max(pcm.Format.NumChannels, 1)
		sampleRate = float64(pcm.Format.SampleRate)
	}

	scale := math.Ldexp(1, depth-1)
	samples := make([]float64, len(pcm.Data))
	for i, v := range pcm.Data {
		samples[i] = float64(v) / scale
	}

	b := buffer.FromSlice(samples, channels, sampleRate)
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("wavio: %w", err)
	}
	return b, nil
}

// ReadFile decodes the WAV file at path.
func ReadFile(path string) (*buffer.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wavio: open %q: %w", path, err)
	}
	defer f.Close()

	b, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("wavio: read %q: %w", path, err)
	}
	return b, nil
}

// Encode writes b as 16-bit PCM. Samples outside [-1, 1] are clamped.
func Encode(w io.WriteSeeker, b *buffer.Buffer) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("wavio: %w", err)
	}

	pcm16 := make([]int16, b.Len())
	buffer.ToPCM16(pcm16, b.Samples())

	data := make([]int, len(pcm16))
	for i, v := range pcm16 {
		data[i] = int(v)
	}

	format := &audio.Format{NumChannels: b.Channels(), SampleRate: int(math.Round(b.SampleRate()))}
	enc := wav.NewEncoder(w, format.SampleRate, bitDepth16, format.NumChannels, pcmFormatCode)

	if err := enc.Write(&audio.IntBuffer{Format: format, Data: data, SourceBitDepth: bitDepth16}); err != nil {
		return fmt.Errorf("wavio: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wavio: close encoder: %w", err)
	}
	return nil
}

// WriteFile writes b to path as 16-bit PCM, replacing any existing file.
func WriteFile(path string, b *buffer.Buffer) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("wavio: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("wavio: create %q: %w", path, err)
	}

	if err := Encode(f, b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("wavio: close %q: %w", path, err)
	}
	return nil
}
