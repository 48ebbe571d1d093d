// Package playback streams audio through an engine to the default output
// device using ebiten's audio player.
package playback

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// ErrChannels is returned for sources that are neither mono nor stereo.
var ErrChannels = errors.New("playback: only mono and stereo are supported")

// bytesPerFrame is one stereo float32 frame as expected by NewPlayerF32.
const bytesPerFrame = 8

// Source produces interleaved samples. Read returns the number of samples
// written; zero means the source is exhausted.
type Source interface {
	Read(dst []float64) int
}

// Processor transforms interleaved samples in place.
type Processor interface {
	Process(buf []float64)
}

// BufferSource plays a fixed slice of samples, optionally looping.
type BufferSource struct {
	samples []float64
	pos     int
	loop    bool
}

// NewBufferSource returns a source over samples.
func NewBufferSource(samples []float64, loop bool) *BufferSource {
	return &BufferSource{samples: samples, loop: loop}
}

// Read implements Source.
func (s *BufferSource) Read(dst []float64) int {
	n := 0
	for n < len(dst) {
		if s.pos >= len(s.samples) {
			if !s.loop || len(s.samples) == 0 {
				break
			}
			s.pos = 0
		}
		c := copy(dst[n:], s.samples[s.pos:])
		s.pos += c
		n += c
	}
	return n
}

// StreamReader pulls blocks from a Source, runs them through a Processor
// and encodes them as little-endian stereo float32.
type StreamReader struct {
	mu       sync.Mutex
	source   Source
	proc     Processor
	channels int
	buf      []float64
}

// NewStreamReader returns a reader for a mono or stereo source.
func NewStreamReader(source Source, proc Processor, channels int) (*StreamReader, error) {
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("%w: %d", ErrChannels, channels)
	}
	return &StreamReader{source: source, proc: proc, channels: channels}, nil
}

// Read implements io.Reader. Mono sources are copied to both output
// channels. It returns io.EOF once the source is exhausted.
func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}

	need := frames * r.channels
	if cap(r.buf) < need {
		r.buf = make([]float64, need)
	}
	r.buf = r.buf[:need]

	got := r.source.Read(r.buf)
	if got == 0 {
		return 0, io.EOF
	}
	got -= got % r.channels
	if got == 0 {
		return 0, io.EOF
	}
	block := r.buf[:got]
	if r.proc != nil {
		r.proc.Process(block)
	}

	outFrames := got / r.channels
	for i := range outFrames {
		left := block[i*r.channels]
		right := left
		if r.channels == 2 {
			right = block[i*2+1]
		}
		binary.LittleEndian.PutUint32(p[i*bytesPerFrame:], math.Float32bits(float32(left)))
		binary.LittleEndian.PutUint32(p[i*bytesPerFrame+4:], math.Float32bits(float32(right)))
	}
	return outFrames * bytesPerFrame, nil
}

// Close implements io.Closer.
func (r *StreamReader) Close() error { return nil }

// Player plays a StreamReader on the shared audio context.
type Player struct {
	player *ebitaudio.Player
	reader io.ReadCloser
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("playback: audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// NewPlayer opens a player at sampleRate reading from reader.
func NewPlayer(sampleRate int, reader *StreamReader) (*Player, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	return &Player{player: pl, reader: reader}, nil
}

func (p *Player) Play()           { p.player.Play() }
func (p *Player) Pause()          { p.player.Pause() }
func (p *Player) IsPlaying() bool { return p.player.IsPlaying() }

// Position returns the current playback position.
func (p *Player) Position() time.Duration { return p.player.Position() }

// Stop pauses and releases the player.
func (p *Player) Stop() error {
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return err
	}
	return p.reader.Close()
}
