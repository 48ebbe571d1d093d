package buffer

import "sync"

// Pool provides sync.Pool-based Buffer reuse for host code that creates
// one buffer per audio frame. It must not be used from the audio callback.
type Pool struct {
	pool       sync.Pool
	channels   int
	sampleRate float64
}

// NewPool returns a Pool handing out buffers of the given format.
func NewPool(channels int, sampleRate float64) *Pool {
	if channels < 1 {
		channels = 1
	}
	p := &Pool{channels: channels, sampleRate: sampleRate}
	p.pool.New = func() any {
		return &Buffer{channels: p.channels, sampleRate: p.sampleRate}
	}
	return p
}

// Get returns a zeroed Buffer with the requested number of frames.
// Callers must return it via Put when done.
func (p *Pool) Get(frames int) *Buffer {
	b := p.pool.Get().(*Buffer)
	b.Resize(frames)
	b.Zero()
	return b
}

// Put returns a Buffer to the pool for reuse.
// The caller must not use the buffer after calling Put.
func (p *Pool) Put(b *Buffer) {
	if b == nil || b.channels != p.channels {
		return
	}
	p.pool.Put(b)
}
