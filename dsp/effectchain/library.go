package effectchain

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cwbudde/algo-voicefx/dsp/effects"
	"github.com/cwbudde/algo-voicefx/dsp/effects/voice"
)

// ErrUnknownPreset is returned when a preset name is not in the library.
var ErrUnknownPreset = errors.New("effectchain: unknown preset")

// Library is a set of named presets. Lookups are case-insensitive and
// names keep their insertion order. It is safe for concurrent use.
type Library struct {
	mu      sync.RWMutex
	presets map[string]*Preset
	order   []string
}

// NewLibrary returns a library holding presets.
func NewLibrary(presets ...*Preset) *Library {
	l := &Library{presets: make(map[string]*Preset, len(presets))}
	l.Merge(presets)
	return l
}

// DefaultLibrary returns a library with the built-in presets.
func DefaultLibrary() *Library {
	return NewLibrary(BuiltinPresets()...)
}

func libraryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Add stores p, replacing a preset of the same name.
func (l *Library) Add(p *Preset) {
	if p == nil {
		return
	}

	key := libraryKey(p.Name())

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.presets[key]; !exists {
		l.order = append(l.order, key)
	}
	l.presets[key] = p
}

// Merge adds every preset in order.
func (l *Library) Merge(presets []*Preset) {
	for _, p := range presets {
		l.Add(p)
	}
}

// LoadFile merges the presets of a JSON or YAML descriptor.
func (l *Library) LoadFile(path string) error {
	presets, err := LoadDescriptorFile(path)
	if err != nil {
		return err
	}
	l.Merge(presets)
	return nil
}

// Get returns the preset called name.
func (l *Library) Get(name string) (*Preset, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.presets[libraryKey(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return p, nil
}

// Names returns the preset names in insertion order.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.order))
	for _, key := range l.order {
		names = append(names, l.presets[key].Name())
	}
	return names
}

// Presets returns the presets in insertion order.
func (l *Library) Presets() []*Preset {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*Preset, 0, len(l.order))
	for _, key := range l.order {
		out = append(out, l.presets[key])
	}
	return out
}

// Len returns the number of presets.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

var voiceGate = effects.NoiseGateParams{ThresholdDB: -50, AttackMs: 1, ReleaseMs: 150, HoldMs: 60}

var safetyLimiter = effects.LimiterParams{CeilingDB: -1, ReleaseMs: 60}

// BuiltinPresets returns the factory presets. Every preset opens with a
// noise gate and ends with a limiter.
//
//nolint:funlen
func BuiltinPresets() []*Preset {
	helium := func(semitones, formant, brightness, lowCut float64) voice.HeliumParams {
		p := voice.DefaultHeliumParams()
		p.Semitones = semitones
		p.FormantPercent = formant
		p.BrightnessDB = brightness
		p.LowCutHz = lowCut
		return p
	}

	wrap := func(name string, stages ...Stage) *Preset {
		all := make([]Stage, 0, len(stages)+2)
		all = append(all, NewStage(voiceGate))
		all = append(all, stages...)
		all = append(all, NewStage(safetyLimiter))
		return NewPreset(name, all...)
	}

	return []*Preset{
		wrap("clean",
			NewStage(effects.EQ3Params{
				LowGainDB: -2, LowFreqHz: 120,
				MidFreqHz: 1000, MidQ: 1,
				HighGainDB: 2, HighFreqHz: 6000,
			}),
			NewStage(effects.CompressorParams{ThresholdDB: -20, Ratio: 2.5, AttackMs: 5, ReleaseMs: 100, MakeupDB: 3}),
		),
		wrap("robot",
			NewStage(voice.DefaultRobotParams()),
		),
		wrap("megaphone",
			NewStage(voice.DefaultMegaphoneParams()),
		),
		wrap("karaoke",
			NewStage(voice.ReverbParams{RoomSize: 0.35, Decay: 0.45, Damping: 0.5, Mix: 0.22, PresenceDB: 3}),
		),
		wrap("stadium",
			NewStage(voice.ReverbParams{RoomSize: 0.95, Decay: 0.85, Damping: 0.25, Mix: 0.4, PresenceDB: 2}),
			NewStage(effects.EchoParams{DelayMs: 320, Feedback: 0.25, Mix: 0.15}),
		),
		wrap("deep",
			NewStage(voice.DefaultDeepParams()),
		),
		wrap("helium",
			NewStage(voice.DefaultHeliumParams()),
		),
		wrap("chipmunk",
			NewStage(helium(8, 10, 6, 250)),
		),
		wrap("anime",
			NewStage(helium(4, 5, 5, 150)),
			NewStage(effects.EQ3Params{
				LowFreqHz: 200,
				MidGainDB: 2, MidFreqHz: 2500, MidQ: 1.2,
				HighFreqHz: 5000,
			}),
		),
		wrap("echo",
			NewStage(effects.EchoParams{DelayMs: 200, Feedback: 0.3, Mix: 0.25}),
		),
	}
}
