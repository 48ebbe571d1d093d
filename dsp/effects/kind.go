package effects

import (
	"fmt"
	"strings"
)

// Kind enumerates the effect types known to the chain builder.
type Kind int

const (
	KindUnknown Kind = iota
	KindGain
	KindNoiseGate
	KindEQ3
	KindCompressor
	KindLimiter
	KindEcho
	KindRobot
	KindMegaphone
	KindReverb
	KindDeepVoice
	KindHeliumVoice
)

var kindNames = [...]string{
	KindUnknown:     "unknown",
	KindGain:        "gain",
	KindNoiseGate:   "noise_gate",
	KindEQ3:         "eq3",
	KindCompressor:  "compressor",
	KindLimiter:     "limiter",
	KindEcho:        "echo",
	KindRobot:       "robot",
	KindMegaphone:   "megaphone",
	KindReverb:      "reverb",
	KindDeepVoice:   "deep_voice",
	KindHeliumVoice: "helium_voice",
}

var kindAliases = map[string]Kind{
	"gate":     KindNoiseGate,
	"eq":       KindEQ3,
	"delay":    KindEcho,
	"deep":     KindDeepVoice,
	"helium":   KindHeliumVoice,
	"chipmunk": KindHeliumVoice,
	"anime":    KindHeliumVoice,
	"robotic":  KindRobot,
	"bullhorn": KindMegaphone,
	"room":     KindReverb,
}

// Kinds returns every known kind in declaration order, excluding
// KindUnknown.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames)-1)
	for k := KindGain; int(k) < len(kindNames); k++ {
		out = append(out, k)
	}
	return out
}

// String returns the canonical identifier.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k names a concrete effect.
func (k Kind) Valid() bool {
	return k > KindUnknown && int(k) < len(kindNames)
}

// ParseKind resolves an identifier such as "noise_gate", "Noise-Gate" or
// "delay". Unrecognised identifiers yield KindUnknown and false.
func ParseKind(s string) (Kind, bool) {
	id := strings.ToLower(strings.TrimSpace(s))
	id = strings.NewReplacer("-", "_", " ", "_").Replace(id)

	for k := KindGain; int(k) < len(kindNames); k++ {
		if kindNames[k] == id {
			return k, true
		}
	}
	if k, ok := kindAliases[id]; ok {
		return k, true
	}
	return KindUnknown, false
}
