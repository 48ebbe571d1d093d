// Package voice provides the composite character voices: [Robot],
// [Megaphone], [Reverb] (karaoke and stadium), [Deep] and [Helium].
//
// Each voice chains dsp primitives behind the [effects.Effect] interface.
// Pitch-shifted voices approximate the matching formant movement with
// shelf and peaking filters whose corner frequencies follow a formant
// scale and whose gains follow the pitch ratio. This holds up for shifts
// of roughly ±20% in formant position; larger settings are accepted but
// sound increasingly synthetic.
package voice
