// Package buffer provides the normalized sample container exchanged with
// capture and playback collaborators, together with allocation-free
// conversion between 16-bit fixed-point PCM and float64 samples.
//
// Float samples are normalized to roughly [-1, 1]. Conversion to PCM16
// clamps before scaling, so out-of-range values saturate instead of
// wrapping. Conversion functions never allocate: callers size the
// destination once per session and reuse it for every audio frame.
package buffer
