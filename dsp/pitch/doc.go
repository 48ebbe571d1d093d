// Package pitch provides a low-latency, time-domain pitch shifter for
// voice processing.
//
// [Shifter] keeps a rolling history of the input in a [delay.Line] and
// reads it back through two taps that move at the pitch ratio relative to
// the write head. The taps sit half a grain apart and are cross-faded with
// complementary raised-cosine gains, so each tap is silent at the moment
// its delay wraps around the grain. Latency is bounded by one grain.
//
// The shifter changes pitch and formants together; formant correction is
// left to the filters that follow it in the voice effects.
package pitch
