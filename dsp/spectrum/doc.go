// Package spectrum provides the frequency-domain measurements used to
// verify and inspect processed voice audio: a windowed FFT [Analyzer]
// with dominant-frequency estimation, and a single-bin [Goertzel] tone
// detector.
package spectrum
