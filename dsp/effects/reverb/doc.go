// Package reverb provides the Schroeder reverberator behind the karaoke
// and stadium voices: four parallel damped comb filters feeding three
// all-pass filters in series.
package reverb
