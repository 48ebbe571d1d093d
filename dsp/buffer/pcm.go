package buffer

import (
	"encoding/binary"
	"math"
)

const (
	pcm16Scale    = 32768.0
	pcm16MaxValue = 32767.0
)

// ToFloat converts 16-bit samples to normalized floats in [-1, 1).
// It converts min(len(dst), len(src)) samples and returns that count.
func ToFloat(dst []float64, src []int16) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = float64(src[i]) / pcm16Scale
	}
	return n
}

// ToPCM16 converts normalized floats to 16-bit samples. Values outside
// [-1, 1] are clamped before scaling and NaN maps to 0.
// It converts min(len(dst), len(src)) samples and returns that count.
func ToPCM16(dst []int16, src []float64) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = floatToPCM16(src[i])
	}
	return n
}

// BytesToFloat converts little-endian PCM16 bytes to normalized floats.
// A trailing odd byte is ignored. It returns the number of samples written.
func BytesToFloat(dst []float64, src []byte) int {
	n := min(len(dst), len(src)/2)
	for i := range n {
		v := int16(binary.LittleEndian.Uint16(src[i*2:]))
		dst[i] = float64(v) / pcm16Scale
	}
	return n
}

// FloatToBytes converts normalized floats to little-endian PCM16 bytes.
// It returns the number of samples written.
func FloatToBytes(dst []byte, src []float64) int {
	n := min(len(dst)/2, len(src))
	for i := range n {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(floatToPCM16(src[i])))
	}
	return n
}

func floatToPCM16(x float64) int16 {
	if math.IsNaN(x) {
		return 0
	}
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	v := math.Round(x * pcm16Scale)
	if v > pcm16MaxValue {
		v = pcm16MaxValue
	}
	return int16(v)
}
