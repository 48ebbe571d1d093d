package core

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// Deinterleave extracts channel ch from the interleaved src into dst and
// returns the number of frames written.
func Deinterleave(dst, src []float64, channels, ch int) int {
	if channels <= 0 || ch < 0 || ch >= channels {
		return 0
	}

	n := min(len(dst), len(src)/channels)
	for i := range n {
		dst[i] = src[i*channels+ch]
	}

	return n
}

// Interleave writes src into channel ch of the interleaved dst and returns
// the number of frames written.
func Interleave(dst, src []float64, channels, ch int) int {
	if channels <= 0 || ch < 0 || ch >= channels {
		return 0
	}

	n := min(len(src), len(dst)/channels)
	for i := range n {
		dst[i*channels+ch] = src[i]
	}

	return n
}
