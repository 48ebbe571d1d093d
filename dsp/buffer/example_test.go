package buffer_test

import (
	"fmt"

	"github.com/cwbudde/algo-voicefx/dsp/buffer"
)

func ExampleToPCM16() {
	floats := make([]float64, 4)
	buffer.ToFloat(floats, []int16{-32768, -16384, 0, 16384})
	fmt.Println(floats)

	floats[3] = 1.5 // clamped, not wrapped
	pcm := make([]int16, 4)
	buffer.ToPCM16(pcm, floats)
	fmt.Println(pcm)

	// Output:
	// [-1 -0.5 0 0.5]
	// [-32768 -16384 0 32767]
}
