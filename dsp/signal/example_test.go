package signal_test

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-voicefx/dsp/signal"
)

func ExampleGenerator_Sine() {
	g, err := signal.NewGenerator(1000, 1)
	if err != nil {
		panic(err)
	}
	b, err := g.Sine(250, 1, 0.005)
	if err != nil {
		panic(err)
	}
	x := b.Samples()
	for i := range x {
		if math.Abs(x[i]) < 1e-12 {
			x[i] = 0
		}
	}

	fmt.Printf("%.0f %.0f %.0f %.0f %.0f\n", x[0], x[1], x[2], x[3], x[4])

	// Output:
	// 0 1 0 -1 0
}

func ExampleNormalize() {
	x := []float64{-0.5, 0.25, 1}
	if err := signal.Normalize(x, 0.8); err != nil {
		panic(err)
	}
	fmt.Printf("%.2f %.2f %.2f\n", x[0], x[1], x[2])

	// Output:
	// -0.40 0.20 0.80
}
