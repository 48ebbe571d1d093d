package effectchain_test

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-voicefx/dsp/effectchain"
	"github.com/cwbudde/algo-voicefx/dsp/effects"
)

func ExampleEngine() {
	engine := effectchain.NewEngine()
	if err := engine.Prepare(48000, 1); err != nil {
		fmt.Println(err)
		return
	}

	if err := engine.SelectPreset("echo"); err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(engine.Kinds())
	// Output: [noise_gate echo limiter]
}

func ExampleLoadDescriptor() {
	const doc = `
presets:
  - name: tannoy
    effects:
      - kind: megaphone
        params: {drive: 0.9}
      - kind: gain
        params: {gain: 0.8}
`
	presets, err := effectchain.LoadDescriptor(strings.NewReader(doc), effectchain.FormatYAML)
	if err != nil {
		fmt.Println(err)
		return
	}

	st, _ := presets[0].Stage(1)
	fmt.Println(presets[0].Name(), presets[0].ActiveKinds(), st.Params.(effects.GainParams).Gain)
	// Output: tannoy [megaphone gain] 0.8
}
