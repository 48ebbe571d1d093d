package effectchain

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/cwbudde/algo-voicefx/dsp/effects"
	"github.com/cwbudde/algo-voicefx/dsp/effects/voice"
)

const jsonDescriptor = `{
  "presets": [
    {
      "name": "radio",
      "effects": [
        {"kind": "noise_gate"},
        {"kind": "megaphone", "params": {"drive": 0.8, "colour": "warm", "sparkle": 3}},
        {"kind": "flanger", "params": {"rate": 0.2}},
        {"kind": "echo", "bypass": true, "params": {"delayMs": 120, "mix": true}}
      ]
    }
  ]
}`

const yamlDescriptor = `
presets:
  - name: radio
    effects:
      - kind: noise_gate
      - kind: megaphone
        params:
          drive: 0.8
          colour: warm
          sparkle: 3
      - kind: flanger
        params:
          rate: 0.2
      - kind: echo
        bypass: true
        params:
          delayMs: 120
          mix: true
`

func TestLoadDescriptor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"json", jsonDescriptor, FormatJSON},
		{"yaml", yamlDescriptor, FormatYAML},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			presets, err := ParseDescriptor([]byte(tc.data), tc.format)
			if err != nil {
				t.Fatalf("ParseDescriptor: %v", err)
			}
			if len(presets) != 1 {
				t.Fatalf("got %d presets, want 1", len(presets))
			}

			p := presets[0]
			if p.Name() != "radio" || p.Len() != 4 {
				t.Fatalf("Name/Len = %q/%d", p.Name(), p.Len())
			}

			gate, _ := p.Stage(0)
			if gate.Params.(effects.NoiseGateParams) != effects.DefaultNoiseGateParams() {
				t.Fatalf("gate params = %+v, want defaults", gate.Params)
			}

			mega, _ := p.Stage(1)
			mp := mega.Params.(voice.MegaphoneParams)
			want := voice.DefaultMegaphoneParams()
			want.Drive = 0.8
			if mp != want {
				t.Fatalf("megaphone params = %+v, want %+v", mp, want)
			}

			unknown, _ := p.Stage(2)
			if unknown.Known() || unknown.Name != "flanger" {
				t.Fatalf("stage 2 = %+v, want unknown flanger", unknown)
			}

			echo, _ := p.Stage(3)
			ep := echo.Params.(effects.EchoParams)
			if !echo.Bypass || ep.DelayMs != 120 || ep.Mix != 1 {
				t.Fatalf("echo stage = %+v", echo)
			}

			wantKinds := []effects.Kind{effects.KindNoiseGate, effects.KindMegaphone}
			if got := p.ActiveKinds(); !reflect.DeepEqual(got, wantKinds) {
				t.Fatalf("ActiveKinds() = %v, want %v", got, wantKinds)
			}
		})
	}
}

func TestLoadDescriptorAliases(t *testing.T) {
	t.Parallel()

	presets, err := ParseDescriptor([]byte(`{"presets":[{"name":"a","effects":[{"kind":"Chipmunk"},{"kind":"delay"}]}]}`), FormatJSON)
	if err != nil {
		t.Fatalf("ParseDescriptor: %v", err)
	}
	want := []effects.Kind{effects.KindHeliumVoice, effects.KindEcho}
	if got := presets[0].ActiveKinds(); !reflect.DeepEqual(got, want) {
		t.Fatalf("ActiveKinds() = %v, want %v", got, want)
	}
}

func TestLoadDescriptorValidation(t *testing.T) {
	t.Parallel()

	data := `
presets:
  - name: ""
    effects:
      - kind: gain
  - name: twin
  - name: twin
    effects:
      - params: {gain: 1}
`
	_, err := ParseDescriptor([]byte(data), FormatYAML)
	if err == nil {
		t.Fatal("expected validation error")
	}

	msg := err.Error()
	for _, want := range []string{
		"presets[0].name is required",
		`presets[2].name "twin" is a duplicate of presets[1]`,
		"presets[2].effects[0].kind is required",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not mention %q", msg, want)
		}
	}
}

func TestLoadDescriptorErrors(t *testing.T) {
	t.Parallel()

	if _, err := ParseDescriptor([]byte(`{"presets": [`), FormatJSON); err == nil {
		t.Fatal("expected json syntax error")
	}
	if _, err := ParseDescriptor([]byte("presets: [\n"), FormatYAML); err == nil {
		t.Fatal("expected yaml syntax error")
	}
	if _, err := ParseDescriptor(nil, Format(7)); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("error = %v, want ErrInvalidFormat", err)
	}

	presets, err := ParseDescriptor(nil, FormatYAML)
	if err != nil || len(presets) != 0 {
		t.Fatalf("empty yaml = %v, %v; want no presets", presets, err)
	}
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want Format
		err  bool
	}{
		{"presets.json", FormatJSON, false},
		{"dir/presets.YAML", FormatYAML, false},
		{"presets.yml", FormatYAML, false},
		{"presets.toml", 0, true},
	}
	for _, tc := range tests {
		got, err := FormatFromPath(tc.path)
		if tc.err {
			if !errors.Is(err, ErrInvalidFormat) {
				t.Fatalf("FormatFromPath(%q) error = %v, want ErrInvalidFormat", tc.path, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("FormatFromPath(%q) = %v, %v; want %v", tc.path, got, err, tc.want)
		}
	}
}

func TestMarshalDescriptorReloads(t *testing.T) {
	t.Parallel()

	orig := testPreset()
	orig, _ = orig.WithBypass(2, true)

	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(format.String(), func(t *testing.T) {
			t.Parallel()

			data, err := MarshalDescriptor([]*Preset{orig}, format)
			if err != nil {
				t.Fatalf("MarshalDescriptor: %v", err)
			}
			presets, err := ParseDescriptor(data, format)
			if err != nil {
				t.Fatalf("ParseDescriptor: %v", err)
			}
			if !reflect.DeepEqual(presets[0].Stages(), orig.Stages()) {
				t.Fatalf("reloaded stages = %+v, want %+v", presets[0].Stages(), orig.Stages())
			}
		})
	}
}

func TestLoadDescriptorFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "voices.yaml")
	if err := os.WriteFile(path, []byte(yamlDescriptor), 0o600); err != nil {
		t.Fatal(err)
	}

	presets, err := LoadDescriptorFile(path)
	if err != nil {
		t.Fatalf("LoadDescriptorFile: %v", err)
	}
	if len(presets) != 1 || presets[0].Name() != "radio" {
		t.Fatalf("presets = %v", presets)
	}

	if _, err := LoadDescriptorFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
