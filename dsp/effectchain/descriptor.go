package effectchain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-voicefx/dsp/effects"
	"gopkg.in/yaml.v3"
)

// ErrInvalidFormat is returned for descriptor formats other than JSON and
// YAML.
var ErrInvalidFormat = errors.New("effectchain: invalid descriptor format")

// Format selects the descriptor encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// String returns the lower-case format name.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, path)
	}
}

// descriptorFile is the persisted preset document:
//
//	presets:
//	  - name: radio
//	    effects:
//	      - kind: megaphone
//	        params: {drive: 0.7}
//	      - kind: echo
//	        bypass: true
type descriptorFile struct {
	Presets []presetNode `json:"presets" yaml:"presets"`
}

type presetNode struct {
	Name    string      `json:"name"    yaml:"name"`
	Effects []stageNode `json:"effects" yaml:"effects"`
}

type stageNode struct {
	Kind   string         `json:"kind"             yaml:"kind"`
	Bypass bool           `json:"bypass,omitempty" yaml:"bypass,omitempty"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// LoadDescriptorFile reads presets from a JSON or YAML file.
func LoadDescriptorFile(path string) ([]*Preset, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("effectchain: open %q: %w", path, err)
	}
	defer f.Close()

	presets, err := LoadDescriptor(f, format)
	if err != nil {
		return nil, fmt.Errorf("effectchain: parse %q: %w", path, err)
	}
	return presets, nil
}

// LoadDescriptor decodes presets from r. Parameter maps tolerate unknown
// keys (ignored), missing keys (defaulted) and non-numeric values
// (ignored; booleans map to 1 and 0). Stages with an unrecognised kind are
// kept as unknown stages and skipped when the preset is applied.
func LoadDescriptor(r io.Reader, format Format) ([]*Preset, error) {
	var doc descriptorFile

	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("effectchain: decode json: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("effectchain: decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, format)
	}

	if err := validateDescriptor(&doc); err != nil {
		return nil, err
	}

	presets := make([]*Preset, 0, len(doc.Presets))
	for _, pn := range doc.Presets {
		stages := make([]Stage, 0, len(pn.Effects))
		for _, sn := range pn.Effects {
			stages = append(stages, buildStage(sn))
		}
		presets = append(presets, NewPreset(pn.Name, stages...))
	}
	return presets, nil
}

// ParseDescriptor is LoadDescriptor over a byte slice.
func ParseDescriptor(data []byte, format Format) ([]*Preset, error) {
	return LoadDescriptor(bytes.NewReader(data), format)
}

// MarshalDescriptor encodes presets in the descriptor format. Every known
// stage is written with its full parameter set.
func MarshalDescriptor(presets []*Preset, format Format) ([]byte, error) {
	doc := descriptorFile{Presets: make([]presetNode, 0, len(presets))}

	for _, p := range presets {
		pn := presetNode{Name: p.Name(), Effects: make([]stageNode, 0, p.Len())}
		for _, st := range p.stages {
			sn := stageNode{Kind: st.Name, Bypass: st.Bypass}
			if st.Known() {
				sn.Kind = st.Kind.String()
				if st.Params != nil {
					values, err := EncodeParams(st.Params)
					if err != nil {
						return nil, err
					}
					sn.Params = make(map[string]any, len(values))
					for k, v := range values {
						sn.Params[k] = v
					}
				}
			}
			pn.Effects = append(pn.Effects, sn)
		}
		doc.Presets = append(doc.Presets, pn)
	}

	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		return yaml.Marshal(doc)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, format)
	}
}

// validateDescriptor returns a joined error listing every structural
// problem. Unknown effect kinds are not errors.
func validateDescriptor(doc *descriptorFile) error {
	var errs []error

	seen := make(map[string]int, len(doc.Presets))
	for i, pn := range doc.Presets {
		prefix := fmt.Sprintf("presets[%d]", i)
		if strings.TrimSpace(pn.Name) == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		} else {
			if prev, ok := seen[pn.Name]; ok {
				errs = append(errs, fmt.Errorf("%s.name %q is a duplicate of presets[%d]", prefix, pn.Name, prev))
			}
			seen[pn.Name] = i
		}
		for j, sn := range pn.Effects {
			if strings.TrimSpace(sn.Kind) == "" {
				errs = append(errs, fmt.Errorf("%s.effects[%d].kind is required", prefix, j))
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

func buildStage(sn stageNode) Stage {
	st := Stage{Name: sn.Kind, Bypass: sn.Bypass}

	kind, ok := effects.ParseKind(sn.Kind)
	if !ok || !Registered(kind) {
		return st
	}

	params, err := DecodeParams(kind, parseStageParams(sn.Params))
	if err != nil {
		return st
	}

	st.Kind = kind
	st.Params = params
	return st
}

// parseStageParams extracts the numeric entries of a raw parameter map.
func parseStageParams(raw map[string]any) map[string]float64 {
	num := make(map[string]float64, len(raw))

	for k, v := range raw {
		switch t := v.(type) {
		case float64:
			num[k] = t
		case float32:
			num[k] = float64(t)
		case int:
			num[k] = float64(t)
		case int64:
			num[k] = float64(t)
		case uint64:
			num[k] = float64(t)
		case bool:
			if t {
				num[k] = 1
			} else {
				num[k] = 0
			}
		}
	}

	return num
}
