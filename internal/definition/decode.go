// Package definition reads calculator definitions from YAML, JSON, TOML and
// HCL files and compiles them into a Registry.
package definition

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/iwvelando/finance-calculators/internal/calculator"
	"gopkg.in/yaml.v3"
)

// Supported file extensions.
const (
	ExtYAML = ".yaml"
	ExtYML  = ".yml"
	ExtJSON = ".json"
	ExtTOML = ".toml"
	ExtHCL  = ".hcl"
)

// IsDefinitionFile reports whether path has a supported extension.
func IsDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtYAML, ExtYML, ExtJSON, ExtTOML, ExtHCL:
		return true
	}
	return false
}

// bundle is the multi-definition document shape shared by every format.
type bundle struct {
	Calculators []calculator.Definition `json:"calculators" yaml:"calculators" toml:"calculators"`
}

// Decode parses the definitions contained in one file. The format is chosen
// by the extension of name. YAML and JSON documents hold either a single
// definition or a "calculators" list; TOML documents use [[calculators]].
func Decode(name string, data []byte) ([]calculator.Definition, error) {
	var (
		defs []calculator.Definition
		err  error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ExtYAML, ExtYML:
		defs, err = decodeYAML(data)
	case ExtJSON:
		defs, err = decodeJSON(data)
	case ExtTOML:
		defs, err = decodeTOML(data)
	case ExtHCL:
		defs, err = decodeHCL(name, data)
	default:
		return nil, fmt.Errorf("unsupported definition file %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return defs, nil
}

func decodeYAML(data []byte) ([]calculator.Definition, error) {
	var probe map[string]any
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	dec := func(v any) error {
		d := yaml.NewDecoder(bytes.NewReader(data))
		d.KnownFields(true)
		if err := d.Decode(v); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	}
	if _, ok := probe["calculators"]; ok {
		var b bundle
		if err := dec(&b); err != nil {
			return nil, err
		}
		return b.Calculators, nil
	}
	var def calculator.Definition
	if err := dec(&def); err != nil {
		return nil, err
	}
	return []calculator.Definition{def}, nil
}

func decodeJSON(data []byte) ([]calculator.Definition, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	dec := func(v any) error {
		d := json.NewDecoder(bytes.NewReader(data))
		d.DisallowUnknownFields()
		return d.Decode(v)
	}
	if _, ok := probe["calculators"]; ok {
		var b bundle
		if err := dec(&b); err != nil {
			return nil, err
		}
		return b.Calculators, nil
	}
	var def calculator.Definition
	if err := dec(&def); err != nil {
		return nil, err
	}
	return []calculator.Definition{def}, nil
}

func decodeTOML(data []byte) ([]calculator.Definition, error) {
	var b bundle
	md, err := toml.Decode(string(data), &b)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return b.Calculators, nil
}
