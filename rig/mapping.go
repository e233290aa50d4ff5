// SPDX-License-Identifier: EPL-2.0

package rig

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidMapping = errors.New("invalid control mapping")

// Mapper converts GUI control values into raw rig control values.
type Mapper interface {
	ToRaw(gui map[string]float32) map[string]float32
}

// MapperFunc adapts a function to Mapper.
type MapperFunc func(gui map[string]float32) map[string]float32

func (f MapperFunc) ToRaw(gui map[string]float32) map[string]float32 { return f(gui) }

// Identity leaves names and values as they are.
var Identity Mapper = MapperFunc(func(gui map[string]float32) map[string]float32 {
	return maps.Clone(gui)
})

// Segment maps the GUI range From onto the raw range To.
type Segment struct {
	Raw  string    `yaml:"raw"`
	From []float32 `yaml:"from"`
	To   []float32 `yaml:"to"`
}

// Apply clamps v into From and maps it linearly onto To.
func (s Segment) Apply(v float32) float32 {
	lo, hi := min(s.From[0], s.From[1]), max(s.From[0], s.From[1])
	v = max(lo, min(v, hi))

	t := (v - s.From[0]) / (s.From[1] - s.From[0])
	return s.To[0] + t*(s.To[1]-s.To[0])
}

// TableMapper applies per-control segments. Contributions to the same raw
// control are summed; GUI controls without segments pass through.
type TableMapper struct {
	rules map[string][]Segment
}

//go:embed mapping.yaml
var defaultMapping []byte

func DefaultMapper() *TableMapper {
	m, err := ParseMapping(defaultMapping)
	if err != nil {
		panic(fmt.Sprintf("rig: built-in mapping table: %v", err))
	}
	return m
}

func ParseMapping(data []byte) (*TableMapper, error) {
	var rules map[string][]Segment
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMapping, err)
	}

	for gui, segs := range rules {
		for i, s := range segs {
			switch {
			case s.Raw == "":
				return nil, fmt.Errorf("%w: %s segment %d has no raw control", ErrInvalidMapping, gui, i)
			case len(s.From) != 2 || len(s.To) != 2:
				return nil, fmt.Errorf("%w: %s segment %d needs two-value ranges", ErrInvalidMapping, gui, i)
			case s.From[0] == s.From[1]:
				return nil, fmt.Errorf("%w: %s segment %d has an empty input range", ErrInvalidMapping, gui, i)
			}
		}
	}

	return &TableMapper{rules: rules}, nil
}

func ReadMapping(r io.Reader) (*TableMapper, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return ParseMapping(data)
}

// LoadMapping reads a table from path, or returns the built-in one when
// path is empty.
func LoadMapping(path string) (*TableMapper, error) {
	if path == "" {
		return DefaultMapper(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return ParseMapping(data)
}

func (m *TableMapper) ToRaw(gui map[string]float32) map[string]float32 {
	out := make(map[string]float32, len(gui))

	for name, v := range gui {
		segs, ok := m.rules[name]
		if !ok {
			out[name] += v
			continue
		}
		for _, s := range segs {
			out[s.Raw] += s.Apply(v)
		}
	}
	return out
}

// Segments returns the rules for one GUI control.
func (m *TableMapper) Segments(gui string) []Segment {
	return m.rules[gui]
}
