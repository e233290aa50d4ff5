// SPDX-License-Identifier: EPL-2.0

package rig

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownOutputControls = errors.New("unknown output controls")
	ErrInvalidControls       = errors.New("invalid controls table")
)

// OutputControls picks which controls end up in the animation.
type OutputControls int

const (
	FullFace OutputControls = iota
	// MouthOnly keeps the mouth region of the face track and drops head
	// motion.
	MouthOnly
)

func (o OutputControls) String() string {
	switch o {
	case FullFace:
		return "full_face"
	case MouthOnly:
		return "mouth_only"
	}
	return fmt.Sprintf("OutputControls(%d)", int(o))
}

func ParseOutputControls(s string) (OutputControls, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "full_face", "fullface", "full":
		return FullFace, nil
	case "mouth_only", "mouthonly", "mouth":
		return MouthOnly, nil
	}
	return FullFace, fmt.Errorf("%w: %q", ErrUnknownOutputControls, s)
}

func (o OutputControls) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *OutputControls) UnmarshalText(b []byte) error {
	v, err := ParseOutputControls(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// Region groups face controls.
type Region string

const (
	RegionMouth  Region = "mouth"
	RegionJaw    Region = "jaw"
	RegionTongue Region = "tongue"
	RegionBrows  Region = "brows"
	RegionEyes   Region = "eyes"
	RegionCheeks Region = "cheeks"
	RegionNose   Region = "nose"
	RegionHead   Region = "head"
)

// Speech reports whether the region moves with articulation.
func (r Region) Speech() bool {
	return r == RegionMouth || r == RegionJaw || r == RegionTongue
}

type Control struct {
	Name   string `yaml:"name"`
	Region Region `yaml:"region"`
}

// Controls names the columns of the decoder's three outputs, in order.
type Controls struct {
	Face  []Control `yaml:"face"`
	Blink []Control `yaml:"blink"`
	Head  []Control `yaml:"head"`
}

//go:embed controls.yaml
var defaultControls []byte

// DefaultControls returns the built-in table.
func DefaultControls() *Controls {
	c, err := ParseControls(defaultControls)
	if err != nil {
		panic(fmt.Sprintf("rig: built-in controls table: %v", err))
	}
	return c
}

func ParseControls(data []byte) (*Controls, error) {
	var c Controls
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidControls, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func ReadControls(r io.Reader) (*Controls, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return ParseControls(data)
}

// LoadControls reads a table from path, or returns the built-in one when
// path is empty.
func LoadControls(path string) (*Controls, error) {
	if path == "" {
		return DefaultControls(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return ParseControls(data)
}

// Validate requires non-empty face and head lists and unique names.
func (c *Controls) Validate() error {
	if len(c.Face) == 0 {
		return fmt.Errorf("%w: no face controls", ErrInvalidControls)
	}
	if len(c.Head) == 0 {
		return fmt.Errorf("%w: no head controls", ErrInvalidControls)
	}

	seen := make(map[string]bool)
	for _, list := range [][]Control{c.Face, c.Blink, c.Head} {
		for _, ctl := range list {
			if ctl.Name == "" {
				return fmt.Errorf("%w: unnamed control", ErrInvalidControls)
			}
			if seen[ctl.Name] {
				return fmt.Errorf("%w: duplicate control %q", ErrInvalidControls, ctl.Name)
			}
			seen[ctl.Name] = true
		}
	}
	return nil
}

// Names lists every control name: face, then blink, then head.
func (c *Controls) Names() []string {
	out := make([]string, 0, len(c.Face)+len(c.Blink)+len(c.Head))
	for _, list := range [][]Control{c.Face, c.Blink, c.Head} {
		for _, ctl := range list {
			out = append(out, ctl.Name)
		}
	}
	return out
}
