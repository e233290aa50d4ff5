// SPDX-License-Identifier: EPL-2.0

package anim

import (
	"slices"

	"github.com/ik5/speechrig/rig"
)

// Assembler builds assets from resampled frames.
type Assembler struct {
	mapper rig.Mapper
}

// NewAssembler maps frames through m; nil keeps GUI names.
func NewAssembler(m rig.Mapper) *Assembler {
	if m == nil {
		m = rig.Identity
	}
	return &Assembler{mapper: m}
}

// Assemble keys frame i at i/fps seconds. Frames with no values are
// skipped. The first frame with values fixes the curve set, sorted by name;
// later names outside that set are dropped.
func (a *Assembler) Assemble(frames []Frame, fps, duration float64) (*Asset, error) {
	if err := CheckFrameRate(fps); err != nil {
		return nil, err
	}

	asset := &Asset{Duration: duration, FrameRate: fps}
	var index map[string]int

	for i, f := range frames {
		if len(f) == 0 {
			continue
		}
		raw := a.mapper.ToRaw(f)
		if len(raw) == 0 {
			continue
		}

		if index == nil {
			names := make([]string, 0, len(raw))
			for name := range raw {
				names = append(names, name)
			}
			slices.Sort(names)

			index = make(map[string]int, len(names))
			asset.Curves = make([]Curve, len(names))
			for j, name := range names {
				index[name] = j
				asset.Curves[j] = Curve{Name: name, Keys: make([]Key, 0, len(frames)-i)}
			}
		}

		t := float64(i) / fps
		for name, v := range raw {
			j, ok := index[name]
			if !ok {
				continue
			}
			asset.Curves[j].Keys = append(asset.Curves[j].Keys, Key{Time: t, Value: v})
		}
	}

	return asset, nil
}
