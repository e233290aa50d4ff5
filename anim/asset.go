// SPDX-License-Identifier: EPL-2.0

package anim

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ik5/speechrig/utils"
)

// Key is a curve value at Time seconds.
type Key struct {
	Time  float64 `json:"t" msgpack:"t"`
	Value float32 `json:"v" msgpack:"v"`
}

// Curve is one control's keys in increasing time order.
type Curve struct {
	Name string `json:"name" msgpack:"name"`
	Keys []Key  `json:"keys" msgpack:"keys"`
}

// Evaluate samples the curve at t, interpolating linearly between keys and
// holding the first and last values outside them. An empty curve is 0.
func (c *Curve) Evaluate(t float64) float32 {
	n := len(c.Keys)
	switch {
	case n == 0:
		return 0
	case t <= c.Keys[0].Time:
		return c.Keys[0].Value
	case t >= c.Keys[n-1].Time:
		return c.Keys[n-1].Value
	}

	// first key strictly after t; 1 <= i < n here
	i := sort.Search(n, func(i int) bool { return c.Keys[i].Time > t })
	a, b := c.Keys[i-1], c.Keys[i]

	alpha := float32((t - a.Time) / (b.Time - a.Time))
	return utils.Lerp(a.Value, b.Value, alpha)
}

// Asset is a finished animation. Duration is in seconds.
type Asset struct {
	Duration  float64 `json:"duration" msgpack:"duration"`
	FrameRate float64 `json:"frame_rate" msgpack:"frame_rate"`
	Curves    []Curve `json:"curves" msgpack:"curves"`
}

// Curve looks a curve up by name.
func (a *Asset) Curve(name string) *Curve {
	i := sort.Search(len(a.Curves), func(i int) bool { return a.Curves[i].Name >= name })
	if i < len(a.Curves) && a.Curves[i].Name == name {
		return &a.Curves[i]
	}
	// curves from elsewhere may not be sorted
	for i := range a.Curves {
		if a.Curves[i].Name == name {
			return &a.Curves[i]
		}
	}
	return nil
}

func (a *Asset) Names() []string {
	out := make([]string, len(a.Curves))
	for i, c := range a.Curves {
		out[i] = c.Name
	}
	return out
}

// Sample evaluates every curve at t, the way a player would each tick.
func (a *Asset) Sample(t float64) map[string]float32 {
	out := make(map[string]float32, len(a.Curves))
	for i := range a.Curves {
		out[a.Curves[i].Name] = a.Curves[i].Evaluate(t)
	}
	return out
}

// Keys counts keys across all curves.
func (a *Asset) Keys() int {
	n := 0
	for _, c := range a.Curves {
		n += len(c.Keys)
	}
	return n
}

func (a *Asset) EncodeJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func DecodeJSON(r io.Reader) (*Asset, error) {
	var a Asset
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return &a, nil
}

func (a *Asset) EncodeMsgpack(w io.Writer) error {
	if err := msgpack.NewEncoder(w).Encode(a); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func DecodeMsgpack(r io.Reader) (*Asset, error) {
	var a Asset
	if err := msgpack.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return &a, nil
}
