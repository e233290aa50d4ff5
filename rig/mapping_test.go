// SPDX-License-Identifier: EPL-2.0

package rig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegment_Apply(t *testing.T) {
	t.Parallel()

	up := Segment{Raw: "r", From: []float32{0, 1}, To: []float32{0, 1}}
	down := Segment{Raw: "r", From: []float32{0, -1}, To: []float32{0, 1}}
	scaled := Segment{Raw: "r", From: []float32{0, 0.5}, To: []float32{0, 1}}

	tests := []struct {
		name string
		seg  Segment
		in   float32
		want float32
	}{
		{"up inside", up, 0.25, 0.25},
		{"up clamps high", up, 2, 1},
		{"up clamps negative", up, -0.5, 0},
		{"down inside", down, -0.5, 0.5},
		{"down ignores positive", down, 0.5, 0},
		{"scaled", scaled, 0.25, 0.5},
		{"scaled saturates", scaled, 0.75, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, tt.seg.Apply(tt.in), 1e-6)
		})
	}
}

func TestTableMapper_ToRaw(t *testing.T) {
	t.Parallel()

	m, err := ParseMapping([]byte(`
jaw.tx:
  - {raw: jawLeft, from: [0, -1], to: [0, 1]}
  - {raw: jawRight, from: [0, 1], to: [0, 1]}
purse:
  - {raw: purseL, from: [0, 1], to: [0, 1]}
  - {raw: purseR, from: [0, 1], to: [0, 1]}
purseL.extra:
  - {raw: purseL, from: [0, 1], to: [0, 0.5]}
`))
	require.NoError(t, err)

	got := m.ToRaw(map[string]float32{
		"jaw.tx":       -0.4,
		"purse":        0.6,
		"purseL.extra": 0.2,
		"HeadYaw":      0.3,
	})

	assert.InDelta(t, 0.4, got["jawLeft"], 1e-6)
	assert.InDelta(t, 0, got["jawRight"], 1e-6)
	assert.InDelta(t, 0.7, got["purseL"], 1e-6)
	assert.InDelta(t, 0.6, got["purseR"], 1e-6)
	assert.InDelta(t, 0.3, got["HeadYaw"], 1e-6)
	assert.NotContains(t, got, "jaw.tx")
	assert.Len(t, got, 5)
}

func TestParseMapping_Invalid(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"not yaml":    "a: [",
		"no raw":      "a: [{from: [0, 1], to: [0, 1]}]",
		"short range": "a: [{raw: b, from: [0], to: [0, 1]}]",
		"empty range": "a: [{raw: b, from: [1, 1], to: [0, 1]}]",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseMapping([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidMapping)
		})
	}
}

func TestDefaultMapper_CoversFaceControls(t *testing.T) {
	t.Parallel()

	m := DefaultMapper()
	c := DefaultControls()

	for _, ctl := range append(append([]Control(nil), c.Face...), c.Blink...) {
		assert.NotEmpty(t, m.Segments(ctl.Name), ctl.Name)
	}
	for _, ctl := range c.Head {
		assert.Empty(t, m.Segments(ctl.Name), "head controls pass through: %s", ctl.Name)
	}

	raw := m.ToRaw(map[string]float32{"CTRL_C_jaw.ty": 0.8})
	assert.InDelta(t, 0.8, raw["CTRL_expressions_jawOpen"], 1e-6)
}

func TestIdentity(t *testing.T) {
	t.Parallel()

	in := map[string]float32{"a": 1}
	out := Identity.ToRaw(in)
	out["a"] = 2

	assert.Equal(t, float32(1), in["a"])
}
