// SPDX-License-Identifier: EPL-2.0

package rig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTracks() *Tracks {
	return &Tracks{
		Face: &Track{
			Controls: []Control{
				{Name: "brow", Region: RegionBrows},
				{Name: "jaw", Region: RegionJaw},
				{Name: "lips", Region: RegionMouth},
			},
			Frames: 2,
			Data:   []float32{1, 2, 3, 4, 5, 6},
		},
		Blink: &Track{Controls: []Control{{Name: "blink"}}, Frames: 2, Data: []float32{0, 1}},
		Head:  &Track{Controls: []Control{{Name: "yaw"}}, Frames: 2, Data: []float32{.1, .2}},
	}
}

func TestTrack_Filter(t *testing.T) {
	t.Parallel()

	face := sampleTracks().Face
	got := face.Filter(func(c Control) bool { return c.Region.Speech() })

	assert.Equal(t, []string{"jaw", "lips"}, got.Names())
	assert.Equal(t, 2, got.Frames)
	assert.Equal(t, []float32{2, 3, 5, 6}, got.Data)
	assert.Equal(t, []float32{5, 6}, got.Row(1))

	// source untouched
	assert.Equal(t, 3, face.Width())
}

func TestTracks_Select(t *testing.T) {
	t.Parallel()

	tr := sampleTracks()

	full := tr.Select(FullFace, true)
	require.Len(t, full.All(), 3)
	assert.Equal(t, 3, full.Face.Width())

	mouth := tr.Select(MouthOnly, true)
	assert.Nil(t, mouth.Head)
	assert.NotNil(t, mouth.Blink)
	assert.Equal(t, []string{"jaw", "lips"}, mouth.Face.Names())

	noBlink := tr.Select(FullFace, false)
	assert.Nil(t, noBlink.Blink)
	assert.NotNil(t, noBlink.Head)

	assert.Equal(t, 2, mouth.Frames())
	assert.Equal(t, 0, (&Tracks{}).Frames())

	// Select does not modify the receiver
	assert.NotNil(t, tr.Head)
	assert.NotNil(t, tr.Blink)
}
