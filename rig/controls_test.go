// SPDX-License-Identifier: EPL-2.0

package rig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultControls(t *testing.T) {
	t.Parallel()

	c := DefaultControls()
	require.NoError(t, c.Validate())

	assert.NotEmpty(t, c.Face)
	assert.Len(t, c.Blink, 2)
	assert.Len(t, c.Head, 6)
	assert.Equal(t, len(c.Face)+len(c.Blink)+len(c.Head), len(c.Names()))

	speech := 0
	for _, ctl := range c.Face {
		if ctl.Region.Speech() {
			speech++
		}
	}
	assert.Greater(t, speech, 0)
	assert.Less(t, speech, len(c.Face))
}

func TestParseControls_Invalid(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"not yaml":  "face: [",
		"no face":   "head: [{name: HeadYaw}]",
		"no head":   "face: [{name: a}]",
		"duplicate": "face: [{name: a}]\nhead: [{name: a}]",
		"unnamed":   "face: [{region: mouth}]\nhead: [{name: b}]",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseControls([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidControls)
		})
	}
}

func TestLoadControls(t *testing.T) {
	t.Parallel()

	c, err := LoadControls("")
	require.NoError(t, err)
	assert.Equal(t, DefaultControls(), c)

	path := filepath.Join(t.TempDir(), "controls.yaml")
	doc := "face:\n  - {name: jaw, region: jaw}\nhead:\n  - {name: yaw, region: head}\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	c, err = LoadControls(path)
	require.NoError(t, err)
	assert.Equal(t, []Control{{Name: "jaw", Region: RegionJaw}}, c.Face)
	assert.Empty(t, c.Blink)

	_, err = ReadControls(strings.NewReader(doc))
	require.NoError(t, err)

	_, err = LoadControls(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseOutputControls(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]OutputControls{
		"":           FullFace,
		"full_face":  FullFace,
		"MouthOnly":  MouthOnly,
		"mouth_only": MouthOnly,
	} {
		got, err := ParseOutputControls(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseOutputControls("eyebrows")
	assert.ErrorIs(t, err, ErrUnknownOutputControls)

	var o OutputControls
	require.NoError(t, o.UnmarshalText([]byte("mouth_only")))
	assert.Equal(t, "mouth_only", o.String())
}
