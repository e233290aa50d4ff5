// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/aiff"

	"github.com/ik5/speechrig/audio"
	"github.com/ik5/speechrig/formats/internal/pcm"
)

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	// go-audio requires io.ReadSeeker
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading aiff data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}

	switch dec.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, dec.BitDepth)
	}

	src, err := pcm.NewSource(dec, int(dec.BitDepth), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotAiffFile, err)
	}
	return src, nil
}
