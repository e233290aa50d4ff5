// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"fmt"
	"io"

	gowav "github.com/go-audio/wav"

	"github.com/ik5/speechrig/audio"
	"github.com/ik5/speechrig/formats/internal/pcm"
)

const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
)

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	// go-audio requires io.ReadSeeker
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading wav data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := gowav.NewDecoder(rs)
	if !dec.IsValidFile() {
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotWavFile, err)
		}
		return nil, ErrNotWavFile
	}

	if dec.WavAudioFormat != formatPCM && dec.WavAudioFormat != formatExtensible {
		return nil, fmt.Errorf("%w: format tag %#x", ErrUnsupportedEncoding, dec.WavAudioFormat)
	}

	switch dec.BitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, dec.BitDepth)
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	src, err := pcm.NewSource(dec, int(dec.BitDepth), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotWavFile, err)
	}
	return src, nil
}
