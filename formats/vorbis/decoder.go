// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/ik5/speechrig/audio"
)

// oggReader is the part of oggvorbis.Reader used here. Read returns the
// number of interleaved values decoded, always a whole number of frames.
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

type source struct {
	dec        oggReader
	sampleRate int
	channels   int
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return 4096 }

func (s *source) ReadSamples(dst []float32) (int, error) {
	want := len(dst) / s.channels * s.channels
	if want == 0 {
		return 0, nil
	}

	n, err := s.dec.Read(dst[:want])
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("%w", err)
	}
	if n == 0 && err == io.EOF {
		return 0, io.EOF
	}

	return n, err
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotVorbisFile, err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   dec.Channels(),
	}, nil
}
