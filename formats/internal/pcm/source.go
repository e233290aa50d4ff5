// SPDX-License-Identifier: EPL-2.0

// Package pcm adapts go-audio integer decoders to audio.Source.
package pcm

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"

	"github.com/ik5/speechrig/utils"
)

// Reader is the part of the go-audio wav and aiff decoders used here.
type Reader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// Source streams normalized float32 samples from a go-audio decoder.
type Source struct {
	dec        Reader
	sampleRate int
	channels   int
	bitDepth   int
	intBuf     *goaudio.IntBuffer
	closer     io.Closer
}

// NewSource wraps dec. closer may be nil.
func NewSource(dec Reader, bitDepth int, closer io.Closer) (*Source, error) {
	format := dec.Format()
	if format == nil || format.NumChannels <= 0 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidFormat, format)
	}

	return &Source{
		dec:        dec,
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
		bitDepth:   bitDepth,
		closer:     closer,
	}, nil
}

func (s *Source) SampleRate() int { return s.sampleRate }
func (s *Source) Channels() int   { return s.channels }
func (s *Source) BitDepth() int   { return s.bitDepth }

func (s *Source) BufSize() int {
	if s.intBuf != nil {
		return cap(s.intBuf.Data)
	}
	return 4096
}

func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}

	err := s.closer.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (s *Source) ReadSamples(dst []float32) (int, error) {
	// whole frames only
	want := len(dst) / s.channels * s.channels
	if want == 0 {
		return 0, nil
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < want {
		s.intBuf = &goaudio.IntBuffer{
			Data:           make([]int, want),
			Format:         s.dec.Format(),
			SourceBitDepth: s.bitDepth,
		}
	} else {
		s.intBuf.Data = s.intBuf.Data[:want]
	}

	n, err := s.dec.PCMBuffer(s.intBuf)
	if n == 0 {
		if err != nil && err != io.EOF {
			return 0, fmt.Errorf("%w", err)
		}
		return 0, io.EOF
	}

	for i := range n {
		dst[i] = utils.IntToFloat32(s.intBuf.Data[i], s.bitDepth)
	}

	// a short read means the data chunk is exhausted
	if n < want && err == nil {
		return n, io.EOF
	}
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("%w", err)
	}

	return n, err
}
