// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/speechrig/audio"
	"github.com/ik5/speechrig/utils"
)

// go-mp3 always decodes to interleaved stereo
const channels = 2

// mp3Reader is the part of gomp3.Decoder used here.
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

type source struct {
	dec        mp3Reader
	sampleRate int
	buf        []byte
	// odd byte carried over between reads
	pending []byte
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return cap(s.buf) / 2 } // sample capacity, not bytes

func (s *source) ReadSamples(dst []float32) (int, error) {
	want := len(dst) / channels * channels
	if want == 0 {
		return 0, nil
	}

	bytesNeeded := want * 2
	if cap(s.buf) < bytesNeeded {
		s.buf = make([]byte, bytesNeeded)
	}
	s.buf = s.buf[:bytesNeeded]

	carried := copy(s.buf, s.pending)
	s.pending = s.pending[:0]

	n, err := s.dec.Read(s.buf[carried:])
	n += carried
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("%w", err)
	}

	// whole frames only; the remainder waits for the next read
	frameBytes := channels * 2
	usable := n / frameBytes * frameBytes
	if err == nil && usable < n {
		s.pending = append(s.pending, s.buf[usable:n]...)
	}

	samples := usable / 2
	for i := range samples {
		dst[i] = utils.Int16ToFloat32(int16(binary.LittleEndian.Uint16(s.buf[2*i:])))
	}

	if err == io.EOF {
		if samples == 0 {
			return 0, io.EOF
		}
		return samples, io.EOF
	}
	return samples, nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotMP3File, err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		buf:        make([]byte, 8192),
	}, nil
}
