// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
	"time"
)

// maxEmptyReads bounds how many (0, nil) reads are tolerated from a source
// before giving up with io.ErrNoProgress.
const maxEmptyReads = 64

// Signal is a mono float32 sample buffer at a fixed rate.
type Signal struct {
	Samples    []float32
	SampleRate int
}

func (s *Signal) Len() int { return len(s.Samples) }

func (s *Signal) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(int64(len(s.Samples)) * int64(time.Second) / int64(s.SampleRate))
}

// Peak returns the largest absolute sample value.
func (s *Signal) Peak() float32 {
	return peak(s.Samples)
}

func peak(samples []float32) float32 {
	var p float32
	for _, x := range samples {
		if x < 0 {
			x = -x
		}
		if x > p {
			p = x
		}
	}
	return p
}

// readAll drains src until io.EOF.
func readAll(src Source, bufSize int) ([]float32, error) {
	buf := make([]float32, bufSize)
	out := make([]float32, 0, bufSize)
	empty := 0

	for {
		n, err := src.ReadSamples(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
			empty = 0
		}

		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w", err)
		}

		if n == 0 {
			empty++
			if empty >= maxEmptyReads {
				return nil, io.ErrNoProgress
			}
		}
	}
}

// sliceSource streams a mono float32 slice.
type sliceSource struct {
	samples    []float32
	sampleRate int
	pos        int
}

func newSliceSource(samples []float32, sampleRate int) *sliceSource {
	return &sliceSource{samples: samples, sampleRate: sampleRate}
}

func (s *sliceSource) SampleRate() int { return s.sampleRate }
func (s *sliceSource) Channels() int   { return 1 }
func (s *sliceSource) BufSize() int    { return 4096 }
func (s *sliceSource) Close() error    { return nil }

func (s *sliceSource) ReadSamples(dst []float32) (int, error) {
	if s.pos >= len(s.samples) {
		return 0, io.EOF
	}

	n := copy(dst, s.samples[s.pos:])
	s.pos += n

	if s.pos >= len(s.samples) {
		return n, io.EOF
	}
	return n, nil
}
