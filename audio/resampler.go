// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	"github.com/ik5/speechrig/utils"
)

// Resampler streams from src to a target sample rate using linear
// interpolation. Works on interleaved samples; preserves channel count.
//
// Output frame j is taken at source position j*srcRate/dstRate, so the
// stream yields floor((n-1)*dstRate/srcRate)+1 frames for n source frames.
// That length can differ from n*dstRate/srcRate; callers should use the
// number of samples actually read.
type Resampler struct {
	src      Source
	srcRate  int64
	dstRate  int64
	channels int

	// frames[0] is source frame base, frames[1] is base+1
	frames   [2][]float32
	hasFrame [2]bool
	base     int64
	primed   bool

	// index of the next output frame
	out int64

	srcBuf []float32
	eof    bool
	done   bool
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()

	r := &Resampler{
		src:      src,
		srcRate:  int64(src.SampleRate()),
		dstRate:  int64(dstRate),
		channels: channels,
		srcBuf:   make([]float32, channels),
	}

	for i := range r.frames {
		r.frames[i] = make([]float32, channels)
	}

	return r
}

func (r *Resampler) SampleRate() int { return int(r.dstRate) }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	err := r.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// readFrame reads exactly one frame from the source into dst.
func (r *Resampler) readFrame(dst []float32) (bool, error) {
	for empty := 0; !r.eof; {
		n, err := r.src.ReadSamples(r.srcBuf)
		if err == io.EOF {
			r.eof = true
		} else if err != nil {
			return false, fmt.Errorf("%w", err)
		}

		if n == r.channels {
			copy(dst, r.srcBuf)
			return true, nil
		}

		if n == 0 {
			empty++
			if empty >= maxEmptyReads {
				return false, io.ErrNoProgress
			}
		}
	}

	return false, nil
}

// advance shifts the frame window forward by one source frame.
func (r *Resampler) advance() error {
	copy(r.frames[0], r.frames[1])
	r.hasFrame[0] = r.hasFrame[1]
	r.base++

	if !r.hasFrame[1] {
		return nil
	}

	ok, err := r.readFrame(r.frames[1])
	if err != nil {
		return err
	}
	r.hasFrame[1] = ok
	return nil
}

// ReadSamples produces dst samples at r.dstRate.
// dst length should be a multiple of r.channels.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if r.done {
		return 0, io.EOF
	}

	if !r.primed {
		r.primed = true
		for i := range r.frames {
			ok, err := r.readFrame(r.frames[i])
			if err != nil {
				return 0, err
			}
			r.hasFrame[i] = ok
			if !ok {
				break
			}
		}
	}

	written := 0
	framesNeeded := len(dst) / r.channels

	for written < framesNeeded {
		// whole source frame and remainder of out*srcRate/dstRate
		num := r.out * r.srcRate
		idx := num / r.dstRate
		rem := num % r.dstRate

		for r.base < idx && r.hasFrame[0] {
			if err := r.advance(); err != nil {
				return written * r.channels, err
			}
		}

		alpha := float32(float64(rem) / float64(r.dstRate))

		// Past the last source frame, or between it and a frame that does not exist
		if r.base != idx || !r.hasFrame[0] || (!r.hasFrame[1] && alpha > 0) {
			r.done = true
			if written == 0 {
				return 0, io.EOF
			}
			return written * r.channels, io.EOF
		}

		base := written * r.channels
		for c := range r.channels {
			if r.hasFrame[1] {
				dst[base+c] = utils.Lerp(r.frames[0][c], r.frames[1][c], alpha)
			} else {
				dst[base+c] = r.frames[0][c]
			}
		}

		written++
		r.out++
	}

	return written * r.channels, nil
}
