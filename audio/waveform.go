// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
	"time"

	"github.com/ik5/speechrig/utils"
)

// Waveform is an immutable buffer of interleaved signed 16-bit PCM.
type Waveform struct {
	samples    []int16
	sampleRate int
	channels   int
}

// NewWaveform copies samples into a new Waveform. The sample count must be
// a whole number of frames.
func NewWaveform(samples []int16, sampleRate, channels int) (*Waveform, error) {
	if sampleRate <= 0 || channels <= 0 || len(samples)%channels != 0 {
		return nil, fmt.Errorf("%w: rate=%d channels=%d samples=%d",
			ErrInvalidWaveform, sampleRate, channels, len(samples))
	}

	buf := make([]int16, len(samples))
	copy(buf, samples)

	return &Waveform{
		samples:    buf,
		sampleRate: sampleRate,
		channels:   channels,
	}, nil
}

func (w *Waveform) SampleRate() int { return w.sampleRate }
func (w *Waveform) Channels() int   { return w.channels }

// Len is the number of interleaved samples.
func (w *Waveform) Len() int { return len(w.samples) }

// Frames is the number of sample frames (samples per channel).
func (w *Waveform) Frames() int { return len(w.samples) / w.channels }

// Duration of the waveform, truncated to the nanosecond.
func (w *Waveform) Duration() time.Duration {
	return time.Duration(int64(w.Frames()) * int64(time.Second) / int64(w.sampleRate))
}

// Samples returns a copy of the interleaved samples.
func (w *Waveform) Samples() []int16 {
	out := make([]int16, len(w.samples))
	copy(out, w.samples)
	return out
}

// frameAt returns the index of the first frame at or after offset.
func (w *Waveform) frameAt(offset time.Duration) int {
	return int(int64(offset) * int64(w.sampleRate) / int64(time.Second))
}

// Source streams the waveform as normalized float32 samples.
func (w *Waveform) Source() Source {
	return &waveformSource{w: w}
}

// sourceFrom streams the waveform starting at the given frame.
func (w *Waveform) sourceFrom(frame int) Source {
	return &waveformSource{w: w, pos: frame * w.channels}
}

type waveformSource struct {
	w   *Waveform
	pos int
}

func (s *waveformSource) SampleRate() int { return s.w.sampleRate }
func (s *waveformSource) Channels() int   { return s.w.channels }
func (s *waveformSource) BufSize() int    { return 4096 }
func (s *waveformSource) Close() error    { return nil }

func (s *waveformSource) ReadSamples(dst []float32) (int, error) {
	remaining := len(s.w.samples) - s.pos
	if remaining <= 0 {
		return 0, io.EOF
	}

	// whole frames only
	n := min(len(dst)/s.w.channels*s.w.channels, remaining)
	for i := range n {
		dst[i] = utils.Int16ToFloat32(s.w.samples[s.pos+i])
	}
	s.pos += n

	if s.pos >= len(s.w.samples) {
		return n, io.EOF
	}
	return n, nil
}

// ReadWaveform drains src into a Waveform, converting samples to 16-bit PCM.
// The source is not closed.
func ReadWaveform(src Source) (*Waveform, error) {
	channels := src.Channels()
	bufSize := src.BufSize()
	if bufSize <= 0 {
		bufSize = 4096
	}
	bufSize = max(bufSize/channels, 1) * channels

	samples, err := readAll(src, bufSize)
	if err != nil {
		return nil, err
	}

	// drop a trailing partial frame
	samples = samples[:len(samples)/channels*channels]

	pcm16 := make([]int16, len(samples))
	for i, x := range samples {
		pcm16[i] = utils.Float32ToInt16(x)
	}

	return &Waveform{
		samples:    pcm16,
		sampleRate: src.SampleRate(),
		channels:   channels,
	}, nil
}
