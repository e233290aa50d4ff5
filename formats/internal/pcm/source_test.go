// SPDX-License-Identifier: EPL-2.0

package pcm

import (
	"errors"
	"io"
	"testing"

	goaudio "github.com/go-audio/audio"
)

// fakeReader replays samples through the go-audio PCMBuffer contract.
type fakeReader struct {
	format  *goaudio.Format
	samples []int
	offset  int
	err     error
}

func (f *fakeReader) Format() *goaudio.Format { return f.format }

func (f *fakeReader) PCMBuffer(buf *goaudio.IntBuffer) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n := copy(buf.Data, f.samples[f.offset:])
	f.offset += n
	return n, nil
}

type countingCloser struct{ calls int }

func (c *countingCloser) Close() error {
	c.calls++
	return nil
}

func newFake(rate, channels int, samples ...int) *fakeReader {
	return &fakeReader{
		format:  &goaudio.Format{SampleRate: rate, NumChannels: channels},
		samples: samples,
	}
}

func TestNewSource_InvalidFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format *goaudio.Format
	}{
		{"nil", nil},
		{"no channels", &goaudio.Format{SampleRate: 8000}},
		{"no rate", &goaudio.Format{NumChannels: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewSource(&fakeReader{format: tt.format}, 16, nil)
			if !errors.Is(err, ErrInvalidFormat) {
				t.Errorf("NewSource() error = %v, want ErrInvalidFormat", err)
			}
		})
	}
}

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	src, err := NewSource(newFake(22050, 2, 0, 16384, -16384, -32768), 16, nil)
	if err != nil {
		t.Fatalf("NewSource() error = %v", err)
	}

	if src.SampleRate() != 22050 || src.Channels() != 2 || src.BitDepth() != 16 {
		t.Fatalf("metadata = (%d Hz, %d ch, %d bit)", src.SampleRate(), src.Channels(), src.BitDepth())
	}

	buf := make([]float32, 8)
	n, err := src.ReadSamples(buf)
	if err != io.EOF {
		t.Errorf("ReadSamples() error = %v, want io.EOF on short read", err)
	}

	want := []float32{0, 0.5, -0.5, -1}
	if n != len(want) {
		t.Fatalf("ReadSamples() n = %d, want %d", n, len(want))
	}
	for i := range want {
		if buf[i] != want[i] {
			t.Errorf("buf[%d] = %v, want %v", i, buf[i], want[i])
		}
	}

	n, err = src.ReadSamples(buf)
	if n != 0 || err != io.EOF {
		t.Errorf("ReadSamples() after end = (%d, %v), want (0, io.EOF)", n, err)
	}
}

func TestSource_BitDepthScaling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		bitDepth int
		sample   int
		want     float32
	}{
		{16, 16384, 0.5},
		{24, 4194304, 0.5},
		{32, -1073741824, -0.5},
	}

	for _, tt := range tests {
		src, err := NewSource(newFake(8000, 1, tt.sample, tt.sample), tt.bitDepth, nil)
		if err != nil {
			t.Fatalf("NewSource() error = %v", err)
		}

		buf := make([]float32, 1)
		if _, err := src.ReadSamples(buf); err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
		if buf[0] != tt.want {
			t.Errorf("%d-bit sample %d = %v, want %v", tt.bitDepth, tt.sample, buf[0], tt.want)
		}
	}
}

func TestSource_ReadsWholeFrames(t *testing.T) {
	t.Parallel()

	src, err := NewSource(newFake(8000, 2, 1, 2, 3, 4, 5, 6), 16, nil)
	if err != nil {
		t.Fatalf("NewSource() error = %v", err)
	}

	n, err := src.ReadSamples(make([]float32, 5))
	if n != 4 || err != nil {
		t.Errorf("ReadSamples() = (%d, %v), want (4, nil)", n, err)
	}

	n, err = src.ReadSamples(make([]float32, 1))
	if n != 0 || err != nil {
		t.Errorf("ReadSamples() into a sub-frame buffer = (%d, %v), want (0, nil)", n, err)
	}
}

func TestSource_DecoderError(t *testing.T) {
	t.Parallel()

	fake := newFake(8000, 1, 1, 2)
	fake.err = io.ErrUnexpectedEOF

	src, err := NewSource(fake, 16, nil)
	if err != nil {
		t.Fatalf("NewSource() error = %v", err)
	}

	_, err = src.ReadSamples(make([]float32, 4))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadSamples() error = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestSource_Close(t *testing.T) {
	t.Parallel()

	closer := &countingCloser{}
	src, err := NewSource(newFake(8000, 1), 16, closer)
	if err != nil {
		t.Fatalf("NewSource() error = %v", err)
	}

	if err := src.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if closer.calls != 1 {
		t.Errorf("closer called %d times, want 1", closer.calls)
	}

	noCloser, _ := NewSource(newFake(8000, 1), 16, nil)
	if err := noCloser.Close(); err != nil {
		t.Errorf("Close() without closer error = %v", err)
	}
}
