// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"io"
	"testing"
	"time"
)

// stallingSource never produces samples and never ends.
type stallingSource struct{}

func (stallingSource) SampleRate() int                    { return 16000 }
func (stallingSource) Channels() int                      { return 1 }
func (stallingSource) BufSize() int                       { return 16 }
func (stallingSource) Close() error                       { return nil }
func (stallingSource) ReadSamples([]float32) (int, error) { return 0, nil }

func TestSignal_Metadata(t *testing.T) {
	t.Parallel()

	sig := &Signal{Samples: []float32{0.1, -0.9, 0.5, 0}, SampleRate: 16000}

	if sig.Len() != 4 {
		t.Errorf("Len() = %d, want 4", sig.Len())
	}
	if sig.Peak() != 0.9 {
		t.Errorf("Peak() = %v, want 0.9", sig.Peak())
	}
	if want := 250 * time.Microsecond; sig.Duration() != want {
		t.Errorf("Duration() = %s, want %s", sig.Duration(), want)
	}

	if (&Signal{}).Duration() != 0 {
		t.Error("Duration() of a rateless signal should be 0")
	}
}

func TestReadAll_NoProgress(t *testing.T) {
	t.Parallel()

	_, err := readAll(stallingSource{}, 16)
	if !errors.Is(err, io.ErrNoProgress) {
		t.Errorf("readAll() error = %v, want io.ErrNoProgress", err)
	}
}

func TestResampler_NoProgress(t *testing.T) {
	t.Parallel()

	_, err := NewResampler(stallingSource{}, 8000).ReadSamples(make([]float32, 4))
	if !errors.Is(err, io.ErrNoProgress) {
		t.Errorf("ReadSamples() error = %v, want io.ErrNoProgress", err)
	}
}

func TestSliceSource(t *testing.T) {
	t.Parallel()

	src := newSliceSource([]float32{1, 2, 3, 4, 5}, 8000)
	got := drain(t, src, 2)

	if len(got) != 5 || got[4] != 5 {
		t.Errorf("drained %v, want [1 2 3 4 5]", got)
	}
}
