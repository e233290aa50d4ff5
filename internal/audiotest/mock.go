// SPDX-License-Identifier: EPL-2.0

// Package audiotest provides deterministic audio fixtures for tests.
// It does not import the audio package, so audio's own tests can use it.
package audiotest

import (
	"io"
	"math"
)

// Waveform yields the value of one channel of one frame.
type Waveform func(frame, channel int) float32

// MockSource is an audio.Source that renders frames from a Waveform.
type MockSource struct {
	sampleRate int
	channels   int
	frames     int
	pos        int
	wave       Waveform
}

// NewMockSource renders frames frames of wave.
func NewMockSource(sampleRate, channels, frames int, wave Waveform) *MockSource {
	return &MockSource{
		sampleRate: sampleRate,
		channels:   channels,
		frames:     frames,
		wave:       wave,
	}
}

func NewSilentSource(sampleRate, channels, frames int) *MockSource {
	return NewConstantSource(sampleRate, channels, frames, 0)
}

// NewSineSource renders a full-scale sine on every channel.
func NewSineSource(sampleRate, channels, frames int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(frame, _ int) float32 {
		return float32(math.Sin(2 * math.Pi * frequency * float64(frame) / float64(sampleRate)))
	})
}

func NewConstantSource(sampleRate, channels, frames int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(int, int) float32 { return value })
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }
func (m *MockSource) BufSize() int    { return 4096 }
func (m *MockSource) Close() error    { return nil }

// Reset rewinds to the first frame.
func (m *MockSource) Reset() {
	m.pos = 0
}

// ReadSamples fills whole frames and reports io.EOF with the last of them.
func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	if m.pos >= m.frames {
		return 0, io.EOF
	}

	n := min(len(dst)/m.channels, m.frames-m.pos)
	for f := range n {
		for c := range m.channels {
			dst[f*m.channels+c] = m.wave(m.pos+f, c)
		}
	}
	m.pos += n

	if m.pos >= m.frames {
		return n * m.channels, io.EOF
	}
	return n * m.channels, nil
}
