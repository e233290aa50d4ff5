// SPDX-License-Identifier: EPL-2.0

package features

import "time"

const (
	// SamplesPerFrame is the encoder hop at 16 kHz (20 ms).
	SamplesPerFrame = 320
	// Dim is the width of one embedding.
	Dim = 512
	// FrameRate is the native embedding rate in frames per second.
	FrameRate = 50
	// MaxWindowSamples is the longest input the encoder takes (30 s).
	MaxWindowSamples = 30 * 16000
)

// Sequence is a row-major Frames x Dim matrix of embeddings.
type Sequence struct {
	Frames int
	Dim    int
	Data   []float32
}

// Frame returns a view of frame i.
func (s *Sequence) Frame(i int) []float32 {
	return s.Data[i*s.Dim : (i+1)*s.Dim]
}

func (s *Sequence) Len() int { return s.Frames }

// Duration is the audio time the sequence covers at FrameRate.
func (s *Sequence) Duration() time.Duration {
	return time.Duration(s.Frames) * time.Second / FrameRate
}
