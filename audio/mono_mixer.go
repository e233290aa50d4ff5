// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// MixMode selects how MonoMixer folds channels together.
type MixMode int

const (
	// MixAverage divides the channel sum by the channel count.
	MixAverage MixMode = iota
	// MixSum keeps the raw channel sum; the result may exceed [-1, 1]
	// and is expected to be peak-normalized afterwards.
	MixSum
)

type MonoMixer struct {
	src  Source
	mode MixMode
	tmp  []float32
}

func NewMonoMixer(src Source) *MonoMixer {
	return NewMonoMixerMode(src, MixAverage)
}

func NewMonoMixerMode(src Source, mode MixMode) *MonoMixer {
	return &MonoMixer{
		src:  src,
		mode: mode,
		tmp:  make([]float32, 4096),
	}
}

func (m *MonoMixer) SampleRate() int { return m.src.SampleRate() }
func (m *MonoMixer) Channels() int   { return 1 }
func (m *MonoMixer) BufSize() int    { return m.src.BufSize() }
func (m *MonoMixer) Close() error {
	err := m.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

func (m *MonoMixer) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if m.src.Channels() == 1 {
		// Pass-through: read mono directly
		return m.src.ReadSamples(dst)
	}

	channels := m.src.Channels()
	samplesNeeded := len(dst) * channels

	// Grow tmp buffer if needed (but don't shrink to avoid thrashing)
	if cap(m.tmp) < samplesNeeded {
		m.tmp = make([]float32, max(samplesNeeded, 8192))
	}
	m.tmp = m.tmp[:samplesNeeded]

	n, err := m.src.ReadSamples(m.tmp)
	if n == 0 {
		return 0, err
	}
	frames := n / channels

	gain := float32(1)
	if m.mode == MixAverage {
		gain = 1 / float32(channels)
	}

	switch channels {
	case 2: // Stereo (most common)
		for f := range frames {
			idx := f << 1
			dst[f] = (m.tmp[idx] + m.tmp[idx+1]) * gain
		}
	default:
		for f := range frames {
			sum := float32(0)
			baseIdx := f * channels
			for c := range channels {
				sum += m.tmp[baseIdx+c]
			}
			dst[f] = sum * gain
		}
	}

	return frames, err
}
