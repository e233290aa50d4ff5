// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// ChannelSelector extracts a single channel from interleaved audio by
// stride-skipping the other channels.
type ChannelSelector struct {
	src     Source
	channel int
	tmp     []float32
}

func NewChannelSelector(src Source, channel int) (*ChannelSelector, error) {
	if channel < 0 || channel >= src.Channels() {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidChannel, channel, src.Channels())
	}

	return &ChannelSelector{
		src:     src,
		channel: channel,
		tmp:     make([]float32, 4096),
	}, nil
}

func (s *ChannelSelector) SampleRate() int { return s.src.SampleRate() }
func (s *ChannelSelector) Channels() int   { return 1 }
func (s *ChannelSelector) BufSize() int    { return s.src.BufSize() }
func (s *ChannelSelector) Close() error {
	err := s.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

func (s *ChannelSelector) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	channels := s.src.Channels()
	if channels == 1 {
		return s.src.ReadSamples(dst)
	}

	samplesNeeded := len(dst) * channels
	if cap(s.tmp) < samplesNeeded {
		s.tmp = make([]float32, samplesNeeded)
	}
	s.tmp = s.tmp[:samplesNeeded]

	n, err := s.src.ReadSamples(s.tmp)
	frames := n / channels
	for f := range frames {
		dst[f] = s.tmp[f*channels+s.channel]
	}

	return frames, err
}
