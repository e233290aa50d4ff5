// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"time"
)

// EncoderRate is the sample rate expected by the feature extraction model.
const EncoderRate = 16000

// NormalizeOptions controls how a Waveform becomes an encoder Signal.
type NormalizeOptions struct {
	// Offset is skipped from the start of the waveform.
	Offset time.Duration
	// Downmix sums all channels into one. When false, Channel is selected.
	Downmix bool
	// Channel is used for multi-channel input when Downmix is false.
	Channel int
	// Quality of the sample rate conversion.
	Quality Quality
}

// Normalize converts w into a mono Signal at EncoderRate. w is never mutated.
//
// Downmixed audio is peak-normalized when the summed channels exceed 1.0;
// quieter audio is left untouched.
func Normalize(w *Waveform, opts NormalizeOptions) (*Signal, error) {
	if w == nil || w.Len() == 0 {
		return nil, ErrEmptyWaveform
	}
	if opts.Offset < 0 {
		return nil, ErrInvalidOffset
	}
	if opts.Offset > w.Duration() {
		return nil, fmt.Errorf("%w: offset %s, duration %s", ErrInsufficientAudio, opts.Offset, w.Duration())
	}

	var src Source = w.sourceFrom(w.frameAt(opts.Offset))
	downmixed := false

	if w.Channels() > 1 {
		if opts.Downmix {
			src = NewMonoMixerMode(src, MixSum)
			downmixed = true
		} else {
			sel, err := NewChannelSelector(src, opts.Channel)
			if err != nil {
				return nil, err
			}
			src = sel
		}
	}

	samples, err := readAll(src, 4096)
	if err != nil {
		return nil, err
	}

	if downmixed {
		if p := peak(samples); p > 1.0 {
			// the peak sample becomes exactly 1.0
			for i := range samples {
				samples[i] /= p
			}
		}
	}

	if w.SampleRate() != EncoderRate && len(samples) > 0 {
		samples, err = resample(samples, w.SampleRate(), opts.Quality)
		if err != nil {
			return nil, err
		}
	}

	return &Signal{Samples: samples, SampleRate: EncoderRate}, nil
}

func resample(samples []float32, srcRate int, q Quality) ([]float32, error) {
	if q == QualityHigh {
		return resampleHQ(samples, srcRate, EncoderRate)
	}

	return readAll(NewResampler(newSliceSource(samples, srcRate), EncoderRate), 4096)
}
