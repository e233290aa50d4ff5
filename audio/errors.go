// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize = errors.New("dst size must be multiple of channels")

	// ErrInvalidWaveform is returned for a waveform whose rate, channel
	// count or sample count cannot describe interleaved PCM.
	ErrInvalidWaveform = errors.New("invalid waveform layout")

	// ErrEmptyWaveform is returned when a waveform holds no samples.
	ErrEmptyWaveform = errors.New("waveform has no samples")

	// ErrInsufficientAudio is returned when the requested offset lies past
	// the end of the waveform.
	ErrInsufficientAudio = errors.New("offset exceeds audio duration")

	// ErrInvalidOffset is returned for a negative offset.
	ErrInvalidOffset = errors.New("offset must not be negative")

	// ErrInvalidChannel is returned when the selected channel does not exist.
	ErrInvalidChannel = errors.New("channel index out of range")
)
