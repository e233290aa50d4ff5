// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	ErrNotWavFile = errors.New("not a WAV file")

	// ErrUnsupportedEncoding is returned for compressed or floating point WAV data.
	ErrUnsupportedEncoding = errors.New("only integer PCM WAV is supported")

	// ErrUnsupportedBitDepth is returned for bit depths other than 16, 24 and 32.
	ErrUnsupportedBitDepth = errors.New("unsupported WAV bit depth")

	ErrInvalidChannels = errors.New("channel count must be positive")
)
