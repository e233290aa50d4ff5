// SPDX-License-Identifier: EPL-2.0

// Package formats loads audio files of any supported container into a
// 16-bit PCM audio.Waveform.
package formats

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ik5/speechrig/audio"
	"github.com/ik5/speechrig/formats/aiff"
	"github.com/ik5/speechrig/formats/mp3"
	"github.com/ik5/speechrig/formats/vorbis"
	"github.com/ik5/speechrig/formats/wav"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrNoAudio           = errors.New("decoded stream holds no audio")
)

var defaultRegistry = NewRegistry()

// NewRegistry returns a registry with every built in decoder registered
// under its usual file extensions.
func NewRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("wav", wav.Decoder{})
	r.Register("wave", wav.Decoder{})
	r.Register("mp3", mp3.Decoder{})
	r.Register("ogg", vorbis.Decoder{})
	r.Register("oga", vorbis.Decoder{})
	r.Register("aiff", aiff.Decoder{})
	r.Register("aif", aiff.Decoder{})
	return r
}

// Supported reports whether Decode knows format.
func Supported(format string) bool {
	_, ok := defaultRegistry.Get(format)
	return ok
}

// Decode reads a whole stream of the given format ("wav", ".ogg", ...)
// into a Waveform.
func Decode(r io.Reader, format string) (*audio.Waveform, error) {
	return DecodeWith(defaultRegistry, r, format)
}

// DecodeWith is Decode with a caller supplied registry.
func DecodeWith(reg *audio.Registry, r io.Reader, format string) (*audio.Waveform, error) {
	dec, ok := reg.Get(format)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	src, err := dec.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", format, err)
	}
	defer src.Close()

	w, err := audio.ReadWaveform(src)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", format, err)
	}
	if w.Len() == 0 {
		return nil, ErrNoAudio
	}

	return w, nil
}

// Load decodes the file at path, picking the decoder from its extension.
func Load(path string) (*audio.Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	defer f.Close()

	return Decode(f, filepath.Ext(path))
}
