// SPDX-License-Identifier: EPL-2.0

package speechrig

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ik5/speechrig/anim"
	"github.com/ik5/speechrig/audio"
	"github.com/ik5/speechrig/formats"
	"github.com/ik5/speechrig/pipeline"
)

// Animate decodes r as format ("wav", ".ogg", ...) and runs it through p.
// Decoding happens once p has admitted the request; a stream that cannot
// be decoded fails at the validating stage with pipeline.ErrNoInput, like
// an empty one.
func Animate(ctx context.Context, p *pipeline.Processor, r io.Reader, format string, req pipeline.Request) (*anim.Asset, error) {
	return p.RunDecoding(ctx, req, func() (*audio.Waveform, error) {
		return formats.Decode(r, format)
	})
}

// AnimateFile is Animate on a file, with the format taken from its extension.
func AnimateFile(ctx context.Context, p *pipeline.Processor, path string, req pipeline.Request) (*anim.Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	defer f.Close()

	return Animate(ctx, p, f, filepath.Ext(path), req)
}

// NormalizeFile loads path and converts it to the mono 16 kHz signal the
// audio encoder takes.
func NormalizeFile(path string, opts audio.NormalizeOptions) (*audio.Signal, error) {
	w, err := formats.Load(path)
	if err != nil {
		return nil, err
	}
	return audio.Normalize(w, opts)
}
