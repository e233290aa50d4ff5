// SPDX-License-Identifier: EPL-2.0

package features

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ik5/speechrig/audio"
	"github.com/ik5/speechrig/inference"
)

var ErrSampleRate = errors.New("signal is not at the encoder sample rate")

type Options struct {
	// Input and Output name the encoder's tensors.
	Input  string
	Output string
	// WindowSamples overrides MaxWindowSamples; mostly for tests.
	WindowSamples int
	Logger        zerolog.Logger
}

func DefaultOptions() Options {
	return Options{
		Input:         "audio",
		Output:        "embeddings",
		WindowSamples: MaxWindowSamples,
		Logger:        zerolog.Nop(),
	}
}

// Extractor drives an audio encoder session over a whole signal.
type Extractor struct {
	session inference.Session
	opts    Options
}

func NewExtractor(s inference.Session, opts Options) *Extractor {
	def := DefaultOptions()
	if opts.Input == "" {
		opts.Input = def.Input
	}
	if opts.Output == "" {
		opts.Output = def.Output
	}
	if opts.WindowSamples <= 0 || opts.WindowSamples > MaxWindowSamples {
		opts.WindowSamples = MaxWindowSamples
	}
	return &Extractor{session: s, opts: opts}
}

// Frames is the number of embeddings Extract yields for n samples.
func (e *Extractor) Frames(n int) int {
	w := e.opts.WindowSamples
	return (n/w)*(w/SamplesPerFrame) + (n%w)/SamplesPerFrame
}

// Extract encodes sig window by window. Any model failure aborts the whole
// extraction with an error matching inference.ErrModelInvocation.
func (e *Extractor) Extract(ctx context.Context, sig *audio.Signal) (*Sequence, error) {
	if sig.SampleRate != audio.EncoderRate {
		return nil, fmt.Errorf("%w: %d Hz", ErrSampleRate, sig.SampleRate)
	}

	total := e.Frames(sig.Len())
	seq := &Sequence{Dim: Dim, Data: make([]float32, total*Dim)}

	for start, window := 0, 0; start < sig.Len(); start, window = start+e.opts.WindowSamples, window+1 {
		end := min(start+e.opts.WindowSamples, sig.Len())
		frames := (end - start) / SamplesPerFrame
		if frames == 0 {
			e.opts.Logger.Debug().Int("window", window).Int("samples", end-start).Msg("window too short, skipped")
			continue
		}

		in, err := inference.NewFloat32(e.opts.Input, inference.Shape{1, int64(end - start)}, sig.Samples[start:end])
		if err != nil {
			return nil, err
		}

		off := seq.Frames * Dim
		out, err := inference.NewFloat32(e.opts.Output, inference.Shape{1, int64(frames), Dim},
			seq.Data[off:off+frames*Dim])
		if err != nil {
			return nil, err
		}

		if err := inference.Invoke(ctx, inference.AudioEncoder, e.session,
			[]*inference.Tensor{in}, []*inference.Tensor{out}); err != nil {
			return nil, fmt.Errorf("window %d: %w", window, err)
		}

		seq.Frames += frames
	}

	e.opts.Logger.Debug().Int("samples", sig.Len()).Int("frames", seq.Frames).Msg("features extracted")

	return seq, nil
}
