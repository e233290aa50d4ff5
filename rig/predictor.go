// SPDX-License-Identifier: EPL-2.0

package rig

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ik5/speechrig/features"
	"github.com/ik5/speechrig/inference"
)

// TensorNames names the animation decoder's inputs and outputs.
type TensorNames struct {
	Embeddings    string
	Mood          string
	MoodIntensity string
	Face          string
	Blink         string
	Head          string
}

func DefaultTensorNames() TensorNames {
	return TensorNames{
		Embeddings:    "embeddings",
		Mood:          "mood",
		MoodIntensity: "mood_intensity",
		Face:          "face",
		Blink:         "blink",
		Head:          "head",
	}
}

// Inputs lists the decoder inputs in model order.
func (n TensorNames) Inputs() []string {
	return []string{n.Embeddings, n.Mood, n.MoodIntensity}
}

// Outputs lists the decoder outputs in model order.
func (n TensorNames) Outputs() []string {
	return []string{n.Face, n.Blink, n.Head}
}

type PredictorOptions struct {
	Names  TensorNames
	Logger zerolog.Logger
}

// Predictor runs the animation decoder once over a whole embedding
// sequence.
type Predictor struct {
	session  inference.Session
	controls *Controls
	names    TensorNames
	log      zerolog.Logger
}

func NewPredictor(s inference.Session, controls *Controls, opts PredictorOptions) *Predictor {
	if controls == nil {
		controls = DefaultControls()
	}
	if opts.Names == (TensorNames{}) {
		opts.Names = DefaultTensorNames()
	}
	return &Predictor{session: s, controls: controls, names: opts.Names, log: opts.Logger}
}

// Predict returns one track per decoder output, each with seq.Frames rows.
// An empty sequence yields empty tracks without calling the model.
func (p *Predictor) Predict(ctx context.Context, seq *features.Sequence, cond Condition) (*Tracks, error) {
	frames := int64(seq.Frames)

	tracks := &Tracks{
		Face:  p.track(p.controls.Face, seq.Frames),
		Blink: p.track(p.controls.Blink, seq.Frames),
		Head:  p.track(p.controls.Head, seq.Frames),
	}
	if frames == 0 {
		return tracks, nil
	}

	emb, err := inference.NewFloat32(p.names.Embeddings, inference.Shape{1, frames, int64(seq.Dim)}, seq.Data)
	if err != nil {
		return nil, err
	}
	mood, err := inference.NewInt32(p.names.Mood, inference.Shape{1}, []int32{cond.Mood.Index()})
	if err != nil {
		return nil, err
	}
	intensity, err := inference.NewFloat32(p.names.MoodIntensity, inference.Shape{1},
		[]float32{ClampIntensity(cond.Intensity)})
	if err != nil {
		return nil, err
	}

	outputs := []*inference.Tensor{
		p.output(p.names.Face, tracks.Face),
		p.output(p.names.Blink, tracks.Blink),
		p.output(p.names.Head, tracks.Head),
	}

	if err := inference.Invoke(ctx, inference.AnimationDecoder, p.session,
		[]*inference.Tensor{emb, mood, intensity}, outputs); err != nil {
		return nil, err
	}

	// backends may swap in their own buffers
	for i, tr := range []*Track{tracks.Face, tracks.Blink, tracks.Head} {
		copy(tr.Data, outputs[i].Float32)
	}

	p.log.Debug().
		Int("frames", seq.Frames).
		Str("mood", cond.Mood.String()).
		Float32("intensity", ClampIntensity(cond.Intensity)).
		Msg("rig predicted")

	return tracks, nil
}

func (p *Predictor) track(controls []Control, frames int) *Track {
	return &Track{
		Controls: controls,
		Frames:   frames,
		Data:     make([]float32, frames*len(controls)),
	}
}

func (p *Predictor) output(name string, tr *Track) *inference.Tensor {
	return &inference.Tensor{
		Name:    name,
		Shape:   inference.Shape{1, int64(tr.Frames), int64(tr.Width())},
		Type:    inference.Float32,
		Float32: tr.Data,
	}
}
