// SPDX-License-Identifier: EPL-2.0

package inferencetest

import (
	"fmt"

	"github.com/ik5/speechrig/inference"
)

const (
	encoderFrame = 320
	encoderDim   = 512
)

// NewEncoder fakes the audio encoder: input [1, L], output [1, L/320, 512].
// Element d of frame f is the mean of that frame's samples plus d/1000.
func NewEncoder() *Session {
	return &Session{RunFunc: encode}
}

func encode(inputs, outputs []*inference.Tensor) error {
	if len(inputs) != 1 || len(outputs) != 1 {
		return fmt.Errorf("encoder takes 1 input and 1 output, got %d and %d", len(inputs), len(outputs))
	}
	in, out := inputs[0], outputs[0]
	frames := len(in.Float32) / encoderFrame

	if len(out.Float32) != frames*encoderDim {
		return fmt.Errorf("%w: encoder output %s for %d frames", inference.ErrShapeMismatch, out.Shape, frames)
	}

	for f := range frames {
		var sum float32
		for _, x := range in.Float32[f*encoderFrame : (f+1)*encoderFrame] {
			sum += x
		}
		mean := sum / encoderFrame

		row := out.Float32[f*encoderDim : (f+1)*encoderDim]
		for d := range row {
			row[d] = mean + float32(d)/1000
		}
	}
	return nil
}

// NewDecoder fakes the animation decoder. It finds its inputs by type:
// the rank-3 float32 tensor holds embeddings, the int32 tensor the mood and
// the remaining float32 tensor the intensity. Every [1, T, W] output gets
//
//	out[t][k] = emb[t][0] + intensity/2 + k/100 + (mood+1)/1000
func NewDecoder() *Session {
	return &Session{RunFunc: decode}
}

func decode(inputs, outputs []*inference.Tensor) error {
	var (
		emb       *inference.Tensor
		mood      int32
		intensity float32
	)
	for _, in := range inputs {
		switch {
		case in.Type == inference.Int32 && len(in.Int32) == 1:
			mood = in.Int32[0]
		case in.Type == inference.Float32 && len(in.Shape) == 3:
			emb = in
		case in.Type == inference.Float32 && len(in.Float32) == 1:
			intensity = in.Float32[0]
		}
	}
	if emb == nil {
		return fmt.Errorf("%w: no embeddings input", inference.ErrUnknownTensor)
	}

	frames := int(emb.Shape[1])
	dim := int(emb.Shape[2])

	for _, out := range outputs {
		if len(out.Shape) != 3 || int(out.Shape[1]) != frames {
			return fmt.Errorf("%w: decoder output %s for %d frames", inference.ErrShapeMismatch, out.Shape, frames)
		}
		width := int(out.Shape[2])
		for t := range frames {
			base := emb.Float32[t*dim] + intensity/2 + float32(mood+1)/1000
			for k := range width {
				out.Float32[t*width+k] = base + float32(k)/100
			}
		}
	}
	return nil
}
