// SPDX-License-Identifier: EPL-2.0

package inference

import (
	"context"
	"fmt"
)

// ModelID identifies one of the pipeline's models.
type ModelID string

const (
	// AudioEncoder turns 16 kHz audio into 512-wide embeddings.
	// Input: [1, samples] float32. Output: [1, frames, 512] float32.
	AudioEncoder ModelID = "audio-encoder"

	// AnimationDecoder turns embeddings plus a mood condition into rig
	// control tracks.
	// Inputs: embeddings [1, frames, 512] float32, mood [1] int32,
	// mood intensity [1] float32.
	// Outputs: face, blink and head, each [1, frames, width] float32.
	AnimationDecoder ModelID = "animation-decoder"
)

// ModelSpec locates a model artifact and names its tensors.
type ModelSpec struct {
	ID      ModelID
	Path    string
	Inputs  []string
	Outputs []string
}

// Session is a loaded model. Sessions are reused across requests but are
// only ever driven by one caller at a time.
type Session interface {
	// SetInputShapes announces the shapes of the next Run's inputs.
	SetInputShapes(shapes map[string]Shape) error
	// Run executes the model. outputs must be preallocated with their
	// expected shapes; the backend fills their data.
	Run(ctx context.Context, inputs, outputs []*Tensor) error
	Close() error
}

// Loader turns a ModelSpec into a Session.
type Loader interface {
	Load(ctx context.Context, spec ModelSpec) (Session, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, spec ModelSpec) (Session, error)

func (f LoaderFunc) Load(ctx context.Context, spec ModelSpec) (Session, error) {
	return f(ctx, spec)
}

// Invoke announces the input shapes, runs the model and checks that every
// output came back with the data its shape promises. Every failure is an
// *InvocationError.
func Invoke(ctx context.Context, model ModelID, s Session, inputs, outputs []*Tensor) error {
	shapes := make(map[string]Shape, len(inputs))
	for _, in := range inputs {
		if err := in.Validate(); err != nil {
			return &InvocationError{Model: model, Op: OpSetShapes, Err: err}
		}
		shapes[in.Name] = in.Shape
	}

	if err := s.SetInputShapes(shapes); err != nil {
		return &InvocationError{Model: model, Op: OpSetShapes, Err: err}
	}

	if err := s.Run(ctx, inputs, outputs); err != nil {
		return &InvocationError{Model: model, Op: OpRun, Err: err}
	}

	for _, out := range outputs {
		if err := out.Validate(); err != nil {
			return &InvocationError{Model: model, Op: OpOutputs, Err: err}
		}
	}

	return nil
}

// CheckInputs verifies that inputs match the announced shapes exactly,
// for backends that cannot negotiate shapes natively.
func CheckInputs(announced map[string]Shape, inputs []*Tensor) error {
	if len(announced) != len(inputs) {
		return fmt.Errorf("%w: %d shapes announced for %d inputs", ErrShapeMismatch, len(announced), len(inputs))
	}

	for _, in := range inputs {
		want, ok := announced[in.Name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownTensor, in.Name)
		}
		if !want.Equal(in.Shape) {
			return fmt.Errorf("%w: %q announced %s, got %s", ErrShapeMismatch, in.Name, want, in.Shape)
		}
	}
	return nil
}
