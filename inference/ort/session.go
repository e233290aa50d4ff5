// SPDX-License-Identifier: EPL-2.0

package ort

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/ik5/speechrig/inference"
)

// session adapts a DynamicAdvancedSession. ONNX Runtime takes the shapes
// from the tensors themselves, so SetInputShapes only records them and Run
// checks the inputs against that record.
type session struct {
	spec inference.ModelSpec

	mu     sync.Mutex
	s      *ort.DynamicAdvancedSession
	shapes map[string]inference.Shape
}

func (s *session) SetInputShapes(shapes map[string]inference.Shape) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.s == nil {
		return inference.ErrSessionClosed
	}
	for name := range shapes {
		if slices.Index(s.spec.Inputs, name) < 0 {
			return fmt.Errorf("%w: %q", inference.ErrUnknownTensor, name)
		}
	}
	s.shapes = shapes
	return nil
}

// Run is not interruptible once started; ctx is only checked up front.
func (s *session) Run(ctx context.Context, inputs, outputs []*inference.Tensor) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.s == nil {
		return inference.ErrSessionClosed
	}
	if err := inference.CheckInputs(s.shapes, inputs); err != nil {
		return err
	}

	ins, err := ordered(s.spec.Inputs, inputs)
	if err != nil {
		return err
	}
	outs, err := ordered(s.spec.Outputs, outputs)
	if err != nil {
		return err
	}

	inVals := make([]ort.Value, len(ins))
	outVals := make([]ort.Value, len(outs))
	defer func() {
		for _, v := range append(inVals, outVals...) {
			if v != nil {
				_ = v.Destroy()
			}
		}
	}()

	for i, t := range ins {
		if inVals[i], err = toValue(t); err != nil {
			return err
		}
	}
	for i, t := range outs {
		if t.Type != inference.Float32 {
			return fmt.Errorf("output %q: only float32 outputs are supported", t.Name)
		}
		if outVals[i], err = toValue(t); err != nil {
			return err
		}
	}

	if err := s.s.Run(inVals, outVals); err != nil {
		return err
	}

	for i, t := range outs {
		copy(t.Float32, outVals[i].(*ort.Tensor[float32]).GetData())
	}
	return nil
}

func (s *session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.s == nil {
		return nil
	}
	err := s.s.Destroy()
	s.s = nil
	return err
}

// ordered arranges tensors in the order the model declared their names.
func ordered(names []string, tensors []*inference.Tensor) ([]*inference.Tensor, error) {
	if len(names) != len(tensors) {
		return nil, fmt.Errorf("%w: model takes %d tensors, got %d",
			inference.ErrShapeMismatch, len(names), len(tensors))
	}

	out := make([]*inference.Tensor, len(names))
	for _, t := range tensors {
		i := slices.Index(names, t.Name)
		if i < 0 {
			return nil, fmt.Errorf("%w: %q", inference.ErrUnknownTensor, t.Name)
		}
		out[i] = t
	}
	for i, t := range out {
		if t == nil {
			return nil, fmt.Errorf("%w: %q missing", inference.ErrUnknownTensor, names[i])
		}
	}
	return out, nil
}

func toValue(t *inference.Tensor) (ort.Value, error) {
	shape := ort.NewShape(t.Shape...)

	switch t.Type {
	case inference.Float32:
		v, err := ort.NewTensor(shape, t.Float32)
		if err != nil {
			return nil, fmt.Errorf("tensor %q: %w", t.Name, err)
		}
		return v, nil
	case inference.Int32:
		v, err := ort.NewTensor(shape, t.Int32)
		if err != nil {
			return nil, fmt.Errorf("tensor %q: %w", t.Name, err)
		}
		return v, nil
	}
	return nil, errors.New("unsupported tensor type " + t.Type.String())
}
