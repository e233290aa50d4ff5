// SPDX-License-Identifier: EPL-2.0

// Package inferencetest provides scripted inference sessions and loaders
// that behave deterministically and record how they were driven.
package inferencetest

import (
	"context"
	"sync"

	"github.com/ik5/speechrig/inference"
)

// Call is one recorded Run.
type Call struct {
	Shapes map[string]inference.Shape
	Inputs []*inference.Tensor
}

// Session is a fake inference.Session. Run fails unless the inputs match
// the shapes announced just before, then hands off to RunFunc.
type Session struct {
	RunFunc func(inputs, outputs []*inference.Tensor) error

	// ShapeErr and RunErr, when set, are returned by the matching method.
	ShapeErr error
	RunErr   error

	// Started receives once per Run before Block is waited on.
	Started chan struct{}
	// Block, when non-nil, holds every Run until it is closed.
	Block chan struct{}

	mu      sync.Mutex
	shapes  map[string]inference.Shape
	calls   []Call
	closes  int
	setRuns int
}

func (s *Session) SetInputShapes(shapes map[string]inference.Shape) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setRuns++
	if s.ShapeErr != nil {
		return s.ShapeErr
	}
	s.shapes = shapes
	return nil
}

func (s *Session) Run(ctx context.Context, inputs, outputs []*inference.Tensor) error {
	if s.Started != nil {
		s.Started <- struct{}{}
	}
	if s.Block != nil {
		<-s.Block
	}

	s.mu.Lock()
	shapes := s.shapes
	s.shapes = nil
	s.calls = append(s.calls, Call{Shapes: shapes, Inputs: cloneAll(inputs)})
	s.mu.Unlock()

	if s.RunErr != nil {
		return s.RunErr
	}
	if err := inference.CheckInputs(shapes, inputs); err != nil {
		return err
	}
	if s.RunFunc == nil {
		return nil
	}
	return s.RunFunc(inputs, outputs)
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closes++
	return nil
}

// Calls returns the recorded runs in order.
func (s *Session) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Call(nil), s.calls...)
}

// ShapeAnnouncements counts SetInputShapes calls.
func (s *Session) ShapeAnnouncements() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.setRuns
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closes > 0
}

func cloneAll(ts []*inference.Tensor) []*inference.Tensor {
	out := make([]*inference.Tensor, len(ts))
	for i, t := range ts {
		c := *t
		c.Shape = append(inference.Shape(nil), t.Shape...)
		c.Float32 = append([]float32(nil), t.Float32...)
		c.Int32 = append([]int32(nil), t.Int32...)
		out[i] = &c
	}
	return out
}
