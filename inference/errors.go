// SPDX-License-Identifier: EPL-2.0

package inference

import (
	"errors"
	"fmt"
)

var (
	// ErrModelLoad is matched by every model loading failure.
	ErrModelLoad = errors.New("model load failed")

	// ErrModelInvocation is matched by every shape negotiation or
	// execution failure.
	ErrModelInvocation = errors.New("model invocation failed")

	ErrModelNotRegistered = errors.New("model not registered")
	ErrShapeMismatch      = errors.New("tensor shape mismatch")
	ErrUnknownTensor      = errors.New("unknown tensor name")
	ErrRegistryClosed     = errors.New("model registry closed")
	ErrSessionClosed      = errors.New("session closed")
)

// Invocation phases reported by InvocationError.
const (
	OpSetShapes = "set input shapes"
	OpRun       = "run"
	OpOutputs   = "read outputs"
)

// LoadError reports a failed model load. It matches ErrModelLoad.
type LoadError struct {
	Model ModelID
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading model %s: %v", e.Model, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrModelLoad }

// InvocationError reports a failed call into a loaded model. It matches
// ErrModelInvocation.
type InvocationError struct {
	Model ModelID
	Op    string
	Err   error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("model %s: %s: %v", e.Model, e.Op, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

func (e *InvocationError) Is(target error) bool { return target == ErrModelInvocation }
