// SPDX-License-Identifier: EPL-2.0

package inference

import (
	"fmt"
	"strconv"
	"strings"
)

// Shape lists tensor dimensions, outermost first.
type Shape []int64

// Elements is the product of all dimensions. An empty shape is a scalar.
func (s Shape) Elements() int64 {
	n := int64(1)
	for _, d := range s {
		n *= d
	}
	return n
}

func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = strconv.FormatInt(d, 10)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// DataType is the element type of a Tensor.
type DataType int

const (
	Float32 DataType = iota
	Int32
)

func (t DataType) String() string {
	switch t {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	}
	return fmt.Sprintf("DataType(%d)", int(t))
}

// Tensor is a named, runtime-neutral tensor. Exactly one of the data slices
// is used, chosen by Type.
type Tensor struct {
	Name  string
	Shape Shape
	Type  DataType

	Float32 []float32
	Int32   []int32
}

// NewFloat32 wraps data without copying.
func NewFloat32(name string, shape Shape, data []float32) (*Tensor, error) {
	t := &Tensor{Name: name, Shape: shape, Type: Float32, Float32: data}
	return t, t.Validate()
}

// NewInt32 wraps data without copying.
func NewInt32(name string, shape Shape, data []int32) (*Tensor, error) {
	t := &Tensor{Name: name, Shape: shape, Type: Int32, Int32: data}
	return t, t.Validate()
}

// EmptyFloat32 allocates a zeroed float32 tensor, typically used as an
// output buffer.
func EmptyFloat32(name string, shape Shape) *Tensor {
	return &Tensor{
		Name:    name,
		Shape:   shape,
		Type:    Float32,
		Float32: make([]float32, max(shape.Elements(), 0)),
	}
}

// Len is the number of elements held.
func (t *Tensor) Len() int {
	if t.Type == Int32 {
		return len(t.Int32)
	}
	return len(t.Float32)
}

// Validate checks that the shape is non-negative and matches the data.
func (t *Tensor) Validate() error {
	for _, d := range t.Shape {
		if d < 0 {
			return fmt.Errorf("%w: tensor %q has shape %s", ErrShapeMismatch, t.Name, t.Shape)
		}
	}

	if int64(t.Len()) != t.Shape.Elements() {
		return fmt.Errorf("%w: tensor %q has shape %s but %d elements",
			ErrShapeMismatch, t.Name, t.Shape, t.Len())
	}
	return nil
}
