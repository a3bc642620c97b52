package flatten

import (
	"fmt"
	"slices"

	"golang.org/x/exp/constraints"
)

// Number is the set of element types the codec handles.
type Number interface {
	constraints.Integer | constraints.Float
}

// NDArray is a dense row-major N-dimensional array whose axes are described
// by Dims.
type NDArray[T Number] struct {
	Shape []int
	Data  []T
	Dims  []Dimension
}

// NewNDArray wraps data with the given dimensions. The shape is taken from
// the dimension sizes and must match len(data).
func NewNDArray[T Number](data []T, dims ...Dimension) (*NDArray[T], error) {
	shape := make([]int, len(dims))
	for i, d := range dims {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		shape[i] = d.Size()
	}
	a := &NDArray[T]{Shape: shape, Data: data, Dims: slices.Clone(dims)}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *NDArray[T]) validate() error {
	if len(a.Dims) != len(a.Shape) {
		return fmt.Errorf("%w: %d dimensions for rank %d array", ErrShapeMismatch, len(a.Dims), len(a.Shape))
	}
	for i, d := range a.Dims {
		if d.Size() != a.Shape[i] {
			return fmt.Errorf("%w: dimension %q has %d values, axis %d has size %d",
				ErrShapeMismatch, d.Name, d.Size(), i, a.Shape[i])
		}
	}
	if n := product(a.Shape); n != len(a.Data) {
		return fmt.Errorf("%w: shape %v holds %d elements, got %d", ErrShapeMismatch, a.Shape, n, len(a.Data))
	}
	return nil
}

// Len returns the number of elements.
func (a *NDArray[T]) Len() int { return len(a.Data) }

// NumDims returns the rank.
func (a *NDArray[T]) NumDims() int { return len(a.Shape) }

// Strides returns the C-order element strides.
func (a *NDArray[T]) Strides() []int { return strides(a.Shape) }

// Offset returns the flat offset of a multi-index.
func (a *NDArray[T]) Offset(idx []int) int {
	off := 0
	for i, s := range strides(a.Shape) {
		off += idx[i] * s
	}
	return off
}

// At returns the element at the given multi-index.
func (a *NDArray[T]) At(idx ...int) T {
	return a.Data[a.Offset(idx)]
}

// Labels returns the dimension names in axis order.
func (a *NDArray[T]) Labels() []string {
	labels := make([]string, len(a.Dims))
	for i, d := range a.Dims {
		labels[i] = d.Name
	}
	return labels
}

// Descriptors returns "Name (Units)" for every axis.
func (a *NDArray[T]) Descriptors() []string {
	out := make([]string, len(a.Dims))
	for i, d := range a.Dims {
		out[i] = d.Descriptor()
	}
	return out
}

// Axis returns the axis index of the named dimension, or -1.
func (a *NDArray[T]) Axis(name string) int {
	return slices.IndexFunc(a.Dims, func(d Dimension) bool { return d.Name == name })
}

// strides computes the C-order strides for a given shape.
func strides(shape []int) []int {
	if len(shape) == 0 {
		return []int{}
	}
	s := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = stride
		stride *= shape[i]
	}
	return s
}

func product(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
