package flatten

import (
	"fmt"
	"slices"
)

// Decode reconstructs the N-dimensional array described by a main matrix and
// its ancillaries. See (*Flattened).Decode for the meaning of dims.
func Decode[T Number](main *Matrix[T], pos, spec *Ancillary, dims []Dimension) (*NDArray[T], error) {
	f, err := NewFlattened(main, pos, spec)
	if err != nil {
		return nil, err
	}
	return f.Decode(dims)
}

// Decode reconstructs the N-dimensional array.
//
// When dims is nil the axes are the position dimensions followed by the
// spectroscopic dimensions, and their sizes and values are recovered from
// the ancillaries. Otherwise dims fixes the axis order, sizes and
// coordinate values and must name exactly the dimensions of both groups.
func (f *Flattened[T]) Decode(dims []Dimension) (*NDArray[T], error) {
	if dims == nil {
		posDims, err := f.pos.Dimensions()
		if err != nil {
			return nil, fmt.Errorf("position ancillary: %w", err)
		}
		specDims, err := f.spec.Dimensions()
		if err != nil {
			return nil, fmt.Errorf("spectroscopic ancillary: %w", err)
		}
		dims = slices.Concat(posDims, specDims)
	} else if err := f.Partition().Validate(dims); err != nil {
		return nil, err
	}

	shape := make([]int, len(dims))
	for i, d := range dims {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		shape[i] = d.Size()
	}
	dst := strides(shape)

	rowOff, err := decodeGroup(f.pos, dims, dst)
	if err != nil {
		return nil, fmt.Errorf("position ancillary: %w", err)
	}
	colOff, err := decodeGroup(f.spec, dims, dst)
	if err != nil {
		return nil, fmt.Errorf("spectroscopic ancillary: %w", err)
	}

	cols := f.main.Cols
	data := make([]T, product(shape))
	for p, ro := range rowOff {
		line := f.main.Data[p*cols : (p+1)*cols]
		for s, co := range colOff {
			data[ro+co] = line[s]
		}
	}

	out := make([]Dimension, len(dims))
	for i, d := range dims {
		out[i] = Dimension{Name: d.Name, Units: d.Units, Values: slices.Clone(d.Values)}
	}
	return &NDArray[T]{Shape: shape, Data: data, Dims: out}, nil
}

// decodeGroup returns the destination offset of every flattened position of
// anc, checking that the group covers its dimensions exactly once.
func decodeGroup(anc *Ancillary, dims []Dimension, dst []int) ([]int, error) {
	sizes := make([]int, anc.NumDims())
	axisStrides := make([]int, anc.NumDims())
	for r, label := range anc.Labels {
		axis := slices.IndexFunc(dims, func(d Dimension) bool { return d.Name == label })
		sizes[r] = dims[axis].Size()
		axisStrides[r] = dst[axis]
	}
	if n := product(sizes); n != anc.Count() {
		return nil, fmt.Errorf("%w: %v sizes %v give %d positions, ancillary has %d",
			ErrShapeMismatch, anc.Labels, sizes, n, anc.Count())
	}
	return anc.offsets(sizes, axisStrides)
}
