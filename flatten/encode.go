package flatten

import (
	"fmt"
	"slices"
)

// Encode flattens a into a main matrix whose rows enumerate part.Rows and
// whose columns enumerate part.Cols, both in C order over the declared
// names.
func Encode[T Number](a *NDArray[T], part Partition) (*Flattened[T], error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil array", ErrShapeMismatch)
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	if err := part.Validate(a.Dims); err != nil {
		return nil, err
	}

	src := a.Strides()
	rowOff, pos, err := encodeGroup(a, part.Rows, src)
	if err != nil {
		return nil, err
	}
	colOff, spec, err := encodeGroup(a, part.Cols, src)
	if err != nil {
		return nil, err
	}

	rows, cols := len(rowOff), len(colOff)
	data := make([]T, rows*cols)
	for p, ro := range rowOff {
		line := data[p*cols : (p+1)*cols]
		for s, co := range colOff {
			line[s] = a.Data[ro+co]
		}
	}

	return &Flattened[T]{
		main: &Matrix[T]{Rows: rows, Cols: cols, Data: data},
		pos:  pos,
		spec: spec,
	}, nil
}

// encodeGroup builds the ancillary for names and the source offset of every
// flattened position.
func encodeGroup[T Number](a *NDArray[T], names []string, src []int) ([]int, *Ancillary, error) {
	dims := make([]Dimension, len(names))
	axisStrides := make([]int, len(names))
	sizes := make([]int, len(names))
	for i, name := range names {
		axis := slices.IndexFunc(a.Dims, func(d Dimension) bool { return d.Name == name })
		dims[i] = a.Dims[axis]
		axisStrides[i] = src[axis]
		sizes[i] = a.Shape[axis]
	}
	anc, err := NewAncillary(dims)
	if err != nil {
		return nil, nil, err
	}
	off, err := anc.offsets(sizes, axisStrides)
	if err != nil {
		return nil, nil, err
	}
	return off, anc, nil
}
