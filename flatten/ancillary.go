package flatten

import (
	"fmt"
	"math"
	"slices"
)

// Ancillary describes one dimension group of a main array. Row r of Indices
// and Values belongs to the dimension Labels[r]; column k gives the index
// and value of that dimension at flattened position k.
type Ancillary struct {
	Labels  []string
	Units   []string
	Indices *Matrix[uint32]
	Values  *Matrix[float64]
}

// NewAncillary enumerates every combination of dims in C order.
func NewAncillary(dims []Dimension) (*Ancillary, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: no dimensions", ErrInvalidPartition)
	}
	sizes := make([]int, len(dims))
	anc := &Ancillary{
		Labels: make([]string, len(dims)),
		Units:  make([]string, len(dims)),
	}
	for i, d := range dims {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		sizes[i] = d.Size()
		anc.Labels[i] = d.Name
		anc.Units[i] = d.Units
	}

	count := product(sizes)
	rank := len(dims)
	inds := make([]uint32, rank*count)
	vals := make([]float64, rank*count)

	idx := make([]int, rank)
	for k := 0; k < count; k++ {
		for r := range rank {
			inds[r*count+k] = uint32(idx[r])
			vals[r*count+k] = dims[r].Values[idx[r]]
		}
		for r := rank - 1; r >= 0; r-- {
			idx[r]++
			if idx[r] < sizes[r] {
				break
			}
			idx[r] = 0
		}
	}

	anc.Indices = &Matrix[uint32]{Rows: rank, Cols: count, Data: inds}
	anc.Values = &Matrix[float64]{Rows: rank, Cols: count, Data: vals}
	return anc, nil
}

// Validate checks that the index and value matrices agree with each other
// and with the labels.
func (a *Ancillary) Validate() error {
	if a == nil || a.Indices == nil || a.Values == nil {
		return fmt.Errorf("%w: missing index or value matrix", ErrInconsistentAncillary)
	}
	if a.Indices.Shape() != a.Values.Shape() {
		return fmt.Errorf("%w: indices %v vs values %v", ErrInconsistentAncillary, a.Indices.Shape(), a.Values.Shape())
	}
	if len(a.Indices.Data) != a.Indices.Rows*a.Indices.Cols || len(a.Values.Data) != a.Values.Rows*a.Values.Cols {
		return fmt.Errorf("%w: matrix data does not match its shape", ErrInconsistentAncillary)
	}
	if a.Indices.Rows == 0 || a.Indices.Cols == 0 {
		return fmt.Errorf("%w: empty ancillary %v", ErrInconsistentAncillary, a.Indices.Shape())
	}
	if len(a.Labels) != a.Indices.Rows {
		return fmt.Errorf("%w: %d labels for %d dimensions", ErrInconsistentAncillary, len(a.Labels), a.Indices.Rows)
	}
	if len(a.Units) != 0 && len(a.Units) != a.Indices.Rows {
		return fmt.Errorf("%w: %d units for %d dimensions", ErrInconsistentAncillary, len(a.Units), a.Indices.Rows)
	}
	seen := make(map[string]bool, len(a.Labels))
	for _, l := range a.Labels {
		if seen[l] {
			return fmt.Errorf("%w: label %q repeated", ErrInconsistentAncillary, l)
		}
		seen[l] = true
	}
	return nil
}

// Count is the number of flattened positions (columns of the ancillary).
func (a *Ancillary) Count() int { return a.Indices.Cols }

// NumDims is the number of dimensions in the group.
func (a *Ancillary) NumDims() int { return a.Indices.Rows }

// Unit returns the units of dimension r, or "" when none were recorded.
func (a *Ancillary) Unit(r int) string {
	if r < len(a.Units) {
		return a.Units[r]
	}
	return ""
}

// Sizes returns, for every dimension, the largest index plus one.
func (a *Ancillary) Sizes() []int {
	sizes := make([]int, a.NumDims())
	count := a.Count()
	for r := range sizes {
		for _, v := range a.Indices.Data[r*count : (r+1)*count] {
			sizes[r] = max(sizes[r], int(v)+1)
		}
	}
	return sizes
}

// Dimensions recovers the dimensions of the group from the ancillary data.
// Every index in [0, size) must occur, and always with the same value.
func (a *Ancillary) Dimensions() ([]Dimension, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	sizes := a.Sizes()
	count := a.Count()
	n := 1
	for r, s := range sizes {
		if s > count {
			return nil, fmt.Errorf("%w: %q index %d exceeds the %d positions",
				ErrShapeMismatch, a.Labels[r], s-1, count)
		}
		n *= s
		if n > count {
			return nil, fmt.Errorf("%w: %v sizes %v give more than %d positions",
				ErrShapeMismatch, a.Labels, sizes, count)
		}
	}
	if n != count {
		return nil, fmt.Errorf("%w: %v sizes %v give %d positions, ancillary has %d",
			ErrShapeMismatch, a.Labels, sizes, n, count)
	}
	dims := make([]Dimension, a.NumDims())
	for r := range dims {
		values := make([]float64, sizes[r])
		found := make([]bool, sizes[r])
		for k := 0; k < count; k++ {
			i := a.Indices.Data[r*count+k]
			v := a.Values.Data[r*count+k]
			if !found[i] {
				values[i] = v
				found[i] = true
				continue
			}
			if math.Float64bits(values[i]) != math.Float64bits(v) {
				return nil, fmt.Errorf("%w: %q index %d maps to both %v and %v",
					ErrInconsistentAncillary, a.Labels[r], i, values[i], v)
			}
		}
		if j := slices.Index(found, false); j >= 0 {
			return nil, fmt.Errorf("%w: %q never takes index %d", ErrShapeMismatch, a.Labels[r], j)
		}
		dims[r] = Dimension{Name: a.Labels[r], Units: a.Unit(r), Values: values}
	}
	return dims, nil
}

// DimValues returns the values of the named dimension in index order.
func (a *Ancillary) DimValues(label string) ([]float64, error) {
	r := slices.Index(a.Labels, label)
	if r < 0 {
		return nil, fmt.Errorf("%w: no dimension %q in %v", ErrInvalidPartition, label, a.Labels)
	}
	dims, err := a.Dimensions()
	if err != nil {
		return nil, err
	}
	return dims[r].Values, nil
}

// offsets maps every flattened position to an element offset, given the
// size and stride of each of the group's dimensions in the N-d array. It
// fails if an index is out of range or a position repeats.
func (a *Ancillary) offsets(sizes, axisStrides []int) ([]int, error) {
	count := a.Count()
	rank := a.NumDims()
	local := strides(sizes)
	seen := make([]bool, product(sizes))
	out := make([]int, count)
	for k := 0; k < count; k++ {
		key, off := 0, 0
		for r := 0; r < rank; r++ {
			i := int(a.Indices.Data[r*count+k])
			if i >= sizes[r] {
				return nil, fmt.Errorf("%w: %w: %q index %d at position %d, size is %d",
					ErrShapeMismatch, ErrOutOfRangeIndex, a.Labels[r], i, k, sizes[r])
			}
			key += i * local[r]
			off += i * axisStrides[r]
		}
		if seen[key] {
			return nil, fmt.Errorf("%w: position %d repeats an earlier %v combination", ErrShapeMismatch, k, a.Labels)
		}
		seen[key] = true
		out[k] = off
	}
	return out, nil
}
