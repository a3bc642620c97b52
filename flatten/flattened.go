package flatten

import (
	"fmt"
	"slices"
)

// Flattened is a main array together with its position (row) and
// spectroscopic (column) ancillaries. The parts are produced and consumed
// together and are not modified after construction.
type Flattened[T Number] struct {
	main *Matrix[T]
	pos  *Ancillary
	spec *Ancillary
}

// NewFlattened bundles a main matrix with its ancillaries after checking
// that they describe each other.
func NewFlattened[T Number](main *Matrix[T], pos, spec *Ancillary) (*Flattened[T], error) {
	if main == nil {
		return nil, fmt.Errorf("%w: missing main matrix", ErrShapeMismatch)
	}
	if len(main.Data) != main.Rows*main.Cols {
		return nil, fmt.Errorf("%w: main data does not match shape %v", ErrShapeMismatch, main.Shape())
	}
	if err := pos.Validate(); err != nil {
		return nil, fmt.Errorf("position ancillary: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("spectroscopic ancillary: %w", err)
	}
	if main.Rows != pos.Count() || main.Cols != spec.Count() {
		return nil, fmt.Errorf("%w: main %v vs ancillary counts (%d, %d)",
			ErrShapeMismatch, main.Shape(), pos.Count(), spec.Count())
	}
	for _, l := range pos.Labels {
		if slices.Contains(spec.Labels, l) {
			return nil, fmt.Errorf("%w: %q is both a position and a spectroscopic dimension", ErrInvalidPartition, l)
		}
	}
	return &Flattened[T]{main: main, pos: pos, spec: spec}, nil
}

// Main returns the (P, S) main matrix.
func (f *Flattened[T]) Main() *Matrix[T] { return f.main }

// Position returns the row ancillary.
func (f *Flattened[T]) Position() *Ancillary { return f.pos }

// Spectroscopic returns the column ancillary.
func (f *Flattened[T]) Spectroscopic() *Ancillary { return f.spec }

// Shape returns the main matrix shape.
func (f *Flattened[T]) Shape() [2]int { return f.main.Shape() }

// Partition returns the dimension grouping the data was flattened with.
func (f *Flattened[T]) Partition() Partition {
	return Partition{Rows: slices.Clone(f.pos.Labels), Cols: slices.Clone(f.spec.Labels)}
}
