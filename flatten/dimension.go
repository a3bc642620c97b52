// Package flatten converts between N-dimensional labeled arrays and the
// two-dimensional "main" layout used by USID datasets.
//
// A main array has one row per combination of position dimension values and
// one column per combination of spectroscopic dimension values. Both groups
// are enumerated in C order over their declared dimensions: the first
// declared dimension varies slowest, the last fastest. Four ancillary arrays
// (position indices/values, spectroscopic indices/values) record which
// combination every row and column corresponds to, which is enough to
// reconstruct the original array.
package flatten

import (
	"fmt"
	"slices"
)

// Dimension is a named axis of a measurement.
type Dimension struct {
	Name   string
	Units  string
	Values []float64
}

// NewDimension returns a validated dimension. The values are copied.
func NewDimension(name, units string, values []float64) (Dimension, error) {
	d := Dimension{Name: name, Units: units, Values: slices.Clone(values)}
	if err := d.Validate(); err != nil {
		return Dimension{}, err
	}
	return d, nil
}

// LinearDimension returns a dimension of size evenly spaced values
// start, start+step, ...
func LinearDimension(name, units string, size int, start, step float64) Dimension {
	values := make([]float64, max(size, 0))
	for i := range values {
		values[i] = start + float64(i)*step
	}
	return Dimension{Name: name, Units: units, Values: values}
}

// Size is the number of values the dimension takes.
func (d Dimension) Size() int {
	return len(d.Values)
}

// Descriptor formats the dimension as "Name (Units)".
func (d Dimension) Descriptor() string {
	return descriptor(d.Name, d.Units)
}

// Validate reports ErrInvalidDimension for an unnamed or empty dimension.
func (d Dimension) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDimension)
	}
	if len(d.Values) == 0 {
		return fmt.Errorf("%w: %q has no values", ErrInvalidDimension, d.Name)
	}
	return nil
}

func descriptor(name, units string) string {
	if units == "" {
		return name
	}
	return name + " (" + units + ")"
}

// Partition assigns every dimension to either the row (position) group or
// the column (spectroscopic) group. The order of names inside a group is the
// flattening order.
type Partition struct {
	Rows []string
	Cols []string
}

// Swap returns the partition with both groups exchanged.
func (p Partition) Swap() Partition {
	return Partition{Rows: slices.Clone(p.Cols), Cols: slices.Clone(p.Rows)}
}

// Validate checks that the partition names every dimension exactly once and
// that neither group is empty.
func (p Partition) Validate(dims []Dimension) error {
	if len(p.Rows) == 0 || len(p.Cols) == 0 {
		return fmt.Errorf("%w: both groups need at least one dimension", ErrInvalidPartition)
	}

	known := make(map[string]bool, len(dims))
	for _, d := range dims {
		if known[d.Name] {
			return fmt.Errorf("%w: dimension %q declared twice", ErrInvalidPartition, d.Name)
		}
		known[d.Name] = true
	}

	seen := make(map[string]bool, len(dims))
	for _, name := range slices.Concat(p.Rows, p.Cols) {
		if !known[name] {
			return fmt.Errorf("%w: unknown dimension %q", ErrInvalidPartition, name)
		}
		if seen[name] {
			return fmt.Errorf("%w: dimension %q assigned more than once", ErrInvalidPartition, name)
		}
		seen[name] = true
	}

	for _, d := range dims {
		if !seen[d.Name] {
			return fmt.Errorf("%w: dimension %q not assigned to a group", ErrInvalidPartition, d.Name)
		}
	}
	return nil
}
