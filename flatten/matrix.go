package flatten

import (
	"fmt"
	"slices"
)

// Matrix is a dense row-major two-dimensional array.
type Matrix[T Number] struct {
	Rows int
	Cols int
	Data []T
}

// NewMatrix wraps data as a rows x cols matrix.
func NewMatrix[T Number](rows, cols int, data []T) (*Matrix[T], error) {
	if rows < 0 || cols < 0 || rows*cols != len(data) {
		return nil, fmt.Errorf("%w: %dx%d matrix cannot hold %d elements", ErrShapeMismatch, rows, cols, len(data))
	}
	return &Matrix[T]{Rows: rows, Cols: cols, Data: data}, nil
}

// At returns element (r, c).
func (m *Matrix[T]) At(r, c int) T {
	return m.Data[r*m.Cols+c]
}

// Row returns a copy of row r.
func (m *Matrix[T]) Row(r int) []T {
	return slices.Clone(m.Data[r*m.Cols : (r+1)*m.Cols])
}

// Shape returns (Rows, Cols).
func (m *Matrix[T]) Shape() [2]int {
	return [2]int{m.Rows, m.Cols}
}
