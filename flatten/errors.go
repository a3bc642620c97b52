package flatten

import "errors"

// Errors reported by the codec. Failures caused by an ancillary index that
// exceeds its dimension size match both ErrOutOfRangeIndex and
// ErrShapeMismatch.
var (
	ErrInvalidDimension      = errors.New("invalid dimension")
	ErrInvalidPartition      = errors.New("invalid partition")
	ErrShapeMismatch         = errors.New("shape mismatch")
	ErrInconsistentAncillary = errors.New("inconsistent ancillary")
	ErrOutOfRangeIndex       = errors.New("ancillary index out of range")
)
