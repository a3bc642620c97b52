// Package zarr reads and writes Zarr V2 hierarchies stored in any
// gocloud.dev/blob bucket.
package zarr

import "errors"

// Common errors
var (
	ErrNotFound    = errors.New("object not found")
	ErrNotArray    = errors.New("object is not an array")
	ErrNotGroup    = errors.New("object is not a group")
	ErrUnsupported = errors.New("unsupported feature")
	ErrInvalidPath = errors.New("invalid path")
)
