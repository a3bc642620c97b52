package zarr

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

// Number is the set of Go element types arrays can be read into.
type Number interface {
	constraints.Integer | constraints.Float
}

// DecodeValues converts little-endian raw elements of the given dtype to T.
func DecodeValues[T Number](raw []byte, dtype string) ([]T, error) {
	name, size, err := ParseDType(dtype)
	if err != nil {
		return nil, err
	}
	if len(raw)%size != 0 {
		return nil, fmt.Errorf("%d bytes is not a whole number of %s elements", len(raw), name)
	}
	n := len(raw) / size
	out := make([]T, n)
	le := binary.LittleEndian

	switch name {
	case "bool", "uint8":
		for i := range out {
			out[i] = T(raw[i])
		}
	case "int8":
		for i := range out {
			out[i] = T(int8(raw[i]))
		}
	case "int16":
		for i := range out {
			out[i] = T(int16(le.Uint16(raw[i*2:])))
		}
	case "uint16":
		for i := range out {
			out[i] = T(le.Uint16(raw[i*2:]))
		}
	case "int32":
		for i := range out {
			out[i] = T(int32(le.Uint32(raw[i*4:])))
		}
	case "uint32":
		for i := range out {
			out[i] = T(le.Uint32(raw[i*4:]))
		}
	case "int64":
		for i := range out {
			out[i] = T(int64(le.Uint64(raw[i*8:])))
		}
	case "uint64":
		for i := range out {
			out[i] = T(le.Uint64(raw[i*8:]))
		}
	case "float32":
		for i := range out {
			out[i] = T(math.Float32frombits(le.Uint32(raw[i*4:])))
		}
	case "float64":
		for i := range out {
			out[i] = T(math.Float64frombits(le.Uint64(raw[i*8:])))
		}
	default:
		return nil, fmt.Errorf("%w: dtype %s", ErrUnsupported, dtype)
	}
	return out, nil
}

// EncodeValues converts values to little-endian raw elements of dtype.
func EncodeValues[T Number](values []T, dtype string) ([]byte, error) {
	name, size, err := ParseDType(dtype)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(values)*size)
	le := binary.LittleEndian

	switch name {
	case "bool":
		for i, v := range values {
			if v != 0 {
				out[i] = 1
			}
		}
	case "uint8":
		for i, v := range values {
			out[i] = uint8(v)
		}
	case "int8":
		for i, v := range values {
			out[i] = byte(int8(v))
		}
	case "int16":
		for i, v := range values {
			le.PutUint16(out[i*2:], uint16(int16(v)))
		}
	case "uint16":
		for i, v := range values {
			le.PutUint16(out[i*2:], uint16(v))
		}
	case "int32":
		for i, v := range values {
			le.PutUint32(out[i*4:], uint32(int32(v)))
		}
	case "uint32":
		for i, v := range values {
			le.PutUint32(out[i*4:], uint32(v))
		}
	case "int64":
		for i, v := range values {
			le.PutUint64(out[i*8:], uint64(int64(v)))
		}
	case "uint64":
		for i, v := range values {
			le.PutUint64(out[i*8:], uint64(v))
		}
	case "float32":
		for i, v := range values {
			le.PutUint32(out[i*4:], math.Float32bits(float32(v)))
		}
	case "float64":
		for i, v := range values {
			le.PutUint64(out[i*8:], math.Float64bits(float64(v)))
		}
	default:
		return nil, fmt.Errorf("%w: dtype %s", ErrUnsupported, dtype)
	}
	return out, nil
}

// ReadAll reads the whole array converted to T.
func ReadAll[T Number](ctx context.Context, a *Array) ([]T, error) {
	raw, err := a.ReadFull(ctx)
	if err != nil {
		return nil, err
	}
	return DecodeValues[T](raw, a.meta.DType)
}

// ReadSlice reads a rectangular region converted to T.
func ReadSlice[T Number](ctx context.Context, a *Array, start, shape []int) ([]T, error) {
	raw, err := a.ReadRegion(ctx, start, shape)
	if err != nil {
		return nil, err
	}
	return DecodeValues[T](raw, a.meta.DType)
}

// ArrayOptions control how WriteValues lays out a new array.
type ArrayOptions struct {
	// Chunks defaults to the full shape (a single chunk).
	Chunks     []int
	Compressor *CompressorConfig
	FillValue  any
}

// WriteValues creates the array name under g with T's dtype and writes values.
func WriteValues[T Number](ctx context.Context, g *Group, name string, shape []int, values []T, opts ArrayOptions) (*Array, error) {
	chunks := opts.Chunks
	if chunks == nil {
		chunks = make([]int, len(shape))
		for i, d := range shape {
			chunks[i] = max(d, 1)
		}
	}
	dtype := DTypeOf[T]()
	arr, err := g.CreateArray(ctx, name, Metadata{
		Shape:      shape,
		Chunks:     chunks,
		DType:      dtype,
		Compressor: opts.Compressor,
		FillValue:  opts.FillValue,
	})
	if err != nil {
		return nil, err
	}
	raw, err := EncodeValues(values, dtype)
	if err != nil {
		return nil, err
	}
	if err := arr.Write(ctx, raw); err != nil {
		return nil, err
	}
	return arr, nil
}
