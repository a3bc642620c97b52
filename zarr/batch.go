package zarr

import (
	"context"
	"fmt"
	"io"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"go.uber.org/zap"
)

// Batcher reads an array in batches along its first dimension.
type Batcher struct {
	arr          *Array
	CurrentIndex int
}

// NewBatcher returns a Batcher positioned at the first row of a.
func NewBatcher(a *Array) (*Batcher, error) {
	if len(a.meta.Shape) == 0 {
		return nil, fmt.Errorf("cannot batch 0D array %s", a.path)
	}
	return &Batcher{arr: a}, nil
}

// Reset rewinds to the first row.
func (b *Batcher) Reset() {
	b.CurrentIndex = 0
}

// NextBatch reads the next batch of size batchSize as a tensor of the
// array's native element type. Returns io.EOF if there is no more data.
func (b *Batcher) NextBatch(ctx context.Context, batchSize int) (*tensors.Tensor, error) {
	meta := b.arr.meta
	if batchSize <= 0 {
		return nil, fmt.Errorf("invalid batch size %d", batchSize)
	}
	if b.CurrentIndex >= meta.Shape[0] {
		return nil, io.EOF
	}

	start := b.CurrentIndex
	end := min(start+batchSize, meta.Shape[0])

	// Batch shape: [actualBatchSize, Shape[1], Shape[2]...]
	batchStart := make([]int, len(meta.Shape))
	batchStart[0] = start
	batchShape := make([]int, len(meta.Shape))
	batchShape[0] = end - start
	copy(batchShape[1:], meta.Shape[1:])

	raw, err := b.arr.ReadRegion(ctx, batchStart, batchShape)
	if err != nil {
		return nil, err
	}
	t, err := rawTensor(raw, meta.DType, batchShape)
	if err != nil {
		return nil, err
	}

	b.arr.store.Logger.Debug("Read batch", zap.String("path", b.arr.path), zap.Int("start", start), zap.Int("end", end))
	b.CurrentIndex = end
	return t, nil
}

func rawTensor(raw []byte, dtype string, shape []int) (*tensors.Tensor, error) {
	name, _, err := ParseDType(dtype)
	if err != nil {
		return nil, err
	}
	var values any
	switch name {
	case "float32":
		values, err = DecodeValues[float32](raw, dtype)
	case "float64":
		values, err = DecodeValues[float64](raw, dtype)
	case "int8":
		values, err = DecodeValues[int8](raw, dtype)
	case "int16":
		values, err = DecodeValues[int16](raw, dtype)
	case "int32":
		values, err = DecodeValues[int32](raw, dtype)
	case "int64":
		values, err = DecodeValues[int64](raw, dtype)
	case "uint8", "bool":
		values, err = DecodeValues[uint8](raw, dtype)
	case "uint16":
		values, err = DecodeValues[uint16](raw, dtype)
	case "uint32":
		values, err = DecodeValues[uint32](raw, dtype)
	case "uint64":
		values, err = DecodeValues[uint64](raw, dtype)
	default:
		return nil, fmt.Errorf("unsupported dtype: %s", dtype)
	}
	if err != nil {
		return nil, err
	}

	switch v := values.(type) {
	case []float32:
		return tensors.FromFlatDataAndDimensions(v, shape...), nil
	case []float64:
		return tensors.FromFlatDataAndDimensions(v, shape...), nil
	case []int8:
		return tensors.FromFlatDataAndDimensions(v, shape...), nil
	case []int16:
		return tensors.FromFlatDataAndDimensions(v, shape...), nil
	case []int32:
		return tensors.FromFlatDataAndDimensions(v, shape...), nil
	case []int64:
		return tensors.FromFlatDataAndDimensions(v, shape...), nil
	case []uint8:
		return tensors.FromFlatDataAndDimensions(v, shape...), nil
	case []uint16:
		return tensors.FromFlatDataAndDimensions(v, shape...), nil
	case []uint32:
		return tensors.FromFlatDataAndDimensions(v, shape...), nil
	case []uint64:
		return tensors.FromFlatDataAndDimensions(v, shape...), nil
	default:
		return nil, fmt.Errorf("unexpected data type: %T", values)
	}
}
