package flatten

import (
	"fmt"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// ToTensor copies a into a gomlx tensor of the same shape.
func ToTensor[T Number](a *NDArray[T]) (*tensors.Tensor, error) {
	switch v := any(a.Data).(type) {
	case []float32:
		return tensors.FromFlatDataAndDimensions(v, a.Shape...), nil
	case []float64:
		return tensors.FromFlatDataAndDimensions(v, a.Shape...), nil
	case []int8:
		return tensors.FromFlatDataAndDimensions(v, a.Shape...), nil
	case []int16:
		return tensors.FromFlatDataAndDimensions(v, a.Shape...), nil
	case []int32:
		return tensors.FromFlatDataAndDimensions(v, a.Shape...), nil
	case []int64:
		return tensors.FromFlatDataAndDimensions(v, a.Shape...), nil
	case []uint8:
		return tensors.FromFlatDataAndDimensions(v, a.Shape...), nil
	case []uint16:
		return tensors.FromFlatDataAndDimensions(v, a.Shape...), nil
	case []uint32:
		return tensors.FromFlatDataAndDimensions(v, a.Shape...), nil
	case []uint64:
		return tensors.FromFlatDataAndDimensions(v, a.Shape...), nil
	default:
		return nil, fmt.Errorf("unsupported tensor element type %T", a.Data)
	}
}
