package flatten_test

import (
	"math"
	"runtime"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TuSKan/usid-gomlx/flatten"
)

func TestDecode_RoundTrip(t *testing.T) {
	a := movie(t)
	for _, part := range []flatten.Partition{alternate, strict, {Rows: []string{"Time", "Y"}, Cols: []string{"X"}}} {
		f, err := flatten.Encode(a, part)
		require.NoError(t, err)

		got, err := flatten.Decode(f.Main(), f.Position(), f.Spectroscopic(), a.Dims)
		require.NoError(t, err)
		require.Equal(t, a.Shape, got.Shape)
		require.Equal(t, a.Data, got.Data)
		require.Equal(t, a.Dims, got.Dims)
	}
}

func TestDecode_RoundTripExactBits(t *testing.T) {
	data := []float64{math.NaN(), math.Inf(1), math.Inf(-1), math.Copysign(0, -1), math.SmallestNonzeroFloat64, math.MaxFloat64}
	a, err := flatten.NewNDArray(data,
		flatten.LinearDimension("Row", "", 3, 0, 1),
		flatten.LinearDimension("Col", "", 2, 0, 1),
	)
	require.NoError(t, err)

	f, err := flatten.Encode(a, flatten.Partition{Rows: []string{"Col"}, Cols: []string{"Row"}})
	require.NoError(t, err)
	got, err := f.Decode(a.Dims)
	require.NoError(t, err)
	for i := range data {
		require.Equal(t, math.Float64bits(data[i]), math.Float64bits(got.Data[i]))
	}
}

func TestDecode_InferredDimensions(t *testing.T) {
	a := movie(t)

	f, err := flatten.Encode(a, strict)
	require.NoError(t, err)
	got, err := f.Decode(nil)
	require.NoError(t, err)

	// Position dimensions first, then spectroscopic ones.
	require.Equal(t, []int{2, 4, 4}, got.Shape)
	require.Equal(t, []string{"Time", "X", "Y"}, got.Labels())
	require.Equal(t, []string{"Time (s)", "X (nm)", "Y (nm)"}, got.Descriptors())
	require.Equal(t, []float64{0, 1.5}, got.Dims[0].Values)
	for tm := 0; tm < 2; tm++ {
		for x := 0; x < 4; x++ {
			for y := 0; y < 4; y++ {
				require.Equal(t, a.At(x, y, tm), got.At(tm, x, y))
			}
		}
	}
}

func TestDecode_OtherPartitionAncillary(t *testing.T) {
	a := movie(t)
	alt, err := flatten.Encode(a, alternate)
	require.NoError(t, err)
	str, err := flatten.Encode(a, strict)
	require.NoError(t, err)

	got, err := flatten.Decode(str.Main(), str.Position(), str.Spectroscopic(), a.Dims)
	require.NoError(t, err)
	require.Equal(t, a.Data, got.Data)

	_, err = flatten.Decode(alt.Main(), str.Position(), str.Spectroscopic(), a.Dims)
	require.ErrorIs(t, err, flatten.ErrShapeMismatch)
	_, err = flatten.Decode(str.Main(), alt.Position(), alt.Spectroscopic(), nil)
	require.ErrorIs(t, err, flatten.ErrShapeMismatch)
}

func TestDecode_OutOfRangeIndex(t *testing.T) {
	a := movie(t)
	f, err := flatten.Encode(a, alternate)
	require.NoError(t, err)

	pos := cloneAncillary(f.Position())
	pos.Indices.Data[15] = 4 // X at the last position

	_, err = flatten.Decode(f.Main(), pos, f.Spectroscopic(), a.Dims)
	require.ErrorIs(t, err, flatten.ErrOutOfRangeIndex)
	require.ErrorIs(t, err, flatten.ErrShapeMismatch)
}

func TestDecode_HugeIndexFailsWithoutAllocating(t *testing.T) {
	a := movie(t)
	f, err := flatten.Encode(a, alternate)
	require.NoError(t, err)

	pos := cloneAncillary(f.Position())
	pos.Indices.Data[15] = math.MaxUint32

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err = flatten.Decode(f.Main(), pos, f.Spectroscopic(), nil)
	runtime.ReadMemStats(&after)
	require.ErrorIs(t, err, flatten.ErrShapeMismatch)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20))

	// Sizes within the count whose product still disagrees with it.
	pos = cloneAncillary(f.Position())
	pos.Indices.Data[15] = 5
	_, err = pos.Dimensions()
	require.ErrorIs(t, err, flatten.ErrShapeMismatch)
}

func TestDecode_NaNDimensionValue(t *testing.T) {
	a, err := flatten.NewNDArray([]float32{1, 2, 3, 4},
		flatten.Dimension{Name: "Bias", Units: "V", Values: []float64{math.NaN(), 1}},
		flatten.LinearDimension("Cycle", "", 2, 0, 1),
	)
	require.NoError(t, err)
	f, err := flatten.Encode(a, flatten.Partition{Rows: []string{"Cycle"}, Cols: []string{"Bias"}})
	require.NoError(t, err)

	got, err := f.Decode(nil)
	require.NoError(t, err)
	require.Equal(t, []string{"Cycle", "Bias"}, got.Labels())
	assert.True(t, math.IsNaN(got.Dims[1].Values[0]))
	assert.Equal(t, 1.0, got.Dims[1].Values[1])
	assert.Equal(t, a.At(0, 1), got.At(1, 0))
}

func TestDecode_InconsistentAncillary(t *testing.T) {
	a := movie(t)
	f, err := flatten.Encode(a, alternate)
	require.NoError(t, err)

	t.Run("shape", func(t *testing.T) {
		spec := cloneAncillary(f.Spectroscopic())
		spec.Values = &flatten.Matrix[float64]{Rows: 1, Cols: 1, Data: []float64{0}}
		_, err := flatten.Decode(f.Main(), f.Position(), spec, nil)
		require.ErrorIs(t, err, flatten.ErrInconsistentAncillary)
	})

	t.Run("labels", func(t *testing.T) {
		pos := cloneAncillary(f.Position())
		pos.Labels = pos.Labels[:1]
		_, err := flatten.Decode(f.Main(), pos, f.Spectroscopic(), nil)
		require.ErrorIs(t, err, flatten.ErrInconsistentAncillary)
	})

	t.Run("values", func(t *testing.T) {
		pos := cloneAncillary(f.Position())
		pos.Values.Data[16+4] = 42 // Y index 0 again, different value
		_, err := flatten.Decode(f.Main(), pos, f.Spectroscopic(), nil)
		require.ErrorIs(t, err, flatten.ErrInconsistentAncillary)
	})
}

func TestDecode_RepeatedPosition(t *testing.T) {
	a := movie(t)
	f, err := flatten.Encode(a, alternate)
	require.NoError(t, err)

	pos := cloneAncillary(f.Position())
	// Position 1 becomes a copy of position 0.
	pos.Indices.Data[16+1] = 0
	pos.Values.Data[16+1] = 0
	_, err = flatten.Decode(f.Main(), pos, f.Spectroscopic(), a.Dims)
	require.ErrorIs(t, err, flatten.ErrShapeMismatch)
}

func TestDecode_DimensionListMismatch(t *testing.T) {
	a := movie(t)
	f, err := flatten.Encode(a, alternate)
	require.NoError(t, err)

	_, err = f.Decode(a.Dims[:2])
	require.ErrorIs(t, err, flatten.ErrInvalidPartition)

	dims := slices.Clone(a.Dims)
	dims[0] = flatten.LinearDimension("X", "nm", 5, 0, 1)
	_, err = f.Decode(dims)
	require.ErrorIs(t, err, flatten.ErrShapeMismatch)
}

func TestDecode_AxisOrderFollowsDimensionList(t *testing.T) {
	a := movie(t)
	f, err := flatten.Encode(a, alternate)
	require.NoError(t, err)

	dims := []flatten.Dimension{a.Dims[2], a.Dims[0], a.Dims[1]}
	got, err := f.Decode(dims)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 4}, got.Shape)
	assert.Equal(t, a.At(3, 1, 1), got.At(1, 3, 1))
}

func TestDescribe(t *testing.T) {
	f, err := flatten.Encode(movie(t), alternate)
	require.NoError(t, err)

	d := f.Describe()
	assert.Equal(t, [2]int{16, 2}, d.Shape)
	assert.Equal(t, []flatten.DimensionInfo{{Name: "X", Units: "nm", Size: 4}, {Name: "Y", Units: "nm", Size: 4}}, d.Position)
	assert.Equal(t, []flatten.DimensionInfo{{Name: "Time", Units: "s", Size: 2}}, d.Spectroscopic)
	assert.Equal(t, []int{4, 4, 2}, d.NDimShape())
	assert.Equal(t, []string{"X", "Y", "Time"}, d.NDimLabels())
	assert.Equal(t, "Main shape: (16, 2)\n"+
		"Position Dimensions:\n\tX (nm) - size: 4\n\tY (nm) - size: 4\n"+
		"Spectroscopic Dimensions:\n\tTime (s) - size: 2\n", d.String())

	same, err := flatten.Describe(16, 2, f.Position(), f.Spectroscopic())
	require.NoError(t, err)
	assert.Equal(t, d, same)

	_, err = flatten.Describe(2, 16, f.Position(), f.Spectroscopic())
	require.ErrorIs(t, err, flatten.ErrShapeMismatch)
}

func TestToTensor(t *testing.T) {
	a := movie(t)
	tensor, err := flatten.ToTensor(a)
	require.NoError(t, err)
	require.Equal(t, []int{4, 4, 2}, tensor.Shape().Dimensions)
	frames := tensor.Value().([][][]float32)
	require.Equal(t, a.At(2, 3, 1), frames[2][3][1])

	_, err = flatten.ToTensor(&flatten.NDArray[int]{Shape: []int{1}, Data: []int{1}})
	require.Error(t, err)
}

func cloneAncillary(a *flatten.Ancillary) *flatten.Ancillary {
	return &flatten.Ancillary{
		Labels:  slices.Clone(a.Labels),
		Units:   slices.Clone(a.Units),
		Indices: &flatten.Matrix[uint32]{Rows: a.Indices.Rows, Cols: a.Indices.Cols, Data: slices.Clone(a.Indices.Data)},
		Values:  &flatten.Matrix[float64]{Rows: a.Values.Rows, Cols: a.Values.Cols, Data: slices.Clone(a.Values.Data)},
	}
}
