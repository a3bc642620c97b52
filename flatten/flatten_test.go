package flatten_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TuSKan/usid-gomlx/flatten"
)

// movie returns a (X=4, Y=4, Time=2) array holding 0..31 in C order.
func movie(t *testing.T) *flatten.NDArray[float32] {
	t.Helper()
	data := make([]float32, 32)
	for i := range data {
		data[i] = float32(i)
	}
	a, err := flatten.NewNDArray(data,
		flatten.LinearDimension("X", "nm", 4, 0, 0.5),
		flatten.LinearDimension("Y", "nm", 4, 0, 0.5),
		flatten.LinearDimension("Time", "s", 2, 0, 1.5),
	)
	require.NoError(t, err)
	return a
}

var (
	alternate = flatten.Partition{Rows: []string{"X", "Y"}, Cols: []string{"Time"}}
	strict    = flatten.Partition{Rows: []string{"Time"}, Cols: []string{"X", "Y"}}
)

func TestEncode_Alternate(t *testing.T) {
	f, err := flatten.Encode(movie(t), alternate)
	require.NoError(t, err)

	require.Equal(t, [2]int{16, 2}, f.Shape())
	require.Equal(t, [2]int{2, 16}, f.Position().Indices.Shape())
	require.Equal(t, [2]int{1, 2}, f.Spectroscopic().Indices.Shape())
	require.Equal(t, []uint32{0, 1}, f.Spectroscopic().Indices.Data)
	require.Equal(t, []float64{0, 1.5}, f.Spectroscopic().Values.Data)

	assert.Equal(t, []uint32{0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3}, f.Position().Indices.Row(0))
	assert.Equal(t, []uint32{0, 1, 2, 3, 0, 1, 2, 3, 0, 1, 2, 3, 0, 1, 2, 3}, f.Position().Indices.Row(1))
	assert.Equal(t, []float64{0, 0.5, 1, 1.5, 0, 0.5, 1, 1.5, 0, 0.5, 1, 1.5, 0, 0.5, 1, 1.5}, f.Position().Values.Row(1))
	assert.Equal(t, []string{"X", "Y"}, f.Position().Labels)
	assert.Equal(t, []string{"nm", "nm"}, f.Position().Units)

	// Rows are (x, y) pairs and columns are time steps, which for this input
	// reproduces the original C-order layout.
	for i, v := range f.Main().Data {
		require.Equal(t, float32(i), v)
	}
}

func TestEncode_Strict(t *testing.T) {
	a := movie(t)
	f, err := flatten.Encode(a, strict)
	require.NoError(t, err)
	require.Equal(t, [2]int{2, 16}, f.Shape())

	m := f.Main()
	for tm := 0; tm < 2; tm++ {
		for x := 0; x < 4; x++ {
			for y := 0; y < 4; y++ {
				require.Equal(t, a.At(x, y, tm), m.At(tm, x*4+y))
			}
		}
	}
}

func TestEncode_OutputGuarantee(t *testing.T) {
	a := movie(t)
	for _, part := range []flatten.Partition{
		alternate,
		strict,
		{Rows: []string{"Y", "X"}, Cols: []string{"Time"}},
		{Rows: []string{"Y"}, Cols: []string{"Time", "X"}},
	} {
		f, err := flatten.Encode(a, part)
		require.NoError(t, err)

		pos, spec := f.Position(), f.Spectroscopic()
		for p := 0; p < f.Shape()[0]; p++ {
			for s := 0; s < f.Shape()[1]; s++ {
				idx := make([]int, a.NumDims())
				for r, l := range pos.Labels {
					idx[a.Axis(l)] = int(pos.Indices.At(r, p))
				}
				for r, l := range spec.Labels {
					idx[a.Axis(l)] = int(spec.Indices.At(r, s))
				}
				require.Equal(t, a.At(idx...), f.Main().At(p, s), "partition %v at (%d, %d)", part, p, s)
			}
		}
	}
}

func TestEncode_ShapeAndRangeLaws(t *testing.T) {
	data := make([]int16, 3*5*2*4)
	for i := range data {
		data[i] = int16(i - 60)
	}
	dims := []flatten.Dimension{
		flatten.LinearDimension("A", "", 3, 10, 1),
		flatten.LinearDimension("B", "V", 5, -1, 0.25),
		flatten.LinearDimension("C", "Hz", 2, 100, 100),
		flatten.LinearDimension("D", "K", 4, 4, -1),
	}
	a, err := flatten.NewNDArray(data, dims...)
	require.NoError(t, err)

	f, err := flatten.Encode(a, flatten.Partition{Rows: []string{"D", "A"}, Cols: []string{"C", "B"}})
	require.NoError(t, err)
	require.Equal(t, [2]int{4 * 3, 2 * 5}, f.Shape())

	check := func(anc *flatten.Ancillary) {
		for r, l := range anc.Labels {
			size := dims[slices.IndexFunc(dims, func(d flatten.Dimension) bool { return d.Name == l })].Size()
			for _, v := range anc.Indices.Row(r) {
				require.Less(t, int(v), size)
			}
		}
	}
	check(f.Position())
	check(f.Spectroscopic())
}

func TestEncode_InvalidPartition(t *testing.T) {
	a := movie(t)
	tests := []struct {
		name string
		part flatten.Partition
	}{
		{"omitted", flatten.Partition{Rows: []string{"X"}, Cols: []string{"Time"}}},
		{"both groups", flatten.Partition{Rows: []string{"X", "Y"}, Cols: []string{"Y", "Time"}}},
		{"repeated in group", flatten.Partition{Rows: []string{"X", "X", "Y"}, Cols: []string{"Time"}}},
		{"unknown", flatten.Partition{Rows: []string{"X", "Y"}, Cols: []string{"Time", "Z"}}},
		{"empty group", flatten.Partition{Rows: []string{"X", "Y", "Time"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := flatten.Encode(a, tt.part)
			require.ErrorIs(t, err, flatten.ErrInvalidPartition)
		})
	}
}

func TestEncode_ShapeMismatch(t *testing.T) {
	a := &flatten.NDArray[float64]{
		Shape: []int{2, 3},
		Data:  make([]float64, 6),
		Dims:  []flatten.Dimension{flatten.LinearDimension("X", "", 2, 0, 1), flatten.LinearDimension("Y", "", 2, 0, 1)},
	}
	_, err := flatten.Encode(a, flatten.Partition{Rows: []string{"X"}, Cols: []string{"Y"}})
	require.ErrorIs(t, err, flatten.ErrShapeMismatch)

	_, err = flatten.NewNDArray(make([]float64, 5), flatten.LinearDimension("X", "", 2, 0, 1), flatten.LinearDimension("Y", "", 3, 0, 1))
	require.ErrorIs(t, err, flatten.ErrShapeMismatch)
}

func TestPartition_Swap(t *testing.T) {
	require.Equal(t, strict, alternate.Swap())
	require.Equal(t, alternate, alternate.Swap().Swap())
}

func TestDimension(t *testing.T) {
	d := flatten.LinearDimension("Bias", "V", 3, -1, 1)
	assert.Equal(t, []float64{-1, 0, 1}, d.Values)
	assert.Equal(t, 3, d.Size())
	assert.Equal(t, "Bias (V)", d.Descriptor())
	assert.Equal(t, "Cycle", flatten.LinearDimension("Cycle", "", 1, 0, 1).Descriptor())

	_, err := flatten.NewDimension("", "V", []float64{1})
	require.ErrorIs(t, err, flatten.ErrInvalidDimension)
	_, err = flatten.NewDimension("Bias", "V", nil)
	require.ErrorIs(t, err, flatten.ErrInvalidDimension)

	values := []float64{1, 2}
	d, err = flatten.NewDimension("Field", "T", values)
	require.NoError(t, err)
	values[0] = 9
	assert.Equal(t, []float64{1, 2}, d.Values)
}

func TestNewAncillary_IrregularValues(t *testing.T) {
	anc, err := flatten.NewAncillary([]flatten.Dimension{
		{Name: "Field", Units: "T", Values: []float64{0, 0.1, 1}},
		{Name: "Cycle", Values: []float64{1, 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 0, 1, 1, 2, 2, 0, 1, 0, 1, 0, 1}, anc.Indices.Data)
	assert.Equal(t, []float64{0, 0, 0.1, 0.1, 1, 1, 1, 2, 1, 2, 1, 2}, anc.Values.Data)
	assert.Equal(t, []int{3, 2}, anc.Sizes())

	values, err := anc.DimValues("Field")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.1, 1}, values)

	_, err = anc.DimValues("Bias")
	require.ErrorIs(t, err, flatten.ErrInvalidPartition)
}
