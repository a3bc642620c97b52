package usid

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/TuSKan/usid-gomlx/flatten"
	"github.com/TuSKan/usid-gomlx/zarr"
)

// Attribute names of main datasets and their ancillaries.
const (
	AttrQuantity = "quantity"
	AttrUnits    = "units"
	AttrLabels   = "labels"

	PositionIndices      = "Position_Indices"
	PositionValues       = "Position_Values"
	SpectroscopicIndices = "Spectroscopic_Indices"
	SpectroscopicValues  = "Spectroscopic_Values"
)

// ErrNotMain is returned for arrays that lack the structure of a main dataset.
var ErrNotMain = errors.New("not a main dataset")

// MainDataset is a 2-D array linked to its position and spectroscopic
// ancillaries. The ancillaries are read when the dataset is opened; the main
// data is read on demand.
type MainDataset struct {
	arr      *zarr.Array
	quantity string
	units    string
	pos      *flatten.Ancillary
	spec     *flatten.Ancillary
	refs     map[string]string
	desc     flatten.Description
}

func newMainDataset(ctx context.Context, arr *zarr.Array) (*MainDataset, error) {
	shape := arr.Shape()
	if len(shape) != 2 {
		return nil, fmt.Errorf("%w: %s has %d dimensions", ErrNotMain, arr.Path(), len(shape))
	}
	attrs, err := arr.Attrs(ctx)
	if err != nil {
		return nil, err
	}

	m := &MainDataset{arr: arr, refs: map[string]string{}}
	var ok bool
	if m.quantity, ok = attrs[AttrQuantity].(string); !ok {
		return nil, fmt.Errorf("%w: %s has no %s attribute", ErrNotMain, arr.Path(), AttrQuantity)
	}
	if m.units, ok = attrs[AttrUnits].(string); !ok {
		return nil, fmt.Errorf("%w: %s has no %s attribute", ErrNotMain, arr.Path(), AttrUnits)
	}
	for _, name := range []string{PositionIndices, PositionValues, SpectroscopicIndices, SpectroscopicValues} {
		ref, ok := attrs[name].(string)
		if !ok || ref == "" {
			return nil, fmt.Errorf("%w: %s has no %s reference", ErrNotMain, arr.Path(), name)
		}
		m.refs[name] = resolve(arr.Path(), ref)
	}

	store := arr.Store()
	if m.pos, err = loadAncillary(ctx, store, m.refs[PositionIndices], m.refs[PositionValues]); err != nil {
		return nil, fmt.Errorf("position ancillary of %s: %w", arr.Path(), err)
	}
	if m.spec, err = loadAncillary(ctx, store, m.refs[SpectroscopicIndices], m.refs[SpectroscopicValues]); err != nil {
		return nil, fmt.Errorf("spectroscopic ancillary of %s: %w", arr.Path(), err)
	}
	if m.desc, err = flatten.Describe(shape[0], shape[1], m.pos, m.spec); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotMain, arr.Path(), err)
	}
	return m, nil
}

// resolve turns an ancillary reference into an absolute path. Relative
// references are relative to the group holding the main dataset.
func resolve(mainPath, ref string) string {
	if strings.HasPrefix(ref, "/") {
		return path.Clean(ref)
	}
	return path.Join(path.Dir(mainPath), ref)
}

func loadAncillary(ctx context.Context, store *zarr.Store, indsPath, valsPath string) (*flatten.Ancillary, error) {
	inds, err := store.OpenArray(ctx, indsPath)
	if errors.Is(err, zarr.ErrNotFound) || errors.Is(err, zarr.ErrNotArray) {
		return nil, fmt.Errorf("%w: %w", ErrNotMain, err)
	}
	if err != nil {
		return nil, err
	}
	vals, err := store.OpenArray(ctx, valsPath)
	if errors.Is(err, zarr.ErrNotFound) || errors.Is(err, zarr.ErrNotArray) {
		return nil, fmt.Errorf("%w: %w", ErrNotMain, err)
	}
	if err != nil {
		return nil, err
	}
	if len(inds.Shape()) != 2 || len(vals.Shape()) != 2 {
		return nil, fmt.Errorf("%w: ancillaries %s and %s must be 2-D", ErrNotMain, indsPath, valsPath)
	}

	attrs, err := inds.Attrs(ctx)
	if err != nil {
		return nil, err
	}
	labels, ok := stringList(attrs[AttrLabels])
	if !ok {
		return nil, fmt.Errorf("%w: %s has no %s attribute", ErrNotMain, indsPath, AttrLabels)
	}
	units, _ := stringList(attrs[AttrUnits])

	indData, err := zarr.ReadAll[uint32](ctx, inds)
	if err != nil {
		return nil, err
	}
	valData, err := zarr.ReadAll[float64](ctx, vals)
	if err != nil {
		return nil, err
	}
	indMat, err := flatten.NewMatrix(inds.Shape()[0], inds.Shape()[1], indData)
	if err != nil {
		return nil, err
	}
	valMat, err := flatten.NewMatrix(vals.Shape()[0], vals.Shape()[1], valData)
	if err != nil {
		return nil, err
	}
	anc := &flatten.Ancillary{Labels: labels, Units: units, Indices: indMat, Values: valMat}
	if err := anc.Validate(); err != nil {
		return nil, err
	}
	return anc, nil
}

// stringList converts a decoded JSON attribute to a list of strings. A
// single string is a list of one.
func stringList(v any) ([]string, bool) {
	switch l := v.(type) {
	case string:
		return []string{l}, true
	case []any:
		out := make([]string, len(l))
		for i, e := range l {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// Array returns the underlying main array.
func (m *MainDataset) Array() *zarr.Array { return m.arr }

// Path returns the absolute path of the main array.
func (m *MainDataset) Path() string { return m.arr.Path() }

// Shape returns the (positions, spectroscopic) shape of the main array.
func (m *MainDataset) Shape() [2]int {
	s := m.arr.Shape()
	return [2]int{s[0], s[1]}
}

// Quantity is the physical quantity the data measures.
func (m *MainDataset) Quantity() string { return m.quantity }

// Units of the measured quantity.
func (m *MainDataset) Units() string { return m.units }

// Position returns the position (row) ancillary.
func (m *MainDataset) Position() *flatten.Ancillary { return m.pos }

// Spectroscopic returns the spectroscopic (column) ancillary.
func (m *MainDataset) Spectroscopic() *flatten.Ancillary { return m.spec }

// Reference returns the resolved path of one of the four ancillary arrays.
func (m *MainDataset) Reference(name string) (string, bool) {
	p, ok := m.refs[name]
	return p, ok
}

func (m *MainDataset) PosDimLabels() []string  { return append([]string(nil), m.pos.Labels...) }
func (m *MainDataset) SpecDimLabels() []string { return append([]string(nil), m.spec.Labels...) }
func (m *MainDataset) PosDimSizes() []int      { return m.pos.Sizes() }
func (m *MainDataset) SpecDimSizes() []int     { return m.spec.Sizes() }

// PosDimDescriptors returns "Name (Units)" for each position dimension.
func (m *MainDataset) PosDimDescriptors() []string {
	return descriptors(m.Description().Position)
}

// SpecDimDescriptors returns "Name (Units)" for each spectroscopic dimension.
func (m *MainDataset) SpecDimDescriptors() []string {
	return descriptors(m.Description().Spectroscopic)
}

func descriptors(infos []flatten.DimensionInfo) []string {
	out := make([]string, len(infos))
	for i, d := range infos {
		out[i] = d.Descriptor()
	}
	return out
}

// NDimLabels returns the axis labels of the N-dimensional form: position
// dimensions followed by spectroscopic dimensions.
func (m *MainDataset) NDimLabels() []string {
	return append(m.PosDimLabels(), m.spec.Labels...)
}

// PosValues returns the values of a position dimension in index order.
func (m *MainDataset) PosValues(name string) ([]float64, error) {
	return m.pos.DimValues(name)
}

// SpecValues returns the values of a spectroscopic dimension in index order.
func (m *MainDataset) SpecValues(name string) ([]float64, error) {
	return m.spec.DimValues(name)
}

// Description summarises the dimensions of the dataset.
func (m *MainDataset) Description() flatten.Description {
	return m.desc
}

func (m *MainDataset) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", m.arr.Name())
	fmt.Fprintf(&sb, "located at:\n\t%s\n", m.Path())
	fmt.Fprintf(&sb, "Data contains:\n\t%s (%s)\n", m.quantity, m.units)
	sb.WriteString("Data dimensions and original shape:\n")
	sb.WriteString(m.Description().String())
	dtype, _, err := zarr.ParseDType(m.arr.Metadata().DType)
	if err != nil {
		dtype = m.arr.Metadata().DType
	}
	fmt.Fprintf(&sb, "Data Type:\n\t%s\n", dtype)
	return sb.String()
}

// Batches iterates over the main array position rows as tensors.
func (m *MainDataset) Batches() (*zarr.Batcher, error) {
	return zarr.NewBatcher(m.arr)
}

// ReadMain reads the whole main array.
func ReadMain[T flatten.Number](ctx context.Context, m *MainDataset) (*flatten.Matrix[T], error) {
	data, err := zarr.ReadAll[T](ctx, m.arr)
	if err != nil {
		return nil, err
	}
	s := m.Shape()
	return flatten.NewMatrix(s[0], s[1], data)
}

// ReadRows reads n position rows starting at row start.
func ReadRows[T flatten.Number](ctx context.Context, m *MainDataset, start, n int) (*flatten.Matrix[T], error) {
	s := m.Shape()
	data, err := zarr.ReadSlice[T](ctx, m.arr, []int{start, 0}, []int{n, s[1]})
	if err != nil {
		return nil, err
	}
	return flatten.NewMatrix(n, s[1], data)
}

// Flattened reads the main array and bundles it with the ancillaries.
func Flattened[T flatten.Number](ctx context.Context, m *MainDataset) (*flatten.Flattened[T], error) {
	main, err := ReadMain[T](ctx, m)
	if err != nil {
		return nil, err
	}
	return flatten.NewFlattened(main, m.pos, m.spec)
}

// NDimForm reads the dataset and reshapes it to N dimensions. With dims nil
// the axes follow NDimLabels; otherwise dims fixes axis order and values.
func NDimForm[T flatten.Number](ctx context.Context, m *MainDataset, dims []flatten.Dimension) (*flatten.NDArray[T], error) {
	f, err := Flattened[T](ctx, m)
	if err != nil {
		return nil, err
	}
	return f.Decode(dims)
}
