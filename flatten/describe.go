package flatten

import (
	"fmt"
	"strings"
)

// DimensionInfo summarises one dimension of a group.
type DimensionInfo struct {
	Name  string
	Units string
	Size  int
}

// Descriptor formats the dimension as "Name (Units)".
func (d DimensionInfo) Descriptor() string {
	return descriptor(d.Name, d.Units)
}

// Description is a read-only report of a main array's dimensionality.
type Description struct {
	Shape         [2]int
	Position      []DimensionInfo
	Spectroscopic []DimensionInfo
}

// Describe summarises the dimensions recorded in the ancillaries of a
// rows x cols main array.
func Describe(rows, cols int, pos, spec *Ancillary) (Description, error) {
	if err := pos.Validate(); err != nil {
		return Description{}, fmt.Errorf("position ancillary: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return Description{}, fmt.Errorf("spectroscopic ancillary: %w", err)
	}
	if rows != pos.Count() || cols != spec.Count() {
		return Description{}, fmt.Errorf("%w: main (%d, %d) vs ancillary counts (%d, %d)",
			ErrShapeMismatch, rows, cols, pos.Count(), spec.Count())
	}
	return Description{
		Shape:         [2]int{rows, cols},
		Position:      infos(pos),
		Spectroscopic: infos(spec),
	}, nil
}

// Describe summarises the dimensions of f.
func (f *Flattened[T]) Describe() Description {
	return Description{
		Shape:         f.main.Shape(),
		Position:      infos(f.pos),
		Spectroscopic: infos(f.spec),
	}
}

func infos(a *Ancillary) []DimensionInfo {
	sizes := a.Sizes()
	out := make([]DimensionInfo, len(sizes))
	for r, size := range sizes {
		out[r] = DimensionInfo{Name: a.Labels[r], Units: a.Unit(r), Size: size}
	}
	return out
}

// NDimShape returns the shape of the decoded array when decoded without
// explicit dimensions.
func (d Description) NDimShape() []int {
	shape := make([]int, 0, len(d.Position)+len(d.Spectroscopic))
	for _, p := range d.Position {
		shape = append(shape, p.Size)
	}
	for _, s := range d.Spectroscopic {
		shape = append(shape, s.Size)
	}
	return shape
}

// NDimLabels returns the axis labels matching NDimShape.
func (d Description) NDimLabels() []string {
	labels := make([]string, 0, len(d.Position)+len(d.Spectroscopic))
	for _, p := range d.Position {
		labels = append(labels, p.Name)
	}
	for _, s := range d.Spectroscopic {
		labels = append(labels, s.Name)
	}
	return labels
}

func (d Description) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Main shape: (%d, %d)\n", d.Shape[0], d.Shape[1])
	sb.WriteString("Position Dimensions:\n")
	for _, p := range d.Position {
		fmt.Fprintf(&sb, "\t%s - size: %d\n", p.Descriptor(), p.Size)
	}
	sb.WriteString("Spectroscopic Dimensions:\n")
	for _, s := range d.Spectroscopic {
		fmt.Fprintf(&sb, "\t%s - size: %d\n", s.Descriptor(), s.Size)
	}
	return sb.String()
}
