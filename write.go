package usid

import (
	"context"
	"fmt"
	"maps"

	"go.uber.org/zap"

	"github.com/TuSKan/usid-gomlx/flatten"
	"github.com/TuSKan/usid-gomlx/zarr"
)

// WriteOptions control how WriteMain lays out a main dataset.
type WriteOptions struct {
	// AncillaryPrefix is prepended to the four ancillary array names so
	// several main datasets can share a group.
	AncillaryPrefix string
	// Chunks of the main array; a single chunk when nil.
	Chunks     []int
	Compressor *zarr.CompressorConfig
	// Attrs are extra attributes stored on the main array.
	Attrs map[string]any
}

// WriteMain writes f as the main dataset name under g, together with its
// ancillary arrays, and returns it opened.
func WriteMain[T flatten.Number](ctx context.Context, g *zarr.Group, name, quantity, units string, f *flatten.Flattened[T], opts WriteOptions) (*MainDataset, error) {
	pre := opts.AncillaryPrefix
	if err := writeAncillary(ctx, g, pre+PositionIndices, pre+PositionValues, f.Position(), opts.Compressor); err != nil {
		return nil, fmt.Errorf("failed to write position ancillary: %w", err)
	}
	if err := writeAncillary(ctx, g, pre+SpectroscopicIndices, pre+SpectroscopicValues, f.Spectroscopic(), opts.Compressor); err != nil {
		return nil, fmt.Errorf("failed to write spectroscopic ancillary: %w", err)
	}

	main := f.Main()
	arr, err := zarr.WriteValues(ctx, g, name, []int{main.Rows, main.Cols}, main.Data, zarr.ArrayOptions{
		Chunks:     opts.Chunks,
		Compressor: opts.Compressor,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write main dataset %s: %w", name, err)
	}

	attrs := maps.Clone(opts.Attrs)
	if attrs == nil {
		attrs = map[string]any{}
	}
	attrs[AttrQuantity] = quantity
	attrs[AttrUnits] = units
	for _, ref := range []string{PositionIndices, PositionValues, SpectroscopicIndices, SpectroscopicValues} {
		attrs[ref] = pre + ref
	}
	if err := arr.SetAttrs(ctx, attrs); err != nil {
		return nil, err
	}

	g.Store().Logger.Debug("Wrote main dataset", zap.String("path", arr.Path()),
		zap.Strings("position", f.Position().Labels), zap.Strings("spectroscopic", f.Spectroscopic().Labels))
	return newMainDataset(ctx, arr)
}

func writeAncillary(ctx context.Context, g *zarr.Group, indsName, valsName string, anc *flatten.Ancillary, compressor *zarr.CompressorConfig) error {
	attrs := map[string]any{
		AttrLabels: anc.Labels,
		AttrUnits:  ancillaryUnits(anc),
	}
	shape := []int{anc.Indices.Rows, anc.Indices.Cols}
	inds, err := zarr.WriteValues(ctx, g, indsName, shape, anc.Indices.Data, zarr.ArrayOptions{Compressor: compressor})
	if err != nil {
		return err
	}
	if err := inds.SetAttrs(ctx, attrs); err != nil {
		return err
	}
	vals, err := zarr.WriteValues(ctx, g, valsName, shape, anc.Values.Data, zarr.ArrayOptions{Compressor: compressor})
	if err != nil {
		return err
	}
	return vals.SetAttrs(ctx, attrs)
}

func ancillaryUnits(anc *flatten.Ancillary) []string {
	units := make([]string, anc.NumDims())
	for r := range units {
		units[r] = anc.Unit(r)
	}
	return units
}
