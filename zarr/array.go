package zarr

import (
	"context"
	"fmt"
	"math"
	"path"

	"go.uber.org/zap"
	"gocloud.dev/gcerrors"
)

// Array is a chunked N-dimensional Zarr array.
type Array struct {
	store *Store
	path  string
	meta  *Metadata
}

// Path returns the absolute path of the array.
func (a *Array) Path() string {
	return a.path
}

// Name returns the last path element.
func (a *Array) Name() string {
	return path.Base(a.path)
}

// Store returns the store the array belongs to.
func (a *Array) Store() *Store {
	return a.store
}

// Metadata returns the parsed .zarray content.
func (a *Array) Metadata() *Metadata {
	return a.meta
}

// Shape returns the array shape.
func (a *Array) Shape() []int {
	return a.meta.Shape
}

// Attrs returns the array attributes.
func (a *Array) Attrs(ctx context.Context) (map[string]any, error) {
	return a.store.readAttrs(ctx, a.path)
}

// SetAttrs replaces the array attributes.
func (a *Array) SetAttrs(ctx context.Context, attrs map[string]any) error {
	return a.store.writeJSON(ctx, objectKey(a.path, attrsKey), attrs)
}

func (a *Array) itemSize() (int, error) {
	_, itemSize, err := ParseDType(a.meta.DType)
	if err != nil {
		return 0, fmt.Errorf("invalid dtype: %w", err)
	}
	return itemSize, nil
}

func (a *Array) chunkKey(coords []int) string {
	return objectKey(a.path, ChunkKey(coords, a.meta.separator()))
}

// ReadFull reads the entire array into a flat C-order byte slice.
func (a *Array) ReadFull(ctx context.Context) ([]byte, error) {
	start := make([]int, len(a.meta.Shape))
	if a.meta.NumElements() == 0 {
		return []byte{}, nil
	}
	return a.ReadRegion(ctx, start, a.meta.Shape)
}

// ReadChunk reads a single decompressed chunk given its grid coordinates.
// Missing chunks are returned filled with the fill value.
func (a *Array) ReadChunk(ctx context.Context, coords []int) ([]byte, error) {
	key := a.chunkKey(coords)

	chunkData, err := a.store.bucket.ReadAll(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			a.store.Logger.Debug("Chunk missing, using fill value", zap.String("key", key))
			return a.fillChunk()
		}
		return nil, fmt.Errorf("failed to read chunk %s: %w", key, err)
	}

	chunkData, err = decompress(a.meta.Compressor, chunkData)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress chunk %s: %w", key, err)
	}
	return chunkData, nil
}

// fillChunk returns a whole chunk of fill values.
func (a *Array) fillChunk() ([]byte, error) {
	itemSize, err := a.itemSize()
	if err != nil {
		return nil, err
	}
	expectedElements := 1
	for _, dim := range a.meta.Chunks {
		expectedElements *= dim
	}
	buf := make([]byte, expectedElements*itemSize)

	fill, ok := fillValue(a.meta.FillValue)
	if !ok || fill == 0 {
		return buf, nil
	}
	item, err := EncodeValues([]float64{fill}, a.meta.DType)
	if err != nil {
		return nil, err
	}
	for off := 0; off < len(buf); off += itemSize {
		copy(buf[off:off+itemSize], item)
	}
	return buf, nil
}

func fillValue(v any) (float64, bool) {
	switch fv := v.(type) {
	case float64:
		return fv, true
	case bool:
		if fv {
			return 1, true
		}
		return 0, true
	case string:
		switch fv {
		case "NaN":
			return math.NaN(), true
		case "Infinity":
			return math.Inf(1), true
		case "-Infinity":
			return math.Inf(-1), true
		}
	}
	return 0, false
}

// ReadRegion reads an N-dimensional region of the array.
func (a *Array) ReadRegion(ctx context.Context, start, shape []int) ([]byte, error) {
	meta := a.meta
	if len(start) != len(meta.Shape) || len(shape) != len(meta.Shape) {
		return nil, fmt.Errorf("start and shape must match array dimensionality")
	}

	for i := range meta.Shape {
		if start[i] < 0 || shape[i] <= 0 || start[i]+shape[i] > meta.Shape[i] {
			return nil, fmt.Errorf("region out of bounds at dimension %d", i)
		}
	}

	itemSize, err := a.itemSize()
	if err != nil {
		return nil, err
	}

	if len(meta.Shape) == 0 {
		chunk, err := a.ReadChunk(ctx, []int{})
		if err != nil {
			return nil, err
		}
		return chunk[:itemSize], nil
	}

	totalElements := 1
	for _, dim := range shape {
		totalElements *= dim
	}
	out := make([]byte, totalElements*itemSize)

	minChunk := make([]int, len(start))
	maxChunk := make([]int, len(start))
	for i := range start {
		minChunk[i] = start[i] / meta.Chunks[i]
		maxChunk[i] = (start[i]+shape[i]-1)/meta.Chunks[i] + 1
	}

	dstStrides := strides(shape)
	chunkStrides := strides(meta.Chunks)
	chunkElements := 1
	for _, c := range meta.Chunks {
		chunkElements *= c
	}
	chunkBytes := chunkElements * itemSize

	err = iterateSubGrid(minChunk, maxChunk, func(chunkCoords []int) error {
		chunkData, err := a.ReadChunk(ctx, chunkCoords)
		if err != nil {
			return err
		}
		if len(chunkData) < chunkBytes {
			return fmt.Errorf("chunk %v holds %d bytes, expected %d", chunkCoords, len(chunkData), chunkBytes)
		}

		copyShape := make([]int, len(meta.Shape))
		srcOffset := make([]int, len(meta.Shape))
		dstOffset := make([]int, len(meta.Shape))

		for i := range meta.Shape {
			chunkStartGlobal := chunkCoords[i] * meta.Chunks[i]
			chunkEndGlobal := min(chunkStartGlobal+meta.Chunks[i], meta.Shape[i])

			intersectStart := max(chunkStartGlobal, start[i])
			intersectEnd := min(chunkEndGlobal, start[i]+shape[i])
			if intersectStart >= intersectEnd {
				return nil
			}

			copyShape[i] = intersectEnd - intersectStart
			srcOffset[i] = intersectStart - chunkStartGlobal
			dstOffset[i] = intersectStart - start[i]
		}

		copyND(out, dstStrides, dstOffset, chunkData, chunkStrides, srcOffset, copyShape, itemSize)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Write stores raw C-order data as compressed chunks. Edge chunks are
// padded with zeros to the full chunk shape.
func (a *Array) Write(ctx context.Context, raw []byte) error {
	meta := a.meta
	itemSize, err := a.itemSize()
	if err != nil {
		return err
	}
	if want := meta.NumElements() * itemSize; len(raw) != want {
		return fmt.Errorf("array %s needs %d bytes, got %d", a.path, want, len(raw))
	}

	if len(meta.Shape) == 0 {
		return a.writeChunk(ctx, []int{}, raw)
	}

	grid := GridShape(meta.Shape, meta.Chunks)
	globalStrides := strides(meta.Shape)
	chunkStrides := strides(meta.Chunks)
	chunkElements := 1
	for _, c := range meta.Chunks {
		chunkElements *= c
	}

	return iterateSubGrid(make([]int, len(grid)), grid, func(chunkCoords []int) error {
		buf := make([]byte, chunkElements*itemSize)
		copyShape := make([]int, len(meta.Shape))
		srcOffset := make([]int, len(meta.Shape))
		for i := range meta.Shape {
			srcOffset[i] = chunkCoords[i] * meta.Chunks[i]
			copyShape[i] = min(meta.Chunks[i], meta.Shape[i]-srcOffset[i])
		}
		copyND(buf, chunkStrides, make([]int, len(meta.Shape)), raw, globalStrides, srcOffset, copyShape, itemSize)
		return a.writeChunk(ctx, chunkCoords, buf)
	})
}

func (a *Array) writeChunk(ctx context.Context, coords []int, data []byte) error {
	key := a.chunkKey(coords)
	payload, err := compress(a.meta.Compressor, data)
	if err != nil {
		return fmt.Errorf("failed to compress chunk %s: %w", key, err)
	}
	if err := a.store.bucket.WriteAll(ctx, key, payload, nil); err != nil {
		return fmt.Errorf("failed to write chunk %s: %w", key, err)
	}
	return nil
}
