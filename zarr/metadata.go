package zarr

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
)

// CompressorConfig represents the Zarr compressor metadata.
type CompressorConfig struct {
	ID      string `json:"id"`
	Cname   string `json:"cname,omitempty"`
	Clevel  int    `json:"clevel,omitempty"`
	Shuffle int    `json:"shuffle,omitempty"`
	Level   int    `json:"level,omitempty"`
}

// Metadata represents the Zarr V2 .zarray metadata.
type Metadata struct {
	ZarrFormat         int               `json:"zarr_format"`
	Shape              []int             `json:"shape"`
	Chunks             []int             `json:"chunks"`
	DType              string            `json:"dtype"`
	Compressor         *CompressorConfig `json:"compressor"`
	FillValue          interface{}       `json:"fill_value"`
	Order              string            `json:"order"`
	Filters            []json.RawMessage `json:"filters"`
	DimensionSeparator string            `json:"dimension_separator,omitempty"`
}

// LoadMetadata reads and parses .zarray content.
func LoadMetadata(reader io.Reader) (*Metadata, error) {
	var meta Metadata
	if err := json.NewDecoder(reader).Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Validate checks that the metadata describes an array this package can
// read and write.
func (m *Metadata) Validate() error {
	if m.ZarrFormat != 2 {
		return fmt.Errorf("unsupported zarr_format: %d, expected 2", m.ZarrFormat)
	}
	if len(m.Shape) != len(m.Chunks) {
		return fmt.Errorf("chunks %v do not match shape %v", m.Chunks, m.Shape)
	}
	for i, c := range m.Chunks {
		if c <= 0 || m.Shape[i] < 0 {
			return fmt.Errorf("invalid shape %v / chunks %v", m.Shape, m.Chunks)
		}
	}
	if m.Order != "" && m.Order != "C" {
		return fmt.Errorf("%w: order %q", ErrUnsupported, m.Order)
	}
	if len(m.Filters) > 0 {
		return fmt.Errorf("%w: filters", ErrUnsupported)
	}
	name, _, err := ParseDType(m.DType)
	if err != nil {
		return err
	}
	if strings.HasPrefix(name, "complex") {
		return fmt.Errorf("%w: dtype %s", ErrUnsupported, m.DType)
	}
	if m.Compressor != nil && !Supported(m.Compressor.ID) {
		return fmt.Errorf("%w: compressor %q", ErrUnsupported, m.Compressor.ID)
	}
	return nil
}

// NumElements returns the product of the shape.
func (m *Metadata) NumElements() int {
	n := 1
	for _, d := range m.Shape {
		n *= d
	}
	return n
}

func (m *Metadata) separator() string {
	if m.DimensionSeparator == "" {
		return "."
	}
	return m.DimensionSeparator
}

// ParseDType takes a numpy-style string like "<f4", "|b1", "<i8",
// and returns a simplified string name (e.g., "float32", "bool", "int64"),
// the byte size (e.g., 4, 1, 8), and an error if unsupported.
// Big-endian (>) types are rejected.
func ParseDType(s string) (string, int, error) {
	if len(s) < 3 {
		return "", 0, fmt.Errorf("invalid dtype: %s", s)
	}

	endian := s[0]
	switch endian {
	case '>':
		return "", 0, fmt.Errorf("big-endian types are unsupported: %s", s)
	case '<', '|':
	default:
		return "", 0, fmt.Errorf("invalid byte order in dtype: %s", s)
	}

	kind := s[1]
	sizeStr := s[2:]

	size, err := strconv.Atoi(sizeStr)
	if err != nil || size <= 0 {
		return "", 0, fmt.Errorf("invalid size in dtype: %s", s)
	}

	switch kind {
	case 'b':
		return "bool", size, nil
	case 'i':
		return fmt.Sprintf("int%d", size*8), size, nil
	case 'u':
		return fmt.Sprintf("uint%d", size*8), size, nil
	case 'f':
		return fmt.Sprintf("float%d", size*8), size, nil
	case 'c':
		return fmt.Sprintf("complex%d", size*8), size, nil
	default:
		return "", 0, fmt.Errorf("unsupported dtype kind: %c in %s", kind, s)
	}
}

// DTypeOf returns the little-endian numpy dtype string for T.
func DTypeOf[T Number]() string {
	var zero T
	switch reflect.TypeOf(zero).Kind() {
	case reflect.Int8:
		return "|i1"
	case reflect.Uint8:
		return "|u1"
	case reflect.Int16:
		return "<i2"
	case reflect.Uint16:
		return "<u2"
	case reflect.Int32:
		return "<i4"
	case reflect.Uint32:
		return "<u4"
	case reflect.Int, reflect.Int64:
		return "<i8"
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return "<u8"
	case reflect.Float32:
		return "<f4"
	default:
		return "<f8"
	}
}
