package zarr

import (
	"bytes"
	"fmt"
	"io"
	"slices"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// Codec compresses and decompresses chunk payloads.
type Codec interface {
	Compress(data []byte, cfg *CompressorConfig) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

var codecs = map[string]Codec{
	"zstd": zstdCodec{},
	"zlib": zlibCodec{},
	"gzip": gzipCodec{},
}

// Supported reports whether chunks compressed with id can be read and written.
func Supported(id string) bool {
	_, ok := codecs[id]
	return ok
}

// Compressors lists the supported compressor ids.
func Compressors() []string {
	ids := make([]string, 0, len(codecs))
	for id := range codecs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func compress(cfg *CompressorConfig, data []byte) ([]byte, error) {
	if cfg == nil {
		return data, nil
	}
	c, ok := codecs[cfg.ID]
	if !ok {
		return nil, fmt.Errorf("%w: compressor %q", ErrUnsupported, cfg.ID)
	}
	return c.Compress(data, cfg)
}

func decompress(cfg *CompressorConfig, data []byte) ([]byte, error) {
	if cfg == nil {
		return data, nil
	}
	c, ok := codecs[cfg.ID]
	if !ok {
		return nil, fmt.Errorf("%w: compressor %q", ErrUnsupported, cfg.ID)
	}
	return c.Decompress(data)
}

type zstdCodec struct{}

func (zstdCodec) Compress(data []byte, cfg *CompressorConfig) ([]byte, error) {
	level := zstd.SpeedDefault
	if cfg.Level > 0 {
		level = zstd.EncoderLevelFromZstd(cfg.Level)
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %w", err)
	}
	defer encoder.Close()
	return encoder.EncodeAll(data, nil), nil
}

func (zstdCodec) Decompress(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer decoder.Close()
	return decoder.DecodeAll(data, nil)
}

type zlibCodec struct{}

func (zlibCodec) Compress(data []byte, cfg *CompressorConfig) ([]byte, error) {
	level := zlib.DefaultCompression
	if cfg.Level > 0 {
		level = cfg.Level
	}
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("failed to init zlib writer: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("failed to zlib compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to zlib compress: %w", err)
	}
	return buf.Bytes(), nil
}

func (zlibCodec) Decompress(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to init zlib reader: %w", err)
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

type gzipCodec struct{}

func (gzipCodec) Compress(data []byte, cfg *CompressorConfig) ([]byte, error) {
	level := gzip.DefaultCompression
	if cfg.Level > 0 {
		level = cfg.Level
	}
	var buf bytes.Buffer
	gw, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("failed to init gzip writer: %w", err)
	}
	if _, err := gw.Write(data); err != nil {
		return nil, fmt.Errorf("failed to gzip compress: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("failed to gzip compress: %w", err)
	}
	return buf.Bytes(), nil
}

func (gzipCodec) Decompress(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to init gzip reader: %w", err)
	}
	defer gr.Close()
	return io.ReadAll(gr)
}
