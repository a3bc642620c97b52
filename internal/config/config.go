// Package config holds the settings of the usidmovie tool.
package config

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/TuSKan/usid-gomlx/internal/logger"
	"github.com/TuSKan/usid-gomlx/zarr"
)

const (
	// DefaultSource is the default file, a bucket URL or a local directory.
	DefaultSource = "movie.zarr"

	// DefaultDataset is the main dataset rendered when none is named.
	DefaultDataset = "USID_Alternate"

	// DefaultStackDim is the axis frames are taken along.
	DefaultStackDim = "Time"

	// DefaultOutput is the default PNG written by render.
	DefaultOutput = "movie_frames.png"

	// DefaultColumns is the number of frames per montage row.
	DefaultColumns = 3

	// DefaultTileSize is the edge length, in pixels, of each rendered frame.
	DefaultTileSize = 128

	// DefaultFrames is the number of time steps generated.
	DefaultFrames = 9

	// DefaultFrameSize is the edge length of each generated frame.
	DefaultFrameSize = 64

	// DefaultCompressor compresses generated arrays.
	DefaultCompressor = "zstd"
)

// Config represents the configuration of the usidmovie tool.
type Config struct {
	Source   string         `toml:"source"`
	Log      logger.Config  `toml:"log"`
	Render   RenderConfig   `toml:"render"`
	Generate GenerateConfig `toml:"generate"`
}

// RenderConfig controls the frame montage.
type RenderConfig struct {
	Dataset string `toml:"dataset"`
	Output  string `toml:"output"`
	// Ancillary, when set, is a PNG chart of the position index rows.
	Ancillary string `toml:"ancillary"`
	Title     string `toml:"title"`
	Subtitle  string `toml:"subtitle"`
	StackDim  string `toml:"stack-dim"`
	Columns   int    `toml:"columns"`
	TileSize  int    `toml:"tile-size"`
}

// GenerateConfig controls the synthetic sample file.
type GenerateConfig struct {
	Frames     int    `toml:"frames"`
	FrameSize  int    `toml:"frame-size"`
	ChunkRows  int    `toml:"chunk-rows"`
	Compressor string `toml:"compressor"`
	Seed       uint64 `toml:"seed"`
}

// NewConfig returns a new instance of Config with defaults.
func NewConfig() Config {
	return Config{
		Source: DefaultSource,
		Log:    logger.NewConfig(),
		Render: RenderConfig{
			Dataset:  DefaultDataset,
			Output:   DefaultOutput,
			Title:    "Movie Frames",
			Subtitle: "Time step:",
			StackDim: DefaultStackDim,
			Columns:  DefaultColumns,
			TileSize: DefaultTileSize,
		},
		Generate: GenerateConfig{
			Frames:     DefaultFrames,
			FrameSize:  DefaultFrameSize,
			Compressor: DefaultCompressor,
			Seed:       1,
		},
	}
}

// Load reads the TOML file at path over the defaults.
func Load(path string) (Config, error) {
	c := NewConfig()
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return Config{}, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return c, c.Validate()
}

// Validate returns an error if the config is invalid.
func (c Config) Validate() error {
	if c.Source == "" {
		return errors.New("source must be set")
	}
	if c.Render.Columns <= 0 {
		return fmt.Errorf("render columns must be positive, got %d", c.Render.Columns)
	}
	if c.Render.TileSize <= 0 {
		return fmt.Errorf("render tile-size must be positive, got %d", c.Render.TileSize)
	}
	if c.Generate.Frames <= 0 || c.Generate.FrameSize <= 0 {
		return fmt.Errorf("generate frames and frame-size must be positive")
	}
	if c.Generate.ChunkRows < 0 {
		return fmt.Errorf("generate chunk-rows must not be negative, got %d", c.Generate.ChunkRows)
	}
	if c.Generate.Compressor != "" && !zarr.Supported(c.Generate.Compressor) {
		return fmt.Errorf("unsupported compressor %q, have %v", c.Generate.Compressor, zarr.Compressors())
	}
	return nil
}
