// Package movie synthesises a small STEM movie and stores it in both the
// alternate (frames as positions) and strict (frames as spectra) layouts.
package movie

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"go.uber.org/zap"

	usid "github.com/TuSKan/usid-gomlx"
	"github.com/TuSKan/usid-gomlx/flatten"
	"github.com/TuSKan/usid-gomlx/zarr"
)

const (
	AlternatePath = "/Measurement_000/Channel_000/USID_Alternate"
	StrictPath    = "/Measurement_001/Channel_000/USID_Strict"
)

// Options control the synthetic movie.
type Options struct {
	Frames    int
	FrameSize int
	// PixelSize in nm and FrameTime in s set the dimension values.
	PixelSize float64
	FrameTime float64
	// ChunkRows splits main arrays along the position axis; one chunk when 0.
	ChunkRows  int
	Compressor string
	Seed       uint64
}

func (o Options) withDefaults() Options {
	if o.Frames <= 0 {
		o.Frames = 9
	}
	if o.FrameSize <= 0 {
		o.FrameSize = 64
	}
	if o.PixelSize == 0 {
		o.PixelSize = 0.05
	}
	if o.FrameTime == 0 {
		o.FrameTime = 0.5
	}
	return o
}

// Synthesize returns a Y x X x Time movie of a drifting square lattice of
// Gaussian atom columns with additive noise.
func Synthesize(opts Options) (*flatten.NDArray[float32], error) {
	opts = opts.withDefaults()
	n, frames := opts.FrameSize, opts.Frames
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	spacing := math.Max(float64(n)/8, 2)
	sigma := spacing / 5
	data := make([]float32, n*n*frames)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			for t := 0; t < frames; t++ {
				// Nearest lattice site after drifting by (0.5, 0.3) px per frame.
				fx := float64(x) - 0.5*float64(t)
				fy := float64(y) - 0.3*float64(t)
				dx := fx - spacing*math.Round(fx/spacing)
				dy := fy - spacing*math.Round(fy/spacing)
				v := 1000*math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma)) + 100 + 20*rng.NormFloat64()
				data[(y*n+x)*frames+t] = float32(v)
			}
		}
	}

	return flatten.NewNDArray(data,
		flatten.LinearDimension("Y", "nm", n, 0, opts.PixelSize),
		flatten.LinearDimension("X", "nm", n, 0, opts.PixelSize),
		flatten.LinearDimension("Time", "s", frames, 0, opts.FrameTime),
	)
}

// Generate writes the sample file into store.
func Generate(ctx context.Context, store *zarr.Store, opts Options) error {
	opts = opts.withDefaults()
	log := store.Logger

	a, err := Synthesize(opts)
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return err
	}
	if err := store.Root().SetAttrs(ctx, map[string]any{
		"data_type":  "STEM_Movie",
		"translator": "usidmovie",
		"frames":     opts.Frames,
		"frame_size": opts.FrameSize,
		"seed":       opts.Seed,
	}); err != nil {
		return err
	}

	var compressor *zarr.CompressorConfig
	if opts.Compressor != "" {
		compressor = &zarr.CompressorConfig{ID: opts.Compressor}
	}

	layouts := []struct {
		measurement, name, convention string
		part                          flatten.Partition
	}{
		{"Measurement_000", "USID_Alternate", "alternate", flatten.Partition{Rows: []string{"Y", "X"}, Cols: []string{"Time"}}},
		{"Measurement_001", "USID_Strict", "strict", flatten.Partition{Rows: []string{"Time"}, Cols: []string{"Y", "X"}}},
	}
	for _, l := range layouts {
		flat, err := flatten.Encode(a, l.part)
		if err != nil {
			return fmt.Errorf("failed to flatten %s layout: %w", l.convention, err)
		}
		meas, err := store.Root().CreateGroup(ctx, l.measurement)
		if err != nil {
			return err
		}
		if err := meas.SetAttrs(ctx, map[string]any{
			"data_type":  "STEM_Movie",
			"convention": l.convention,
		}); err != nil {
			return err
		}
		channel, err := meas.CreateGroup(ctx, "Channel_000")
		if err != nil {
			return err
		}

		var chunks []int
		if opts.ChunkRows > 0 {
			s := flat.Shape()
			chunks = []int{min(opts.ChunkRows, s[0]), s[1]}
		}
		m, err := usid.WriteMain(ctx, channel, l.name, "Intensity", "a.u.", flat, usid.WriteOptions{
			Chunks:     chunks,
			Compressor: compressor,
		})
		if err != nil {
			return err
		}
		log.Info("Wrote main dataset", zap.String("path", m.Path()), zap.Ints("shape", m.Array().Shape()))
	}
	return nil
}
