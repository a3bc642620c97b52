// Command usidmovie writes, inspects and renders USID movie files.
//
//	usidmovie generate -source movie.zarr
//	usidmovie inspect -source movie.zarr
//	usidmovie render -source movie.zarr -dataset USID_Strict -out frames.png
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"

	usid "github.com/TuSKan/usid-gomlx"
	"github.com/TuSKan/usid-gomlx/internal/config"
	"github.com/TuSKan/usid-gomlx/internal/logger"
	"github.com/TuSKan/usid-gomlx/internal/movie"
	"github.com/TuSKan/usid-gomlx/plot"
	"github.com/TuSKan/usid-gomlx/zarr"
)

const usage = `Usage: usidmovie <generate|inspect|render> [flags]

Run "usidmovie <command> -h" for the flags of a command.
`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errors.New("missing command")
	}
	cmd, args := args[0], args[1:]
	if !slices.Contains([]string{"generate", "inspect", "render"}, cmd) {
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "TOML config file")
	source := fs.String("source", "", "bucket URL or local directory of the file")
	dataset := fs.String("dataset", "", "name of the main dataset to render")
	out := fs.String("out", "", "PNG file written by render")
	ancillary := fs.String("ancillary", "", "PNG of the position index rows written by render")
	level := fs.String("log-level", "", "minimum log level")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.NewConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	setString(&cfg.Source, *source)
	setString(&cfg.Render.Dataset, *dataset)
	setString(&cfg.Render.Output, *out)
	setString(&cfg.Render.Ancillary, *ancillary)
	setString(&cfg.Log.Level, *level)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(stderr, cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	url, err := bucketURL(cfg.Source, cmd == "generate")
	if err != nil {
		return err
	}

	switch cmd {
	case "generate":
		return generate(ctx, url, cfg.Generate, log)
	case "inspect":
		return inspect(ctx, url, stdout, log)
	default:
		return render(ctx, url, cfg.Render, stdout, log)
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// bucketURL turns a local directory into a file:// URL. Anything with a
// scheme is passed through.
func bucketURL(source string, create bool) (string, error) {
	if strings.Contains(source, "://") {
		return source, nil
	}
	dir, err := filepath.Abs(source)
	if err != nil {
		return "", err
	}
	if create {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return "file://" + filepath.ToSlash(dir), nil
}

func generate(ctx context.Context, url string, c config.GenerateConfig, log *zap.Logger) error {
	store, err := zarr.OpenStore(ctx, url)
	if err != nil {
		return err
	}
	defer store.Close()
	store.WithLogger(log)

	return movie.Generate(ctx, store, movie.Options{
		Frames:     c.Frames,
		FrameSize:  c.FrameSize,
		ChunkRows:  c.ChunkRows,
		Compressor: c.Compressor,
		Seed:       c.Seed,
	})
}

func inspect(ctx context.Context, url string, w io.Writer, log *zap.Logger) error {
	f, err := usid.Open(ctx, url, usid.WithLogger(log))
	if err != nil {
		return err
	}
	defer f.Close()

	attrs, err := f.Attributes(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "=== %s ===\n\n", url)
	for _, k := range slices.Sorted(maps.Keys(attrs)) {
		fmt.Fprintf(w, "%s : %v\n", k, attrs[k])
	}
	fmt.Fprintln(w)
	if err := f.Tree(ctx, w); err != nil {
		return err
	}

	mains, err := f.AllMain(ctx)
	if err != nil {
		return err
	}
	for _, m := range mains {
		fmt.Fprintf(w, "\n%s", m)
		for _, name := range []string{usid.PositionIndices, usid.PositionValues, usid.SpectroscopicIndices, usid.SpectroscopicValues} {
			ref, _ := m.Reference(name)
			arr, err := f.Store().OpenArray(ctx, ref)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s:\n\t%s shape %v dtype %s\n", strings.ReplaceAll(name, "_", " "), ref, arr.Shape(), arr.Metadata().DType)
		}
		d := m.Description()
		fmt.Fprintf(w, "N-dimensional shape:\t%v\n", d.NDimShape())
		fmt.Fprintf(w, "Dimension names:\t%v\n", d.NDimLabels())
	}
	return nil
}

func render(ctx context.Context, url string, c config.RenderConfig, w io.Writer, log *zap.Logger) error {
	f, err := usid.Open(ctx, url, usid.WithLogger(log))
	if err != nil {
		return err
	}
	defer f.Close()

	paths, err := f.FindDataset(ctx, c.Dataset)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no dataset named %q in %s", c.Dataset, url)
	}
	m, err := f.OpenMain(ctx, paths[len(paths)-1])
	if err != nil {
		return err
	}

	nd, err := usid.NDimForm[float32](ctx, m, nil)
	if err != nil {
		return err
	}
	img, err := plot.MapStack(nd, plot.StackOptions{
		StackDim: c.StackDim,
		Title:    c.Title,
		Subtitle: c.Subtitle,
		Columns:  c.Columns,
		TileSize: c.TileSize,
	})
	if err != nil {
		return err
	}
	if err := writePNG(c.Output, img); err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote %s frames of %s to %s\n", c.StackDim, m.Path(), c.Output)

	if c.Ancillary == "" {
		return nil
	}
	pos := m.Position()
	series := make([][]float64, pos.NumDims())
	for r := range series {
		series[r] = make([]float64, pos.Count())
		for k, v := range pos.Indices.Row(r) {
			series[r][k] = float64(v)
		}
	}
	chart, err := plot.Lines(series, pos.Labels, plot.LineOptions{Title: "Position Indices", XLabel: "Row in main dataset"})
	if err != nil {
		return err
	}
	if err := writePNG(c.Ancillary, chart); err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote position indices of %s to %s\n", m.Path(), c.Ancillary)
	return nil
}

func writePNG(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := plot.WritePNG(out, img); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
