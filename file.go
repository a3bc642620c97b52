// Package usid discovers and reads USID main datasets, flattened
// N-dimensional measurements plus their position and spectroscopic
// ancillaries, stored in a Zarr hierarchy.
package usid

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"go.uber.org/zap"
	"gocloud.dev/blob"

	"github.com/TuSKan/usid-gomlx/zarr"
)

// Opener opens the bucket behind a file URL.
type Opener func(ctx context.Context, url string) (*blob.Bucket, error)

type options struct {
	opener Opener
	logger *zap.Logger
}

// Option configures Open and NewFile.
type Option func(*options)

// WithOpener replaces blob.OpenBucket as the way file URLs are resolved.
func WithOpener(o Opener) Option {
	return func(opts *options) { opts.opener = o }
}

// WithLogger sets the logger used by the file and its store.
func WithLogger(log *zap.Logger) Option {
	return func(opts *options) { opts.logger = log }
}

func newOptions(opts []Option) *options {
	o := &options{
		opener: blob.OpenBucket,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// File is an open USID file.
type File struct {
	store  *zarr.Store
	Logger *zap.Logger
}

// Open opens the hierarchy at url read-only.
func Open(ctx context.Context, url string, opts ...Option) (*File, error) {
	o := newOptions(opts)
	bucket, err := o.opener(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", url, err)
	}
	store := zarr.NewStore(bucket)
	store.WithLogger(o.logger)
	f := &File{store: store}
	f.WithLogger(o.logger)
	f.Logger.Debug("Opened file", zap.String("url", url))
	return f, nil
}

// NewFile wraps an already opened store.
func NewFile(store *zarr.Store, opts ...Option) *File {
	o := newOptions(opts)
	f := &File{store: store}
	f.WithLogger(o.logger)
	return f
}

// WithLogger sets the logger on the File.
func (f *File) WithLogger(log *zap.Logger) {
	f.Logger = log.With(zap.String("service", "usid"))
}

// Store returns the underlying store.
func (f *File) Store() *zarr.Store {
	return f.store
}

// Close closes the underlying store.
func (f *File) Close() error {
	return f.store.Close()
}

// Attributes returns the file level attributes.
func (f *File) Attributes(ctx context.Context) (map[string]any, error) {
	return f.store.Root().Attrs(ctx)
}

// Tree writes the hierarchy to w: one line per node, indented by depth, with
// group names underlined.
//
//	/
//	├ Measurement_000
//	  ---------------
//	  ├ Channel_000
//	    -----------
//	    ├ Raw_Data
func (f *File) Tree(ctx context.Context, w io.Writer) error {
	return zarr.Walk(ctx, f.store.Root(), func(p string, node any, err error) error {
		if err != nil && !errors.Is(err, zarr.ErrUnsupported) {
			return err
		}
		if p == "/" {
			_, err := fmt.Fprintln(w, "/")
			return err
		}
		rel := strings.TrimPrefix(p, "/")
		spacing := strings.Repeat("  ", strings.Count(rel, "/"))
		name := path.Base(p)
		if _, err := fmt.Fprintf(w, "%s├ %s\n", spacing, name); err != nil {
			return err
		}
		if _, ok := node.(*zarr.Group); ok {
			_, err := fmt.Fprintf(w, "%s  %s\n", spacing, strings.Repeat("-", len(name)))
			return err
		}
		return nil
	})
}

// FindDataset returns the paths of every array named name, in walk order.
func (f *File) FindDataset(ctx context.Context, name string) ([]string, error) {
	var found []string
	err := zarr.Walk(ctx, f.store.Root(), func(p string, node any, err error) error {
		unsupported := errors.Is(err, zarr.ErrUnsupported)
		if err != nil && !unsupported {
			return err
		}
		if _, ok := node.(*zarr.Array); (ok || unsupported) && path.Base(p) == name {
			found = append(found, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	f.Logger.Debug("Found datasets", zap.String("name", name), zap.Strings("paths", found))
	return found, nil
}

// AllMain returns every main dataset in the file, in walk order. Arrays that
// are not main datasets, or that use unsupported features, are skipped.
func (f *File) AllMain(ctx context.Context) ([]*MainDataset, error) {
	var mains []*MainDataset
	err := zarr.Walk(ctx, f.store.Root(), func(p string, node any, err error) error {
		if errors.Is(err, zarr.ErrUnsupported) {
			f.Logger.Debug("Skipping array", zap.String("path", p), zap.Error(err))
			return nil
		}
		if err != nil {
			return err
		}
		arr, ok := node.(*zarr.Array)
		if !ok {
			return nil
		}
		m, err := newMainDataset(ctx, arr)
		if errors.Is(err, ErrNotMain) || errors.Is(err, zarr.ErrUnsupported) {
			f.Logger.Debug("Skipping array", zap.String("path", p), zap.Error(err))
			return nil
		}
		if err != nil {
			return err
		}
		mains = append(mains, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mains, nil
}

// OpenMain opens the main dataset at the absolute path p.
func (f *File) OpenMain(ctx context.Context, p string) (*MainDataset, error) {
	arr, err := f.store.OpenArray(ctx, p)
	if err != nil {
		return nil, err
	}
	return newMainDataset(ctx, arr)
}
