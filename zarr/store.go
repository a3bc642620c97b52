package zarr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

const (
	arrayKey = ".zarray"
	groupKey = ".zgroup"
	attrsKey = ".zattrs"
)

// Store is a Zarr hierarchy rooted at a blob bucket.
type Store struct {
	bucket *blob.Bucket
	Logger *zap.Logger
}

// OpenStore opens the bucket at url ("file:///data/movie.zarr", "mem://",
// "gs://bucket/prefix", ...). The URL scheme must be registered by importing
// the matching gocloud driver.
func OpenStore(ctx context.Context, url string) (*Store, error) {
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket: %w", err)
	}
	return NewStore(bucket), nil
}

// NewStore wraps an already opened bucket.
func NewStore(bucket *blob.Bucket) *Store {
	return &Store{bucket: bucket, Logger: zap.NewNop()}
}

// WithLogger sets the logger on the Store.
func (s *Store) WithLogger(log *zap.Logger) {
	s.Logger = log.With(zap.String("service", "zarr"))
}

// Close closes the underlying bucket.
func (s *Store) Close() error {
	return s.bucket.Close()
}

// Root returns the root group.
func (s *Store) Root() *Group {
	return &Group{store: s, path: "/"}
}

// Init marks the bucket root as a Zarr group.
func (s *Store) Init(ctx context.Context) error {
	return s.writeJSON(ctx, groupKey, map[string]int{"zarr_format": 2})
}

// OpenGroup opens the group at an absolute path.
func (s *Store) OpenGroup(ctx context.Context, p string) (*Group, error) {
	p, err := cleanPath(p)
	if err != nil {
		return nil, err
	}
	if p == "/" {
		return s.Root(), nil
	}
	ok, err := s.bucket.Exists(ctx, objectKey(p, groupKey))
	if err != nil {
		return nil, fmt.Errorf("failed to stat group %s: %w", p, err)
	}
	if !ok {
		if isArray, _ := s.bucket.Exists(ctx, objectKey(p, arrayKey)); isArray {
			return nil, fmt.Errorf("%w: %s", ErrNotGroup, p)
		}
		return nil, fmt.Errorf("%w: group %s", ErrNotFound, p)
	}
	return &Group{store: s, path: p}, nil
}

// OpenArray opens the array at an absolute path.
func (s *Store) OpenArray(ctx context.Context, p string) (*Array, error) {
	p, err := cleanPath(p)
	if err != nil {
		return nil, err
	}
	raw, err := s.bucket.ReadAll(ctx, objectKey(p, arrayKey))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			if isGroup, _ := s.bucket.Exists(ctx, objectKey(p, groupKey)); isGroup {
				return nil, fmt.Errorf("%w: %s", ErrNotArray, p)
			}
			return nil, fmt.Errorf("%w: array %s", ErrNotFound, p)
		}
		return nil, fmt.Errorf("failed to open %s: %w", objectKey(p, arrayKey), err)
	}
	meta, err := LoadMetadata(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata for %s: %w", p, err)
	}
	s.Logger.Debug("Opened array", zap.String("path", p), zap.Ints("shape", meta.Shape), zap.String("dtype", meta.DType))
	return &Array{store: s, path: p, meta: meta}, nil
}

func (s *Store) readAttrs(ctx context.Context, p string) (map[string]any, error) {
	attrs := map[string]any{}
	raw, err := s.bucket.ReadAll(ctx, objectKey(p, attrsKey))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return attrs, nil
		}
		return nil, fmt.Errorf("failed to read attributes of %s: %w", p, err)
	}
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return nil, fmt.Errorf("failed to decode attributes of %s: %w", p, err)
	}
	return attrs, nil
}

func (s *Store) writeJSON(ctx context.Context, key string, v any) error {
	raw, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.bucket.WriteAll(ctx, key, raw, nil); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// cleanPath normalises p to an absolute slash path without a trailing slash.
func cleanPath(p string) (string, error) {
	if strings.Contains(p, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	p = path.Clean("/" + p)
	for _, part := range strings.Split(strings.TrimPrefix(p, "/"), "/") {
		if strings.HasPrefix(part, ".z") {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
		}
	}
	return p, nil
}

// prefix returns the bucket key prefix of the node at p.
func prefix(p string) string {
	if p == "/" {
		return ""
	}
	return strings.TrimPrefix(p, "/") + "/"
}

func objectKey(p, name string) string {
	return prefix(p) + name
}
