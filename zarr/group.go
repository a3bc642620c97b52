package zarr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"go.uber.org/zap"
	"gocloud.dev/blob"
)

// Kind tells groups and arrays apart.
type Kind int

const (
	KindGroup Kind = iota
	KindArray
)

func (k Kind) String() string {
	if k == KindArray {
		return "array"
	}
	return "group"
}

// Member is a direct child of a group.
type Member struct {
	Name string
	Kind Kind
}

// Group is a Zarr group: a key prefix holding a .zgroup marker, optional
// .zattrs and child nodes.
type Group struct {
	store *Store
	path  string
}

// Path returns the absolute path of the group ("/" for the root).
func (g *Group) Path() string {
	return g.path
}

// Name returns the last path element.
func (g *Group) Name() string {
	return path.Base(g.path)
}

// Store returns the store the group belongs to.
func (g *Group) Store() *Store {
	return g.store
}

// Attrs returns the group attributes. A group without .zattrs has none.
func (g *Group) Attrs(ctx context.Context) (map[string]any, error) {
	return g.store.readAttrs(ctx, g.path)
}

// SetAttrs replaces the group attributes.
func (g *Group) SetAttrs(ctx context.Context, attrs map[string]any) error {
	return g.store.writeJSON(ctx, objectKey(g.path, attrsKey), attrs)
}

// Members lists the child groups and arrays sorted by name. Key prefixes
// that are neither are skipped.
func (g *Group) Members(ctx context.Context) ([]Member, error) {
	pre := prefix(g.path)
	iter := g.store.bucket.List(&blob.ListOptions{Prefix: pre, Delimiter: "/"})

	var members []Member
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", g.path, err)
		}
		if !obj.IsDir {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(obj.Key, pre), "/")
		child := path.Join(g.path, name)

		isArray, err := g.store.bucket.Exists(ctx, objectKey(child, arrayKey))
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", child, err)
		}
		if isArray {
			members = append(members, Member{Name: name, Kind: KindArray})
			continue
		}
		isGroup, err := g.store.bucket.Exists(ctx, objectKey(child, groupKey))
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", child, err)
		}
		if isGroup {
			members = append(members, Member{Name: name, Kind: KindGroup})
		}
	}
	slices.SortFunc(members, func(a, b Member) int { return strings.Compare(a.Name, b.Name) })
	return members, nil
}

// OpenGroup opens a descendant group by relative path.
func (g *Group) OpenGroup(ctx context.Context, rel string) (*Group, error) {
	return g.store.OpenGroup(ctx, path.Join(g.path, rel))
}

// OpenArray opens a descendant array by relative path.
func (g *Group) OpenArray(ctx context.Context, rel string) (*Array, error) {
	return g.store.OpenArray(ctx, path.Join(g.path, rel))
}

// CreateGroup creates (or re-marks) a child group.
func (g *Group) CreateGroup(ctx context.Context, name string) (*Group, error) {
	p, err := cleanPath(path.Join(g.path, name))
	if err != nil {
		return nil, err
	}
	if err := g.store.writeJSON(ctx, objectKey(p, groupKey), map[string]int{"zarr_format": 2}); err != nil {
		return nil, err
	}
	g.store.Logger.Debug("Created group", zap.String("path", p))
	return &Group{store: g.store, path: p}, nil
}

// CreateArray writes the .zarray metadata of a child array. Chunks are
// written separately with (*Array).Write.
func (g *Group) CreateArray(ctx context.Context, name string, meta Metadata) (*Array, error) {
	p, err := cleanPath(path.Join(g.path, name))
	if err != nil {
		return nil, err
	}
	if meta.ZarrFormat == 0 {
		meta.ZarrFormat = 2
	}
	if meta.Order == "" {
		meta.Order = "C"
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	if err := g.store.writeJSON(ctx, objectKey(p, arrayKey), &meta); err != nil {
		return nil, err
	}
	g.store.Logger.Debug("Created array", zap.String("path", p), zap.Ints("shape", meta.Shape))
	return &Array{store: g.store, path: p, meta: &meta}, nil
}
