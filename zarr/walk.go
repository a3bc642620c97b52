package zarr

import (
	"context"
	"errors"
	"path"
)

// WalkFunc is called for each node during traversal.
// path is the absolute path of the node.
// node is either *Group or *Array.
// err is any error encountered opening the node. An array whose metadata
// uses features this package cannot read is reported with ErrUnsupported.
// Return nil to continue walking, or an error to stop.
type WalkFunc func(path string, node any, err error) error

// ErrStopWalk may be returned by a WalkFunc to end the walk early without
// Walk reporting an error.
var ErrStopWalk = errors.New("walk stopped")

// Walk traverses all groups and arrays below g depth-first in name order,
// calling fn for g itself first.
func Walk(ctx context.Context, g *Group, fn WalkFunc) error {
	err := walkGroup(ctx, g, fn)
	if errors.Is(err, ErrStopWalk) {
		return nil
	}
	return err
}

func walkGroup(ctx context.Context, g *Group, fn WalkFunc) error {
	if err := fn(g.Path(), g, nil); err != nil {
		return err
	}

	members, err := g.Members(ctx)
	if err != nil {
		return fn(g.Path(), nil, err)
	}

	for _, m := range members {
		childPath := path.Join(g.Path(), m.Name)
		switch m.Kind {
		case KindGroup:
			child, err := g.store.OpenGroup(ctx, childPath)
			if err != nil {
				if err := fn(childPath, nil, err); err != nil {
					return err
				}
				continue
			}
			if err := walkGroup(ctx, child, fn); err != nil {
				return err
			}
		case KindArray:
			arr, err := g.store.OpenArray(ctx, childPath)
			if err != nil {
				if err := fn(childPath, nil, err); err != nil {
					return err
				}
				continue
			}
			if err := fn(childPath, arr, nil); err != nil {
				return err
			}
		}
	}
	return nil
}
