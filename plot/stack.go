package plot

import (
	"fmt"
	"image"
	"math"
	"slices"

	"github.com/TuSKan/usid-gomlx/flatten"
)

// StackOptions control MapStack.
type StackOptions struct {
	// StackDim names the axis frames are taken along. The last axis when
	// empty.
	StackDim string
	Title    string
	// Subtitle prefixes the caption of every frame, which ends with the
	// frame index.
	Subtitle string
	// Columns of the montage; about the square root of the frame count
	// when 0.
	Columns  int
	TileSize int
	// SharedScale maps every frame with the minimum and maximum of the
	// whole stack instead of its own.
	SharedScale bool
}

// MapStack renders each 2-D frame of a 3-D array as a tile of a montage.
// The two axes left after removing the stack axis run down and across each
// tile in their array order.
func MapStack[T flatten.Number](a *flatten.NDArray[T], opts StackOptions) (*image.RGBA, error) {
	if a.NumDims() != 3 {
		return nil, fmt.Errorf("%w: map stack needs 3 dimensions, got %d", ErrRank, a.NumDims())
	}
	axis := a.NumDims() - 1
	if opts.StackDim != "" {
		if axis = a.Axis(opts.StackDim); axis < 0 {
			return nil, fmt.Errorf("%w: no dimension %q in %v", flatten.ErrInvalidDimension, opts.StackDim, a.Labels())
		}
	}
	others := slices.DeleteFunc([]int{0, 1, 2}, func(i int) bool { return i == axis })

	n := a.Shape[axis]
	tile := opts.TileSize
	if tile <= 0 {
		tile = DefaultTileSize
	}
	cols := opts.Columns
	if cols <= 0 {
		cols = int(math.Ceil(math.Sqrt(float64(n))))
	}
	cols = min(cols, n)
	rows := (n + cols - 1) / cols

	top := 0
	if opts.Title != "" {
		top = titleHeight
	}
	caption := 0
	if opts.Subtitle != "" {
		caption = textHeight
	}
	cell := caption + tile + pad
	img := canvas(pad+cols*(tile+pad), top+pad+rows*cell)

	st := a.Strides()
	frames := make([]frame[T], n)
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range frames {
		frames[i] = frame[T]{
			data:      a.Data,
			offset:    i * st[axis],
			h:         a.Shape[others[0]],
			w:         a.Shape[others[1]],
			rowStride: st[others[0]],
			colStride: st[others[1]],
		}
		flo, fhi := frames[i].bounds()
		lo, hi = math.Min(lo, flo), math.Max(hi, fhi)
	}

	for i, f := range frames {
		x0 := pad + (i%cols)*(tile+pad)
		y0 := top + pad + (i/cols)*cell + caption
		flo, fhi := lo, hi
		if !opts.SharedScale {
			flo, fhi = f.bounds()
		}
		f.draw(img, image.Rect(x0, y0, x0+tile, y0+tile), flo, fhi)
		if opts.Subtitle != "" {
			drawCentered(img, fmt.Sprintf("%s %d", opts.Subtitle, i), x0+tile/2, y0-4)
		}
	}
	if opts.Title != "" {
		drawCentered(img, opts.Title, img.Bounds().Dx()/2, 17)
	}
	return img, nil
}
