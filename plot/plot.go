// Package plot renders decoded USID arrays as grayscale images and
// ancillary rows as line charts.
package plot

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/TuSKan/usid-gomlx/flatten"
)

// ErrRank is returned when an array has the wrong number of dimensions.
var ErrRank = errors.New("unexpected number of dimensions")

const (
	pad         = 8
	titleHeight = 24
	textHeight  = 16

	// DefaultTileSize is the edge length, in pixels, of a rendered map.
	DefaultTileSize = 128
)

var face = basicfont.Face7x13

// MapOptions control Map.
type MapOptions struct {
	Title string
	// Size is the edge length of the longer image side; DefaultTileSize when 0.
	Size int
}

// Map renders a 2-D array as a grayscale image, first axis down and second
// axis across, scaled from its minimum (black) to maximum (white).
func Map[T flatten.Number](a *flatten.NDArray[T], opts MapOptions) (*image.RGBA, error) {
	if a.NumDims() != 2 {
		return nil, fmt.Errorf("%w: map needs 2 dimensions, got %d", ErrRank, a.NumDims())
	}
	size := opts.Size
	if size <= 0 {
		size = DefaultTileSize
	}
	top := pad
	if opts.Title != "" {
		top = titleHeight
	}

	img := canvas(size+2*pad, top+size+pad)
	st := a.Strides()
	f := frame[T]{data: a.Data, h: a.Shape[0], w: a.Shape[1], rowStride: st[0], colStride: st[1]}
	lo, hi := f.bounds()
	f.draw(img, image.Rect(pad, top, pad+size, top+size), lo, hi)
	if opts.Title != "" {
		drawCentered(img, opts.Title, img.Bounds().Dx()/2, 17)
	}
	return img, nil
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

func canvas(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return img
}

// frame is a strided 2-D view into the data of an N-d array.
type frame[T flatten.Number] struct {
	data      []T
	offset    int
	h, w      int
	rowStride int
	colStride int
}

func (f frame[T]) at(y, x int) float64 {
	return float64(f.data[f.offset+y*f.rowStride+x*f.colStride])
}

func (f frame[T]) bounds() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for y := 0; y < f.h; y++ {
		for x := 0; x < f.w; x++ {
			v := f.at(y, x)
			if math.IsNaN(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi
}

// draw scales the frame into r, keeping its aspect ratio and centring it.
func (f frame[T]) draw(dst draw.Image, r image.Rectangle, lo, hi float64) {
	gray := image.NewGray(image.Rect(0, 0, f.w, f.h))
	for y := 0; y < f.h; y++ {
		for x := 0; x < f.w; x++ {
			gray.Pix[y*gray.Stride+x] = level(f.at(y, x), lo, hi)
		}
	}

	tw, th := r.Dx(), r.Dy()
	if f.w*th > f.h*tw {
		th = max(1, tw*f.h/f.w)
	} else {
		tw = max(1, th*f.w/f.h)
	}
	x0 := r.Min.X + (r.Dx()-tw)/2
	y0 := r.Min.Y + (r.Dy()-th)/2
	draw.NearestNeighbor.Scale(dst, image.Rect(x0, y0, x0+tw, y0+th), gray, gray.Bounds(), draw.Src, nil)
}

func level(v, lo, hi float64) uint8 {
	if math.IsNaN(v) || !(hi > lo) {
		return 0
	}
	return uint8(math.Round(255 * (v - lo) / (hi - lo)))
}

func drawText(dst draw.Image, s string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// drawCentered draws s in black with its baseline at y, centred on x.
func drawCentered(dst draw.Image, s string, x, y int) {
	d := &font.Drawer{Face: face}
	drawText(dst, s, x-d.MeasureString(s).Ceil()/2, y, color.Black)
}
