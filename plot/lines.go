package plot

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// Palette colours successive series.
var Palette = []color.RGBA{
	{31, 119, 180, 255},
	{255, 127, 14, 255},
	{44, 160, 44, 255},
	{214, 39, 40, 255},
	{148, 103, 189, 255},
}

var axisColor = color.RGBA{96, 96, 96, 255}

// LineOptions control Lines.
type LineOptions struct {
	Title  string
	XLabel string
	Width  int
	Height int
}

// Lines draws each series against its element index, one colour per series,
// with a legend of labels. It is used for rows of ancillary matrices.
func Lines(series [][]float64, labels []string, opts LineOptions) (*image.RGBA, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("no series to plot")
	}
	if labels != nil && len(labels) != len(series) {
		return nil, fmt.Errorf("%d labels for %d series", len(labels), len(series))
	}
	w, h := opts.Width, opts.Height
	if w <= 0 {
		w = 480
	}
	if h <= 0 {
		h = 320
	}

	n := 0
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		n = max(n, len(s))
		for _, v := range s {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	if n == 0 {
		return nil, fmt.Errorf("series are empty")
	}
	if !(hi > lo) {
		lo, hi = lo-1, hi+1
	}

	top := pad
	if opts.Title != "" {
		top = titleHeight
	}
	area := image.Rect(56, top, w-pad, h-2*textHeight)
	if area.Dx() < 8 || area.Dy() < 8 {
		return nil, fmt.Errorf("image %dx%d is too small", w, h)
	}

	img := canvas(w, h)
	frameRect(img, area.Inset(-1), axisColor)

	px := func(i int) float32 {
		if n == 1 {
			return float32(area.Min.X + area.Dx()/2)
		}
		return float32(area.Min.X) + float32(i)*float32(area.Dx()-1)/float32(n-1)
	}
	py := func(v float64) float32 {
		return float32(area.Max.Y-1) - float32((v-lo)/(hi-lo))*float32(area.Dy()-1)
	}

	z := vector.NewRasterizer(w, h)
	for k, s := range series {
		z.Reset(w, h)
		for i := 1; i < len(s); i++ {
			segment(z, px(i-1), py(s[i-1]), px(i), py(s[i]), 1)
		}
		if len(s) == 1 {
			segment(z, px(0)-1, py(s[0]), px(0)+1, py(s[0]), 1)
		}
		z.Draw(img, img.Bounds(), image.NewUniform(Palette[k%len(Palette)]), image.Point{})
	}

	drawText(img, formatTick(hi), 4, area.Min.Y+10, color.Black)
	drawText(img, formatTick(lo), 4, area.Max.Y, color.Black)
	drawText(img, "0", area.Min.X, area.Max.Y+textHeight, color.Black)
	last := strconv.Itoa(n - 1)
	drawText(img, last, area.Max.X-7*len(last), area.Max.Y+textHeight, color.Black)
	if opts.XLabel != "" {
		drawCentered(img, opts.XLabel, area.Min.X+area.Dx()/2, h-4)
	}
	if opts.Title != "" {
		drawCentered(img, opts.Title, w/2, 17)
	}

	for k, label := range labels {
		x := area.Max.X - 100
		y := area.Min.Y + 4 + k*textHeight
		swatch := image.Rect(x, y+4, x+16, y+8)
		draw.Draw(img, swatch, image.NewUniform(Palette[k%len(Palette)]), image.Point{}, draw.Src)
		drawText(img, label, x+20, y+10, color.Black)
	}
	return img, nil
}

// segment adds a stroke of half width hw from (x0, y0) to (x1, y1).
func segment(z *vector.Rasterizer, x0, y0, x1, y1, hw float32) {
	dx, dy := x1-x0, y1-y0
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		return
	}
	nx, ny := -dy/l*hw, dx/l*hw
	z.MoveTo(x0+nx, y0+ny)
	z.LineTo(x1+nx, y1+ny)
	z.LineTo(x1-nx, y1-ny)
	z.LineTo(x0-nx, y0-ny)
	z.ClosePath()
}

func frameRect(dst draw.Image, r image.Rectangle, c color.Color) {
	src := image.NewUniform(c)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), src, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), src, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), src, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), src, image.Point{}, draw.Src)
}

func formatTick(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}
