package analytics

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black = color.RGBA{A: 255}
	grey  = color.RGBA{R: 153, G: 153, B: 153, A: 255}
)

// canvas is a white RGBA image with helpers for the hand-drawn charts.
type canvas struct {
	img  *image.RGBA
	face font.Face
}

func newCanvas(w, h int) *canvas {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(white), image.Point{}, draw.Src)
	return &canvas{img: img, face: basicfont.Face7x13}
}

func (c *canvas) fillRect(x0, y0, x1, y1 int, col color.Color) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	draw.Draw(c.img, image.Rect(x0, y0, x1, y1), image.NewUniform(col), image.Point{}, draw.Over)
}

// text draws s with its baseline at (x, y). The bitmap face only covers
// ASCII, so the ellipsis is spelled out.
func (c *canvas) text(x, y int, s string, col color.Color) {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: c.face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(asciiLabel(s))
}

func asciiLabel(s string) string {
	return strings.ReplaceAll(s, "…", "...")
}

// drawBars renders a BarView the way the popup's canvas chart did: bars
// fill 80% of the height, labels sit on the baseline.
func drawBars(view BarView, w, h int) image.Image {
	c := newCanvas(w, h)
	fill := parseHex(view.Color)

	n := len(view.Bars)
	barWidth := max(w/n-10, 20)
	for i, bar := range view.Bars {
		barHeight := int(bar.Height * float64(h) * 0.8)
		x := i*(barWidth+10) + 10
		y := h - barHeight
		c.fillRect(x, y, x+barWidth, h, fill)
		c.text(x, h-5, bar.Label, black)
	}

	c.text(10, 16, view.Title, black)
	c.fillRect(0, h-1, w, h, black)
	return c.img
}

// drawHorizontal renders the combined importance chart with one row per
// contribution and a vertical zero line.
func drawHorizontal(rows []HorizontalBar, w, h int) image.Image {
	c := newCanvas(w, h)

	const (
		top      = 28
		bottom   = 20
		labelCol = 90
	)
	c.text(10, 16, "SHAP Value Contribution", black)

	lo, hi := 0.0, 0.0
	for _, r := range rows {
		lo = min(lo, r.Value)
		hi = max(hi, r.Value)
	}
	if hi == lo {
		hi = lo + 1
	}

	left, right := labelCol+10, w-10
	xOf := func(v float64) int {
		return left + int((v-lo)/(hi-lo)*float64(right-left))
	}

	rowHeight := min(max((h-top-bottom)/len(rows), 14), 28)
	thickness := max(rowHeight*7/10, 8)
	for i, r := range rows {
		y := top + i*rowHeight
		c.text(10, y+thickness-2, r.Label, black)
		c.fillRect(xOf(0), y, xOf(r.Value), y+thickness, parseHex(r.Color))
	}

	zero := xOf(0)
	c.fillRect(zero, top, zero+1, h-bottom, black)
	c.fillRect(left, h-bottom, right, h-bottom+1, grey)
	c.text(left, h-5, formatValue(lo), black)
	c.text(right-7*len(formatValue(hi)), h-5, formatValue(hi), black)
	return c.img
}

// drawPoints renders a line view whose series have at most one point
// each, which go-chart cannot scale. Each point is a dot above its label
// slot.
func drawPoints(view LineView, w, h int) image.Image {
	c := newCanvas(w, h)

	const (
		top    = 28
		bottom = 24
		left   = 50
	)
	c.text(10, 16, "Prediction Evolution", black)

	lo, hi := valueBounds(view.Safe, view.Unsafe)
	right := w - 10
	yOf := func(v float64) int {
		return h - bottom - int((v-lo)/(hi-lo)*float64(h-top-bottom))
	}
	slot := max((right-left)/max(len(view.Labels), 1), 1)
	xOf := func(i int) int { return left + i*slot + slot/2 }

	zero := yOf(0)
	c.fillRect(left, zero, right, zero+1, grey)
	c.text(10, zero+4, formatValue(0), black)

	for i, label := range view.Labels {
		c.text(left+i*slot+2, h-6, label, black)
	}

	dot := func(i int, v float64, col color.Color) {
		x, y := xOf(i), yOf(v)
		c.fillRect(x-3, y-3, x+4, y+4, col)
	}
	for i, v := range view.Safe {
		dot(i, v, parseHex(ColorSafe))
	}
	for i, v := range view.Unsafe {
		dot(i, v, parseHex(ColorUnsafe))
	}
	return c.img
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// parseHex converts "#RRGGBB" to an opaque color. Malformed input yields
// black.
func parseHex(hex string) color.RGBA {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return black
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return black
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}
