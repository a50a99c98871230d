package qoiconv

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/ericpauley/go-quantize/quantize"
)

const maxColors = 256

// reduceColors returns m redrawn with a median cut palette of at most n
// colors. Fewer distinct colors means more cache hits when encoding.
func reduceColors(m image.Image, n int) image.Image {
	b := m.Bounds()

	// Already small enough
	if pm, ok := m.(*image.Paletted); ok && len(pm.Palette) <= n {
		return m
	}

	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, n), m))
	draw.Draw(pm, b, m, b.Min, draw.Src)

	return pm
}
