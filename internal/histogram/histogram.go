// Per-channel intensity histograms and their bar-chart rendering
package histogram

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"image-filter-sandbox/internal/buffer"
)

const Buckets = 256

// Histogram counts pixels per intensity for the three colour channels.
type Histogram struct {
	R [Buckets]int
	G [Buckets]int
	B [Buckets]int
}

// Compute counts every pixel of buf. A nil buffer yields an empty histogram.
func Compute(buf *buffer.Buffer) Histogram {
	var h Histogram
	if buf == nil {
		return h
	}
	p := buf.Pix
	for i := 0; i+3 < len(p); i += 4 {
		h.R[p[i]]++
		h.G[p[i+1]]++
		h.B[p[i+2]]++
	}
	return h
}

// Max returns the tallest bucket over all channels, never less than 1.
func (h *Histogram) Max() int {
	m := 1
	for i := 0; i < Buckets; i++ {
		m = max(m, h.R[i], h.G[i], h.B[i])
	}
	return m
}

// Total returns the number of pixels counted.
func (h *Histogram) Total() int {
	n := 0
	for _, v := range h.R {
		n += v
	}
	return n
}

var channelColors = []color.NRGBA{
	{R: 255, A: 255},
	{G: 128, A: 255},
	{B: 255, A: 255},
}

// Render draws the histogram as three overlaid bar charts, red then green
// then blue, scaled so the tallest bucket spans the full height. Bucket i
// starts at column i*width/256. The background is transparent.
func Render(h Histogram, width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	if width <= 0 || height <= 0 {
		return img
	}

	peak := float64(h.Max())
	for c, data := range [][Buckets]int{h.R, h.G, h.B} {
		fill := image.NewUniform(channelColors[c])
		for i, v := range data {
			barHeight := int(buffer.RoundHalfUp(float64(v) / peak * float64(height)))
			if barHeight <= 0 {
				continue
			}
			x0 := i * width / Buckets
			x1 := max((i+1)*width/Buckets, x0+1)
			bar := image.Rect(x0, height-barHeight, x1, height).Intersect(img.Rect)
			draw.Draw(img, bar, fill, image.Point{}, draw.Src)
		}
	}

	return img
}

// RenderPair renders the histograms of an original and a processed buffer
// with the same geometry.
func RenderPair(original, processed *buffer.Buffer, width, height int) (*image.NRGBA, *image.NRGBA) {
	return Render(Compute(original), width, height), Render(Compute(processed), width, height)
}
