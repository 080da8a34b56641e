package io

import (
	"image"
	"image/color"

	"github.com/nfnt/resize"

	"image-filter-sandbox/internal/buffer"
)

// Preview returns buf scaled down so that neither side exceeds maxDim,
// keeping the aspect ratio. Buffers already within bounds, and maxDim <= 0,
// return buf unchanged.
func Preview(buf *buffer.Buffer, maxDim int) *buffer.Buffer {
	if buf.Empty() || maxDim <= 0 || (buf.Width <= maxDim && buf.Height <= maxDim) {
		return buf
	}

	scaled := resize.Thumbnail(uint(maxDim), uint(maxDim), buf.NRGBA(), resize.Bicubic)
	out := buffer.FromImage(scaled)
	out.NormalizeAlpha()
	return out
}

// TestCard draws the default image shown before a file is opened: a
// horizontal hue ramp over a vertical brightness ramp with a grey-scale
// strip and a checkerboard block, so every filter has edges and tones to
// work on.
func TestCard(width, height int) *buffer.Buffer {
	buf := buffer.New(width, height)
	img := buf.NRGBA()

	for y := 0; y < height; y++ {
		v := 1 - float64(y)/float64(max(height, 1))
		for x := 0; x < width; x++ {
			h := float64(x) / float64(max(width, 1))
			img.SetNRGBA(x, y, hsv(h, 0.85, 0.25+0.75*v))
		}
	}

	strip := height / 8
	for y := height - strip; y < height; y++ {
		for x := 0; x < width; x++ {
			g := uint8(x * 255 / max(width-1, 1))
			img.SetNRGBA(x, y, color.NRGBA{R: g, G: g, B: g, A: 255})
		}
	}

	cell := max(min(width, height)/16, 1)
	board := image.Rect(width/16, height/16, width/16+cell*4, height/16+cell*4).Intersect(img.Rect)
	for y := board.Min.Y; y < board.Max.Y; y++ {
		for x := board.Min.X; x < board.Max.X; x++ {
			c := color.NRGBA{A: 255}
			if ((x-board.Min.X)/cell+(y-board.Min.Y)/cell)%2 == 0 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}

	return buf
}

func hsv(h, s, v float64) color.NRGBA {
	i := int(h * 6)
	f := h*6 - float64(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return color.NRGBA{
		R: buffer.ClampByte(r * 255),
		G: buffer.ClampByte(g * 255),
		B: buffer.ClampByte(b * 255),
		A: 255,
	}
}
