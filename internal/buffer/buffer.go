// Pixel buffer shared by every filter, compositor and renderer
package buffer

import (
	"image"

	"golang.org/x/image/draw"
)

// Buffer is a width x height grid of non-premultiplied RGBA samples,
// row-major with a stride of 4*Width. The layout matches image.NRGBA.
type Buffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// New allocates a zeroed buffer
func New(width, height int) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, 4*width*height),
	}
}

// FromImage copies any image into a new buffer, moving its origin to 0,0.
func FromImage(img image.Image) *Buffer {
	b := img.Bounds()
	buf := New(b.Dx(), b.Dy())
	if buf.Empty() {
		return buf
	}

	// Fast path: tightly packed NRGBA already has our layout
	if src, ok := img.(*image.NRGBA); ok && src.Stride == 4*b.Dx() && src.Rect.Min == b.Min {
		copy(buf.Pix, src.Pix[:len(buf.Pix)])
		return buf
	}

	draw.Draw(buf.NRGBA(), buf.Bounds(), img, b.Min, draw.Src)
	return buf
}

// NRGBA returns an image view sharing the buffer's pixels.
func (b *Buffer) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: 4 * b.Width,
		Rect:   b.Bounds(),
	}
}

func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

// Empty reports whether the buffer is nil or has no pixels.
func (b *Buffer) Empty() bool {
	return b == nil || b.Width == 0 || b.Height == 0
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	if b == nil {
		return nil
	}
	out := &Buffer{Width: b.Width, Height: b.Height, Pix: make([]uint8, len(b.Pix))}
	copy(out.Pix, b.Pix)
	return out
}

// Offset returns the index of the red sample of pixel (x, y).
func (b *Buffer) Offset(x, y int) int {
	return (y*b.Width + x) * 4
}

// SameSize reports whether two buffers have identical dimensions.
func (b *Buffer) SameSize(other *Buffer) bool {
	return b != nil && other != nil && b.Width == other.Width && b.Height == other.Height
}

// NormalizeAlpha forces every alpha sample to 255.
func (b *Buffer) NormalizeAlpha() {
	for i := 3; i < len(b.Pix); i += 4 {
		b.Pix[i] = 255
	}
}

// Equal compares dimensions and every sample.
func Equal(a, b *Buffer) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !a.SameSize(b) || len(a.Pix) != len(b.Pix) {
		return false
	}
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			return false
		}
	}
	return true
}
