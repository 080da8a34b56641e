// Blending of a processed image over its original and split-screen comparison
package compose

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"image-filter-sandbox/internal/buffer"
)

var ErrSizeMismatch = errors.New("buffers have different dimensions")

// Blend linearly interpolates every colour channel between original and
// filtered: out = original*(1-opacity) + filtered*opacity. Opacity is a
// fraction clamped to [0,1]. Alpha of the result is 255.
func Blend(original, filtered *buffer.Buffer, opacity float64) (*buffer.Buffer, error) {
	if !original.SameSize(filtered) {
		return nil, fmt.Errorf("blend: %w", ErrSizeMismatch)
	}

	alpha := buffer.ClampFloat(opacity, 0, 1)
	out := buffer.New(original.Width, original.Height)
	a, b := original.Pix, filtered.Pix

	for i := 0; i+3 < len(a); i += 4 {
		for c := 0; c < 3; c++ {
			out.Pix[i+c] = buffer.ClampByte(float64(a[i+c])*(1-alpha) + float64(b[i+c])*alpha)
		}
		out.Pix[i+3] = 255
	}

	return out, nil
}

// SplitColumn converts a split fraction to the first column that shows the
// original image.
func SplitColumn(width int, split float64) int {
	x := buffer.RoundHalfUp(buffer.ClampFloat(split, 0, 1) * float64(width))
	return buffer.ClampInt(int(x), 0, width)
}

// Compare paints blended across the whole canvas and original over the
// columns right of the split. Split is a fraction clamped to [0,1]: 0 shows
// only the original, 1 only the blended image.
func Compare(original, blended *buffer.Buffer, split float64) (*buffer.Buffer, error) {
	if !original.SameSize(blended) {
		return nil, fmt.Errorf("compare: %w", ErrSizeMismatch)
	}

	out := buffer.New(original.Width, original.Height)
	dst := out.NRGBA()
	draw.Draw(dst, dst.Bounds(), blended.NRGBA(), image.Point{}, draw.Src)

	splitX := SplitColumn(original.Width, split)
	clip := image.Rect(splitX, 0, original.Width, original.Height)
	if !clip.Empty() {
		draw.Draw(dst, clip, original.NRGBA(), clip.Min, draw.Src)
	}

	return out, nil
}
