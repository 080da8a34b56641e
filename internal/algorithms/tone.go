// Per-pixel tone filters: threshold, invert, sepia and posterize
package algorithms

import (
	"fmt"

	"image-filter-sandbox/internal/buffer"
)

// mapPixels writes fn(r, g, b) into a fresh buffer with alpha 255.
func mapPixels(src *buffer.Buffer, fn func(r, g, b uint8) (uint8, uint8, uint8)) *buffer.Buffer {
	out := buffer.New(src.Width, src.Height)
	in := src.Pix
	for i := 0; i+3 < len(in); i += 4 {
		out.Pix[i], out.Pix[i+1], out.Pix[i+2] = fn(in[i], in[i+1], in[i+2])
		out.Pix[i+3] = 255
	}
	return out
}

// Luminance returns the Rec. 601 luma of an RGB triple.
func Luminance(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// Threshold binarises on luminance
type Threshold struct{}

func NewThreshold() *Threshold {
	return &Threshold{}
}

func (t *Threshold) Apply(src *buffer.Buffer, opts Options) *buffer.Buffer {
	level := opts.Param
	return mapPixels(src, func(r, g, b uint8) (uint8, uint8, uint8) {
		if Luminance(r, g, b) >= level {
			return 255, 255, 255
		}
		return 0, 0, 0
	})
}

func (t *Threshold) Name() string {
	return "Threshold"
}

func (t *Threshold) Description() string {
	return "Black or white depending on pixel luminance"
}

func (t *Threshold) Label(opts Options) string {
	return fmt.Sprintf("Threshold (%g)", opts.Param)
}

func (t *Threshold) Parameters() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "level",
			Type:        "int",
			Min:         0,
			Max:         255,
			Default:     128,
			Description: "Luminance at or above which a pixel turns white",
		},
	}
}

// Invert replaces every channel c with 255-c
type Invert struct{}

func NewInvert() *Invert {
	return &Invert{}
}

func (iv *Invert) Apply(src *buffer.Buffer, _ Options) *buffer.Buffer {
	return mapPixels(src, func(r, g, b uint8) (uint8, uint8, uint8) {
		return 255 - r, 255 - g, 255 - b
	})
}

func (iv *Invert) Name() string {
	return "Invert"
}

func (iv *Invert) Description() string {
	return "Photographic negative"
}

func (iv *Invert) Label(Options) string {
	return "invert"
}

func (iv *Invert) Parameters() []ParameterInfo {
	return nil
}

// sepiaMatrix rows produce R', G' and B' from (R, G, B).
var sepiaMatrix = [3][3]float64{
	{0.393, 0.769, 0.189},
	{0.349, 0.686, 0.168},
	{0.272, 0.534, 0.131},
}

// Sepia applies a fixed colour matrix
type Sepia struct{}

func NewSepia() *Sepia {
	return &Sepia{}
}

func (s *Sepia) Apply(src *buffer.Buffer, _ Options) *buffer.Buffer {
	return mapPixels(src, func(r, g, b uint8) (uint8, uint8, uint8) {
		fr, fg, fb := float64(r), float64(g), float64(b)
		m := &sepiaMatrix
		return buffer.ClampByte(m[0][0]*fr + m[0][1]*fg + m[0][2]*fb),
			buffer.ClampByte(m[1][0]*fr + m[1][1]*fg + m[1][2]*fb),
			buffer.ClampByte(m[2][0]*fr + m[2][1]*fg + m[2][2]*fb)
	})
}

func (s *Sepia) Name() string {
	return "Sepia"
}

func (s *Sepia) Description() string {
	return "Warm brown tint"
}

func (s *Sepia) Label(Options) string {
	return "sepia"
}

func (s *Sepia) Parameters() []ParameterInfo {
	return nil
}

// Posterize quantises each channel to a reduced number of levels
type Posterize struct{}

func NewPosterize() *Posterize {
	return &Posterize{}
}

// PosterizeLevels maps the slider parameter to a level count in [2,32].
func PosterizeLevels(param float64) int {
	levels := buffer.RoundHalfUp(buffer.ClampFloat(param/8, 2, 32))
	return int(levels)
}

func (p *Posterize) Apply(src *buffer.Buffer, opts Options) *buffer.Buffer {
	step := 255 / float64(PosterizeLevels(opts.Param)-1)

	// 256 possible inputs, so quantise through a lookup table
	var lut [256]uint8
	for v := range lut {
		lut[v] = buffer.ClampByte(buffer.RoundHalfUp(float64(v)/step) * step)
	}

	return mapPixels(src, func(r, g, b uint8) (uint8, uint8, uint8) {
		return lut[r], lut[g], lut[b]
	})
}

func (p *Posterize) Name() string {
	return "Posterize"
}

func (p *Posterize) Description() string {
	return "Reduce each channel to a few discrete levels"
}

func (p *Posterize) Label(opts Options) string {
	return fmt.Sprintf("Posterize (%d levels)", PosterizeLevels(opts.Param))
}

func (p *Posterize) Parameters() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "param",
			Type:        "int",
			Min:         0,
			Max:         255,
			Default:     128,
			Description: "Level count is round(param/8), limited to 2..32",
		},
	}
}
