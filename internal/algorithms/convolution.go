// Square-kernel convolution filters
package algorithms

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"image-filter-sandbox/internal/buffer"
)

var ErrInvalidKernel = errors.New("kernel must be a non-empty odd-sized square matrix")

// Kernel is an odd-sized square matrix of weights.
type Kernel struct {
	Size   int
	Values [][]float64
}

// NewKernel validates and copies the given rows.
func NewKernel(values [][]float64) (*Kernel, error) {
	size := len(values)
	if size == 0 || size%2 == 0 {
		return nil, ErrInvalidKernel
	}

	rows := make([][]float64, size)
	for i, row := range values {
		if len(row) != size {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrInvalidKernel, i, len(row), size)
		}
		rows[i] = append([]float64(nil), row...)
	}

	return &Kernel{Size: size, Values: rows}, nil
}

// ParseKernel builds a 3x3 kernel from nine text cells. Cells that are
// missing or do not parse as numbers count as 0.
func ParseKernel(cells []string) *Kernel {
	values := make([][]float64, 3)
	for row := range values {
		values[row] = make([]float64, 3)
		for col := range values[row] {
			idx := row*3 + col
			if idx >= len(cells) {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(cells[idx]), 64)
			if err != nil {
				continue
			}
			values[row][col] = v
		}
	}
	return &Kernel{Size: 3, Values: values}
}

// Flat returns the weights in row-major order.
func (k *Kernel) Flat() []float64 {
	out := make([]float64, 0, k.Size*k.Size)
	for _, row := range k.Values {
		out = append(out, row...)
	}
	return out
}

// Clone returns a deep copy.
func (k *Kernel) Clone() *Kernel {
	if k == nil {
		return nil
	}
	kc, _ := NewKernel(k.Values)
	return kc
}

// Equal reports whether both kernels have the same size and weights.
func (k *Kernel) Equal(other *Kernel) bool {
	if k == nil || other == nil {
		return k == other
	}
	if k.Size != other.Size {
		return false
	}
	for i, row := range k.Values {
		for j, v := range row {
			if other.Values[i][j] != v {
				return false
			}
		}
	}
	return true
}

func (k *Kernel) String() string {
	parts := make([]string, 0, k.Size)
	for _, row := range k.Values {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		parts = append(parts, strings.Join(cells, " "))
	}
	return "[" + strings.Join(parts, "; ") + "]"
}

// Convolve applies k to the colour channels of every pixel whose full
// neighbourhood lies inside the image. Pixels within floor(size/2) of an
// edge keep their colour; alpha is 255 everywhere.
func Convolve(src *buffer.Buffer, k *Kernel) *buffer.Buffer {
	if src == nil {
		return nil
	}
	out := src.Clone()
	if k == nil || k.Size == 0 {
		out.NormalizeAlpha()
		return out
	}

	w, h := src.Width, src.Height
	half := k.Size / 2
	in := src.Pix

	for y := half; y < h-half; y++ {
		for x := half; x < w-half; x++ {
			var sum [3]float64
			for ky := 0; ky < k.Size; ky++ {
				rowOff := ((y+ky-half)*w + (x - half)) * 4
				for kx, weight := range k.Values[ky] {
					idx := rowOff + kx*4
					sum[0] += float64(in[idx]) * weight
					sum[1] += float64(in[idx+1]) * weight
					sum[2] += float64(in[idx+2]) * weight
				}
			}
			o := (y*w + x) * 4
			out.Pix[o] = buffer.ClampByte(sum[0])
			out.Pix[o+1] = buffer.ClampByte(sum[1])
			out.Pix[o+2] = buffer.ClampByte(sum[2])
		}
	}

	out.NormalizeAlpha()
	return out
}

// Convolution is a kernel filter. A fixed kernel makes it a named preset;
// without one it convolves with the kernel supplied in Options.
type Convolution struct {
	name   string
	kernel *Kernel
}

// NewNamedConvolution returns the preset registered under name.
func NewNamedConvolution(name string) *Convolution {
	k, _ := LookupKernel(name)
	return &Convolution{name: name, kernel: k}
}

// NewCustomConvolution returns a filter driven by Options.Kernel.
func NewCustomConvolution() *Convolution {
	return &Convolution{name: "custom"}
}

func (c *Convolution) Apply(src *buffer.Buffer, opts Options) *buffer.Buffer {
	k := c.kernel
	if opts.Kernel != nil {
		k = opts.Kernel
	}
	return Convolve(src, k)
}

func (c *Convolution) Name() string {
	if c.kernel == nil {
		return "Custom kernel"
	}
	return c.name
}

func (c *Convolution) Description() string {
	if c.kernel == nil {
		return "Convolution with a user-defined 3x3 kernel"
	}
	return fmt.Sprintf("Convolution with the %s kernel %s", c.name, c.kernel)
}

func (c *Convolution) Label(Options) string {
	if c.kernel == nil {
		return "Custom kernel"
	}
	return c.name
}

func (c *Convolution) Parameters() []ParameterInfo {
	if c.kernel != nil {
		return nil
	}
	return []ParameterInfo{
		{
			Name:        "kernel",
			Type:        "kernel",
			Description: "3x3 weights, row-major; blank cells are 0",
		},
	}
}

// Kernel returns the preset weights, nil for the custom filter.
func (c *Convolution) Kernel() *Kernel {
	return c.kernel.Clone()
}
