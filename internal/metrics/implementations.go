// Concrete implementations of quality metrics
package metrics

import (
	"math"

	"image-filter-sandbox/internal/buffer"
)

// MSE is the mean squared error over the three colour channels
type MSE struct{}

func NewMSE() *MSE {
	return &MSE{}
}

func (m *MSE) Calculate(original, processed *buffer.Buffer) (float64, error) {
	if err := checkPair(original, processed); err != nil {
		return 0, err
	}
	return meanSquaredError(original, processed), nil
}

func meanSquaredError(a, b *buffer.Buffer) float64 {
	sum := 0.0
	for i := 0; i+3 < len(a.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			d := float64(a.Pix[i+c]) - float64(b.Pix[i+c])
			sum += d * d
		}
	}
	return sum / float64(3*a.Width*a.Height)
}

func (m *MSE) GetName() string {
	return "MSE"
}

func (m *MSE) GetDescription() string {
	return "Mean Squared Error - average squared channel difference"
}

func (m *MSE) GetRange() (float64, float64) {
	return 0, 65025
}

func (m *MSE) IsHigherBetter() bool {
	return false
}

// PSNR implements Peak Signal-to-Noise Ratio metric
type PSNR struct{}

func NewPSNR() *PSNR {
	return &PSNR{}
}

func (p *PSNR) Calculate(original, processed *buffer.Buffer) (float64, error) {
	if err := checkPair(original, processed); err != nil {
		return 0, err
	}

	mse := meanSquaredError(original, processed)
	if mse == 0 {
		return math.Inf(1), nil // Perfect match
	}

	return 20 * math.Log10(255/math.Sqrt(mse)), nil
}

func (p *PSNR) GetName() string {
	return "PSNR"
}

func (p *PSNR) GetDescription() string {
	return "Peak Signal-to-Noise Ratio - measures image quality"
}

func (p *PSNR) GetRange() (float64, float64) {
	return 0, 100 // Practical range, can go higher
}

func (p *PSNR) IsHigherBetter() bool {
	return true
}

// SSIM implements the Structural Similarity Index on luma, averaged over
// non-overlapping windows
type SSIM struct {
	Window int
}

func NewSSIM() *SSIM {
	return &SSIM{Window: 8}
}

// SSIM constants
const (
	ssimC1 = 6.5025  // (0.01 * 255)^2
	ssimC2 = 58.5225 // (0.03 * 255)^2
)

func (s *SSIM) Calculate(original, processed *buffer.Buffer) (float64, error) {
	if err := checkPair(original, processed); err != nil {
		return 0, err
	}

	l1 := luma(original)
	l2 := luma(processed)
	w, h := original.Width, original.Height

	win := s.Window
	if win <= 0 {
		win = 8
	}

	total, windows := 0.0, 0
	for y0 := 0; y0 < h; y0 += win {
		for x0 := 0; x0 < w; x0 += win {
			x1, y1 := min(x0+win, w), min(y0+win, h)
			total += windowSSIM(l1, l2, w, x0, y0, x1, y1)
			windows++
		}
	}

	return total / float64(windows), nil
}

func windowSSIM(a, b []float64, stride, x0, y0, x1, y1 int) float64 {
	n := float64((x1 - x0) * (y1 - y0))

	var sumA, sumB float64
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			sumA += a[y*stride+x]
			sumB += b[y*stride+x]
		}
	}
	muA, muB := sumA/n, sumB/n

	var varA, varB, cov float64
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			da := a[y*stride+x] - muA
			db := b[y*stride+x] - muB
			varA += da * da
			varB += db * db
			cov += da * db
		}
	}
	varA /= n
	varB /= n
	cov /= n

	num := (2*muA*muB + ssimC1) * (2*cov + ssimC2)
	den := (muA*muA + muB*muB + ssimC1) * (varA + varB + ssimC2)
	return num / den
}

func luma(b *buffer.Buffer) []float64 {
	out := make([]float64, b.Width*b.Height)
	for i := range out {
		p := b.Pix[i*4 : i*4+3]
		out[i] = 0.299*float64(p[0]) + 0.587*float64(p[1]) + 0.114*float64(p[2])
	}
	return out
}

func (s *SSIM) GetName() string {
	return "SSIM"
}

func (s *SSIM) GetDescription() string {
	return "Structural Similarity Index - measures perceptual quality"
}

func (s *SSIM) GetRange() (float64, float64) {
	return 0, 1
}

func (s *SSIM) IsHigherBetter() bool {
	return true
}
