package algorithms

import (
	"image-filter-sandbox/internal/buffer"
)

// OtsuLevel picks a threshold level for src by maximising the between-class
// variance of its luminance histogram. The result is the first luminance of
// the bright class, so it can be passed straight to the threshold filter.
func OtsuLevel(src *buffer.Buffer) float64 {
	if src.Empty() {
		return 128
	}

	hist := luminanceHistogram(src)
	return float64(min(otsuThreshold(hist)+1, 255))
}

func luminanceHistogram(src *buffer.Buffer) []float64 {
	hist := make([]float64, 256)
	pix := src.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		// floor, so bucket >= level agrees with the threshold's lum >= level
		lum := buffer.ClampInt(int(Luminance(pix[i], pix[i+1], pix[i+2])), 0, 255)
		hist[lum]++
	}

	// Normalize histogram
	total := float64(src.Width * src.Height)
	for i := range hist {
		hist[i] /= total
	}
	return hist
}

func otsuThreshold(hist []float64) int {
	sum := 0.0
	for i := 0; i < 256; i++ {
		sum += float64(i) * hist[i]
	}

	sumB := 0.0
	wB := 0.0
	maximum := 0.0
	level := 0

	for t := 0; t < 256; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}

		wF := 1.0 - wB
		if wF <= 1e-12 {
			break
		}

		sumB += float64(t) * hist[t]
		mB := sumB / wB
		mF := (sum - sumB) / wF

		// between-class variance
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > maximum {
			level = t
			maximum = between
		}
	}

	return level
}
