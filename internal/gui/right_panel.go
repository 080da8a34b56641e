// internal/gui/right_panel.go
// Right panel: channel histograms and quality metrics
package gui

import (
	"fmt"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"image-filter-sandbox/internal/core"
	"image-filter-sandbox/internal/histogram"
)

type RightPanel struct {
	histWidth  int
	histHeight int

	container *fyne.Container

	originalHist  *canvas.Image
	processedHist *canvas.Image

	mseLabel  *widget.Label
	psnrLabel *widget.Label
	ssimLabel *widget.Label
	sizeLabel *widget.Label
}

func NewRightPanel(histWidth, histHeight int) *RightPanel {
	panel := &RightPanel{
		histWidth:  histWidth,
		histHeight: histHeight,
	}

	panel.initializeUI()
	return panel
}

func (rp *RightPanel) initializeUI() {
	empty := histogram.Render(histogram.Histogram{}, rp.histWidth, rp.histHeight)

	rp.originalHist = canvas.NewImageFromImage(empty)
	rp.processedHist = canvas.NewImageFromImage(empty)
	for _, img := range []*canvas.Image{rp.originalHist, rp.processedHist} {
		img.FillMode = canvas.ImageFillStretch
		img.ScaleMode = canvas.ImageScalePixels
		img.SetMinSize(fyne.NewSize(float32(rp.histWidth), float32(rp.histHeight)))
	}

	rp.mseLabel = widget.NewLabel("MSE: -")
	rp.psnrLabel = widget.NewLabel("PSNR: -")
	rp.ssimLabel = widget.NewLabel("SSIM: -")
	rp.sizeLabel = widget.NewLabel("No image")

	rp.container = container.NewVBox(
		widget.NewCard("Histogram", "original", rp.originalHist),
		widget.NewCard("Histogram", "processed", rp.processedHist),
		widget.NewCard("Quality", "processed vs original",
			container.NewVBox(rp.mseLabel, rp.psnrLabel, rp.ssimLabel, widget.NewSeparator(), rp.sizeLabel)),
	)
}

// Update redraws histograms and metric labels.
func (rp *RightPanel) Update(frame core.Frame) {
	rp.originalHist.Image = histogram.Render(frame.OriginalHist, rp.histWidth, rp.histHeight)
	rp.originalHist.Refresh()
	rp.processedHist.Image = histogram.Render(frame.ProcessedHist, rp.histWidth, rp.histHeight)
	rp.processedHist.Refresh()

	rp.mseLabel.SetText(formatMetric("MSE", frame.Metrics, "mse", "%.2f"))
	rp.psnrLabel.SetText(formatMetric("PSNR", frame.Metrics, "psnr", "%.2f dB"))
	rp.ssimLabel.SetText(formatMetric("SSIM", frame.Metrics, "ssim", "%.4f"))
	if frame.Original != nil {
		rp.sizeLabel.SetText(fmt.Sprintf("%d × %d px", frame.Original.Width, frame.Original.Height))
	}
}

func (rp *RightPanel) GetContainer() fyne.CanvasObject {
	return container.NewVScroll(rp.container)
}

func formatMetric(title string, scores map[string]float64, key, format string) string {
	v, ok := scores[key]
	switch {
	case !ok:
		return title + ": -"
	case math.IsInf(v, 1):
		return title + ": ∞"
	default:
		return title + ": " + fmt.Sprintf(format, v)
	}
}
