// internal/gui/center_panel.go
// Center panel: original, processed and split comparison views
package gui

import (
	"fmt"
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"golang.org/x/image/draw"

	"image-filter-sandbox/internal/buffer"
	"image-filter-sandbox/internal/core"
	"image-filter-sandbox/internal/io"
)

type CenterPanel struct {
	session    *core.Session
	previewMax int

	container *fyne.Container

	originalImage  *canvas.Image
	processedImage *canvas.Image
	compareImage   *canvas.Image

	intensitySlider *widget.Slider
	intensityLabel  *widget.Label
	compareSlider   *widget.Slider
	compareLabel    *widget.Label
}

func NewCenterPanel(session *core.Session, previewMax int) *CenterPanel {
	panel := &CenterPanel{
		session:    session,
		previewMax: previewMax,
	}

	panel.initializeUI()
	return panel
}

func (cp *CenterPanel) initializeUI() {
	placeholder := createPlaceholderImage()

	cp.originalImage = newImageView(placeholder)
	cp.processedImage = newImageView(placeholder)
	cp.compareImage = newImageView(placeholder)

	cp.intensityLabel = widget.NewLabel(formatPercent(cp.session.Opacity()))
	cp.intensitySlider = widget.NewSlider(0, 100)
	cp.intensitySlider.Step = 1
	cp.intensitySlider.SetValue(cp.session.Opacity())
	cp.intensitySlider.OnChanged = func(value float64) {
		cp.intensityLabel.SetText(formatPercent(value))
		cp.session.SetOpacity(value)
	}

	cp.compareLabel = widget.NewLabel(formatPercent(cp.session.Split()))
	cp.compareSlider = widget.NewSlider(0, 100)
	cp.compareSlider.Step = 1
	cp.compareSlider.SetValue(cp.session.Split())
	cp.compareSlider.OnChanged = func(value float64) {
		cp.compareLabel.SetText(formatPercent(value))
		cp.session.SetSplit(value)
	}

	views := container.NewGridWithColumns(2,
		widget.NewCard("Original", "", cp.originalImage),
		widget.NewCard("Processed", "", cp.processedImage),
	)
	compareCard := widget.NewCard("Compare", "processed | original", cp.compareImage)

	sliders := container.NewVBox(
		container.NewBorder(nil, nil, widget.NewLabel("Intensity"), cp.intensityLabel, cp.intensitySlider),
		container.NewBorder(nil, nil, widget.NewLabel("Compare"), cp.compareLabel, cp.compareSlider),
	)

	cp.container = container.NewBorder(nil, sliders, nil, nil, container.NewGridWithRows(2, views, compareCard))
}

// Update redraws the views from a rendered frame.
func (cp *CenterPanel) Update(frame core.Frame) {
	cp.setImage(cp.originalImage, frame.Original)
	cp.setImage(cp.processedImage, frame.Blended)
	cp.setImage(cp.compareImage, frame.Compare)
}

func (cp *CenterPanel) setImage(view *canvas.Image, buf *buffer.Buffer) {
	if buf.Empty() {
		return
	}
	view.Image = io.Preview(buf, cp.previewMax).NRGBA()
	view.Refresh()
}

func (cp *CenterPanel) GetContainer() fyne.CanvasObject {
	return cp.container
}

func newImageView(img image.Image) *canvas.Image {
	view := canvas.NewImageFromImage(img)
	view.FillMode = canvas.ImageFillContain
	view.ScaleMode = canvas.ImageScalePixels
	view.SetMinSize(fyne.NewSize(320, 220))
	return view
}

func createPlaceholderImage() image.Image {
	placeholder := image.NewNRGBA(image.Rect(0, 0, 400, 300))
	gray := color.NRGBA{R: 245, G: 245, B: 245, A: 255}
	draw.Draw(placeholder, placeholder.Bounds(), image.NewUniform(gray), image.Point{}, draw.Src)
	return placeholder
}

func formatPercent(value float64) string {
	return fmt.Sprintf("%.0f%%", value)
}
