// Menu handler for application actions
package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"image-filter-sandbox/internal/core"
	"image-filter-sandbox/internal/io"
)

// MenuHandler handles menu actions
type MenuHandler struct {
	window  fyne.Window
	session *core.Session
	loader  *io.ImageLoader
	logger  logrus.FieldLogger
	debug   bool

	onImageLoaded func(string)
	onImageSaved  func(string)
}

func NewMenuHandler(window fyne.Window, session *core.Session, loader *io.ImageLoader, logger logrus.FieldLogger) *MenuHandler {
	return &MenuHandler{
		window:  window,
		session: session,
		loader:  loader,
		logger:  logger,
	}
}

func (mh *MenuHandler) GetMainMenu() *fyne.MainMenu {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", mh.openImage),
		fyne.NewMenuItem("Save PNG...", mh.saveImage),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Exit", func() {
			mh.window.Close()
		}),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mh.showAbout),
	)

	if mh.debug {
		return fyne.NewMainMenu(fileMenu, mh.debugMenu(), helpMenu)
	}
	return fyne.NewMainMenu(fileMenu, helpMenu)
}

func (mh *MenuHandler) openImage() {
	mh.logger.Info("Opening file dialog for image selection")

	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		// the picker may hand out non-file URIs, so decode from the reader
		name, source := reader.URI().Name(), reader.URI().String()
		buf, err := mh.loader.ReadImage(reader)
		if err != nil {
			mh.showError("Failed to Load Image", err)
			return
		}

		go func() {
			if err := mh.session.LoadImage(buf, source); err != nil {
				return
			}
			if mh.onImageLoaded != nil {
				mh.onImageLoaded(name)
			}
		}()
	}, mh.window)

	fileDialog.SetFilter(storage.NewExtensionFileFilter([]string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp"}))
	fileDialog.Show()
}

func (mh *MenuHandler) saveImage() {
	if !mh.session.Image().HasImage() {
		mh.showError("No Image", fmt.Errorf("no image loaded to save"))
		return
	}

	mh.logger.Info("Opening file dialog for image saving")

	fileDialog := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if writer == nil {
			return
		}
		defer writer.Close()

		path := writer.URI().Path()
		if err := mh.session.Export(writer, mh.loader); err != nil {
			mh.showError("Failed to Save Image", err)
			return
		}

		mh.logger.WithField("filepath", path).Info("Image exported")
		if mh.onImageSaved != nil {
			mh.onImageSaved(path)
		}
	}, mh.window)

	fileDialog.SetFileName("processed.png")
	fileDialog.SetFilter(storage.NewExtensionFileFilter([]string{".png"}))
	fileDialog.Show()
}

func (mh *MenuHandler) showAbout() {
	content := container.NewVBox(
		widget.NewLabel("Image Filter Sandbox"),
		widget.NewSeparator(),
		widget.NewLabel("Tone filters, 3×3 convolutions and filter pipelines"),
		widget.NewLabel("with opacity blending, split comparison and histograms."),
		widget.NewSeparator(),
		widget.NewLabel("Built with Go, Fyne and OpenCV"),
	)

	aboutDialog := dialog.NewCustom("About", "Close", content, mh.window)
	aboutDialog.Resize(fyne.NewSize(400, 240))
	aboutDialog.Show()
}

func (mh *MenuHandler) showError(title string, err error) {
	mh.logger.WithError(err).Error(title)
	dialog.ShowError(err, mh.window)
}

func (mh *MenuHandler) SetCallbacks(onImageLoaded, onImageSaved func(string)) {
	mh.onImageLoaded = onImageLoaded
	mh.onImageSaved = onImageSaved
}
