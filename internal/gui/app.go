// Main application window wiring the filter session to the panels
package gui

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"image-filter-sandbox/internal/buffer"
	"image-filter-sandbox/internal/config"
	"image-filter-sandbox/internal/core"
	"image-filter-sandbox/internal/io"
)

// Application represents the main window
type Application struct {
	app       fyne.App
	window    fyne.Window
	logger    logrus.FieldLogger
	debugMode bool
	cfg       *config.Config

	ctx    context.Context
	cancel context.CancelFunc

	// Core components
	session *core.Session
	loader  *io.ImageLoader

	// GUI components
	leftPanel   *LeftPanel
	centerPanel *CenterPanel
	rightPanel  *RightPanel
	menuHandler *MenuHandler
	statusLabel *widget.Label
}

func NewApplication(app fyne.App, cfg *config.Config, logger logrus.FieldLogger, debugMode bool) (*Application, error) {
	session, err := core.NewSession(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	window := app.NewWindow("Image Filter Sandbox")
	window.Resize(fyne.NewSize(1500, 950))
	window.CenterOnScreen()

	ctx, cancel := context.WithCancel(context.Background())
	a := &Application{
		app:       app,
		window:    window,
		logger:    logger,
		debugMode: debugMode,
		cfg:       cfg,
		ctx:       ctx,
		cancel:    cancel,
		session:   session,
		loader:    io.NewImageLoader(logger),
	}

	a.initializeGUI()
	a.setupLayout()
	a.setupCallbacks()

	return a, nil
}

func (a *Application) initializeGUI() {
	a.leftPanel = NewLeftPanel(a.session, a.logger)
	a.centerPanel = NewCenterPanel(a.session, a.cfg.Preview.MaxDimension)
	a.rightPanel = NewRightPanel(a.cfg.Histogram.Width, a.cfg.Histogram.Height)
	a.menuHandler = NewMenuHandler(a.window, a.session, a.loader, a.logger)
	if a.debugMode {
		a.session.SetDebugger(core.NewPipelineDebugger(a.logger))
		a.menuHandler.EnableDebug()
	}
	a.statusLabel = widget.NewLabel("Ready")
}

func (a *Application) setupLayout() {
	center := container.NewBorder(nil, a.statusLabel, nil, nil, a.centerPanel.GetContainer())

	centerAndRight := container.NewHSplit(center, a.rightPanel.GetContainer())
	centerAndRight.SetOffset(0.72)

	main := container.NewHSplit(a.leftPanel.GetContainer(), centerAndRight)
	main.SetOffset(0.25)

	a.window.SetMainMenu(a.menuHandler.GetMainMenu())
	a.window.SetContent(main)
}

func (a *Application) setupCallbacks() {
	a.session.SetCallbacks(
		// onRender
		func(frame core.Frame) {
			fyne.Do(func() {
				a.centerPanel.Update(frame)
				a.rightPanel.Update(frame)
			})
		},
		// onError
		func(err error) {
			fyne.Do(func() {
				a.showError("Processing Error", err)
			})
		},
	)

	a.leftPanel.SetCallbacks(
		// onAction runs a session operation off the UI thread
		func(name string, action func(ctx context.Context) error) {
			go func() {
				if err := action(a.ctx); err != nil {
					a.logger.WithError(err).WithField("action", name).Debug("Action failed")
					return
				}
				fyne.Do(func() { a.updateStatusMessage(name) })
			}()
		},
		// onError
		func(err error) {
			a.showError("Pipeline", err)
		},
	)

	a.menuHandler.SetCallbacks(
		// onImageLoaded
		func(source string) {
			fyne.Do(func() {
				a.updateStatusMessage(fmt.Sprintf("Loaded: %s", source))
			})
		},
		// onImageSaved
		func(target string) {
			fyne.Do(func() {
				a.showInfo("Image Saved", fmt.Sprintf("Image saved to:\n%s", target))
				a.updateStatusMessage(fmt.Sprintf("Saved: %s", target))
			})
		},
	)
}

func (a *Application) updateStatusMessage(message string) {
	a.statusLabel.SetText(message)
}

// LoadImageSource loads a file path or data URL into the session.
func (a *Application) LoadImageSource(source string) error {
	buf, err := a.loader.Open(source)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}
	return a.LoadBuffer(buf, io.SourceName(source))
}

// LoadBuffer hands an already decoded image to the session. It may be
// called from any goroutine.
func (a *Application) LoadBuffer(buf *buffer.Buffer, source string) error {
	if err := a.session.LoadImage(buf, source); err != nil {
		return err
	}
	fyne.Do(func() {
		a.updateStatusMessage(fmt.Sprintf("Loaded: %s", source))
	})
	return nil
}

func (a *Application) ShowAndRun() {
	a.logger.Info("Showing main application window")

	a.window.SetCloseIntercept(func() {
		a.cleanup()
		a.app.Quit()
	})

	a.window.ShowAndRun()
}

func (a *Application) cleanup() {
	a.logger.Info("Cleaning up application resources")
	a.cancel()
	a.session.Image().Clear()
}

func (a *Application) showError(title string, err error) {
	a.logger.WithError(err).Error(title)
	dialog.ShowError(err, a.window)
	a.updateStatusMessage(fmt.Sprintf("Error: %s", err.Error()))
}

func (a *Application) showInfo(title, message string) {
	a.logger.WithField("message", message).Info(title)
	dialog.ShowInformation(title, message, a.window)
}
