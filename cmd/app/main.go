// Image Filter Sandbox desktop application

package main

import (
	"flag"
	"os"

	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"
	"github.com/sirupsen/logrus"

	"image-filter-sandbox/internal/config"
	"image-filter-sandbox/internal/gui"
	"image-filter-sandbox/internal/io"
)

const (
	AppName    = "Image Filter Sandbox"
	AppID      = "com.example.image-filter-sandbox"
	AppVersion = "1.0.0"

	testCardWidth  = 640
	testCardHeight = 420
)

func main() {
	debugMode := flag.Bool("debug", false, "Enable debug mode with verbose logging")
	configPath := flag.String("config", "", "Path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}

	logger := initLogger(*debugMode, cfg.Logging.Level)
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": *debugMode,
		"config":     *configPath,
	}).Info("Starting Image Filter Sandbox")

	myApp := app.NewWithID(AppID)
	myApp.SetIcon(theme.DocumentIcon())
	myApp.Settings().SetTheme(theme.DefaultTheme())

	mainApp, err := gui.NewApplication(myApp, cfg, logger, *debugMode)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create application")
	}

	// render callbacks need the driver running
	myApp.Lifecycle().SetOnStarted(func() {
		go func() {
			if !loadInitialImage(mainApp, flag.Arg(0), logger) {
				loadTestCard(mainApp, logger)
			}
		}()
	})

	mainApp.ShowAndRun()

	logger.Info("Application shutting down gracefully")
	os.Exit(0)
}

// loadInitialImage loads the file or data URL named on the command line, if any.
func loadInitialImage(mainApp *gui.Application, source string, logger *logrus.Logger) bool {
	if source == "" {
		return false
	}
	if err := mainApp.LoadImageSource(source); err != nil {
		logger.WithError(err).WithField("source", io.SourceName(source)).Error("Falling back to test card")
		return false
	}
	return true
}

func loadTestCard(mainApp *gui.Application, logger *logrus.Logger) {
	if err := mainApp.LoadBuffer(io.TestCard(testCardWidth, testCardHeight), "test-card"); err != nil {
		logger.WithError(err).Error("Failed to load test card")
	}
}

// initLogger initializes the logger with appropriate level
func initLogger(debugMode bool, level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
		return logger
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return logger
}
