package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"image-filter-sandbox/internal/config"
	"image-filter-sandbox/internal/io"
)

var (
	// Global flags
	verbose    bool
	configPath string

	logger *logrus.Logger
	cfg    *config.Config
	loader *io.ImageLoader
)

var rootCmd = &cobra.Command{
	Use:   "filterctl",
	Short: "Apply image filters and filter pipelines from the command line",
	Long: `filterctl runs the same filters as the desktop sandbox without a window:
tone filters (threshold, invert, sepia, posterize), preset 3×3 convolutions
and custom kernels, alone or chained into a pipeline read from YAML.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger = newLogger(verbose, cfg.Logging.Level)
		loader = io.NewImageLoader(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")

	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(histogramCmd)
	rootCmd.AddCommand(filtersCmd)
	rootCmd.AddCommand(kernelsCmd)
}

// newLogger writes text logs to stderr so stdout stays usable for listings.
func newLogger(verbose bool, level string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	if verbose {
		lvl = logrus.DebugLevel
	}
	l.SetLevel(lvl)
	return l
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
