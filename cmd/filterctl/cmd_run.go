package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"image-filter-sandbox/internal/config"
	"image-filter-sandbox/internal/core"
	"image-filter-sandbox/internal/io"
	"image-filter-sandbox/internal/watch"
)

var (
	runPipelinePath string
	runOutDir       string
	runWatch        bool
	runJobs         int
)

var runCmd = &cobra.Command{
	Use:   "run <input>...",
	Short: "Run a filter pipeline over one or more images",
	Long: `Runs the pipeline from the original of every input and writes
<name>_processed.png into the output directory. Inputs are processed
concurrently. Inputs may be files or data:image/... URLs; a data URL is
written as input<N>_processed.png after its position on the command line.
With --watch the input files and the pipeline file are watched and re-run
whenever they change.

Example:
  filterctl run a.png b.jpg -c pipeline.yaml --out-dir out --jobs 4`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().StringVarP(&runPipelinePath, "pipeline", "c", "", "YAML file with a pipeline section (default: pipeline from config)")
	runCmd.Flags().StringVar(&runOutDir, "out-dir", ".", "Directory for processed images")
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "Re-run when inputs or the pipeline file change")
	runCmd.Flags().IntVar(&runJobs, "jobs", runtime.NumCPU(), "Images processed concurrently")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(runOutDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	specs, err := loadSpecs()
	if err != nil {
		return err
	}
	if err := processAll(ctx, args, specs); err != nil {
		return err
	}
	if !runWatch {
		return nil
	}

	var watched []string
	for _, in := range args {
		if !io.IsDataURL(in) {
			watched = append(watched, in)
		}
	}
	if runPipelinePath != "" {
		watched = append(watched, runPipelinePath)
	}
	if len(watched) == 0 {
		logger.Warn("Nothing to watch: every input is a data URL")
		return nil
	}
	w, err := watch.New(watched, watch.DefaultDebounce, func(ctx context.Context, changed []string) {
		rerun(ctx, args, changed)
	}, logger)
	if err != nil {
		return err
	}

	logger.WithField("paths", watched).Info("Watching for changes")
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// rerun reprocesses the changed inputs, or every input when the pipeline
// file changed.
func rerun(ctx context.Context, inputs, changed []string) {
	specs, err := loadSpecs()
	if err != nil {
		logger.WithError(err).Error("Pipeline reload failed")
		return
	}

	targets := inputs
	if !containsPath(changed, runPipelinePath) {
		targets = nil
		for _, in := range inputs {
			if containsPath(changed, in) {
				targets = append(targets, in)
			}
		}
	}
	if err := processAll(ctx, targets, specs); err != nil {
		logger.WithError(err).Error("Re-run failed")
	}
}

func loadSpecs() ([]config.StepSpec, error) {
	if runPipelinePath == "" {
		return cfg.Pipeline, nil
	}
	return config.LoadPipeline(runPipelinePath)
}

func processAll(ctx context.Context, inputs []string, specs []config.StepSpec) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(runJobs, 1))

	for i, input := range inputs {
		g.Go(func() error {
			return processFile(gctx, input, outputName(runOutDir, input, i), specs)
		})
	}
	return g.Wait()
}

// processFile runs the pipeline over one input in its own session.
func processFile(ctx context.Context, input, out string, specs []config.StepSpec) error {
	fileCfg := *cfg
	fileCfg.Pipeline = specs

	session, err := core.NewSession(&fileCfg, logger)
	if err != nil {
		return err
	}

	name := io.SourceName(input)
	buf, err := loader.Open(input)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := session.LoadImage(buf, name); err != nil {
		return err
	}
	if err := session.RunPipeline(ctx); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	if err := exportTo(session, out); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	logger.WithFields(logrus.Fields{
		"input":  name,
		"output": out,
		"steps":  session.Pipeline().Len(),
	}).Info("Pipeline applied")
	return nil
}

// outputName names the result for the input at position index.
func outputName(dir, input string, index int) string {
	if io.IsDataURL(input) {
		return filepath.Join(dir, fmt.Sprintf("input%d_processed.png", index+1))
	}
	base := filepath.Base(input)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+"_processed.png")
}

func containsPath(paths []string, target string) bool {
	if target == "" {
		return false
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return false
	}
	for _, p := range paths {
		if p == abs {
			return true
		}
	}
	return false
}
