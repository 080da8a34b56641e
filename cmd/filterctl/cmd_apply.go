package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"image-filter-sandbox/internal/algorithms"
	"image-filter-sandbox/internal/core"
	"image-filter-sandbox/internal/io"
)

var (
	applyFilter   string
	applyParam    float64
	applyKernel   string
	applyOutput   string
	applyOpacity  float64
	applySplitOut string
	applyPreview  string
	applyAuto     bool
	applyDataURL  bool
)

var applyCmd = &cobra.Command{
	Use:   "apply <input|data-url>",
	Short: "Apply a single filter to an image",
	Long: `Applies one filter to the input image, blends it with the original at the
given opacity and writes the result as PNG. The input may be a file or a
data:image/... URL. Passing --kernel without --filter selects the custom
filter.

Example:
  filterctl apply photo.jpg -f posterize -p 64 -o poster.png
  filterctl apply scan.png -f threshold --auto
  filterctl apply photo.jpg --kernel 0,-1,0,-1,5,-1,0,-1,0
  filterctl apply photo.jpg -f invert --data-url > inverted.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringVarP(&applyFilter, "filter", "f", "", "Filter name (default from config)")
	applyCmd.Flags().Float64VarP(&applyParam, "param", "p", -1, "Filter parameter 0-255 (default from config)")
	applyCmd.Flags().StringVar(&applyKernel, "kernel", "", "Custom 3×3 kernel as nine comma separated weights, row by row")
	applyCmd.Flags().StringVarP(&applyOutput, "output", "o", "", "Output PNG (default from config)")
	applyCmd.Flags().Float64Var(&applyOpacity, "opacity", -1, "Blend opacity in percent (default from config)")
	applyCmd.Flags().BoolVar(&applyAuto, "auto", false, "Pick the parameter from the image with Otsu's method")
	applyCmd.Flags().StringVar(&applySplitOut, "split-out", "", "Also write the split comparison view to this PNG")
	applyCmd.Flags().BoolVar(&applyDataURL, "data-url", false, "Print the result as a data:image/png URL instead of writing a file")
	applyCmd.Flags().StringVar(&applyPreview, "preview", "", "Also write a downscaled copy of the result to this PNG (bounded by preview.max_dimension)")
}

func runApply(cmd *cobra.Command, args []string) error {
	sel := core.Selection{
		Filter: cfg.Defaults.Filter,
		Param:  cfg.Defaults.Param,
	}
	switch {
	case applyFilter != "":
		sel.Filter = applyFilter
	case applyKernel != "":
		sel.Filter = "custom"
	}
	if !algorithms.IsValid(sel.Filter) {
		return fmt.Errorf("%w: %s", core.ErrUnknownFilter, sel.Filter)
	}
	if applyParam >= 0 {
		sel.Param = applyParam
	}
	if applyKernel != "" {
		if sel.Filter != "custom" {
			return fmt.Errorf("--kernel needs the custom filter, got %q", sel.Filter)
		}
		sel.Kernel = parseKernelFlag(applyKernel)
	}

	session, err := core.NewSession(cfg, logger)
	if err != nil {
		return err
	}
	session.SetSelection(sel)
	if applyOpacity >= 0 {
		// no image yet, so this only records the value
		if err := session.SetOpacity(applyOpacity); err != nil {
			return err
		}
	}

	input := args[0]
	buf, err := loader.Open(input)
	if err != nil {
		return err
	}
	name := io.SourceName(input)
	if applyAuto {
		sel.Param = algorithms.OtsuLevel(buf)
		session.SetSelection(sel)
		logger.WithField("param", sel.Param).Info("Parameter chosen by Otsu")
	}
	if err := session.LoadImage(buf, name); err != nil {
		return err
	}

	out := applyOutput
	if applyDataURL {
		var png bytes.Buffer
		if err := session.Export(&png, loader); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), io.EncodeDataURL("image/png", png.Bytes()))
		out = "stdout"
	} else {
		if out == "" {
			out = cfg.Output.Path
		}
		if err := exportTo(session, out); err != nil {
			return err
		}
	}

	if applySplitOut != "" {
		if err := loader.SaveImage(session.Frame().Compare, applySplitOut); err != nil {
			return err
		}
	}

	if applyPreview != "" {
		preview := io.Preview(session.Frame().Blended, cfg.Preview.MaxDimension)
		if err := loader.SaveImage(preview, applyPreview); err != nil {
			return err
		}
	}

	logger.WithFields(logrus.Fields{
		"input":  name,
		"output": out,
		"step":   sel.Step().Label,
	}).Info("Filter applied")
	return nil
}

// parseKernelFlag reads "a,b,c,..." row by row; missing or malformed
// weights are zero.
func parseKernelFlag(value string) *algorithms.Kernel {
	cells := strings.Split(value, ",")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return algorithms.ParseKernel(cells)
}

// exportTo writes the blended PNG to path. A failed export leaves no file.
func exportTo(session *core.Session, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := session.Export(f, loader); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}
