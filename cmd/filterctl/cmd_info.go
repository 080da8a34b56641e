package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"image-filter-sandbox/internal/algorithms"
	"image-filter-sandbox/internal/buffer"
	"image-filter-sandbox/internal/histogram"
	"image-filter-sandbox/internal/io"
)

var histogramOutput string

var histogramCmd = &cobra.Command{
	Use:   "histogram <input|data-url>",
	Short: "Render the red, green and blue histograms of an image",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistogram,
}

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "List available filters",
	Args:  cobra.NoArgs,
	RunE:  runFilters,
}

var kernelsCmd = &cobra.Command{
	Use:   "kernels",
	Short: "List preset convolution kernels",
	Args:  cobra.NoArgs,
	RunE:  runKernels,
}

func init() {
	histogramCmd.Flags().StringVarP(&histogramOutput, "output", "o", "histogram.png", "Output PNG")
}

func runHistogram(cmd *cobra.Command, args []string) error {
	buf, err := loader.Open(args[0])
	if err != nil {
		return err
	}

	h := histogram.Compute(buf)
	img := histogram.Render(h, cfg.Histogram.Width, cfg.Histogram.Height)
	if err := loader.SaveImage(buffer.FromImage(img), histogramOutput); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d pixels, peak bucket %d -> %s\n",
		io.SourceName(args[0]), h.Total(), h.Max(), histogramOutput)
	return nil
}

func runFilters(cmd *cobra.Command, _ []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, group := range []string{"Tone", "Convolution"} {
		for _, name := range algorithms.ByCategory()[group] {
			f, ok := algorithms.Get(name)
			if !ok {
				continue
			}
			params := "-"
			if ps := f.Parameters(); len(ps) > 0 {
				p := ps[0]
				params = fmt.Sprintf("%s %g..%g (default %g)", p.Name, p.Min, p.Max, p.Default)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, group, params, f.Description())
		}
	}
	return w.Flush()
}

func runKernels(cmd *cobra.Command, _ []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, name := range algorithms.KernelNames() {
		k, _ := algorithms.LookupKernel(name)
		fmt.Fprintf(w, "%s\t%s\n", name, k)
	}
	return w.Flush()
}
