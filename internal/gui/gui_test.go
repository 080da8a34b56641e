package gui

import (
	"math"
	"runtime"
	"testing"

	"fyne.io/fyne/v2/test"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-filter-sandbox/internal/algorithms"
	"image-filter-sandbox/internal/config"
	"image-filter-sandbox/internal/core"
)

func newTestSession(t *testing.T) *core.Session {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	s, err := core.NewSession(config.DefaultConfig(), logger)
	require.NoError(t, err)
	return s
}

func TestFormatMetric(t *testing.T) {
	scores := map[string]float64{"mse": 12.345, "psnr": math.Inf(1), "ssim": 0.98765}
	assert.Equal(t, "MSE: 12.35", formatMetric("MSE", scores, "mse", "%.2f"))
	assert.Equal(t, "PSNR: ∞", formatMetric("PSNR", scores, "psnr", "%.2f dB"))
	assert.Equal(t, "SSIM: 0.9877", formatMetric("SSIM", scores, "ssim", "%.4f"))
	assert.Equal(t, "SSIM: -", formatMetric("SSIM", nil, "ssim", "%.4f"))
}

func TestFilterOptions(t *testing.T) {
	options := filterOptions()
	assert.Len(t, options, len(algorithms.Names()))
	assert.Equal(t, "threshold", options[0])
	assert.Equal(t, "custom", options[len(options)-1])
}

func TestStepTitle(t *testing.T) {
	step := core.NewStep("threshold", 90, nil)
	assert.Equal(t, "2. Threshold (90)", stepTitle(1, step))
	assert.Equal(t, "128", formatParam(127.6))
	assert.Equal(t, "50%", formatPercent(50))
}

func TestLeftPanelSelection(t *testing.T) {
	test.NewApp()
	s := newTestSession(t)
	lp := NewLeftPanel(s, nil)

	// controls start from the session defaults
	sel := lp.selection()
	assert.Equal(t, "edge", sel.Filter)
	assert.Equal(t, 128.0, sel.Param)
	assert.Equal(t, algorithms.DefaultKernel().Flat(), sel.Kernel.Flat())

	kernel, err := algorithms.NewKernel([][]float64{{0, 0, 0}, {0, 2.5, 0}, {0, 0, 0}})
	require.NoError(t, err)
	lp.setControls(core.Selection{Filter: "custom", Param: 10, Kernel: kernel})
	assert.Equal(t, "edge", s.Selection().Filter, "loading controls does not write back")

	lp.pushSelection()
	got := s.Selection()
	assert.Equal(t, "custom", got.Filter)
	assert.Equal(t, 10.0, got.Param)
	assert.Equal(t, 2.5, got.Kernel.Values[1][1])
}

func TestLeftPanelPipelineList(t *testing.T) {
	test.NewApp()
	s := newTestSession(t)
	lp := NewLeftPanel(s, nil)

	_, err := s.AddSelected()
	require.NoError(t, err)
	lp.refreshPipeline()

	assert.Len(t, lp.steps, 1)
	assert.Equal(t, 1, lp.pipelineList.Length())
}

func TestMemorySummary(t *testing.T) {
	m := runtime.MemStats{HeapInuse: 3 << 20, TotalAlloc: 10 << 20, NumGC: 4}
	out := memorySummary(m)
	assert.Contains(t, out, "Heap in use: 3.0 MB")
	assert.Contains(t, out, "GC cycles: 4")
}
