package gui

import (
	"fmt"
	"runtime"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// EnableDebug adds the Debug menu.
func (mh *MenuHandler) EnableDebug() {
	mh.debug = true
}

func (mh *MenuHandler) debugMenu() *fyne.Menu {
	return fyne.NewMenu("Debug",
		fyne.NewMenuItem("Pipeline Stats", mh.showPipelineStats),
		fyne.NewMenuItem("Memory", mh.showMemory),
	)
}

func (mh *MenuHandler) showPipelineStats() {
	summary := mh.session.Debugger().Summary()
	mh.logger.WithField("summary", summary).Debug("Pipeline stats requested")

	text := widget.NewLabel(summary)
	text.TextStyle = fyne.TextStyle{Monospace: true}

	d := dialog.NewCustom("Pipeline Stats", "Close", container.NewVScroll(text), mh.window)
	d.Resize(fyne.NewSize(460, 360))
	d.Show()
}

func (mh *MenuHandler) showMemory() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	dialog.ShowInformation("Memory", memorySummary(m), mh.window)
}

func memorySummary(m runtime.MemStats) string {
	return fmt.Sprintf("Heap in use: %.1f MB\nTotal allocated: %.1f MB\nGC cycles: %d\nGoroutines: %d",
		float64(m.HeapInuse)/(1<<20), float64(m.TotalAlloc)/(1<<20), m.NumGC, runtime.NumGoroutine())
}
