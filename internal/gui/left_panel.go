// internal/gui/left_panel.go
// Left panel: filter controls and the pipeline list
package gui

import (
	"context"
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"image-filter-sandbox/internal/algorithms"
	"image-filter-sandbox/internal/core"
)

type LeftPanel struct {
	session *core.Session
	logger  logrus.FieldLogger

	container *fyne.Container

	// Filter section
	filterSelect *widget.Select
	paramSlider  *widget.Slider
	paramLabel   *widget.Label
	kernelCells  []*widget.Entry

	// Pipeline section
	pipelineList *widget.List
	steps        []core.Step

	// set while controls are updated from a loaded step
	syncing bool

	onAction func(string, func(context.Context) error)
	onError  func(error)
}

func NewLeftPanel(session *core.Session, logger logrus.FieldLogger) *LeftPanel {
	panel := &LeftPanel{
		session: session,
		logger:  logger,
	}

	panel.initializeUI()
	panel.setControls(session.Selection())
	return panel
}

func (lp *LeftPanel) initializeUI() {
	filterCard := widget.NewCard("Filter", "", lp.createFilterSection())
	pipelineCard := widget.NewCard("Pipeline", "", lp.createPipelineSection())

	lp.container = container.NewBorder(filterCard, nil, nil, nil, pipelineCard)
}

func (lp *LeftPanel) createFilterSection() fyne.CanvasObject {
	lp.filterSelect = widget.NewSelect(filterOptions(), func(string) {
		lp.pushSelection()
	})

	lp.paramSlider = widget.NewSlider(0, 255)
	lp.paramSlider.Step = 1
	lp.paramLabel = widget.NewLabel("")
	lp.paramSlider.OnChanged = func(value float64) {
		lp.paramLabel.SetText(formatParam(value))
		lp.pushSelection()
	}

	grid := container.NewGridWithColumns(3)
	lp.kernelCells = make([]*widget.Entry, 9)
	for i := range lp.kernelCells {
		entry := widget.NewEntry()
		entry.OnChanged = func(string) { lp.pushSelection() }
		lp.kernelCells[i] = entry
		grid.Add(entry)
	}

	applyBtn := widget.NewButtonWithIcon("Apply", theme.ConfirmIcon(), func() {
		lp.run("Filter applied", func(context.Context) error {
			return lp.session.ApplySelected()
		})
	})
	applyBtn.Importance = widget.HighImportance

	addBtn := widget.NewButtonWithIcon("Add to pipeline", theme.ContentAddIcon(), func() {
		if _, err := lp.session.AddSelected(); err != nil {
			lp.reportError(err)
			return
		}
		lp.refreshPipeline()
	})

	runBtn := widget.NewButtonWithIcon("Run pipeline", theme.MediaPlayIcon(), func() {
		lp.run("Pipeline run", lp.session.RunPipeline)
	})

	clearBtn := widget.NewButtonWithIcon("Clear", theme.ContentClearIcon(), func() {
		lp.run("Pipeline cleared", func(context.Context) error {
			defer fyne.Do(lp.refreshPipeline)
			return lp.session.ClearPipeline()
		})
	})

	autoBtn := widget.NewButton("Auto", lp.autoParam)

	return container.NewVBox(
		lp.filterSelect,
		container.NewBorder(nil, nil, widget.NewLabel("Parameter"), container.NewHBox(lp.paramLabel, autoBtn), lp.paramSlider),
		widget.NewLabel("Kernel"),
		grid,
		container.NewGridWithColumns(2, applyBtn, addBtn, runBtn, clearBtn),
	)
}

func (lp *LeftPanel) createPipelineSection() fyne.CanvasObject {
	lp.pipelineList = widget.NewList(
		func() int {
			return len(lp.steps)
		},
		func() fyne.CanvasObject {
			up := widget.NewButtonWithIcon("", theme.MoveUpIcon(), nil)
			down := widget.NewButtonWithIcon("", theme.MoveDownIcon(), nil)
			del := widget.NewButtonWithIcon("", theme.DeleteIcon(), nil)
			del.Importance = widget.DangerImportance
			return container.NewBorder(nil, nil, nil, container.NewHBox(up, down, del), widget.NewLabel(""))
		},
		func(id widget.ListItemID, item fyne.CanvasObject) {
			if id >= len(lp.steps) {
				return
			}
			row := item.(*fyne.Container)
			row.Objects[0].(*widget.Label).SetText(stepTitle(id, lp.steps[id]))

			actions := row.Objects[1].(*fyne.Container)
			up := actions.Objects[0].(*widget.Button)
			down := actions.Objects[1].(*widget.Button)
			del := actions.Objects[2].(*widget.Button)

			setEnabled(up, id > 0)
			setEnabled(down, id < len(lp.steps)-1)

			// rows are recycled and actions run later, so address the step by ID
			stepID := lp.steps[id].ID
			up.OnTapped = func() { lp.moveStep(stepID, -1) }
			down.OnTapped = func() { lp.moveStep(stepID, 1) }
			del.OnTapped = func() { lp.removeStep(stepID) }
		},
	)

	lp.pipelineList.OnSelected = func(id widget.ListItemID) {
		lp.pipelineList.UnselectAll()
		sel, err := lp.session.LoadStep(id)
		if err != nil {
			lp.reportError(err)
			return
		}
		lp.setControls(sel)
	}

	return lp.pipelineList
}

func (lp *LeftPanel) moveStep(id string, delta int) {
	lp.run("Step moved", func(context.Context) error {
		defer fyne.Do(lp.refreshPipeline)
		return lp.session.MoveStepID(id, delta)
	})
}

func (lp *LeftPanel) removeStep(id string) {
	lp.run("Step removed", func(context.Context) error {
		defer fyne.Do(lp.refreshPipeline)
		return lp.session.RemoveStepID(id)
	})
}

// autoParam sets the parameter to the Otsu level of the original image.
func (lp *LeftPanel) autoParam() {
	original := lp.session.Image().Original()
	if original == nil {
		return
	}
	lp.paramSlider.SetValue(algorithms.OtsuLevel(original))
}

func (lp *LeftPanel) refreshPipeline() {
	lp.steps = lp.session.Pipeline().Steps()
	lp.pipelineList.Refresh()
}

// setControls shows sel without feeding it back to the session.
func (lp *LeftPanel) setControls(sel core.Selection) {
	lp.syncing = true
	defer func() { lp.syncing = false }()

	lp.filterSelect.SetSelected(sel.Filter)
	lp.paramSlider.SetValue(sel.Param)
	lp.paramLabel.SetText(formatParam(sel.Param))
	if sel.Kernel != nil {
		for i, v := range sel.Kernel.Flat() {
			if i < len(lp.kernelCells) {
				lp.kernelCells[i].SetText(strconv.FormatFloat(v, 'g', -1, 64))
			}
		}
	}
}

func (lp *LeftPanel) pushSelection() {
	if lp.syncing || lp.filterSelect == nil || lp.paramSlider == nil || lp.kernelCells == nil {
		return
	}
	lp.session.SetSelection(lp.selection())
}

func (lp *LeftPanel) selection() core.Selection {
	cells := make([]string, len(lp.kernelCells))
	for i, entry := range lp.kernelCells {
		if entry != nil {
			cells[i] = entry.Text
		}
	}
	return core.Selection{
		Filter: lp.filterSelect.Selected,
		Param:  lp.paramSlider.Value,
		Kernel: algorithms.ParseKernel(cells),
	}
}

func (lp *LeftPanel) run(name string, action func(context.Context) error) {
	if lp.onAction != nil {
		lp.onAction(name, action)
		return
	}
	if err := action(context.Background()); err != nil {
		lp.logger.WithError(err).WithField("action", name).Debug("Action failed")
	}
}

func (lp *LeftPanel) reportError(err error) {
	if lp.onError != nil {
		lp.onError(err)
	}
}

func (lp *LeftPanel) SetCallbacks(onAction func(string, func(context.Context) error), onError func(error)) {
	lp.onAction = onAction
	lp.onError = onError
}

func (lp *LeftPanel) GetContainer() fyne.CanvasObject {
	return lp.container
}

// filterOptions lists tone filters first, then the convolutions.
func filterOptions() []string {
	groups := algorithms.ByCategory()
	options := append([]string{}, groups["Tone"]...)
	return append(options, groups["Convolution"]...)
}

func formatParam(value float64) string {
	return fmt.Sprintf("%.0f", value)
}

func stepTitle(index int, step core.Step) string {
	return fmt.Sprintf("%d. %s", index+1, step.Label)
}

func setEnabled(w fyne.Disableable, enabled bool) {
	if enabled {
		w.Enable()
	} else {
		w.Disable()
	}
}
