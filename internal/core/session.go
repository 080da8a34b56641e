package core

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"image-filter-sandbox/internal/algorithms"
	"image-filter-sandbox/internal/buffer"
	"image-filter-sandbox/internal/compose"
	"image-filter-sandbox/internal/config"
	"image-filter-sandbox/internal/histogram"
	"image-filter-sandbox/internal/metrics"
)

// Selection is the step currently described by the filter controls.
type Selection struct {
	Filter string
	Param  float64
	// Kernel is the custom kernel grid, used when Filter is "custom".
	Kernel *algorithms.Kernel
}

// Step converts the selection into a pipeline step.
func (sel Selection) Step() Step {
	return NewStep(sel.Filter, sel.Param, sel.Kernel)
}

// Frame is everything a front end needs to draw after a change.
type Frame struct {
	Original      *buffer.Buffer
	Processed     *buffer.Buffer
	Blended       *buffer.Buffer
	Compare       *buffer.Buffer
	OriginalHist  histogram.Histogram
	ProcessedHist histogram.Histogram
	Metrics       map[string]float64
	Opacity       float64
	Split         float64
}

// Encoder turns a buffer into PNG bytes.
type Encoder interface {
	EncodePNG(buf *buffer.Buffer) ([]byte, error)
}

// Session owns the current image, the pipeline and the slider state. Every
// operation runs to completion under the session lock; with no image loaded
// operations that would recompute are no-ops.
type Session struct {
	mu        sync.Mutex
	image     *ImageData
	pipeline  *Pipeline
	evaluator *metrics.Evaluator
	logger    logrus.FieldLogger

	selection Selection
	opacity   float64 // percent
	split     float64 // percent
	compare   *buffer.Buffer
	scores    map[string]float64

	onRender func(Frame)
	onError  func(error)

	debugger *PipelineDebugger
}

// NewSession creates a session seeded from the config defaults and its
// saved pipeline.
func NewSession(cfg *config.Config, logger logrus.FieldLogger) (*Session, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	s := &Session{
		image:     NewImageData(),
		pipeline:  NewPipeline(logger),
		evaluator: metrics.NewEvaluator(),
		logger:    logger,
		selection: Selection{
			Filter: cfg.Defaults.Filter,
			Param:  cfg.Defaults.Param,
			Kernel: algorithms.DefaultKernel(),
		},
		opacity: buffer.ClampFloat(cfg.Defaults.Opacity, 0, 100),
		split:   buffer.ClampFloat(cfg.Defaults.Split, 0, 100),
	}

	if err := s.pipeline.LoadSpecs(cfg.Pipeline); err != nil {
		return nil, fmt.Errorf("load pipeline: %w", err)
	}
	return s, nil
}

// SetCallbacks sets render and error callbacks. They run after the session
// lock is released.
func (s *Session) SetCallbacks(onRender func(Frame), onError func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRender = onRender
	s.onError = onError
}

// SetDebugger enables operation timing; nil disables it.
func (s *Session) SetDebugger(d *PipelineDebugger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debugger = d
}

func (s *Session) Debugger() *PipelineDebugger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debugger
}

func (s *Session) Pipeline() *Pipeline {
	return s.pipeline
}

func (s *Session) Image() *ImageData {
	return s.image
}

// LoadImage replaces the original image and applies the selected filter.
func (s *Session) LoadImage(buf *buffer.Buffer, source string) error {
	start := time.Now()
	s.mu.Lock()
	if err := s.image.SetOriginal(buf, source); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("load image: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"source": source,
		"width":  buf.Width,
		"height": buf.Height,
	}).Info("Image loaded")

	frame, err := s.applySelectedLocked()
	s.debugger.LogOperation("load", start, err)
	s.mu.Unlock()
	return s.emit(frame, err)
}

// Selection returns the current filter controls.
func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// SetSelection updates the filter controls without recomputing.
func (s *Session) SetSelection(sel Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sel.Kernel == nil {
		sel.Kernel = s.selection.Kernel
	}
	s.selection = sel
}

// ApplySelected replaces the processed image with the selected filter run
// over the original.
func (s *Session) ApplySelected() error {
	start := time.Now()
	s.mu.Lock()
	frame, err := s.applySelectedLocked()
	s.debugger.LogOperation("apply", start, err)
	s.mu.Unlock()
	return s.emit(frame, err)
}

// AddSelected appends the selected step to the pipeline.
func (s *Session) AddSelected() (Step, error) {
	s.mu.Lock()
	step := s.selection.Step()
	s.mu.Unlock()

	if err := s.pipeline.Add(step); err != nil {
		return Step{}, err
	}
	return step, nil
}

// RunPipeline recomputes from the original. An empty pipeline falls back to
// the selected filter.
func (s *Session) RunPipeline(ctx context.Context) error {
	start := time.Now()
	s.mu.Lock()
	frame, err := s.runLocked(ctx)
	s.debugger.LogOperation("run", start, err)
	s.mu.Unlock()
	return s.emit(frame, err)
}

// MoveStep reorders the pipeline and re-runs it. Moving past either end
// does nothing.
func (s *Session) MoveStep(index, delta int) error {
	if !s.pipeline.Move(index, delta) {
		return nil
	}
	return s.RunPipeline(context.Background())
}

// MoveStepID is MoveStep addressed by step ID, for callers whose index may
// be stale by the time they run.
func (s *Session) MoveStepID(id string, delta int) error {
	if !s.pipeline.MoveByID(id, delta) {
		return nil
	}
	return s.RunPipeline(context.Background())
}

// RemoveStepID is RemoveStep addressed by step ID.
func (s *Session) RemoveStepID(id string) error {
	if err := s.pipeline.RemoveByID(id); err != nil {
		return err
	}
	return s.RunPipeline(context.Background())
}

// RemoveStep deletes a step and re-runs the pipeline.
func (s *Session) RemoveStep(index int) error {
	if err := s.pipeline.Remove(index); err != nil {
		return err
	}
	return s.RunPipeline(context.Background())
}

// ClearPipeline empties the pipeline and re-runs, which applies the
// selected filter.
func (s *Session) ClearPipeline() error {
	s.pipeline.Clear()
	return s.RunPipeline(context.Background())
}

// LoadStep copies a pipeline step into the filter controls.
func (s *Session) LoadStep(index int) (Selection, error) {
	step, err := s.pipeline.Step(index)
	if err != nil {
		return Selection{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sel := Selection{Filter: step.Type, Param: step.Options.Param, Kernel: s.selection.Kernel}
	if step.Options.Kernel != nil {
		sel.Kernel = step.Options.Kernel.Clone()
	}
	s.selection = sel
	return sel, nil
}

// SetOpacity sets the blend opacity in percent and re-blends.
func (s *Session) SetOpacity(percent float64) error {
	start := time.Now()
	s.mu.Lock()
	s.opacity = buffer.ClampFloat(percent, 0, 100)
	frame, err := s.renderLocked()
	s.debugger.LogOperation("blend", start, err)
	s.mu.Unlock()
	return s.emit(frame, err)
}

// SetSplit moves the comparison boundary (percent of the width) and
// recomposes only the comparison view.
func (s *Session) SetSplit(percent float64) error {
	start := time.Now()
	s.mu.Lock()
	s.split = buffer.ClampFloat(percent, 0, 100)
	var frame *Frame
	err := s.composeLocked()
	if err == nil && s.image.HasImage() {
		f := s.frameLocked()
		frame = &f
	}
	s.debugger.LogOperation("compose", start, err)
	s.mu.Unlock()
	return s.emit(frame, err)
}

func (s *Session) Opacity() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opacity
}

func (s *Session) Split() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.split
}

// Frame returns the current state. The zero Frame is returned when no image
// is loaded.
func (s *Session) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.image.HasImage() {
		return Frame{}
	}
	return s.frameLocked()
}

// Export writes the blended image as PNG.
func (s *Session) Export(w io.Writer, enc Encoder) error {
	blended := s.image.Blended()
	if blended == nil {
		return ErrNoImage
	}

	data, err := enc.EncodePNG(blended)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

func (s *Session) applySelectedLocked() (*Frame, error) {
	if !s.image.HasImage() {
		s.logger.Debug("No image available, skipping filter")
		return nil, nil
	}

	step := s.selection.Step()
	processed := step.Apply(s.image.Original())
	if err := s.image.SetProcessed(processed); err != nil {
		return nil, err
	}
	s.logger.WithField("filter", step.Type).Debug("Selected filter applied")
	return s.renderLocked()
}

func (s *Session) runLocked(ctx context.Context) (*Frame, error) {
	if !s.image.HasImage() {
		return nil, nil
	}
	if s.pipeline.Len() == 0 {
		return s.applySelectedLocked()
	}

	processed, err := s.pipeline.Run(ctx, s.image.Original())
	if err != nil {
		return nil, fmt.Errorf("run pipeline: %w", err)
	}
	if err := s.image.SetProcessed(processed); err != nil {
		return nil, err
	}
	return s.renderLocked()
}

// renderLocked blends, recomposes and refreshes histograms and metrics.
func (s *Session) renderLocked() (*Frame, error) {
	if !s.image.HasImage() {
		return nil, nil
	}

	original := s.image.Original()
	blended, err := compose.Blend(original, s.image.Processed(), s.opacity/100)
	if err != nil {
		return nil, err
	}
	if err := s.image.SetBlended(blended); err != nil {
		return nil, err
	}
	if err := s.composeLocked(); err != nil {
		return nil, err
	}

	s.scores = s.evaluator.CalculateAll(original, blended)
	frame := s.frameLocked()
	return &frame, nil
}

func (s *Session) composeLocked() error {
	if !s.image.HasImage() {
		return nil
	}
	cmp, err := compose.Compare(s.image.Original(), s.image.Blended(), s.split/100)
	if err != nil {
		return err
	}
	s.compare = cmp
	return nil
}

func (s *Session) frameLocked() Frame {
	scores := make(map[string]float64, len(s.scores))
	for k, v := range s.scores {
		scores[k] = v
	}
	original := s.image.Original()
	blended := s.image.Blended()
	return Frame{
		Original:      original,
		Processed:     s.image.Processed(),
		Blended:       blended,
		Compare:       s.compare,
		OriginalHist:  histogram.Compute(original),
		ProcessedHist: histogram.Compute(blended),
		Metrics:       scores,
		Opacity:       s.opacity,
		Split:         s.split,
	}
}

// emit delivers the frame or the error to the registered callbacks.
func (s *Session) emit(frame *Frame, err error) error {
	s.mu.Lock()
	onRender, onError := s.onRender, s.onError
	s.mu.Unlock()

	if err != nil {
		s.logger.WithError(err).Error("Processing failed")
		if onError != nil {
			onError(err)
		}
		return err
	}
	if frame != nil && onRender != nil {
		onRender(*frame)
	}
	return nil
}
