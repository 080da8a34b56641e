// internal/core/pipeline.go
// Ordered, editable list of filter steps run from the original image
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"image-filter-sandbox/internal/algorithms"
	"image-filter-sandbox/internal/buffer"
	"image-filter-sandbox/internal/config"
)

var (
	ErrUnknownFilter = errors.New("unknown filter")
	ErrStepIndex     = errors.New("step index out of range")
)

// Step is one entry of the pipeline
type Step struct {
	ID      string
	Type    string
	Options algorithms.Options
	Label   string
}

// NewStep builds a step the way the filter controls describe it: the custom
// filter takes the given kernel, preset kernels take their own weights and
// tone filters take no kernel at all.
func NewStep(filterType string, param float64, custom *algorithms.Kernel) Step {
	opts := algorithms.Options{Param: param}
	switch {
	case filterType == "custom":
		if custom == nil {
			custom = algorithms.IdentityKernel()
		}
		opts.Kernel = custom.Clone()
	default:
		if k, ok := algorithms.LookupKernel(filterType); ok {
			opts.Kernel = k
		}
	}

	return Step{
		ID:      uuid.NewString(),
		Type:    filterType,
		Options: opts,
		Label:   algorithms.Label(filterType, opts),
	}
}

// StepFromSpec converts a serialised step. An explicit kernel overrides the
// preset weights.
func StepFromSpec(spec config.StepSpec) (Step, error) {
	var custom *algorithms.Kernel
	if len(spec.Kernel) > 0 {
		k, err := algorithms.NewKernel(spec.Kernel)
		if err != nil {
			return Step{}, fmt.Errorf("step %q: %w", spec.Type, err)
		}
		custom = k
	}

	step := NewStep(spec.Type, spec.Param, custom)
	if custom != nil && spec.Type != "custom" {
		step.Options.Kernel = custom
	}
	return step, nil
}

// Spec converts the step back to its serialised form. The kernel is
// written unless it matches the preset for the step's type.
func (s Step) Spec() config.StepSpec {
	spec := config.StepSpec{Type: s.Type, Param: s.Options.Param}
	if s.Options.Kernel == nil {
		return spec
	}
	if preset, ok := algorithms.LookupKernel(s.Type); ok && preset.Equal(s.Options.Kernel) {
		return spec
	}
	spec.Kernel = s.Options.Kernel.Clone().Values
	return spec
}

// Apply runs the step on src.
func (s Step) Apply(src *buffer.Buffer) *buffer.Buffer {
	return algorithms.Apply(s.Type, src, s.Options)
}

// Pipeline is an ordered, reorderable list of steps. It holds no image
// state: every Run starts from the buffer it is given.
type Pipeline struct {
	mu     sync.RWMutex
	steps  []Step
	logger logrus.FieldLogger
}

func NewPipeline(logger logrus.FieldLogger) *Pipeline {
	return &Pipeline{
		steps:  make([]Step, 0),
		logger: logger,
	}
}

// Add appends a step after checking that its filter exists.
func (p *Pipeline) Add(step Step) error {
	if !algorithms.IsValid(step.Type) {
		p.logger.WithField("filter", step.Type).Error("PIPELINE: Invalid filter")
		return fmt.Errorf("%w: %s", ErrUnknownFilter, step.Type)
	}

	p.mu.Lock()
	p.steps = append(p.steps, step)
	count := len(p.steps)
	p.mu.Unlock()

	p.logger.WithFields(logrus.Fields{
		"step_id": step.ID,
		"filter":  step.Type,
		"count":   count,
	}).Info("PIPELINE: Step added")
	return nil
}

// Remove deletes the step at index.
func (p *Pipeline) Remove(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if index < 0 || index >= len(p.steps) {
		return fmt.Errorf("%w: %d", ErrStepIndex, index)
	}
	removed := p.steps[index]
	p.steps = append(p.steps[:index], p.steps[index+1:]...)

	p.logger.WithFields(logrus.Fields{"step_id": removed.ID, "index": index}).Info("PIPELINE: Step removed")
	return nil
}

// Move swaps the step at index with its neighbour index+delta. A target
// outside the list leaves the order unchanged and reports false.
func (p *Pipeline) Move(index, delta int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	target := index + delta
	if index < 0 || index >= len(p.steps) || target < 0 || target >= len(p.steps) {
		return false
	}
	p.steps[index], p.steps[target] = p.steps[target], p.steps[index]

	p.logger.WithFields(logrus.Fields{"from": index, "to": target}).Debug("PIPELINE: Step moved")
	return true
}

// MoveByID moves the step with the given ID like Move. Unknown IDs report
// false.
func (p *Pipeline) MoveByID(id string, delta int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	index := p.indexLocked(id)
	target := index + delta
	if index < 0 || target < 0 || target >= len(p.steps) {
		return false
	}
	p.steps[index], p.steps[target] = p.steps[target], p.steps[index]

	p.logger.WithFields(logrus.Fields{"step_id": id, "from": index, "to": target}).Debug("PIPELINE: Step moved")
	return true
}

// RemoveByID deletes the step with the given ID.
func (p *Pipeline) RemoveByID(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	index := p.indexLocked(id)
	if index < 0 {
		return fmt.Errorf("%w: no step %s", ErrStepIndex, id)
	}
	p.steps = append(p.steps[:index], p.steps[index+1:]...)

	p.logger.WithFields(logrus.Fields{"step_id": id, "index": index}).Info("PIPELINE: Step removed")
	return nil
}

func (p *Pipeline) indexLocked(id string) int {
	for i, step := range p.steps {
		if step.ID == id {
			return i
		}
	}
	return -1
}

// Clear removes every step
func (p *Pipeline) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.logger.WithField("previous_step_count", len(p.steps)).Info("PIPELINE: Clearing all steps")
	p.steps = make([]Step, 0)
}

// Steps returns a copy of the steps in order
func (p *Pipeline) Steps() []Step {
	p.mu.RLock()
	defer p.mu.RUnlock()

	steps := make([]Step, len(p.steps))
	copy(steps, p.steps)
	return steps
}

// Step returns the step at index.
func (p *Pipeline) Step(index int) (Step, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if index < 0 || index >= len(p.steps) {
		return Step{}, fmt.Errorf("%w: %d", ErrStepIndex, index)
	}
	return p.steps[index], nil
}

func (p *Pipeline) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.steps)
}

// Run applies every step to a copy of src, each step consuming the previous
// step's output. The context is checked between steps.
func (p *Pipeline) Run(ctx context.Context, src *buffer.Buffer) (*buffer.Buffer, error) {
	steps := p.Steps()
	p.logger.WithField("step_count", len(steps)).Debug("PIPELINE: Processing sequential steps")

	current := src.Clone()
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			p.logger.WithField("step", i).Debug("PIPELINE: Sequential processing cancelled")
			return nil, err
		}

		start := time.Now()
		current = step.Apply(current)
		p.logger.WithFields(logrus.Fields{
			"step":        i,
			"filter":      step.Type,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("PIPELINE: Step completed")
	}

	return current, nil
}

// Specs serialises the steps.
func (p *Pipeline) Specs() []config.StepSpec {
	steps := p.Steps()
	specs := make([]config.StepSpec, len(steps))
	for i, step := range steps {
		specs[i] = step.Spec()
	}
	return specs
}

// LoadSpecs replaces the pipeline with the given steps. Nothing changes if
// any spec is invalid.
func (p *Pipeline) LoadSpecs(specs []config.StepSpec) error {
	steps := make([]Step, 0, len(specs))
	for i, spec := range specs {
		step, err := StepFromSpec(spec)
		if err != nil {
			return fmt.Errorf("pipeline[%d]: %w", i, err)
		}
		if !algorithms.IsValid(step.Type) {
			return fmt.Errorf("pipeline[%d]: %w: %s", i, ErrUnknownFilter, step.Type)
		}
		steps = append(steps, step)
	}

	p.mu.Lock()
	p.steps = steps
	p.mu.Unlock()

	p.logger.WithField("step_count", len(steps)).Info("PIPELINE: Steps loaded")
	return nil
}
