// Quality metrics comparing a processed buffer with its original
package metrics

import (
	"errors"
	"fmt"
	"sort"

	"image-filter-sandbox/internal/buffer"
)

var (
	ErrEmptyImage    = errors.New("empty images")
	ErrSizeMismatch  = errors.New("image dimensions mismatch")
	ErrUnknownMetric = errors.New("metric not found")
)

// Metric defines the interface for quality metrics
type Metric interface {
	// Calculate computes the metric value
	Calculate(original, processed *buffer.Buffer) (float64, error)

	GetName() string
	GetDescription() string

	// GetRange returns the practical value range (min, max)
	GetRange() (float64, float64)

	IsHigherBetter() bool
}

// Evaluator manages and calculates multiple metrics
type Evaluator struct {
	metrics map[string]Metric
}

// NewEvaluator creates an evaluator with the default metrics registered
func NewEvaluator() *Evaluator {
	e := &Evaluator{
		metrics: make(map[string]Metric),
	}
	e.RegisterDefaultMetrics()
	return e
}

func (e *Evaluator) RegisterDefaultMetrics() {
	e.Register("mse", NewMSE())
	e.Register("psnr", NewPSNR())
	e.Register("ssim", NewSSIM())
}

func (e *Evaluator) Register(name string, metric Metric) {
	e.metrics[name] = metric
}

// Names returns registered metric names in sorted order.
func (e *Evaluator) Names() []string {
	names := make([]string, 0, len(e.metrics))
	for name := range e.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Calculate calculates a specific metric
func (e *Evaluator) Calculate(name string, original, processed *buffer.Buffer) (float64, error) {
	metric, exists := e.metrics[name]
	if !exists {
		return 0, fmt.Errorf("%w: %s", ErrUnknownMetric, name)
	}
	return metric.Calculate(original, processed)
}

// CalculateAll calculates all registered metrics, skipping failures
func (e *Evaluator) CalculateAll(original, processed *buffer.Buffer) map[string]float64 {
	results := make(map[string]float64, len(e.metrics))
	for name, metric := range e.metrics {
		if value, err := metric.Calculate(original, processed); err == nil {
			results[name] = value
		}
	}
	return results
}

// MetricInfo provides metadata about a metric
type MetricInfo struct {
	Name         string
	Description  string
	Range        [2]float64
	HigherBetter bool
}

func (e *Evaluator) GetMetricInfo() map[string]MetricInfo {
	info := make(map[string]MetricInfo, len(e.metrics))
	for name, metric := range e.metrics {
		lo, hi := metric.GetRange()
		info[name] = MetricInfo{
			Name:         metric.GetName(),
			Description:  metric.GetDescription(),
			Range:        [2]float64{lo, hi},
			HigherBetter: metric.IsHigherBetter(),
		}
	}
	return info
}

func checkPair(original, processed *buffer.Buffer) error {
	if original.Empty() || processed.Empty() {
		return ErrEmptyImage
	}
	if !original.SameSize(processed) {
		return ErrSizeMismatch
	}
	return nil
}
