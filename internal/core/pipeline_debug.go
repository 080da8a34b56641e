// internal/core/pipeline_debug.go
// Session operation tracking and timing for debug mode
package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const maxTrackedOperations = 200

// PipelineDebugger records session operations. A nil debugger ignores
// every call.
type PipelineDebugger struct {
	mu     sync.Mutex
	logger logrus.FieldLogger

	operations []PipelineOperation
	durations  map[string][]time.Duration
}

// PipelineOperation tracks one session operation
type PipelineOperation struct {
	Timestamp time.Time
	Operation string // "load", "apply", "run", "blend", "compose"
	Success   bool
	Duration  time.Duration
	Error     string
}

// DebugStats summarises the recorded operations.
type DebugStats struct {
	TotalOperations int
	SuccessRate     float64
	AvgDuration     map[string]time.Duration
}

func NewPipelineDebugger(logger logrus.FieldLogger) *PipelineDebugger {
	return &PipelineDebugger{
		logger:     logger,
		operations: make([]PipelineOperation, 0),
		durations:  make(map[string][]time.Duration),
	}
}

// LogOperation records an operation that started at start.
func (pd *PipelineDebugger) LogOperation(operation string, start time.Time, err error) {
	if pd == nil {
		return
	}

	op := PipelineOperation{
		Timestamp: start,
		Operation: operation,
		Success:   err == nil,
		Duration:  time.Since(start),
	}
	if err != nil {
		op.Error = err.Error()
	}

	pd.mu.Lock()
	pd.operations = append(pd.operations, op)
	if len(pd.operations) > maxTrackedOperations {
		pd.operations = pd.operations[len(pd.operations)-maxTrackedOperations:]
	}
	pd.durations[operation] = append(pd.durations[operation], op.Duration)
	pd.mu.Unlock()

	entry := pd.logger.WithFields(logrus.Fields{
		"operation":   operation,
		"success":     op.Success,
		"duration_ms": op.Duration.Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Error("PIPELINE Debug")
		return
	}
	entry.Debug("PIPELINE Debug")
}

// Recent returns up to n of the latest operations, oldest first.
func (pd *PipelineDebugger) Recent(n int) []PipelineOperation {
	if pd == nil {
		return nil
	}
	pd.mu.Lock()
	defer pd.mu.Unlock()

	if n > len(pd.operations) {
		n = len(pd.operations)
	}
	out := make([]PipelineOperation, n)
	copy(out, pd.operations[len(pd.operations)-n:])
	return out
}

func (pd *PipelineDebugger) Stats() DebugStats {
	stats := DebugStats{AvgDuration: make(map[string]time.Duration)}
	if pd == nil {
		return stats
	}
	pd.mu.Lock()
	defer pd.mu.Unlock()

	stats.TotalOperations = len(pd.operations)
	successCount := 0
	for _, op := range pd.operations {
		if op.Success {
			successCount++
		}
	}
	if len(pd.operations) > 0 {
		stats.SuccessRate = float64(successCount) / float64(len(pd.operations))
	}
	for name, ds := range pd.durations {
		stats.AvgDuration[name] = averageDuration(ds)
	}
	return stats
}

// Summary renders the stats and recent operations as text.
func (pd *PipelineDebugger) Summary() string {
	stats := pd.Stats()

	var b strings.Builder
	fmt.Fprintf(&b, "Total Operations: %d\n", stats.TotalOperations)
	fmt.Fprintf(&b, "Success Rate: %.0f%%\n", stats.SuccessRate*100)

	names := make([]string, 0, len(stats.AvgDuration))
	for name := range stats.AvgDuration {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "Average %s: %v\n", name, stats.AvgDuration[name])
	}

	b.WriteString("\nRecent Operations:\n")
	for _, op := range pd.Recent(5) {
		status := "SUCCESS"
		if !op.Success {
			status = "FAILED"
		}
		fmt.Fprintf(&b, "  [%s] %s - %s (%v)\n",
			op.Timestamp.Format("15:04:05.000"), op.Operation, status, op.Duration)
	}
	return b.String()
}

func averageDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return total / time.Duration(len(durations))
}
