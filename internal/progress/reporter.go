// Package progress provides progress reporting for pipeline runs.
package progress

import (
	"time"

	"github.com/rs/zerolog"
)

// Reporter receives the lifecycle events of a single run.
// Implementations must be safe for concurrent use: stages report in parallel.
type Reporter interface {
	// StepStarted marks the start of a state or stage; total is the item count or 0
	StepStarted(step string, total int)

	// StepCompleted marks a successful step with a short summary
	StepCompleted(step string, elapsed time.Duration, summary string)

	// StepFailed marks a step that aborted the run
	StepFailed(step string, err error)

	// ItemCompleted reports per-item progress inside a fan-out stage
	ItemCompleted(step string, current, total int, itemID string)
}

// ItemCallback adapts a reporter to a per-item progress callback for one step.
// A nil Reporter yields a nil callback.
func ItemCallback(r Reporter, step string) func(current, total int, itemID string) {
	if r == nil {
		return nil
	}
	return func(current, total int, itemID string) {
		r.ItemCompleted(step, current, total, itemID)
	}
}

// Nop discards every event
type Nop struct{}

func (Nop) StepStarted(string, int) {}
func (Nop) StepCompleted(string, time.Duration, string) {}
func (Nop) StepFailed(string, error) {}
func (Nop) ItemCompleted(string, int, int, string) {}

// Multi forwards every event to each reporter in order
type Multi []Reporter

func (m Multi) StepStarted(step string, total int) {
	for _, r := range m {
		r.StepStarted(step, total)
	}
}

func (m Multi) StepCompleted(step string, elapsed time.Duration, summary string) {
	for _, r := range m {
		r.StepCompleted(step, elapsed, summary)
	}
}

func (m Multi) StepFailed(step string, err error) {
	for _, r := range m {
		r.StepFailed(step, err)
	}
}

func (m Multi) ItemCompleted(step string, current, total int, itemID string) {
	for _, r := range m {
		r.ItemCompleted(step, current, total, itemID)
	}
}

// LogReporter writes events as structured log lines
type LogReporter struct {
	log zerolog.Logger
}

// NewLogReporter creates a reporter tagged with the run id
func NewLogReporter(log zerolog.Logger, runID string) *LogReporter {
	return &LogReporter{
		log: log.With().Str("component", "pipeline").Str("run_id", runID).Logger(),
	}
}

func (r *LogReporter) StepStarted(step string, total int) {
	ev := r.log.Info().Str("step", step)
	if total > 0 {
		ev = ev.Int("items", total)
	}
	ev.Msg("Step started")
}

func (r *LogReporter) StepCompleted(step string, elapsed time.Duration, summary string) {
	r.log.Info().
		Str("step", step).
		Dur("elapsed", elapsed).
		Str("summary", summary).
		Msg("Step completed")
}

func (r *LogReporter) StepFailed(step string, err error) {
	r.log.Error().Err(err).Str("step", step).Msg("Step failed")
}

func (r *LogReporter) ItemCompleted(step string, current, total int, itemID string) {
	r.log.Debug().
		Str("step", step).
		Str("item", itemID).
		Int("current", current).
		Int("total", total).
		Msg("Item completed")
}
