/**
 * Package services provides RunService, the single entry point for executing a pipeline run.
 *
 * RunService wraps the orchestrator with everything a finished run needs:
 *   - the report envelope is archived in sqlite
 *   - a JSON copy is written to the output directory
 *   - run outcomes and review recommendations are counted in metrics
 *
 * The CLI, the HTTP API and the scheduler all go through it.
 */
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aristath/commodities/internal/domain"
	"github.com/aristath/commodities/internal/pipeline"
	"github.com/aristath/commodities/internal/reports"
)

// Runner executes one pipeline run
type Runner interface {
	Run(ctx context.Context, mode pipeline.Mode) (pipeline.Report, error)
}

// Store persists finished reports
type Store interface {
	Save(ctx context.Context, env pipeline.Envelope) error
}

// Observer records run outcomes
type Observer interface {
	ObserveRun(mode string, err error)
	ObserveReview(results []domain.ReviewResult)
}

// RunResult is a finished run and where its JSON copy was written
type RunResult struct {
	Envelope pipeline.Envelope `json:"report"`
	Path     string            `json:"path,omitempty"`
}

// ErrRunInProgress is returned when a run of the same mode is already executing
var ErrRunInProgress = errors.New("a run of this mode is already in progress")

/**
 * RunService executes runs and persists their reports.
 *
 * At most one run per mode executes at a time; a second request for the same mode
 * fails fast with ErrRunInProgress instead of queueing.
 */
type RunService struct {
	runner    Runner
	store     Store    // Optional
	observer  Observer // Optional
	outputDir string   // Empty disables JSON files
	log       zerolog.Logger

	mu      sync.Mutex
	running map[string]bool
}

// NewRunService creates a run service. store and observer may be nil.
func NewRunService(runner Runner, store Store, observer Observer, outputDir string, log zerolog.Logger) *RunService {
	return &RunService{
		runner:    runner,
		store:     store,
		observer:  observer,
		outputDir: outputDir,
		log:       log.With().Str("service", "runs").Logger(),
		running:   make(map[string]bool),
	}
}

/**
 * Execute runs the pipeline in the given mode and persists the report.
 *
 * A failed run persists nothing. When the run succeeds but persisting fails, the
 * result is still returned together with the persistence error.
 */
func (s *RunService) Execute(ctx context.Context, mode pipeline.Mode) (*RunResult, error) {
	if mode == nil {
		return nil, fmt.Errorf("%w: mode is required", pipeline.ErrInvalidInput)
	}
	name := mode.Name()
	if !s.acquire(name) {
		return nil, fmt.Errorf("%w: %s", ErrRunInProgress, name)
	}
	defer s.release(name)

	report, err := s.runner.Run(ctx, mode)
	if s.observer != nil {
		s.observer.ObserveRun(name, err)
	}
	if err != nil {
		return nil, err
	}

	if review, ok := report.(*pipeline.ReviewReport); ok && s.observer != nil {
		s.observer.ObserveReview(review.Results)
	}

	result := &RunResult{Envelope: pipeline.NewEnvelope(report)}

	var persistErr error
	if s.store != nil {
		if err := s.store.Save(ctx, result.Envelope); err != nil {
			persistErr = errors.Join(persistErr, err)
		}
	}
	if s.outputDir != "" {
		path, err := reports.WriteJSON(s.outputDir, result.Envelope)
		if err != nil {
			persistErr = errors.Join(persistErr, err)
		}
		result.Path = path
	}

	if persistErr != nil {
		s.log.Error().Err(persistErr).Str("run_id", result.Envelope.ID).Msg("Failed to persist report")
		return result, persistErr
	}

	s.log.Info().
		Str("run_id", result.Envelope.ID).
		Str("mode", name).
		Str("path", result.Path).
		Msg("Report saved")
	return result, nil
}

func (s *RunService) acquire(mode string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[mode] {
		return false
	}
	s.running[mode] = true
	return true
}

func (s *RunService) release(mode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, mode)
}
