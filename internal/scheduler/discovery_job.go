package scheduler

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aristath/commodities/internal/pipeline"
	"github.com/aristath/commodities/internal/services"
)

// RunExecutor executes a pipeline run and persists its report
type RunExecutor interface {
	Execute(ctx context.Context, mode pipeline.Mode) (*services.RunResult, error)
}

// DiscoveryJob runs a discovery and persists its report
type DiscoveryJob struct {
	runs RunExecutor
	log  zerolog.Logger
}

// NewDiscoveryJob creates a new DiscoveryJob
func NewDiscoveryJob(runs RunExecutor, log zerolog.Logger) *DiscoveryJob {
	return &DiscoveryJob{
		runs: runs,
		log:  log.With().Str("job", "discovery").Logger(),
	}
}

// Name returns the job name
func (j *DiscoveryJob) Name() string {
	return "discovery"
}

// Run executes one discovery. Failures are returned as-is; nothing is retried.
func (j *DiscoveryJob) Run(ctx context.Context) error {
	result, err := j.runs.Execute(ctx, pipeline.Discovery{})
	if err != nil {
		return err
	}

	rep := result.Envelope.Discovery
	candidates := 0
	if rep != nil {
		candidates = len(rep.Candidates)
	}

	j.log.Info().
		Str("run_id", result.Envelope.ID).
		Int("candidates", candidates).
		Str("path", result.Path).
		Msg("Scheduled discovery finished")
	return nil
}
