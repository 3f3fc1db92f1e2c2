package pipeline

import (
	"errors"
	"fmt"
)

// State is a step of the run state machine
type State string

const (
	StateIdle              State = "idle"
	StateSelecting         State = "selecting"
	StateResolving         State = "resolving"
	StateFetchingSnapshot  State = "fetching_snapshot"
	StateAnalyzingParallel State = "analyzing_parallel"
	StateScoring           State = "scoring"
	StateSynthesizing      State = "synthesizing"
	StateDone              State = "done"
	StateFailed            State = "failed"
)

// ErrInvalidInput is returned before any stage runs when the run request is unusable
var ErrInvalidInput = errors.New("invalid pipeline input")

// StateError is a run failure attributed to the state it happened in
type StateError struct {
	State State
	Err   error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("pipeline failed in %s: %v", e.State, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}
