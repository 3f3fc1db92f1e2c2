package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aristath/commodities/internal/domain"
	"github.com/aristath/commodities/internal/pipeline"
)

type mockRunner struct {
	mock.Mock
	block chan struct{}
}

func (m *mockRunner) Run(ctx context.Context, mode pipeline.Mode) (pipeline.Report, error) {
	if m.block != nil {
		<-m.block
	}
	args := m.Called(mode.Name())
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pipeline.Report), args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Save(ctx context.Context, env pipeline.Envelope) error {
	return m.Called(env.ID).Error(0)
}

type recordingObserver struct {
	mu      sync.Mutex
	runs    map[string]int
	reviews int
}

func (o *recordingObserver) ObserveRun(mode string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.runs == nil {
		o.runs = map[string]int{}
	}
	key := mode
	if err != nil {
		key += ":failed"
	}
	o.runs[key]++
}

func (o *recordingObserver) ObserveReview(results []domain.ReviewResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reviews += len(results)
}

func reviewReport() *pipeline.ReviewReport {
	at := time.Date(2025, time.March, 3, 15, 30, 0, 0, time.UTC)
	return &pipeline.ReviewReport{
		RunMeta: pipeline.RunMeta{RunID: "run-1", StartedAt: at, FinishedAt: at},
		Results: []domain.ReviewResult{{PositionID: "p1", Recommendation: domain.RecommendHold}},
	}
}

func TestRunService_ExecutePersists(t *testing.T) {
	runner := &mockRunner{}
	store := &mockStore{}
	observer := &recordingObserver{}
	dir := t.TempDir()

	runner.On("Run", pipeline.ModeReview).Return(reviewReport(), nil)
	store.On("Save", "run-1").Return(nil)

	svc := NewRunService(runner, store, observer, dir, zerolog.Nop())
	result, err := svc.Execute(context.Background(), pipeline.Review{})

	require.NoError(t, err)
	assert.Equal(t, "run-1", result.Envelope.ID)
	assert.Equal(t, filepath.Join(dir, "review_20250303_153000.json"), result.Path)
	_, statErr := os.Stat(result.Path)
	assert.NoError(t, statErr)
	assert.Equal(t, 1, observer.runs[pipeline.ModeReview])
	assert.Equal(t, 1, observer.reviews)
	store.AssertExpectations(t)
}

func TestRunService_FailedRunPersistsNothing(t *testing.T) {
	runner := &mockRunner{}
	store := &mockStore{}
	observer := &recordingObserver{}
	cause := errors.New("stage failed")

	runner.On("Run", pipeline.ModeDiscovery).Return(nil, cause)

	svc := NewRunService(runner, store, observer, t.TempDir(), zerolog.Nop())
	result, err := svc.Execute(context.Background(), pipeline.Discovery{})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, observer.runs[pipeline.ModeDiscovery+":failed"])
	store.AssertNotCalled(t, "Save", mock.Anything)
}

func TestRunService_StoreFailureStillReturnsResult(t *testing.T) {
	runner := &mockRunner{}
	store := &mockStore{}
	cause := errors.New("disk full")

	runner.On("Run", pipeline.ModeReview).Return(reviewReport(), nil)
	store.On("Save", "run-1").Return(cause)

	svc := NewRunService(runner, store, nil, "", zerolog.Nop())
	result, err := svc.Execute(context.Background(), pipeline.Review{})

	assert.ErrorIs(t, err, cause)
	require.NotNil(t, result)
	assert.Equal(t, "run-1", result.Envelope.ID)
	assert.Empty(t, result.Path)
}

func TestRunService_NilModeIsInvalidInput(t *testing.T) {
	runner := &mockRunner{}
	observer := &recordingObserver{}
	svc := NewRunService(runner, nil, observer, "", zerolog.Nop())

	result, err := svc.Execute(context.Background(), nil)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, pipeline.ErrInvalidInput)
	runner.AssertNotCalled(t, "Run", mock.Anything)
	assert.Empty(t, observer.runs)
}

func TestRunService_RejectsConcurrentRunOfSameMode(t *testing.T) {
	runner := &mockRunner{block: make(chan struct{})}
	runner.On("Run", pipeline.ModeReview).Return(reviewReport(), nil)

	svc := NewRunService(runner, nil, nil, "", zerolog.Nop())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Execute(context.Background(), pipeline.Review{})
		done <- err
	}()

	require.Eventually(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return svc.running[pipeline.ModeReview]
	}, time.Second, time.Millisecond)

	_, err := svc.Execute(context.Background(), pipeline.Review{})
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(runner.block)
	assert.NoError(t, <-done)
}
