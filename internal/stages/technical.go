package stages

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/commodities/internal/domain"
	"github.com/aristath/commodities/internal/progress"
	"github.com/aristath/commodities/internal/workers"
)

// Technical computes indicator state from recent price bars
type Technical struct {
	history    domain.PriceHistory
	analyzer   domain.TechnicalAnalyzer
	days       int
	indicators []string
	log        zerolog.Logger
}

// NewTechnical creates the technical stage
func NewTechnical(history domain.PriceHistory, analyzer domain.TechnicalAnalyzer, days int, indicators []string, log zerolog.Logger) *Technical {
	return &Technical{
		history:    history,
		analyzer:   analyzer,
		days:       days,
		indicators: indicators,
		log:        log.With().Str("stage", StageTechnical).Logger(),
	}
}

// Run analyzes every instrument
func (s *Technical) Run(ctx context.Context, pool *workers.Pool, instruments []domain.Instrument, reporter progress.Reporter) (map[string]domain.TechnicalState, error) {
	return workers.Fan(ctx, pool, StageTechnical, instruments, instrumentKey, s.analyze,
		progress.ItemCallback(reporter, StageTechnical))
}

func (s *Technical) analyze(ctx context.Context, inst domain.Instrument) (domain.TechnicalState, error) {
	contract := inst.MainContract
	if contract == "" {
		contract = inst.ID
	}

	bars, err := s.history.Bars(ctx, contract, s.days)
	if err != nil {
		return domain.TechnicalState{}, fmt.Errorf("failed to fetch bars for %s: %w", contract, err)
	}

	state, err := s.analyzer.Analyze(ctx, inst.ID, bars, s.indicators)
	if err != nil {
		return domain.TechnicalState{}, fmt.Errorf("failed to analyze %s: %w", contract, err)
	}
	state.InstrumentID = inst.ID

	s.log.Debug().
		Str("instrument", inst.ID).
		Int("bars", len(bars)).
		Str("trend", string(state.Trend)).
		Int("strength", state.Strength).
		Msg("Technical analysis complete")

	return state, nil
}
