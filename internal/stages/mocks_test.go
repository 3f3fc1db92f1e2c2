package stages

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/aristath/commodities/internal/domain"
)

type mockHistory struct {
	mock.Mock
}

func (m *mockHistory) Bars(ctx context.Context, contractID string, lookbackDays int) ([]domain.OHLCVBar, error) {
	args := m.Called(contractID, lookbackDays)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OHLCVBar), args.Error(1)
}

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) Analyze(ctx context.Context, instrumentID string, bars []domain.OHLCVBar, indicators []string) (domain.TechnicalState, error) {
	args := m.Called(instrumentID, bars, indicators)
	return args.Get(0).(domain.TechnicalState), args.Error(1)
}

type mockChain struct {
	mock.Mock
}

func (m *mockChain) Chain(ctx context.Context, underlying string) ([]domain.ContractDescriptor, error) {
	args := m.Called(underlying)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ContractDescriptor), args.Error(1)
}

type mockNewsSource struct {
	mock.Mock
}

func (m *mockNewsSource) News(ctx context.Context, keyword string, sources []string, maxPerSource int) ([]domain.NewsItem, error) {
	args := m.Called(keyword, sources, maxPerSource)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.NewsItem), args.Error(1)
}

type mockMailbox struct {
	mock.Mock
}

func (m *mockMailbox) Alerts(ctx context.Context) ([]domain.NewsItem, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.NewsItem), args.Error(1)
}

// fakePricer returns fixed outputs and records what it was asked to value
type fakePricer struct {
	iv      float64
	ivErr   error
	valErr  error
	fair    float64
	delta   float64
	valued  []domain.PricingInput
	implied []domain.PricingInput
}

func (f *fakePricer) ImpliedVolatility(ctx context.Context, in domain.PricingInput, marketPrice float64) (float64, error) {
	f.implied = append(f.implied, in)
	return f.iv, f.ivErr
}

func (f *fakePricer) Value(ctx context.Context, in domain.PricingInput) (domain.Valuation, error) {
	f.valued = append(f.valued, in)
	if f.valErr != nil {
		return domain.Valuation{}, f.valErr
	}
	return domain.Valuation{FairValue: f.fair, Delta: f.delta, Gamma: 0.00002, Theta: -1, Vega: 2, Rho: 0.5}, nil
}
