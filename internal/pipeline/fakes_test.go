package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aristath/commodities/internal/domain"
)

// fakeMarket serves every data collaborator from in-memory fixtures.
// It tracks the peak number of concurrent calls across all methods.
type fakeMarket struct {
	universe    []domain.Instrument
	catalogErr  error
	chains      map[string][]domain.ContractDescriptor
	chainErr    map[string]error
	news        map[string][]domain.NewsItem
	alerts      []domain.NewsItem
	delay       time.Duration
	mu          sync.Mutex
	barRequests []string
	chainCalls  []string
	inFlight    atomic.Int32
	peak        atomic.Int32
}

func (f *fakeMarket) enter() func() {
	n := f.inFlight.Add(1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return func() { f.inFlight.Add(-1) }
}

func (f *fakeMarket) Instruments(ctx context.Context) ([]domain.Instrument, error) {
	if f.catalogErr != nil {
		return nil, f.catalogErr
	}
	return f.universe, nil
}

func (f *fakeMarket) Bars(ctx context.Context, contractID string, lookbackDays int) ([]domain.OHLCVBar, error) {
	defer f.enter()()
	f.mu.Lock()
	f.barRequests = append(f.barRequests, contractID)
	f.mu.Unlock()
	return []domain.OHLCVBar{{Close: 1}, {Close: 2}}, nil
}

func (f *fakeMarket) Chain(ctx context.Context, underlying string) ([]domain.ContractDescriptor, error) {
	defer f.enter()()
	f.mu.Lock()
	f.chainCalls = append(f.chainCalls, underlying)
	f.mu.Unlock()
	if err := f.chainErr[underlying]; err != nil {
		return nil, err
	}
	return f.chains[underlying], nil
}

func (f *fakeMarket) News(ctx context.Context, keyword string, sources []string, maxPerSource int) ([]domain.NewsItem, error) {
	defer f.enter()()
	return f.news[keyword], nil
}

func (f *fakeMarket) Alerts(ctx context.Context) ([]domain.NewsItem, error) {
	defer f.enter()()
	return f.alerts, nil
}

// fakeAnalyzer returns a fixed technical state per instrument
type fakeAnalyzer struct {
	states map[string]domain.TechnicalState
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, instrumentID string, bars []domain.OHLCVBar, indicators []string) (domain.TechnicalState, error) {
	if s, ok := f.states[instrumentID]; ok {
		s.InstrumentID = instrumentID
		return s, nil
	}
	return domain.NeutralTechnicalState(instrumentID), nil
}

// fakePricer prices every contract with the same Greeks
type fakePricer struct {
	iv    float64
	delta float64
	gamma float64
}

func (f *fakePricer) ImpliedVolatility(ctx context.Context, in domain.PricingInput, marketPrice float64) (float64, error) {
	return f.iv, nil
}

func (f *fakePricer) Value(ctx context.Context, in domain.PricingInput) (domain.Valuation, error) {
	delta := f.delta
	if in.OptionType == domain.OptionPut {
		delta = -delta
	}
	return domain.Valuation{FairValue: 50, Delta: delta, Gamma: f.gamma, Theta: -1, Vega: 3, Rho: 0.2}, nil
}

// recordingReporter keeps every step event it receives
type recordingReporter struct {
	mu        sync.Mutex
	started   []string
	completed []string
	failed    []string
	items     int
}

func (r *recordingReporter) StepStarted(step string, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, step)
}

func (r *recordingReporter) StepCompleted(step string, elapsed time.Duration, summary string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, step)
}

func (r *recordingReporter) StepFailed(step string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, step)
}

func (r *recordingReporter) ItemCompleted(step string, current, total int, itemID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items++
}
