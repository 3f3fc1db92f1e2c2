// Package pipeline runs discovery and review as a small state machine over the
// analysis stages.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/commodities/internal/config"
	"github.com/aristath/commodities/internal/domain"
	"github.com/aristath/commodities/internal/progress"
	"github.com/aristath/commodities/internal/scoring"
	"github.com/aristath/commodities/internal/screening"
	"github.com/aristath/commodities/internal/stages"
	"github.com/aristath/commodities/internal/workers"
)

// Collaborators are the external data and analytics services a run depends on
type Collaborators struct {
	Catalog  domain.InstrumentCatalog
	History  domain.PriceHistory
	Analyzer domain.TechnicalAnalyzer
	Chains   domain.OptionChain
	Pricer   domain.OptionPricer
	News     domain.NewsSource
	Alerts   domain.AlertMailbox // Optional; discovery skips the alerts stage when nil
}

func (c Collaborators) validate() error {
	var missing []string
	if c.Catalog == nil {
		missing = append(missing, "catalog")
	}
	if c.History == nil {
		missing = append(missing, "history")
	}
	if c.Analyzer == nil {
		missing = append(missing, "analyzer")
	}
	if c.Chains == nil {
		missing = append(missing, "chains")
	}
	if c.Pricer == nil {
		missing = append(missing, "pricer")
	}
	if c.News == nil {
		missing = append(missing, "news")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing collaborators: %s", config.ErrInvalidConfig, strings.Join(missing, ", "))
	}
	return nil
}

// Option customizes an Orchestrator
type Option func(*Orchestrator)

// WithClock overrides the wall clock; the run's as-of date is taken from it
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithReporter adds a reporter that receives every run's progress events
func WithReporter(r progress.Reporter) Option {
	return func(o *Orchestrator) { o.reporters = append(o.reporters, r) }
}

// WithRunIDs overrides run id generation
func WithRunIDs(next func() string) Option {
	return func(o *Orchestrator) { o.newID = next }
}

// Orchestrator owns the run state machine. It is safe to call Run concurrently;
// each run gets its own worker pool.
type Orchestrator struct {
	cfg    config.PipelineConfig
	collab Collaborators
	engine *scoring.Engine
	log    zerolog.Logger

	technical   *stages.Technical
	derivatives *stages.Derivatives
	news        *stages.News
	alerts      *stages.Alerts

	now       func() time.Time
	newID     func() string
	reporters []progress.Reporter
}

// New validates the configuration and collaborators before any run can start
func New(cfg config.PipelineConfig, collab Collaborators, log zerolog.Logger, opts ...Option) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := collab.validate(); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		cfg:         cfg,
		collab:      collab,
		engine:      scoring.NewEngine(cfg.Weights),
		log:         log.With().Str("component", "orchestrator").Logger(),
		technical:   stages.NewTechnical(collab.History, collab.Analyzer, cfg.OHLCVDays, cfg.Indicators, log),
		derivatives: stages.NewDerivatives(collab.Chains, collab.Pricer, cfg.TopOptionsByVolume, cfg.RiskFreeRate, log),
		news:        stages.NewNews(collab.News, cfg.NewsSources, cfg.MaxNewsPerSource),
		now:         time.Now,
		newID:       uuid.NewString,
	}
	if collab.Alerts != nil {
		o.alerts = stages.NewAlerts(collab.Alerts)
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// run carries the per-run state: id, reporter, current state and pool
type run struct {
	meta     RunMeta
	state    State
	entered  time.Time
	pool     *workers.Pool
	reporter progress.Reporter
	log      zerolog.Logger
	now      func() time.Time
}

func (r *run) enter(s State, total int) {
	r.state = s
	r.entered = r.now()
	r.reporter.StepStarted(string(s), total)
}

func (r *run) complete(summary string) {
	r.reporter.StepCompleted(string(r.state), r.now().Sub(r.entered), summary)
}

func (r *run) fail(err error) error {
	failedIn := r.state
	r.reporter.StepFailed(string(failedIn), err)
	r.state = StateFailed

	var se *StateError
	if errors.As(err, &se) {
		return err
	}
	return &StateError{State: failedIn, Err: err}
}

func (r *run) finish() RunMeta {
	r.state = StateDone
	r.meta.FinishedAt = r.now()
	r.meta.Elapsed = r.meta.FinishedAt.Sub(r.meta.StartedAt)
	r.log.Info().Dur("elapsed", r.meta.Elapsed).Msg("Run finished")
	return r.meta
}

func (o *Orchestrator) start(mode Mode) *run {
	id := o.newID()
	started := o.now()
	log := o.log.With().Str("run_id", id).Str("mode", mode.Name()).Logger()

	reporter := progress.Multi{progress.NewLogReporter(o.log, id)}
	reporter = append(reporter, o.reporters...)

	log.Info().Msg("Run started")
	return &run{
		meta: RunMeta{
			RunID:     id,
			StartedAt: started,
			AsOf:      domain.DateOf(started),
			Workers:   o.cfg.Workers,
		},
		state:    StateIdle,
		pool:     workers.NewPool(o.cfg.Workers),
		reporter: reporter,
		log:      log,
		now:      o.now,
	}
}

// Run executes one batch run. It returns a complete report or an error; never both.
func (o *Orchestrator) Run(ctx context.Context, mode Mode) (Report, error) {
	switch m := mode.(type) {
	case Discovery:
		return o.discover(ctx)
	case *Discovery:
		return o.discover(ctx)
	case Review:
		return o.review(ctx, m.Positions)
	case *Review:
		if m == nil {
			return nil, fmt.Errorf("%w: nil review request", ErrInvalidInput)
		}
		return o.review(ctx, m.Positions)
	default:
		return nil, fmt.Errorf("%w: unknown mode %T", ErrInvalidInput, mode)
	}
}

func (o *Orchestrator) discover(ctx context.Context) (*DiscoveryReport, error) {
	r := o.start(Discovery{})

	r.enter(StateSelecting, 0)
	universe, err := o.collab.Catalog.Instruments(ctx)
	if err != nil {
		return nil, r.fail(fmt.Errorf("failed to list instruments: %w", err))
	}
	candidates := screening.Select(universe, o.cfg.TopMovers, o.cfg.Periods)
	r.complete(fmt.Sprintf("%d of %d instruments selected", len(candidates), len(universe)))

	report := &DiscoveryReport{
		UniverseSize: len(universe),
		Periods:      o.cfg.Periods,
		Candidates:   candidates,
		Analysis:     emptyAnalysis(),
		Strategies:   map[string][]domain.Strategy{},
	}

	if len(candidates) == 0 {
		r.log.Warn().Int("universe", len(universe)).Msg("No candidates selected")
		report.RunMeta = r.finish()
		return report, nil
	}

	analysis, err := o.analyze(ctx, r, candidates, stages.DerivativeScope{AsOf: r.meta.AsOf}, o.alerts != nil)
	if err != nil {
		return nil, r.fail(err)
	}
	report.Analysis = analysis

	r.enter(StateSynthesizing, len(candidates))
	report.Strategies = stages.SynthesizeStrategies(candidates, analysis.Technical, analysis.Derivatives, analysis.News)
	r.complete(fmt.Sprintf("strategies for %d instruments", len(report.Strategies)))

	report.RunMeta = r.finish()
	return report, nil
}

func (o *Orchestrator) review(ctx context.Context, positions []domain.Position) (*ReviewReport, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("%w: review requires at least one position", ErrInvalidInput)
	}
	for _, p := range positions {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	r := o.start(Review{Positions: positions})

	r.enter(StateResolving, len(positions))
	underlyings := uniqueUnderlyings(positions)
	r.complete(fmt.Sprintf("%d underlyings", len(underlyings)))

	r.enter(StateFetchingSnapshot, len(underlyings))
	universe, err := o.collab.Catalog.Instruments(ctx)
	if err != nil {
		return nil, r.fail(fmt.Errorf("failed to fetch market snapshot: %w", err))
	}
	resolved, unresolved := resolveUnderlyings(underlyings, universe)
	for _, u := range unresolved {
		r.log.Warn().Str("underlying", u).Msg("Underlying not in market snapshot, analyzing without spot price")
	}
	r.complete(fmt.Sprintf("%d resolved, %d missing", len(underlyings)-len(unresolved), len(unresolved)))

	instruments := make([]domain.Instrument, 0, len(underlyings))
	for _, u := range underlyings {
		instruments = append(instruments, resolved[strings.ToLower(u)])
	}

	scope := stages.DerivativeScope{AsOf: r.meta.AsOf, Held: heldContracts(positions, resolved)}
	analysis, err := o.analyze(ctx, r, instruments, scope, false)
	if err != nil {
		return nil, r.fail(err)
	}

	missing := make(map[string]bool, len(unresolved))
	for _, u := range unresolved {
		missing[strings.ToLower(u)] = true
	}

	r.enter(StateScoring, len(positions))
	results := make([]domain.ReviewResult, 0, len(positions))
	for _, p := range positions {
		key := strings.ToLower(p.Underlying)
		inst := resolved[key]
		in := scoring.Input{
			Position: p,
			Quote:    scoring.FindQuote(analysis.Derivatives[inst.ID], p.ID),
			News:     analysis.News[inst.ID],
			Spot:     inst.Price,
			AsOf:     r.meta.AsOf,
		}
		// A placeholder underlying has no price history worth trusting; technicals score neutral
		if t, ok := analysis.Technical[inst.ID]; ok && !missing[key] {
			in.Technical = &t
		}
		if in.Quote == nil {
			r.log.Warn().Str("position", p.ID).Msg("No quote for held contract, scoring as insufficient data")
		}
		results = append(results, o.engine.Score(in))
	}
	r.complete(fmt.Sprintf("%d positions scored", len(results)))

	return &ReviewReport{
		RunMeta:     r.finish(),
		Positions:   positions,
		Underlyings: instruments,
		Unresolved:  unresolved,
		Analysis:    analysis,
		Results:     results,
	}, nil
}

// analyze runs the independent stages concurrently on the run's shared pool and
// waits for all of them. The first failure cancels the rest.
func (o *Orchestrator) analyze(ctx context.Context, r *run, instruments []domain.Instrument, scope stages.DerivativeScope, withAlerts bool) (Analysis, error) {
	r.enter(StateAnalyzingParallel, len(instruments))

	var out Analysis
	g, gctx := errgroup.WithContext(ctx)

	stage := func(name string, fn func(ctx context.Context) error) {
		g.Go(func() error {
			started := r.now()
			r.reporter.StepStarted(name, len(instruments))
			if err := fn(gctx); err != nil {
				r.reporter.StepFailed(name, err)
				return err
			}
			r.reporter.StepCompleted(name, r.now().Sub(started), fmt.Sprintf("%d instruments", len(instruments)))
			return nil
		})
	}

	stage(stages.StageTechnical, func(ctx context.Context) (err error) {
		out.Technical, err = o.technical.Run(ctx, r.pool, instruments, r.reporter)
		return err
	})
	stage(stages.StageDerivatives, func(ctx context.Context) (err error) {
		out.Derivatives, err = o.derivatives.Run(ctx, r.pool, instruments, scope, r.reporter)
		return err
	})
	stage(stages.StageNews, func(ctx context.Context) (err error) {
		out.News, err = o.news.Run(ctx, r.pool, instruments, r.reporter)
		return err
	})
	if withAlerts {
		stage(stages.StageAlerts, func(ctx context.Context) (err error) {
			out.Alerts, err = o.alerts.Run(ctx, r.pool, instruments, r.reporter)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return Analysis{}, err
	}

	r.complete(fmt.Sprintf("%d technical, %d derivatives, %d news", len(out.Technical), len(out.Derivatives), len(out.News)))
	return out, nil
}

// uniqueUnderlyings returns the distinct underlyings in first-appearance order, ignoring case
func uniqueUnderlyings(positions []domain.Position) []string {
	seen := make(map[string]bool, len(positions))
	out := make([]string, 0, len(positions))
	for _, p := range positions {
		key := strings.ToLower(p.Underlying)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p.Underlying)
	}
	return out
}

// resolveUnderlyings matches underlyings to snapshot instruments by case-insensitive id.
// Missing underlyings get a placeholder instrument without a price.
func resolveUnderlyings(underlyings []string, universe []domain.Instrument) (map[string]domain.Instrument, []string) {
	byID := make(map[string]domain.Instrument, len(universe))
	for _, inst := range universe {
		key := strings.ToLower(inst.ID)
		if _, dup := byID[key]; !dup {
			byID[key] = inst
		}
	}

	resolved := make(map[string]domain.Instrument, len(underlyings))
	var unresolved []string
	for _, u := range underlyings {
		key := strings.ToLower(u)
		inst, ok := byID[key]
		if !ok {
			inst = domain.Instrument{ID: u, Name: u, MainContract: u}
			unresolved = append(unresolved, u)
		}
		resolved[key] = inst
	}
	return resolved, unresolved
}

func heldContracts(positions []domain.Position, resolved map[string]domain.Instrument) map[string][]string {
	held := make(map[string][]string)
	for _, p := range positions {
		id := resolved[strings.ToLower(p.Underlying)].ID
		held[id] = append(held[id], p.ID)
	}
	return held
}
