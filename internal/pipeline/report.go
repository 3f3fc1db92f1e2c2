package pipeline

import (
	"time"

	"github.com/aristath/commodities/internal/domain"
)

// Report is the final product of a successful run: *DiscoveryReport or *ReviewReport
type Report interface {
	Mode() string
	Meta() RunMeta
	isReport()
}

// RunMeta identifies a run and when it happened
type RunMeta struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	AsOf       domain.Date   `json:"as_of"`
	Workers    int           `json:"workers"`
	Elapsed    time.Duration `json:"elapsed_ns"`
}

// Analysis holds the outputs of the concurrent stages, keyed by instrument id
type Analysis struct {
	Technical   map[string]domain.TechnicalState    `json:"technical"`
	Derivatives map[string][]domain.DerivativeQuote `json:"derivatives"`
	News        map[string][]domain.NewsItem        `json:"news"`
	Alerts      map[string][]domain.NewsItem        `json:"alerts,omitempty"`
}

func emptyAnalysis() Analysis {
	return Analysis{
		Technical:   map[string]domain.TechnicalState{},
		Derivatives: map[string][]domain.DerivativeQuote{},
		News:        map[string][]domain.NewsItem{},
	}
}

// DiscoveryReport lists the screened movers with their analysis and suggested strategies
type DiscoveryReport struct {
	RunMeta
	UniverseSize int                          `json:"universe_size"`
	Periods      []int                        `json:"periods"`
	Candidates   []domain.Instrument          `json:"candidates"`
	Analysis     Analysis                     `json:"analysis"`
	Strategies   map[string][]domain.Strategy `json:"strategies"`
}

func (r *DiscoveryReport) Mode() string  { return ModeDiscovery }
func (r *DiscoveryReport) Meta() RunMeta { return r.RunMeta }
func (r *DiscoveryReport) isReport()     {}

// ReviewReport scores every submitted position, in submission order
type ReviewReport struct {
	RunMeta
	Positions   []domain.Position     `json:"positions"`
	Underlyings []domain.Instrument   `json:"underlyings"`
	Unresolved  []string              `json:"unresolved,omitempty"`
	Analysis    Analysis              `json:"analysis"`
	Results     []domain.ReviewResult `json:"results"`
}

func (r *ReviewReport) Mode() string  { return ModeReview }
func (r *ReviewReport) Meta() RunMeta { return r.RunMeta }
func (r *ReviewReport) isReport()     {}

// Summary counts the recommendations of a review
func (r *ReviewReport) Summary() map[domain.Recommendation]int {
	out := map[domain.Recommendation]int{
		domain.RecommendHold:   0,
		domain.RecommendAdjust: 0,
		domain.RecommendClose:  0,
	}
	for _, res := range r.Results {
		out[res.Recommendation]++
	}
	return out
}

// Envelope is the renderer-facing form of a report: {"mode": ..., "discovery"|"review": {...}}
type Envelope struct {
	ID        string           `json:"id"`
	Mode      string           `json:"mode"`
	CreatedAt time.Time        `json:"created_at"`
	Discovery *DiscoveryReport `json:"discovery,omitempty"`
	Review    *ReviewReport    `json:"review,omitempty"`
}

// NewEnvelope wraps a report for rendering or archiving
func NewEnvelope(r Report) Envelope {
	meta := r.Meta()
	env := Envelope{ID: meta.RunID, Mode: r.Mode(), CreatedAt: meta.FinishedAt}
	switch rep := r.(type) {
	case *DiscoveryReport:
		env.Discovery = rep
	case *ReviewReport:
		env.Review = rep
	}
	return env
}

// Report unwraps the envelope, or returns nil when it carries no report
func (e Envelope) Report() Report {
	switch {
	case e.Discovery != nil:
		return e.Discovery
	case e.Review != nil:
		return e.Review
	}
	return nil
}
