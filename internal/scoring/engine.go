// Package scoring turns the market state of a held option into a review recommendation.
package scoring

import (
	"github.com/aristath/commodities/internal/config"
	"github.com/aristath/commodities/internal/domain"
)

// Recommendation and signal thresholds on the 0-100 overall score
const (
	BullishThreshold = 65.0
	BearishThreshold = 40.0
	HoldThreshold    = 65.0
	AdjustThreshold  = 45.0
)

// InsufficientDataRationale is the rationale of a position without a matching quote
const InsufficientDataRationale = "Insufficient market data available for analysis"

// Input is everything known about one position at review time
type Input struct {
	Position  domain.Position
	Quote     *domain.DerivativeQuote // nil when no quote matches the contract
	Technical *domain.TechnicalState  // nil when the underlying has no indicator data
	News      []domain.NewsItem
	Spot      float64
	AsOf      domain.Date
}

// Engine scores positions with a fixed set of weights. It holds no other state.
type Engine struct {
	weights config.Weights
}

// NewEngine creates an engine. Weights are expected to have passed config validation.
func NewEngine(weights config.Weights) *Engine {
	return &Engine{weights: weights}
}

// Weights returns the weights the engine scores with
func (e *Engine) Weights() config.Weights {
	return e.weights
}

// Score evaluates one position. Identical inputs give identical results.
func (e *Engine) Score(in Input) domain.ReviewResult {
	if in.Quote == nil {
		return degraded(in.Position)
	}

	trend := domain.TrendNeutral
	if in.Technical != nil {
		trend = in.Technical.Trend
	}
	dte := daysToExpiry(in)

	scores := domain.Scores{
		Sensitivity: sensitivityScore(in.Position.OptionType, trend, in.Quote, dte),
		Technical:   technicalScore(in.Technical),
		Time:        timeScore(dte),
		Sentiment:   sentimentScore(in.News),
	}

	overall := e.overall(scores)

	return domain.ReviewResult{
		PositionID:     in.Position.ID,
		Underlying:     in.Position.Underlying,
		Scores:         scores,
		Overall:        overall,
		Signal:         SignalFor(overall),
		Recommendation: RecommendationFor(overall),
		Confidence:     overall / 100,
		Metrics:        buildMetrics(in, dte),
		Rationale:      rationale(scores, in.Quote.Delta, trend, dte),
	}
}

func (e *Engine) overall(s domain.Scores) float64 {
	w := e.weights
	total := float64(s.Sensitivity)*float64(w.Sensitivity)/100 +
		float64(s.Technical)*float64(w.Technical)/100 +
		float64(s.Time)*float64(w.Time)/100 +
		float64(s.Sentiment)*float64(w.Sentiment)/100
	return clampFloat(total)
}

// SignalFor maps an overall score to a directional signal
func SignalFor(overall float64) domain.Trend {
	switch {
	case overall >= BullishThreshold:
		return domain.TrendBullish
	case overall <= BearishThreshold:
		return domain.TrendBearish
	default:
		return domain.TrendNeutral
	}
}

// RecommendationFor maps an overall score to an action
func RecommendationFor(overall float64) domain.Recommendation {
	switch {
	case overall >= HoldThreshold:
		return domain.RecommendHold
	case overall >= AdjustThreshold:
		return domain.RecommendAdjust
	default:
		return domain.RecommendClose
	}
}

// FindQuote returns the quote whose id equals contractID exactly, or nil
func FindQuote(quotes []domain.DerivativeQuote, contractID string) *domain.DerivativeQuote {
	for i := range quotes {
		if quotes[i].ID == contractID {
			q := quotes[i]
			return &q
		}
	}
	return nil
}

func degraded(p domain.Position) domain.ReviewResult {
	return domain.ReviewResult{
		PositionID:     p.ID,
		Underlying:     p.Underlying,
		Signal:         domain.TrendNeutral,
		Recommendation: domain.RecommendClose,
		Rationale:      InsufficientDataRationale,
	}
}

// daysToExpiry prefers the quoted expiry and falls back to the position's own terms
func daysToExpiry(in Input) int {
	expiry := in.Quote.Expiry
	if expiry.IsZero() {
		expiry = in.Position.Expiry
	}
	return in.AsOf.DaysUntil(expiry)
}
