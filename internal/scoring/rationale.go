package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/aristath/commodities/internal/domain"
)

func rationale(s domain.Scores, delta float64, trend domain.Trend, dte int) string {
	parts := []string{
		fmt.Sprintf("Greeks: %d/100 - %s delta exposure", s.Sensitivity, deltaExposure(delta)),
		fmt.Sprintf("Technical: %d/100 - %s", s.Technical, technicalLabel(s.Technical, trend)),
		fmt.Sprintf("Time: %d/100 - %s", s.Time, timeLabel(dte)),
		fmt.Sprintf("News: %d/100 - %s", s.Sentiment, newsLabel(s.Sentiment)),
	}
	return strings.Join(parts, ". ") + "."
}

func deltaExposure(delta float64) string {
	d := math.Abs(delta)
	switch {
	case d < 0.3:
		return "Low"
	case d > 0.7:
		return "High"
	default:
		return "Moderate"
	}
}

func technicalLabel(score int, trend domain.Trend) string {
	switch {
	case score >= 70:
		return fmt.Sprintf("Strong %s setup", trend)
	case score <= 40:
		return "Weak technicals"
	default:
		return "Mixed signals"
	}
}

func timeLabel(dte int) string {
	switch {
	case dte < 7:
		return fmt.Sprintf("Urgent (%d DTE)", dte)
	case dte < 21:
		return fmt.Sprintf("Decay zone (%d DTE)", dte)
	default:
		return fmt.Sprintf("Optimal (%d DTE)", dte)
	}
}

func newsLabel(score int) string {
	switch {
	case score >= 70:
		return "Supportive headlines"
	case score <= 40:
		return "Negative sentiment"
	default:
		return "Neutral to mixed"
	}
}

func buildMetrics(in Input, dte int) *domain.ReviewMetrics {
	q := in.Quote
	m := &domain.ReviewMetrics{
		Delta:     q.Delta,
		Gamma:     q.Gamma,
		Theta:     q.Theta,
		Vega:      q.Vega,
		IVPercent: math.Round(q.IV*1000) / 10,
		IVRank:    "N/A",
		Spot:      in.Spot,
		Strike:    q.Strike,
		DTE:       dte,
	}

	if in.Position.OptionType == domain.OptionPut {
		m.ITMAmount = math.Max(0, q.Strike-in.Spot)
	} else {
		m.ITMAmount = math.Max(0, in.Spot-q.Strike)
	}

	if in.Technical != nil {
		rsi := in.Technical.RSIValue
		trend := in.Technical.Trend
		m.RSI = &rsi
		m.Trend = &trend
	}

	return m
}
