package scoring

import (
	"math"

	"github.com/aristath/commodities/internal/domain"
)

const (
	baseline = 50

	// Delta beyond which a position is aligned with the trend
	alignedDelta = 0.3

	// |gamma| bands in price units of the underlying
	gammaHighRisk = 0.00005
	gammaLowRisk  = 0.00001

	expensiveIV = 0.30
	cheapIV     = 0.15
)

// sensitivityScore rates the Greeks of the contract against the underlying trend
func sensitivityScore(optType domain.OptionType, trend domain.Trend, q *domain.DerivativeQuote, dte int) int {
	score := baseline

	switch trend {
	case domain.TrendBullish:
		if optType == domain.OptionCall && q.Delta > alignedDelta {
			score += 20
		} else if optType == domain.OptionPut {
			score -= 30
		}
	case domain.TrendBearish:
		if optType == domain.OptionPut && q.Delta < -alignedDelta {
			score += 20
		} else if optType == domain.OptionCall {
			score -= 30
		}
	}

	gamma := math.Abs(q.Gamma)
	if gamma > gammaHighRisk {
		score -= 15
	} else if gamma < gammaLowRisk {
		score += 10
	}

	if dte < 7 {
		score -= 25
	} else if dte < 21 {
		score -= 10
	}

	if q.IV > expensiveIV {
		score -= 10
	} else if q.IV < cheapIV {
		score += 10
	}

	return clamp(score)
}

// technicalScore rates the indicator state of the underlying
func technicalScore(t *domain.TechnicalState) int {
	if t == nil {
		return baseline
	}

	strength := t.Strength
	if strength < 1 {
		strength = 1
	} else if strength > 10 {
		strength = 10
	}
	score := baseline + (strength-5)*5

	switch t.Trend {
	case domain.TrendBullish:
		score += 10
	case domain.TrendBearish:
		score -= 10
	}

	if t.RSIValue >= 40 && t.RSIValue <= 60 {
		score += 10
	} else if t.RSIValue > 70 || t.RSIValue < 30 {
		score -= 15
	}

	if t.MASignal == "buy" && t.MACDSignal == "buy" {
		score += 10
	}

	return clamp(score)
}

// timeScore rates days to expiry. The three band groups are independent and add up.
func timeScore(dte int) int {
	score := baseline

	if dte >= 30 && dte <= 60 {
		score += 30
	} else if dte >= 21 && dte < 30 {
		score += 20
	} else if dte > 60 && dte <= 90 {
		score += 15
	}

	if dte < 7 {
		score -= 30
	} else if dte < 21 {
		score -= 15
	}

	if dte > 180 {
		score -= 10
	}

	return clamp(score)
}

// sentimentScore rates the share of positive and negative headlines.
// Neutral and untagged items only dilute the ratio.
func sentimentScore(news []domain.NewsItem) int {
	if len(news) == 0 {
		return baseline
	}

	var positive, negative int
	for _, n := range news {
		switch n.Sentiment {
		case domain.SentimentPositive:
			positive++
		case domain.SentimentNegative:
			negative++
		}
	}

	total := float64(len(news))
	score := baseline + 30*float64(positive)/total - 30*float64(negative)/total
	return clamp(int(math.Round(score)))
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func clampFloat(score float64) float64 {
	return math.Max(0, math.Min(100, score))
}
