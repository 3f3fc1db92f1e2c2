package stages

import (
	"fmt"

	"github.com/aristath/commodities/internal/domain"
)

const (
	minStrategies = 3
	maxStrategies = 5
)

// SynthesizeStrategies suggests option structures for every instrument from its
// trend, priced contracts and news. Instruments missing from an input map are
// treated as having no data for it.
func SynthesizeStrategies(
	instruments []domain.Instrument,
	technical map[string]domain.TechnicalState,
	quotes map[string][]domain.DerivativeQuote,
	news map[string][]domain.NewsItem,
) map[string][]domain.Strategy {
	out := make(map[string][]domain.Strategy, len(instruments))
	for _, inst := range instruments {
		var tech *domain.TechnicalState
		if t, ok := technical[inst.ID]; ok {
			tech = &t
		}
		out[inst.ID] = Synthesize(inst, tech, quotes[inst.ID], news[inst.ID])
	}
	return out
}

// Synthesize suggests between three and five strategies for one instrument
func Synthesize(inst domain.Instrument, tech *domain.TechnicalState, quotes []domain.DerivativeQuote, news []domain.NewsItem) []domain.Strategy {
	trend := domain.TrendNeutral
	strength := 5
	if tech != nil {
		trend = tech.Trend
		strength = tech.Strength
	}

	bias := 0
	for _, n := range news {
		switch n.Sentiment {
		case domain.SentimentPositive:
			bias++
		case domain.SentimentNegative:
			bias--
		}
	}

	calls, puts := splitByType(quotes)

	var strategies []domain.Strategy
	switch trend {
	case domain.TrendBullish:
		strategies = bullish(inst, calls, strength, bias)
	case domain.TrendBearish:
		strategies = bearish(inst, puts, strength, bias)
	default:
		strategies = neutral(inst, calls, puts)
	}

	if len(strategies) < minStrategies {
		strategies = append(strategies, waitAndWatch(inst))
	}
	if len(strategies) > maxStrategies {
		strategies = strategies[:maxStrategies]
	}

	return strategies
}

func bullish(inst domain.Instrument, calls []domain.DerivativeQuote, strength, bias int) []domain.Strategy {
	var out []domain.Strategy

	if len(calls) > 0 {
		call := calls[0]
		confidence := strength
		if bias > 0 {
			confidence++
		}
		out = append(out, domain.Strategy{
			InstrumentID: inst.ID,
			Name:         "Long Call",
			Kind:         "directional",
			Legs:         []domain.StrategyLeg{{Action: "buy", ContractID: call.ID, Quantity: 1}},
			MaxProfit:    nil,
			MaxLoss:      amount(call.MarketPrice),
			Breakeven:    []float64{call.Strike + call.MarketPrice},
			Rationale: fmt.Sprintf("Bullish on %s with strength %d/10. Delta %.2f provides leveraged upside exposure.",
				inst.Name, strength, call.Delta),
			Confidence: capConfidence(confidence),
		})
	}

	if len(calls) >= 2 {
		lower, higher := strikeExtremes(calls)
		debit := lower.MarketPrice - higher.MarketPrice
		out = append(out, domain.Strategy{
			InstrumentID: inst.ID,
			Name:         "Bull Call Spread",
			Kind:         "directional",
			Legs: []domain.StrategyLeg{
				{Action: "buy", ContractID: lower.ID, Quantity: 1},
				{Action: "sell", ContractID: higher.ID, Quantity: 1},
			},
			MaxProfit:  amount(higher.Strike - lower.Strike - debit),
			MaxLoss:    amount(debit),
			Breakeven:  []float64{lower.Strike + debit},
			Rationale:  fmt.Sprintf("Limited risk bullish play on %s. Caps upside but reduces cost basis.", inst.Name),
			Confidence: capConfidence(strength),
		})
	}

	return out
}

func bearish(inst domain.Instrument, puts []domain.DerivativeQuote, strength, bias int) []domain.Strategy {
	var out []domain.Strategy

	if len(puts) > 0 {
		put := puts[0]
		confidence := strength
		if bias < 0 {
			confidence++
		}
		out = append(out, domain.Strategy{
			InstrumentID: inst.ID,
			Name:         "Long Put",
			Kind:         "directional",
			Legs:         []domain.StrategyLeg{{Action: "buy", ContractID: put.ID, Quantity: 1}},
			MaxProfit:    amount(put.Strike - put.MarketPrice),
			MaxLoss:      amount(put.MarketPrice),
			Breakeven:    []float64{put.Strike - put.MarketPrice},
			Rationale: fmt.Sprintf("Bearish on %s with strength %d/10. Delta %.2f provides downside exposure.",
				inst.Name, strength, put.Delta),
			Confidence: capConfidence(confidence),
		})
	}

	if len(puts) >= 2 {
		lower, higher := strikeExtremes(puts)
		debit := higher.MarketPrice - lower.MarketPrice
		out = append(out, domain.Strategy{
			InstrumentID: inst.ID,
			Name:         "Bear Put Spread",
			Kind:         "directional",
			Legs: []domain.StrategyLeg{
				{Action: "buy", ContractID: higher.ID, Quantity: 1},
				{Action: "sell", ContractID: lower.ID, Quantity: 1},
			},
			MaxProfit:  amount(higher.Strike - lower.Strike - debit),
			MaxLoss:    amount(debit),
			Breakeven:  []float64{higher.Strike - debit},
			Rationale:  fmt.Sprintf("Limited risk bearish play on %s. Caps downside profit but reduces cost.", inst.Name),
			Confidence: capConfidence(strength),
		})
	}

	return out
}

func neutral(inst domain.Instrument, calls, puts []domain.DerivativeQuote) []domain.Strategy {
	if len(calls) == 0 || len(puts) == 0 {
		return nil
	}

	call, put := calls[0], puts[0]
	premium := call.MarketPrice + put.MarketPrice
	return []domain.Strategy{{
		InstrumentID: inst.ID,
		Name:         "Short Straddle",
		Kind:         "income",
		Legs: []domain.StrategyLeg{
			{Action: "sell", ContractID: call.ID, Quantity: 1},
			{Action: "sell", ContractID: put.ID, Quantity: 1},
		},
		MaxProfit:  amount(premium),
		MaxLoss:    nil,
		Breakeven:  []float64{put.Strike - premium, call.Strike + premium},
		Rationale:  fmt.Sprintf("Neutral view on %s. Collect premium if price stays range-bound.", inst.Name),
		Confidence: 5,
	}}
}

func waitAndWatch(inst domain.Instrument) domain.Strategy {
	return domain.Strategy{
		InstrumentID: inst.ID,
		Name:         "Wait and Watch",
		Kind:         "neutral",
		Legs:         []domain.StrategyLeg{},
		MaxProfit:    amount(0),
		MaxLoss:      amount(0),
		Breakeven:    []float64{inst.Price},
		Rationale:    fmt.Sprintf("No clear signal for %s. Consider monitoring for clearer entry.", inst.Name),
		Confidence:   3,
	}
}

func splitByType(quotes []domain.DerivativeQuote) (calls, puts []domain.DerivativeQuote) {
	for _, q := range quotes {
		switch q.OptionType {
		case domain.OptionCall:
			calls = append(calls, q)
		case domain.OptionPut:
			puts = append(puts, q)
		}
	}
	return calls, puts
}

// strikeExtremes returns the lowest and highest strike contracts; the first wins ties
func strikeExtremes(quotes []domain.DerivativeQuote) (lowest, highest domain.DerivativeQuote) {
	lowest, highest = quotes[0], quotes[0]
	for _, q := range quotes[1:] {
		if q.Strike < lowest.Strike {
			lowest = q
		}
		if q.Strike > highest.Strike {
			highest = q
		}
	}
	return lowest, highest
}

func capConfidence(c int) int {
	if c > 10 {
		return 10
	}
	if c < 1 {
		return 1
	}
	return c
}

func amount(v float64) *float64 {
	return &v
}
