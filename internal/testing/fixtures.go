package testing

import (
	"math"
	"time"

	"github.com/aristath/commodities/internal/domain"
)

// FixtureStart is the first bar date produced by TrendingBars
var FixtureStart = domain.NewDate(2025, time.January, 1)

// Instrument returns a futures instrument trading on SHFE
func Instrument(id string, price float64, changes map[int]float64) domain.Instrument {
	if changes == nil {
		changes = map[int]float64{}
	}
	return domain.Instrument{
		ID:           id,
		Name:         id,
		Exchange:     "SHFE",
		MainContract: id + "2505",
		Price:        price,
		Changes:      changes,
	}
}

// TrendingBars builds n daily bars starting at 3500 and compounding at rate per day
func TrendingBars(n int, rate float64) []domain.OHLCVBar {
	bars := make([]domain.OHLCVBar, n)
	for i := range bars {
		c := 3500 * math.Pow(1+rate, float64(i))
		bars[i] = domain.OHLCVBar{
			Date:   domain.DateOf(FixtureStart.AddDate(0, 0, i)),
			Open:   c,
			High:   c * 1.004,
			Low:    c * 0.996,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

// Position returns a held option contract
func Position(id, underlying string, typ domain.OptionType, strike float64, expiry domain.Date, qty int, cost float64) domain.Position {
	return domain.Position{
		ID:         id,
		Underlying: underlying,
		Strike:     strike,
		Expiry:     expiry,
		OptionType: typ,
		Quantity:   qty,
		AvgCost:    cost,
	}
}
