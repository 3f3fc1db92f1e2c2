// Package analytics computes technical indicators and option valuations in-process.
package analytics

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/commodities/internal/domain"
	"github.com/aristath/commodities/pkg/formulas"
)

// IndicatorParams are the lookback windows used by Technical.
// Defaults suit the short daily histories the pipeline fetches.
type IndicatorParams struct {
	MAShort     int
	MALong      int
	MACDFast    int
	MACDSlow    int
	MACDSignal  int
	RSI         int
	Boll        int
	BollStdDev  float64
	KDJFastK    int
	KDJSlowK    int
	KDJSlowD    int
	ATR         int
	CCI         int
	OBVLookback int
}

// DefaultIndicatorParams returns windows that fit in fifteen daily bars
func DefaultIndicatorParams() IndicatorParams {
	return IndicatorParams{
		MAShort:     5,
		MALong:      10,
		MACDFast:    5,
		MACDSlow:    10,
		MACDSignal:  4,
		RSI:         6,
		Boll:        10,
		BollStdDev:  2,
		KDJFastK:    9,
		KDJSlowK:    3,
		KDJSlowD:    3,
		ATR:         7,
		CCI:         10,
		OBVLookback: 5,
	}
}

// Technical implements domain.TechnicalAnalyzer on top of go-talib
type Technical struct {
	params IndicatorParams
	log    zerolog.Logger
}

// NewTechnical creates an analyzer
func NewTechnical(params IndicatorParams, log zerolog.Logger) *Technical {
	return &Technical{
		params: params,
		log:    log.With().Str("component", "technical_analyzer").Logger(),
	}
}

// Analyze summarizes the requested indicators. An empty indicator list means all of them.
// Indicators that lack enough bars stay at their neutral defaults.
func (t *Technical) Analyze(ctx context.Context, instrumentID string, bars []domain.OHLCVBar, indicators []string) (domain.TechnicalState, error) {
	state := domain.NeutralTechnicalState(instrumentID)
	if len(bars) == 0 {
		return state, nil
	}

	enabled := enabledSet(indicators)
	closes, highs, lows, volumes := columns(bars)
	p := t.params
	votes := 0

	if enabled["ma"] {
		short := formulas.CalculateSMA(closes, p.MAShort)
		long := formulas.CalculateSMA(closes, p.MALong)
		if short != nil && long != nil {
			last := closes[len(closes)-1]
			switch {
			case *short > *long && last >= *short:
				state.MASignal = "buy"
				votes++
			case *short < *long && last <= *short:
				state.MASignal = "sell"
				votes--
			}
		}
	}

	if enabled["macd"] {
		if m := formulas.CalculateMACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal); m != nil {
			switch {
			case m.Histogram > 0:
				state.MACDSignal = "buy"
				votes++
			case m.Histogram < 0:
				state.MACDSignal = "sell"
				votes--
			}
		}
	}

	if enabled["rsi"] {
		if rsi := formulas.CalculateRSI(closes, p.RSI); rsi != nil {
			state.RSIValue = *rsi
			switch {
			case *rsi > 70:
				state.RSISignal = "overbought"
				votes--
			case *rsi < 30:
				state.RSISignal = "oversold"
				votes++
			case *rsi >= 55:
				state.RSISignal = "bullish"
				votes++
			case *rsi <= 45:
				state.RSISignal = "bearish"
				votes--
			}
		}
	}

	if enabled["boll"] {
		if pos := formulas.CalculateBollingerPosition(closes, p.Boll, p.BollStdDev); pos != nil {
			switch {
			case pos.Position >= 0.8:
				state.BollPosition = "upper"
			case pos.Position <= 0.2:
				state.BollPosition = "lower"
			}
		}
	}

	if enabled["kdj"] {
		if kdj := formulas.CalculateKDJ(highs, lows, closes, p.KDJFastK, p.KDJSlowK, p.KDJSlowD); kdj != nil {
			switch {
			case kdj.J > 100:
				state.KDJSignal = "overbought"
			case kdj.J < 0:
				state.KDJSignal = "oversold"
			case kdj.K > kdj.D && kdj.PrevK <= kdj.PrevD:
				state.KDJSignal = "golden_cross"
				votes++
			case kdj.K < kdj.D && kdj.PrevK >= kdj.PrevD:
				state.KDJSignal = "death_cross"
				votes--
			}
		}
	}

	if enabled["atr"] {
		if atr := formulas.CalculateATR(highs, lows, closes, p.ATR); atr != nil {
			state.ATRValue = *atr
		}
	}

	if enabled["obv"] {
		if obv := formulas.CalculateOBV(closes, volumes); len(obv) > p.OBVLookback {
			now, then := obv[len(obv)-1], obv[len(obv)-1-p.OBVLookback]
			switch {
			case now > then:
				state.OBVTrend = "rising"
				votes++
			case now < then:
				state.OBVTrend = "falling"
				votes--
			}
		}
	}

	if enabled["cci"] {
		if cci := formulas.CalculateCCI(highs, lows, closes, p.CCI); cci != nil {
			switch {
			case *cci > 100:
				state.CCISignal = "buy"
				votes++
			case *cci < -100:
				state.CCISignal = "sell"
				votes--
			}
		}
	}

	state.HistoricalVol = formulas.HistoricalVolatility(closes)
	state.Trend, state.Strength = classify(votes)

	t.log.Debug().
		Str("instrument", instrumentID).
		Int("votes", votes).
		Str("trend", string(state.Trend)).
		Msg("Indicators computed")

	return state, nil
}

// classify turns the net indicator vote into a trend and a 1-10 strength
func classify(votes int) (domain.Trend, int) {
	trend := domain.TrendNeutral
	switch {
	case votes >= 2:
		trend = domain.TrendBullish
	case votes <= -2:
		trend = domain.TrendBearish
	}

	magnitude := votes
	if magnitude < 0 {
		magnitude = -magnitude
	}
	strength := 5 + magnitude
	if trend == domain.TrendNeutral {
		strength = 5
	}
	if strength > 10 {
		strength = 10
	}
	return trend, strength
}

func enabledSet(indicators []string) map[string]bool {
	all := []string{"ma", "macd", "rsi", "boll", "kdj", "atr", "obv", "cci"}
	if len(indicators) == 0 {
		indicators = all
	}
	set := make(map[string]bool, len(indicators))
	for _, name := range indicators {
		set[strings.ToLower(strings.TrimSpace(name))] = true
	}
	return set
}

func columns(bars []domain.OHLCVBar) (closes, highs, lows, volumes []float64) {
	n := len(bars)
	closes = make([]float64, n)
	highs = make([]float64, n)
	lows = make([]float64, n)
	volumes = make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		volumes[i] = b.Volume
	}
	return closes, highs, lows, volumes
}
