package formulas

import (
	"github.com/markcheno/go-talib"
)

// MACD holds the latest MACD line, signal line and histogram, plus the previous histogram
// so callers can detect crossovers.
type MACD struct {
	Line          float64 `json:"line"`
	Signal        float64 `json:"signal"`
	Histogram     float64 `json:"histogram"`
	PrevHistogram float64 `json:"prev_histogram"`
}

// KDJ is the stochastic oscillator in its K/D/J form (J = 3K - 2D)
type KDJ struct {
	K     float64 `json:"k"`
	D     float64 `json:"d"`
	J     float64 `json:"j"`
	PrevK float64 `json:"prev_k"`
	PrevD float64 `json:"prev_d"`
}

// CalculateSMA calculates the Simple Moving Average
// Returns nil if insufficient data
func CalculateSMA(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length {
		return nil
	}

	if v, ok := last(talib.Sma(closes, length)); ok {
		return &v
	}
	return nil
}

// CalculateEMA calculates the Exponential Moving Average
//
//	EMA_today = (Price_today × multiplier) + (EMA_yesterday × (1 - multiplier))
//	where multiplier = 2 / (period + 1)
//
// Falls back to the plain mean when there are fewer closes than the period.
func CalculateEMA(closes []float64, length int) *float64 {
	if len(closes) == 0 || length <= 0 {
		return nil
	}

	if len(closes) < length {
		sma := Mean(closes)
		return &sma
	}

	if v, ok := last(talib.Ema(closes, length)); ok {
		return &v
	}

	sma := Mean(closes[len(closes)-length:])
	return &sma
}

// CalculateMACD calculates MACD(fast, slow, signal)
// Returns nil if insufficient data
func CalculateMACD(closes []float64, fast, slow, signal int) *MACD {
	if fast <= 0 || slow <= fast || signal <= 0 || len(closes) < slow+signal {
		return nil
	}

	line, sig, hist := talib.Macd(closes, fast, slow, signal)
	n := len(hist)
	if n < 2 || isNaN(hist[n-1]) || isNaN(hist[n-2]) {
		return nil
	}

	return &MACD{
		Line:          line[n-1],
		Signal:        sig[n-1],
		Histogram:     hist[n-1],
		PrevHistogram: hist[n-2],
	}
}

// CalculateRSI calculates the Relative Strength Index (0-100)
// Returns nil if insufficient data
func CalculateRSI(closes []float64, length int) *float64 {
	if length < 2 || len(closes) <= length {
		return nil
	}

	if v, ok := last(talib.Rsi(closes, length)); ok {
		return &v
	}
	return nil
}

// CalculateKDJ calculates the KDJ oscillator from a slow stochastic
// Returns nil if insufficient data
func CalculateKDJ(highs, lows, closes []float64, fastK, slowK, slowD int) *KDJ {
	n := len(closes)
	if len(highs) != n || len(lows) != n || fastK <= 0 || slowK <= 0 || slowD <= 0 {
		return nil
	}
	if n < fastK+slowK+slowD {
		return nil
	}

	k, d := talib.Stoch(highs, lows, closes, fastK, slowK, talib.SMA, slowD, talib.SMA)
	if len(k) < 2 || isNaN(k[n-1]) || isNaN(d[n-1]) {
		return nil
	}

	return &KDJ{
		K:     k[n-1],
		D:     d[n-1],
		J:     3*k[n-1] - 2*d[n-1],
		PrevK: k[n-2],
		PrevD: d[n-2],
	}
}

// CalculateATR calculates the Average True Range
// Returns nil if insufficient data
func CalculateATR(highs, lows, closes []float64, length int) *float64 {
	n := len(closes)
	if len(highs) != n || len(lows) != n || length <= 0 || n <= length {
		return nil
	}

	if v, ok := last(talib.Atr(highs, lows, closes, length)); ok {
		return &v
	}
	return nil
}

// CalculateOBV calculates the On-Balance Volume series
// Returns nil if inputs are empty or mismatched
func CalculateOBV(closes, volumes []float64) []float64 {
	if len(closes) == 0 || len(closes) != len(volumes) {
		return nil
	}
	return talib.Obv(closes, volumes)
}

// CalculateCCI calculates the Commodity Channel Index
// Returns nil if insufficient data
func CalculateCCI(highs, lows, closes []float64, length int) *float64 {
	n := len(closes)
	if len(highs) != n || len(lows) != n || length < 2 || n < length {
		return nil
	}

	if v, ok := last(talib.Cci(highs, lows, closes, length)); ok {
		return &v
	}
	return nil
}
