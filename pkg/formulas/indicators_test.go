package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rising(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestCalculateSMA(t *testing.T) {
	sma := CalculateSMA([]float64{1, 2, 3, 4, 5}, 5)
	require.NotNil(t, sma)
	assert.InDelta(t, 3.0, *sma, 1e-9)

	assert.Nil(t, CalculateSMA([]float64{1, 2}, 5))
}

func TestCalculateEMA_FallsBackToMean(t *testing.T) {
	ema := CalculateEMA([]float64{2, 4}, 10)
	require.NotNil(t, ema)
	assert.InDelta(t, 3.0, *ema, 1e-9)

	assert.Nil(t, CalculateEMA(nil, 10))
}

func TestCalculateRSI(t *testing.T) {
	rsi := CalculateRSI(rising(15, 100, 1), 6)
	require.NotNil(t, rsi)
	assert.InDelta(t, 100.0, *rsi, 1e-6)

	rsi = CalculateRSI(rising(15, 100, -1), 6)
	require.NotNil(t, rsi)
	assert.InDelta(t, 0.0, *rsi, 1e-6)

	assert.Nil(t, CalculateRSI(rising(5, 100, 1), 6))
}

func TestCalculateMACD_RisingSeriesIsPositive(t *testing.T) {
	macd := CalculateMACD(rising(30, 100, 2), 5, 10, 4)
	require.NotNil(t, macd)
	assert.Greater(t, macd.Line, 0.0)

	assert.Nil(t, CalculateMACD(rising(10, 100, 2), 5, 10, 4))
}

func TestCalculateKDJ(t *testing.T) {
	closes := rising(20, 100, 1)
	highs := rising(20, 101, 1)
	lows := rising(20, 99, 1)

	kdj := CalculateKDJ(highs, lows, closes, 9, 3, 3)
	require.NotNil(t, kdj)
	assert.InDelta(t, 3*kdj.K-2*kdj.D, kdj.J, 1e-9)
	assert.Greater(t, kdj.K, 50.0)

	assert.Nil(t, CalculateKDJ(highs[:5], lows[:5], closes[:5], 9, 3, 3))
	assert.Nil(t, CalculateKDJ(highs, lows[:3], closes, 9, 3, 3))
}

func TestCalculateATR(t *testing.T) {
	closes := rising(20, 100, 0)
	highs := rising(20, 102, 0)
	lows := rising(20, 98, 0)

	atr := CalculateATR(highs, lows, closes, 7)
	require.NotNil(t, atr)
	assert.InDelta(t, 4.0, *atr, 1e-6)
}

func TestCalculateOBV(t *testing.T) {
	obv := CalculateOBV([]float64{10, 11, 10, 12}, []float64{100, 200, 50, 300})
	require.Len(t, obv, 4)
	assert.Greater(t, obv[3], obv[0])

	assert.Nil(t, CalculateOBV([]float64{1, 2}, []float64{1}))
}

func TestCalculateCCI(t *testing.T) {
	closes := rising(20, 100, 1)
	cci := CalculateCCI(rising(20, 101, 1), rising(20, 99, 1), closes, 10)
	require.NotNil(t, cci)
	assert.Greater(t, *cci, 0.0)
}

func TestCalculateBollingerPosition(t *testing.T) {
	pos := CalculateBollingerPosition(rising(20, 100, 1), 10, 2)
	require.NotNil(t, pos)
	assert.Greater(t, pos.Position, 0.5)
	assert.LessOrEqual(t, pos.Position, 1.0)

	flat := CalculateBollingerPosition(rising(20, 100, 0), 10, 2)
	require.NotNil(t, flat)
	assert.Equal(t, 0.5, flat.Position)
}
