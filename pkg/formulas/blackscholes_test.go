package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlackScholes_ReferenceValues(t *testing.T) {
	tests := []struct {
		name      string
		kind      OptionKind
		expPrice  float64
		expDelta  float64
		tolerance float64
	}{
		{name: "at the money call", kind: Call, expPrice: 10.4506, expDelta: 0.6368, tolerance: 0.001},
		{name: "at the money put", kind: Put, expPrice: 5.5735, expDelta: -0.3632, tolerance: 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := BlackScholes(tt.kind, 100, 100, 1, 0.05, 0.2)
			assert.InDelta(t, tt.expPrice, g.Price, tt.tolerance)
			assert.InDelta(t, tt.expDelta, g.Delta, tt.tolerance)
			assert.Greater(t, g.Gamma, 0.0)
			assert.Greater(t, g.Vega, 0.0)
			assert.Less(t, g.Theta, 0.0)
		})
	}
}

func TestBlackScholes_PutCallParity(t *testing.T) {
	s, k, tt, r, sigma := 3650.0, 3700.0, 45.0/365, 0.02, 0.185

	call := BlackScholes(Call, s, k, tt, r, sigma)
	put := BlackScholes(Put, s, k, tt, r, sigma)

	assert.InDelta(t, s-k*math.Exp(-r*tt), call.Price-put.Price, 1e-6)
	assert.InDelta(t, 1.0, call.Delta-put.Delta, 1e-9)
	assert.InDelta(t, call.Gamma, put.Gamma, 1e-12)
}

func TestBlackScholes_DegenerateInputs(t *testing.T) {
	g := BlackScholes(Call, 110, 100, 0, 0.02, 0.2)
	assert.Equal(t, 10.0, g.Price)
	assert.Zero(t, g.Delta)

	g = BlackScholes(Put, 110, 100, 1, 0.02, 0)
	assert.Zero(t, g.Price)
	assert.Zero(t, g.Gamma)
}

func TestImpliedVolatility_RoundTrip(t *testing.T) {
	for _, sigma := range []float64{0.08, 0.185, 0.35, 0.9} {
		for _, kind := range []OptionKind{Call, Put} {
			price := BlackScholes(kind, 3650, 3700, 0.2, 0.02, sigma).Price
			iv := ImpliedVolatility(kind, 3650, 3700, 0.2, 0.02, price)
			assert.InDelta(t, sigma, iv, 1e-4, "kind=%d sigma=%v", kind, sigma)
		}
	}
}

func TestImpliedVolatility_Unsolvable(t *testing.T) {
	assert.Zero(t, ImpliedVolatility(Call, 100, 100, 1, 0.02, 0))
	assert.Zero(t, ImpliedVolatility(Call, 100, 100, 1, 0.02, 150))
	assert.Zero(t, ImpliedVolatility(Call, 0, 100, 1, 0.02, 5))
}
