package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// OptionKind selects the payoff for Black-Scholes calculations
type OptionKind int

const (
	Call OptionKind = iota
	Put
)

// Greeks holds a Black-Scholes valuation.
// Theta is per calendar day, Vega and Rho per 1 percentage point.
type Greeks struct {
	Price float64 `json:"price"`
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

const (
	ivLowerBound  = 1e-4
	ivUpperBound  = 5.0
	ivTolerance   = 1e-6
	ivMaxNewton   = 50
	ivMaxBisect   = 200
	ivInitialVol  = 0.2
	minVegaNewton = 1e-8
)

var unitNormal = distuv.UnitNormal

// BlackScholes values a European option on spot s with strike k, time to expiry t in years,
// risk-free rate r and volatility sigma.
//
//	d1 = (ln(S/K) + (r + σ²/2)T) / (σ√T)
//	d2 = d1 - σ√T
//
// Degenerate inputs (non-positive spot, strike, time or volatility) return the
// discounted intrinsic value with zero sensitivities.
func BlackScholes(kind OptionKind, s, k, t, r, sigma float64) Greeks {
	if s <= 0 || k <= 0 || t <= 0 || sigma <= 0 {
		return Greeks{Price: intrinsic(kind, s, k, t, r)}
	}

	sqrtT := math.Sqrt(t)
	d1 := (math.Log(s/k) + (r+0.5*sigma*sigma)*t) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT
	discount := math.Exp(-r * t)
	pdf := unitNormal.Prob(d1)

	g := Greeks{
		Gamma: pdf / (s * sigma * sqrtT),
		Vega:  s * pdf * sqrtT / 100,
	}

	decay := -s * pdf * sigma / (2 * sqrtT)
	switch kind {
	case Put:
		g.Price = k*discount*unitNormal.CDF(-d2) - s*unitNormal.CDF(-d1)
		g.Delta = unitNormal.CDF(d1) - 1
		g.Theta = (decay + r*k*discount*unitNormal.CDF(-d2)) / 365
		g.Rho = -k * t * discount * unitNormal.CDF(-d2) / 100
	default:
		g.Price = s*unitNormal.CDF(d1) - k*discount*unitNormal.CDF(d2)
		g.Delta = unitNormal.CDF(d1)
		g.Theta = (decay - r*k*discount*unitNormal.CDF(d2)) / 365
		g.Rho = k * t * discount * unitNormal.CDF(d2) / 100
	}

	return g
}

// ImpliedVolatility solves for the volatility that reproduces the market price.
// Newton-Raphson from 20% is tried first; bisection over [0.0001, 5] is the fallback.
// Returns 0 when the price is outside the no-arbitrage bounds or no root is found.
func ImpliedVolatility(kind OptionKind, s, k, t, r, price float64) float64 {
	if s <= 0 || k <= 0 || t <= 0 || price <= 0 {
		return 0
	}

	lo := BlackScholes(kind, s, k, t, r, ivLowerBound).Price
	hi := BlackScholes(kind, s, k, t, r, ivUpperBound).Price
	if price < lo || price > hi {
		return 0
	}

	sigma := ivInitialVol
	for i := 0; i < ivMaxNewton; i++ {
		g := BlackScholes(kind, s, k, t, r, sigma)
		diff := g.Price - price
		if math.Abs(diff) < ivTolerance {
			return sigma
		}
		vega := g.Vega * 100
		if vega < minVegaNewton {
			break
		}
		sigma -= diff / vega
		if sigma <= ivLowerBound || sigma >= ivUpperBound || isNaN(sigma) {
			break
		}
	}

	a, b := ivLowerBound, ivUpperBound
	for i := 0; i < ivMaxBisect; i++ {
		mid := (a + b) / 2
		diff := BlackScholes(kind, s, k, t, r, mid).Price - price
		if math.Abs(diff) < ivTolerance || (b-a)/2 < ivTolerance {
			return mid
		}
		if diff > 0 {
			b = mid
		} else {
			a = mid
		}
	}

	return (a + b) / 2
}

func intrinsic(kind OptionKind, s, k, t, r float64) float64 {
	discount := 1.0
	if t > 0 {
		discount = math.Exp(-r * t)
	}
	if kind == Put {
		return math.Max(k*discount-s, 0)
	}
	return math.Max(s-k*discount, 0)
}
