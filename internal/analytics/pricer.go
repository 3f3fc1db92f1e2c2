package analytics

import (
	"context"
	"fmt"

	"github.com/aristath/commodities/internal/domain"
	"github.com/aristath/commodities/pkg/formulas"
)

// Pricer implements domain.OptionPricer with Black-Scholes
type Pricer struct{}

// NewPricer creates a Black-Scholes pricer
func NewPricer() *Pricer {
	return &Pricer{}
}

// ImpliedVolatility solves the volatility that reproduces marketPrice
func (p *Pricer) ImpliedVolatility(ctx context.Context, in domain.PricingInput, marketPrice float64) (float64, error) {
	kind, err := optionKind(in.OptionType)
	if err != nil {
		return 0, err
	}
	return formulas.ImpliedVolatility(kind, in.Spot, in.Strike, in.Years, in.Rate, marketPrice), nil
}

// Value returns the Black-Scholes value and Greeks at in.Vol
func (p *Pricer) Value(ctx context.Context, in domain.PricingInput) (domain.Valuation, error) {
	kind, err := optionKind(in.OptionType)
	if err != nil {
		return domain.Valuation{}, err
	}

	g := formulas.BlackScholes(kind, in.Spot, in.Strike, in.Years, in.Rate, in.Vol)
	return domain.Valuation{
		FairValue: g.Price,
		Delta:     g.Delta,
		Gamma:     g.Gamma,
		Theta:     g.Theta,
		Vega:      g.Vega,
		Rho:       g.Rho,
	}, nil
}

func optionKind(t domain.OptionType) (formulas.OptionKind, error) {
	switch t {
	case domain.OptionCall:
		return formulas.Call, nil
	case domain.OptionPut:
		return formulas.Put, nil
	}
	return 0, fmt.Errorf("unsupported option type %q", t)
}
