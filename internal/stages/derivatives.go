package stages

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/commodities/internal/domain"
	"github.com/aristath/commodities/internal/progress"
	"github.com/aristath/commodities/internal/workers"
)

const (
	// Floor on time to expiry, in years, so expiring contracts still price
	minYearsToExpiry = 0.001

	// Volatility used when none can be implied from the market price
	fallbackVolatility = 0.2
)

// DerivativeScope narrows a derivatives run
type DerivativeScope struct {
	AsOf domain.Date

	// Held contract ids per underlying; always priced even outside the volume cut
	Held map[string][]string
}

// Derivatives prices the most traded option contracts of each instrument
type Derivatives struct {
	chains domain.OptionChain
	pricer domain.OptionPricer
	topN   int
	rate   float64
	log    zerolog.Logger
}

// NewDerivatives creates the derivatives stage
func NewDerivatives(chains domain.OptionChain, pricer domain.OptionPricer, topN int, rate float64, log zerolog.Logger) *Derivatives {
	return &Derivatives{
		chains: chains,
		pricer: pricer,
		topN:   topN,
		rate:   rate,
		log:    log.With().Str("stage", StageDerivatives).Logger(),
	}
}

// Run prices the option chain of every instrument
func (s *Derivatives) Run(ctx context.Context, pool *workers.Pool, instruments []domain.Instrument, scope DerivativeScope, reporter progress.Reporter) (map[string][]domain.DerivativeQuote, error) {
	return workers.Fan(ctx, pool, StageDerivatives, instruments, instrumentKey,
		func(ctx context.Context, inst domain.Instrument) ([]domain.DerivativeQuote, error) {
			return s.priceChain(ctx, inst, scope)
		},
		progress.ItemCallback(reporter, StageDerivatives))
}

func (s *Derivatives) priceChain(ctx context.Context, inst domain.Instrument, scope DerivativeScope) ([]domain.DerivativeQuote, error) {
	contract := inst.MainContract
	if contract == "" {
		contract = inst.ID
	}

	chain, err := s.chains.Chain(ctx, contract)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch option chain for %s: %w", contract, err)
	}

	contracts := selectContracts(chain, s.topN, scope.Held[inst.ID])

	quotes := make([]domain.DerivativeQuote, 0, len(contracts))
	for _, c := range contracts {
		q, err := s.price(ctx, inst, c, scope.AsOf)
		if err != nil {
			return nil, fmt.Errorf("failed to price %s: %w", c.ID, err)
		}
		quotes = append(quotes, q)
	}

	s.log.Debug().
		Str("instrument", inst.ID).
		Int("chain", len(chain)).
		Int("priced", len(quotes)).
		Msg("Option chain priced")

	return quotes, nil
}

func (s *Derivatives) price(ctx context.Context, inst domain.Instrument, c domain.ContractDescriptor, asOf domain.Date) (domain.DerivativeQuote, error) {
	days := asOf.DaysUntil(c.Expiry)
	in := domain.PricingInput{
		Spot:       inst.Price,
		Strike:     c.Strike,
		Years:      math.Max(float64(days)/365, minYearsToExpiry),
		Rate:       s.rate,
		OptionType: c.OptionType,
	}

	iv, err := s.pricer.ImpliedVolatility(ctx, in, c.Price)
	if err != nil {
		return domain.DerivativeQuote{}, fmt.Errorf("implied volatility: %w", err)
	}
	// The quote reports the solved IV, 0 when the solve failed; only pricing falls back
	in.Vol = iv
	if in.Vol <= 0 {
		in.Vol = fallbackVolatility
	}

	val, err := s.pricer.Value(ctx, in)
	if err != nil {
		return domain.DerivativeQuote{}, fmt.Errorf("valuation: %w", err)
	}

	underlying := c.Underlying
	if underlying == "" {
		underlying = inst.ID
	}

	return domain.DerivativeQuote{
		ID:          c.ID,
		Underlying:  underlying,
		Strike:      c.Strike,
		Expiry:      c.Expiry,
		OptionType:  c.OptionType,
		MarketPrice: c.Price,
		Volume:      c.Volume,
		IV:          iv,
		Delta:       val.Delta,
		Gamma:       val.Gamma,
		Theta:       val.Theta,
		Vega:        val.Vega,
		Rho:         val.Rho,
		FairValue:   val.FairValue,
		Mispricing:  c.Price - val.FairValue,
	}, nil
}

// selectContracts keeps the topN contracts by volume, ties in chain order,
// followed by any held contract that missed the cut.
func selectContracts(chain []domain.ContractDescriptor, topN int, held []string) []domain.ContractDescriptor {
	sorted := make([]domain.ContractDescriptor, len(chain))
	copy(sorted, chain)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Volume > sorted[j].Volume
	})

	if topN > len(sorted) {
		topN = len(sorted)
	}
	picked := sorted[:topN:topN]

	if len(held) == 0 {
		return picked
	}

	included := make(map[string]bool, len(picked))
	for _, c := range picked {
		included[c.ID] = true
	}
	wanted := make(map[string]bool, len(held))
	for _, id := range held {
		wanted[id] = true
	}
	for _, c := range sorted[topN:] {
		if wanted[c.ID] && !included[c.ID] {
			included[c.ID] = true
			picked = append(picked, c)
		}
	}

	return picked
}
