package domain

import "context"

// InstrumentCatalog lists the tradeable universe with recent price changes
type InstrumentCatalog interface {
	Instruments(ctx context.Context) ([]Instrument, error)
}

// PriceHistory returns daily bars for a contract, oldest first
type PriceHistory interface {
	Bars(ctx context.Context, contractID string, lookbackDays int) ([]OHLCVBar, error)
}

// TechnicalAnalyzer turns price bars into an indicator summary
type TechnicalAnalyzer interface {
	Analyze(ctx context.Context, instrumentID string, bars []OHLCVBar, indicators []string) (TechnicalState, error)
}

// OptionChain lists the option contracts listed on an underlying
type OptionChain interface {
	Chain(ctx context.Context, underlying string) ([]ContractDescriptor, error)
}

// OptionPricer values option contracts
type OptionPricer interface {
	// ImpliedVolatility solves for the volatility matching marketPrice.
	// in.Vol is ignored. Returns 0 when no volatility reproduces the price.
	ImpliedVolatility(ctx context.Context, in PricingInput, marketPrice float64) (float64, error)

	// Value returns the theoretical value and sensitivities at in.Vol
	Value(ctx context.Context, in PricingInput) (Valuation, error)
}

// NewsSource searches news for a keyword across sources
type NewsSource interface {
	News(ctx context.Context, keyword string, sources []string, maxPerSource int) ([]NewsItem, error)
}

// AlertMailbox returns today's alert emails as news items
type AlertMailbox interface {
	Alerts(ctx context.Context) ([]NewsItem, error)
}
