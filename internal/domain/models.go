package domain

import (
	"fmt"
	"strings"
)

// Trend is a directional reading. It doubles as the review signal.
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendNeutral Trend = "neutral"
)

// ParseTrend maps free text to a trend, defaulting to neutral
func ParseTrend(s string) Trend {
	switch Trend(strings.ToLower(strings.TrimSpace(s))) {
	case TrendBullish:
		return TrendBullish
	case TrendBearish:
		return TrendBearish
	default:
		return TrendNeutral
	}
}

// OptionType is the payoff side of an option contract
type OptionType string

const (
	OptionCall OptionType = "call"
	OptionPut  OptionType = "put"
)

// ParseOptionType accepts call/put in any case, plus the C/P shorthand
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return OptionCall, nil
	case "put", "p":
		return OptionPut, nil
	}
	return "", fmt.Errorf("unknown option type %q", s)
}

// Sentiment tags a news item
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Recommendation is the action emitted for a reviewed position
type Recommendation string

const (
	RecommendHold   Recommendation = "HOLD"
	RecommendAdjust Recommendation = "ADJUST"
	RecommendClose  Recommendation = "CLOSE"
)

// Instrument is an underlying commodity future as seen at the start of a run
type Instrument struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Exchange     string          `json:"exchange"`
	MainContract string          `json:"main_contract"`
	Price        float64         `json:"price"`
	Changes      map[int]float64 `json:"changes"` // lookback days -> % change
}

// Change returns the percentage change over the given lookback, 0 when unknown
func (i Instrument) Change(period int) float64 {
	return i.Changes[period]
}

// OHLCVBar is one daily price bar
type OHLCVBar struct {
	Date   Date    `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Position is a held option contract supplied for review
type Position struct {
	ID         string     `json:"id"`
	Underlying string     `json:"underlying"`
	Strike     float64    `json:"strike"`
	Expiry     Date       `json:"expiry"`
	OptionType OptionType `json:"type"`
	Quantity   int        `json:"quantity"` // positive long, negative short
	AvgCost    float64    `json:"avg_cost"`
	OpenDate   *Date      `json:"open_date,omitempty"`
}

// IsLong reports whether the position was bought
func (p Position) IsLong() bool {
	return p.Quantity > 0
}

// Validate checks the fields the review flow relies on
func (p Position) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("position id is required")
	}
	if strings.TrimSpace(p.Underlying) == "" {
		return fmt.Errorf("position %s: underlying is required", p.ID)
	}
	if p.OptionType != OptionCall && p.OptionType != OptionPut {
		return fmt.Errorf("position %s: option type must be call or put, got %q", p.ID, p.OptionType)
	}
	if p.Quantity == 0 {
		return fmt.Errorf("position %s: quantity must be non-zero", p.ID)
	}
	return nil
}

// TechnicalState is the indicator summary for one instrument
type TechnicalState struct {
	InstrumentID  string  `json:"instrument_id"`
	MASignal      string  `json:"ma_signal"`
	MACDSignal    string  `json:"macd_signal"`
	RSIValue      float64 `json:"rsi_value"`
	RSISignal     string  `json:"rsi_signal"`
	BollPosition  string  `json:"boll_position"`
	KDJSignal     string  `json:"kdj_signal"`
	ATRValue      float64 `json:"atr_value"`
	OBVTrend      string  `json:"obv_trend"`
	CCISignal     string  `json:"cci_signal"`
	HistoricalVol float64 `json:"historical_vol"`
	Trend         Trend   `json:"trend"`
	Strength      int     `json:"strength"` // 1-10
}

// NeutralTechnicalState is the reading used when indicators are unavailable
func NeutralTechnicalState(instrumentID string) TechnicalState {
	return TechnicalState{
		InstrumentID: instrumentID,
		MASignal:     "neutral",
		MACDSignal:   "neutral",
		RSIValue:     50,
		RSISignal:    "neutral",
		BollPosition: "middle",
		KDJSignal:    "neutral",
		OBVTrend:     "flat",
		CCISignal:    "neutral",
		Trend:        TrendNeutral,
		Strength:     5,
	}
}

// ContractDescriptor is a raw option chain entry
type ContractDescriptor struct {
	ID         string     `json:"id"`
	Underlying string     `json:"underlying"`
	Strike     float64    `json:"strike"`
	Expiry     Date       `json:"expiry"`
	OptionType OptionType `json:"type"`
	Price      float64    `json:"price"`
	Volume     float64    `json:"volume"`
}

// PricingInput is the argument set for option valuation
type PricingInput struct {
	Spot       float64
	Strike     float64
	Years      float64
	Rate       float64
	Vol        float64
	OptionType OptionType
}

// Valuation is a theoretical value with its sensitivities
type Valuation struct {
	FairValue float64 `json:"fair_value"`
	Delta     float64 `json:"delta"`
	Gamma     float64 `json:"gamma"`
	Theta     float64 `json:"theta"`
	Vega      float64 `json:"vega"`
	Rho       float64 `json:"rho"`
}

// DerivativeQuote is a priced option contract
type DerivativeQuote struct {
	ID          string     `json:"id"`
	Underlying  string     `json:"underlying"`
	Strike      float64    `json:"strike"`
	Expiry      Date       `json:"expiry"`
	OptionType  OptionType `json:"type"`
	MarketPrice float64    `json:"market_price"`
	Volume      float64    `json:"volume"`
	IV          float64    `json:"iv"`
	Delta       float64    `json:"delta"`
	Gamma       float64    `json:"gamma"`
	Theta       float64    `json:"theta"`
	Vega        float64    `json:"vega"`
	Rho         float64    `json:"rho"`
	FairValue   float64    `json:"fair_value"`
	Mispricing  float64    `json:"mispricing"` // market - fair
}

// NewsItem is a headline collected for an instrument
type NewsItem struct {
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	URL       string    `json:"url,omitempty"`
	Published Date      `json:"published"`
	Summary   string    `json:"summary,omitempty"`
	Sentiment Sentiment `json:"sentiment,omitempty"`
}

// Mentions reports whether the headline or summary contains name
func (n NewsItem) Mentions(name string) bool {
	if name == "" {
		return false
	}
	return strings.Contains(n.Title, name) || strings.Contains(n.Summary, name)
}

// Scores are the four review dimensions, each 0-100
type Scores struct {
	Sensitivity int `json:"sensitivity"`
	Technical   int `json:"technical"`
	Time        int `json:"time"`
	Sentiment   int `json:"sentiment"`
}

// ReviewMetrics is the market snapshot attached to a review
type ReviewMetrics struct {
	Delta     float64  `json:"delta"`
	Gamma     float64  `json:"gamma"`
	Theta     float64  `json:"theta"`
	Vega      float64  `json:"vega"`
	IVPercent float64  `json:"iv"`
	IVRank    string   `json:"iv_rank"`
	Spot      float64  `json:"spot"`
	Strike    float64  `json:"strike"`
	DTE       int      `json:"dte"`
	ITMAmount float64  `json:"itm_amount"`
	RSI       *float64 `json:"rsi,omitempty"`
	Trend     *Trend   `json:"trend,omitempty"`
}

// ReviewResult is the scored outcome for one position
type ReviewResult struct {
	PositionID     string         `json:"position_id"`
	Underlying     string         `json:"underlying"`
	Scores         Scores         `json:"scores"`
	Overall        float64        `json:"overall"`
	Signal         Trend          `json:"signal"`
	Recommendation Recommendation `json:"recommendation"`
	Confidence     float64        `json:"confidence"`
	Metrics        *ReviewMetrics `json:"metrics,omitempty"`
	Rationale      string         `json:"rationale"`
}

// StrategyLeg is one order in a strategy
type StrategyLeg struct {
	Action     string `json:"action"` // buy or sell
	ContractID string `json:"contract"`
	Quantity   int    `json:"quantity"`
}

// Strategy is a suggested options structure for a discovered instrument.
// A nil MaxProfit or MaxLoss means unlimited.
type Strategy struct {
	InstrumentID string        `json:"instrument_id"`
	Name         string        `json:"name"`
	Kind         string        `json:"kind"` // directional, income, neutral
	Legs         []StrategyLeg `json:"legs"`
	MaxProfit    *float64      `json:"max_profit"`
	MaxLoss      *float64      `json:"max_loss"`
	Breakeven    []float64     `json:"breakeven"`
	Rationale    string        `json:"rationale"`
	Confidence   int           `json:"confidence"` // 1-10
}
