package skills

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aristath/commodities/internal/domain"
)

const futuresSkill = "china-futures"

var changeKey = regexp.MustCompile(`^change_(\d+)d$`)

// Futures reads instruments, price history and option chains from the futures skill.
// It implements domain.InstrumentCatalog, domain.PriceHistory and domain.OptionChain.
type Futures struct {
	runner *Runner
}

// NewFutures creates the futures adapter
func NewFutures(runner *Runner) *Futures {
	return &Futures{runner: runner}
}

// Instruments lists main contracts with their change_<n>d percentages
func (f *Futures) Instruments(ctx context.Context) ([]domain.Instrument, error) {
	var rows []rawObject
	if err := f.runner.RunJSON(ctx, futuresSkill, "main-contracts", nil, &rows); err != nil {
		return nil, err
	}

	instruments := make([]domain.Instrument, 0, len(rows))
	for i, row := range rows {
		inst, err := instrumentFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("main-contracts row %d: %w", i, err)
		}
		instruments = append(instruments, inst)
	}
	return instruments, nil
}

func instrumentFromRow(row rawObject) (domain.Instrument, error) {
	price, err := row.num("price")
	if err != nil {
		return domain.Instrument{}, fmt.Errorf("price: %w", err)
	}

	inst := domain.Instrument{
		ID:           strings.TrimSpace(row.str("code")),
		Name:         row.str("name"),
		Exchange:     row.str("exchange"),
		MainContract: row.str("main_contract"),
		Price:        price,
		Changes:      make(map[int]float64),
	}
	if inst.ID == "" {
		return domain.Instrument{}, fmt.Errorf("missing code")
	}

	for key := range row {
		m := changeKey.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		period, _ := strconv.Atoi(m[1])
		change, err := row.num(key)
		if err != nil {
			return domain.Instrument{}, fmt.Errorf("%s: %w", key, err)
		}
		inst.Changes[period] = change
	}

	return inst, nil
}

type barRow struct {
	Date   string `json:"date"`
	Open   number `json:"open"`
	High   number `json:"high"`
	Low    number `json:"low"`
	Close  number `json:"close"`
	Volume number `json:"volume"`
}

// Bars returns daily bars for a contract, oldest first
func (f *Futures) Bars(ctx context.Context, contractID string, lookbackDays int) ([]domain.OHLCVBar, error) {
	var rows []barRow
	args := []string{"--contract", contractID, "--days", strconv.Itoa(lookbackDays)}
	if err := f.runner.RunJSON(ctx, futuresSkill, "history", args, &rows); err != nil {
		return nil, err
	}

	bars := make([]domain.OHLCVBar, 0, len(rows))
	for _, r := range rows {
		date, err := domain.ParseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("history for %s: %w", contractID, err)
		}
		bars = append(bars, domain.OHLCVBar{
			Date:   date,
			Open:   float64(r.Open),
			High:   float64(r.High),
			Low:    float64(r.Low),
			Close:  float64(r.Close),
			Volume: float64(r.Volume),
		})
	}
	return bars, nil
}

type optionRow struct {
	Code   string `json:"code"`
	Strike number `json:"strike"`
	Expiry string `json:"expiry"`
	Type   string `json:"type"`
	Price  number `json:"price"`
	Volume number `json:"volume"`
}

// Chain lists the option contracts on an underlying
func (f *Futures) Chain(ctx context.Context, underlying string) ([]domain.ContractDescriptor, error) {
	var rows []optionRow
	if err := f.runner.RunJSON(ctx, futuresSkill, "options", []string{"--underlying", underlying}, &rows); err != nil {
		return nil, err
	}

	contracts := make([]domain.ContractDescriptor, 0, len(rows))
	for _, r := range rows {
		optType, err := domain.ParseOptionType(r.Type)
		if err != nil {
			return nil, fmt.Errorf("option %s: %w", r.Code, err)
		}
		expiry, err := domain.ParseDate(r.Expiry)
		if err != nil {
			return nil, fmt.Errorf("option %s: %w", r.Code, err)
		}
		contracts = append(contracts, domain.ContractDescriptor{
			ID:         r.Code,
			Underlying: underlying,
			Strike:     float64(r.Strike),
			Expiry:     expiry,
			OptionType: optType,
			Price:      float64(r.Price),
			Volume:     float64(r.Volume),
		})
	}
	return contracts, nil
}
