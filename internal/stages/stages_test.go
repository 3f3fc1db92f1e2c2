package stages

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aristath/commodities/internal/domain"
	"github.com/aristath/commodities/internal/progress"
	"github.com/aristath/commodities/internal/workers"
)

var today = domain.NewDate(2025, time.March, 1)

func instruments() []domain.Instrument {
	return []domain.Instrument{
		{ID: "RB", Name: "螺纹钢", MainContract: "rb2505", Price: 3700},
		{ID: "CU", Name: "沪铜", MainContract: "cu2505", Price: 78000},
		{ID: "AU", Name: "黄金", MainContract: "", Price: 560},
	}
}

func TestTechnical_RunAnalyzesEveryInstrument(t *testing.T) {
	history := &mockHistory{}
	analyzer := &mockAnalyzer{}
	indicators := []string{"ma", "rsi"}
	bars := []domain.OHLCVBar{{Close: 1}}

	history.On("Bars", "rb2505", 15).Return(bars, nil)
	history.On("Bars", "cu2505", 15).Return(bars, nil)
	history.On("Bars", "AU", 15).Return(bars, nil)
	analyzer.On("Analyze", mock.Anything, bars, indicators).
		Return(domain.TechnicalState{Trend: domain.TrendBullish, Strength: 7}, nil)

	stage := NewTechnical(history, analyzer, 15, indicators, zerolog.Nop())
	result, err := stage.Run(context.Background(), workers.NewPool(2), instruments(), progress.Nop{})

	require.NoError(t, err)
	require.Len(t, result, 3)
	assert.Equal(t, "CU", result["CU"].InstrumentID)
	assert.Equal(t, domain.TrendBullish, result["AU"].Trend)
	history.AssertExpectations(t)
}

func TestTechnical_FailureNamesInstrument(t *testing.T) {
	history := &mockHistory{}
	analyzer := &mockAnalyzer{}
	cause := errors.New("history script exited with status 2")

	history.On("Bars", "rb2505", 15).Return([]domain.OHLCVBar{}, nil)
	history.On("Bars", "cu2505", 15).Return(nil, cause)
	history.On("Bars", "AU", 15).Return([]domain.OHLCVBar{}, nil)
	analyzer.On("Analyze", mock.Anything, mock.Anything, mock.Anything).Return(domain.TechnicalState{}, nil)

	stage := NewTechnical(history, analyzer, 15, nil, zerolog.Nop())
	result, err := stage.Run(context.Background(), workers.NewPool(1), instruments(), nil)

	assert.Nil(t, result)
	var itemErr *workers.ItemError
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, StageTechnical, itemErr.Stage)
	assert.Equal(t, "CU", itemErr.ItemID)
	assert.ErrorIs(t, err, cause)
}

func chain() []domain.ContractDescriptor {
	expiry := domain.NewDate(2025, time.April, 15)
	return []domain.ContractDescriptor{
		{ID: "rb2505C3600", Strike: 3600, Expiry: expiry, OptionType: domain.OptionCall, Price: 140, Volume: 100},
		{ID: "rb2505C3700", Strike: 3700, Expiry: expiry, OptionType: domain.OptionCall, Price: 90, Volume: 900},
		{ID: "rb2505P3700", Strike: 3700, Expiry: expiry, OptionType: domain.OptionPut, Price: 85, Volume: 900},
		{ID: "rb2505C3800", Strike: 3800, Expiry: expiry, OptionType: domain.OptionCall, Price: 50, Volume: 400},
		{ID: "rb2505P3500", Strike: 3500, Expiry: expiry, OptionType: domain.OptionPut, Price: 20, Volume: 10},
	}
}

func TestSelectContracts_TopByVolumeStable(t *testing.T) {
	picked := selectContracts(chain(), 3, nil)

	require.Len(t, picked, 3)
	assert.Equal(t, "rb2505C3700", picked[0].ID)
	assert.Equal(t, "rb2505P3700", picked[1].ID, "equal volume keeps chain order")
	assert.Equal(t, "rb2505C3800", picked[2].ID)
}

func TestSelectContracts_IncludesHeldContracts(t *testing.T) {
	picked := selectContracts(chain(), 2, []string{"rb2505P3500", "rb2505C3700", "unknown"})

	ids := make([]string, len(picked))
	for i, c := range picked {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"rb2505C3700", "rb2505P3700", "rb2505P3500"}, ids)
}

func TestSelectContracts_ShortChain(t *testing.T) {
	assert.Len(t, selectContracts(chain()[:2], 5, nil), 2)
	assert.Empty(t, selectContracts(nil, 5, nil))
}

func TestDerivatives_FailedSolvePricesWithFallbackVolatility(t *testing.T) {
	chains := &mockChain{}
	chains.On("Chain", "rb2505").Return(chain()[:2], nil)
	pricer := &fakePricer{iv: 0, fair: 100, delta: 0.5}

	stage := NewDerivatives(chains, pricer, 5, 0.02, zerolog.Nop())
	result, err := stage.Run(context.Background(), workers.NewPool(2), instruments()[:1], DerivativeScope{AsOf: today}, nil)

	require.NoError(t, err)
	quotes := result["RB"]
	require.Len(t, quotes, 2)

	q := quotes[1]
	assert.Equal(t, "rb2505C3600", q.ID)
	assert.Equal(t, "RB", q.Underlying)
	assert.Zero(t, q.IV, "failed solve is reported as 0")
	assert.Equal(t, 100.0, q.FairValue)
	assert.Equal(t, 40.0, q.Mispricing)

	require.Len(t, pricer.valued, 2)
	assert.Equal(t, 3700.0, pricer.valued[0].Spot)
	assert.InDelta(t, 45.0/365, pricer.valued[0].Years, 1e-12)
	assert.Equal(t, 0.02, pricer.valued[0].Rate)
	assert.Equal(t, 0.2, pricer.valued[0].Vol)
}

func TestDerivatives_ExpiredContractUsesTimeFloor(t *testing.T) {
	chains := &mockChain{}
	chains.On("Chain", "rb2505").Return([]domain.ContractDescriptor{
		{ID: "rb2502C3700", Strike: 3700, Expiry: domain.NewDate(2025, time.February, 20), OptionType: domain.OptionCall, Price: 1},
	}, nil)
	pricer := &fakePricer{iv: 0.31, fair: 1}

	stage := NewDerivatives(chains, pricer, 5, 0.02, zerolog.Nop())
	result, err := stage.Run(context.Background(), workers.NewPool(1), instruments()[:1], DerivativeScope{AsOf: today}, nil)

	require.NoError(t, err)
	assert.Equal(t, 0.31, result["RB"][0].IV)
	assert.Equal(t, 0.001, pricer.implied[0].Years)
}

func TestDerivatives_RequestsChainByMainContract(t *testing.T) {
	chains := &mockChain{}
	chains.On("Chain", "rb2505").Return(chain()[:1], nil)
	chains.On("Chain", "AU").Return([]domain.ContractDescriptor{
		{ID: "au2506P540", Strike: 540, Expiry: domain.NewDate(2025, time.April, 15), OptionType: domain.OptionPut, Price: 8, Volume: 10},
	}, nil)
	pricer := &fakePricer{iv: 0.25, fair: 50}

	stage := NewDerivatives(chains, pricer, 5, 0.02, zerolog.Nop())
	all := instruments()
	result, err := stage.Run(context.Background(), workers.NewPool(1), []domain.Instrument{all[0], all[2]}, DerivativeScope{AsOf: today}, nil)

	require.NoError(t, err)
	chains.AssertExpectations(t)
	chains.AssertNotCalled(t, "Chain", "RB")

	// results stay keyed by instrument id
	require.Len(t, result["RB"], 1)
	require.Len(t, result["AU"], 1)
	assert.Equal(t, "AU", result["AU"][0].Underlying)
	assert.Equal(t, 0.25, result["AU"][0].IV)
}

func TestDerivatives_PricingFailureAbortsStage(t *testing.T) {
	chains := &mockChain{}
	chains.On("Chain", "rb2505").Return(chain(), nil)
	pricer := &fakePricer{iv: 0.2, valErr: errors.New("malformed greeks output")}

	stage := NewDerivatives(chains, pricer, 5, 0.02, zerolog.Nop())
	_, err := stage.Run(context.Background(), workers.NewPool(1), instruments()[:1], DerivativeScope{AsOf: today}, nil)

	var itemErr *workers.ItemError
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, StageDerivatives, itemErr.Stage)
	assert.Equal(t, "RB", itemErr.ItemID)
	assert.Contains(t, err.Error(), "rb2505C3700")
}

func TestNews_SearchesByDisplayName(t *testing.T) {
	source := &mockNewsSource{}
	sources := []string{"eastmoney", "sina"}
	source.On("News", "螺纹钢", sources, 5).Return([]domain.NewsItem{{Title: "螺纹钢期货上涨", Sentiment: domain.SentimentPositive}}, nil)
	source.On("News", "沪铜", sources, 5).Return(nil, nil)

	stage := NewNews(source, sources, 5)
	result, err := stage.Run(context.Background(), workers.NewPool(4), instruments()[:2], nil)

	require.NoError(t, err)
	assert.Len(t, result["RB"], 1)
	assert.NotNil(t, result["CU"])
	assert.Empty(t, result["CU"])
	source.AssertExpectations(t)
}

func TestAlerts_MatchesInstrumentsByName(t *testing.T) {
	mailbox := &mockMailbox{}
	mailbox.On("Alerts").Return([]domain.NewsItem{
		{Title: "Google Alert - 沪铜", Summary: "铜价走强"},
		{Title: "Google Alert - 黄金", Summary: "黄金与沪铜同步上涨"},
		{Title: "Unrelated", Summary: "nothing to see"},
	}, nil).Once()

	stage := NewAlerts(mailbox)
	result, err := stage.Run(context.Background(), workers.NewPool(2), instruments(), nil)

	require.NoError(t, err)
	assert.Len(t, result["CU"], 2)
	assert.Len(t, result["AU"], 1)
	assert.NotContains(t, result, "RB")
	mailbox.AssertExpectations(t)
}

func TestAlerts_FailureIsAnItemError(t *testing.T) {
	mailbox := &mockMailbox{}
	mailbox.On("Alerts").Return(nil, errors.New("gmail token expired"))

	_, err := NewAlerts(mailbox).Run(context.Background(), workers.NewPool(1), instruments(), nil)

	var itemErr *workers.ItemError
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, StageAlerts, itemErr.Stage)
}
