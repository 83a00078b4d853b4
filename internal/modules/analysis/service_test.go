package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/quantfolio/internal/domain"
	"github.com/aristath/quantfolio/internal/modules/market"
	"github.com/aristath/quantfolio/internal/modules/projection"
	"github.com/aristath/quantfolio/internal/modules/returns"
	"github.com/aristath/quantfolio/pkg/logger"
)

// stubPrices serves one fixed table per ticker, aligned on a shared date axis.
type stubPrices struct {
	closes map[string][]float64
	err    error
}

func (s stubPrices) DailyCloses(_ context.Context, tickers []string, _, _ time.Time) (domain.PriceTable, error) {
	if s.err != nil {
		return domain.PriceTable{}, s.err
	}
	table := domain.PriceTable{Tickers: tickers}
	series, ok := s.closes[tickers[0]]
	if !ok {
		return table, nil
	}
	for i := range series {
		table.Dates = append(table.Dates, time.Date(2024, 3, i+1, 0, 0, 0, 0, time.UTC))
		row := make([]float64, len(tickers))
		for j, ticker := range tickers {
			row[j] = s.closes[ticker][i]
		}
		table.Closes = append(table.Closes, row)
	}
	return table, nil
}

func newTestService(prices stubPrices) *Service {
	cfg := Config{
		TradingDays:     252,
		LookbackDays:    365,
		RiskFreeRate:    0.01,
		BenchmarkSymbol: "^GSPC",
	}
	calc := returns.NewCalculator(cfg.TradingDays, logger.Nop())
	analyzer := market.NewAnalyzer(cfg.TradingDays, logger.Nop())
	projector := projection.New(projection.Config{
		TradingDays:  cfg.TradingDays,
		Horizon:      20,
		RiskFreeRate: cfg.RiskFreeRate,
	}, logger.Nop())
	return NewService(prices, calc, analyzer, projector, cfg, logger.Nop())
}

func testRequest(seed uint64) Request {
	return Request{
		Portfolio: domain.Portfolio{"AAA": {Ticker: "AAA", Price: 105, Shares: 10}},
		Seed:      &seed,
	}
}

func TestAnalyze(t *testing.T) {
	prices := stubPrices{closes: map[string][]float64{
		"AAA":   {100, 102, 101, 104, 103, 106, 105},
		"^GSPC": {4000, 4080, 4040, 4160, 4120, 4240, 4320},
	}}
	svc := newTestService(prices)

	result := svc.Analyze(context.Background(), testRequest(42))
	require.Nil(t, result.Error)

	assert.InDelta(t, 1050.0, result.TotalInvestment, 1e-9)
	assert.InDelta(t, 1.0, result.Weights["AAA"], 1e-12)
	assert.InDelta(t, 1050.0, result.CurrentValue["AAA"], 1e-9)

	assert.Greater(t, result.Historical.AnnualVolatility, 0.0)
	assert.InDelta(t,
		(result.Historical.AnnualReturn-0.01)/result.Historical.AnnualVolatility,
		result.Historical.SharpeRatio, 1e-9)
	assert.Greater(t, result.Historical.Beta, 0.0, "a positively correlated benchmark implies positive beta")
	assert.LessOrEqual(t, result.Historical.MaxDrawdown, 0.0)

	// The benchmark gained 8% over the window.
	assert.Equal(t, domain.MarketBullish, result.MarketCondition.State)
	assert.InDelta(t, 8.0, result.MarketCondition.TrendPct, 1e-9)

	require.Len(t, result.FutureDates, 20)
	require.Len(t, result.FuturePrices["AAA"], 20)
	assert.NotEmpty(t, result.Opinion)
}

func TestAnalyzeReproducibleWithSeed(t *testing.T) {
	prices := stubPrices{closes: map[string][]float64{
		"AAA":   {100, 102, 101, 104, 103, 106, 105},
		"^GSPC": {4000, 4080, 4040, 4160, 4120, 4240, 4320},
	}}
	svc := newTestService(prices)

	first := svc.Analyze(context.Background(), testRequest(42))
	second := svc.Analyze(context.Background(), testRequest(42))
	require.Nil(t, first.Error)
	require.Nil(t, second.Error)

	assert.Equal(t, first.FuturePrices, second.FuturePrices)
	assert.Equal(t, first.Projected, second.Projected)
	assert.Equal(t, first.Historical, second.Historical)
}

func TestAnalyzeWithoutBenchmark(t *testing.T) {
	prices := stubPrices{closes: map[string][]float64{
		"AAA": {100, 102, 101, 104, 103, 106, 105},
	}}
	svc := newTestService(prices)

	result := svc.Analyze(context.Background(), testRequest(7))
	require.Nil(t, result.Error)

	assert.Equal(t, domain.MarketUnknown, result.MarketCondition.State)
	assert.Equal(t, 1.0, result.Historical.Beta)
}

func TestAnalyzeFailsOpen(t *testing.T) {
	t.Run("invalid portfolio", func(t *testing.T) {
		svc := newTestService(stubPrices{})
		result := svc.Analyze(context.Background(), Request{Portfolio: domain.Portfolio{}})
		require.NotNil(t, result.Error)
	})

	t.Run("price history unavailable", func(t *testing.T) {
		svc := newTestService(stubPrices{err: errors.New("upstream down")})
		result := svc.Analyze(context.Background(), testRequest(1))
		require.NotNil(t, result.Error)
		assert.Empty(t, result.Opinion)
	})
}
