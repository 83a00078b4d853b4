package recommendation

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/quantfolio/internal/domain"
	"github.com/aristath/quantfolio/internal/marketdata"
	"github.com/aristath/quantfolio/internal/modules/returns"
	"github.com/aristath/quantfolio/pkg/logger"
)

// stubPrices serves pre-built tables keyed by the sorted, comma-joined ticker
// list. Unknown keys yield an empty table, which the pipeline treats as
// missing data.
type stubPrices struct {
	tables map[string]domain.PriceTable
	errs   map[string]error
}

func (s stubPrices) DailyCloses(_ context.Context, tickers []string, _, _ time.Time) (domain.PriceTable, error) {
	sorted := append([]string(nil), tickers...)
	sort.Strings(sorted)
	key := strings.Join(sorted, ",")
	if err := s.errs[key]; err != nil {
		return domain.PriceTable{}, err
	}
	if table, ok := s.tables[key]; ok {
		return table, nil
	}
	return domain.PriceTable{Tickers: tickers}, nil
}

type stubConstituents struct {
	byProxy map[string][]marketdata.Constituent
	errs    map[string]error
}

func (s stubConstituents) TopConstituents(_ context.Context, proxy string) ([]marketdata.Constituent, error) {
	if err := s.errs[proxy]; err != nil {
		return nil, err
	}
	return s.byProxy[proxy], nil
}

// singleTable builds an aligned one-ticker table over a shared date axis so
// every fixture series overlaps.
func singleTable(ticker string, closes []float64) domain.PriceTable {
	table := domain.PriceTable{Tickers: []string{ticker}}
	for i, c := range closes {
		table.Dates = append(table.Dates, time.Date(2024, 3, i+1, 0, 0, 0, 0, time.UTC))
		table.Closes = append(table.Closes, []float64{c})
	}
	return table
}

func testPortfolio() domain.Portfolio {
	return domain.Portfolio{"AAA": {Ticker: "AAA", Price: 105, Shares: 10}}
}

func newTestRecommender(prices stubPrices, constituents stubConstituents) *Recommender {
	calc := returns.NewCalculator(252, logger.Nop())
	cfg := Config{
		TradingDays:     252,
		LookbackDays:    365,
		BenchmarkSymbol: "^GSPC",
	}
	return New(prices, constituents, calc, cfg, logger.Nop())
}

func fixtureTables() map[string]domain.PriceTable {
	return map[string]domain.PriceTable{
		"AAA": singleTable("AAA", []float64{100, 102, 101, 104, 103, 106, 105}),
		// Three sector proxies with history; the remaining seven have none
		// and must be excluded from the ranking.
		"XLU": singleTable("XLU", []float64{50, 50.5, 50.2, 50.8, 50.3, 50.9, 50.5}),
		"XLE": singleTable("XLE", []float64{80, 79, 81, 78, 82, 77, 83}),
		"XLK": singleTable("XLK", []float64{200, 204, 202, 208, 206, 212, 210}),
		// Scorable candidates.
		"NEE": singleTable("NEE", []float64{60, 60.6, 60.1, 60.9, 60.4, 61.2, 60.8}),
		"XOM": singleTable("XOM", []float64{110, 109, 112, 108, 113, 107, 114}),
	}
}

func fixtureConstituents() stubConstituents {
	return stubConstituents{
		byProxy: map[string][]marketdata.Constituent{
			// AAA is already held and must never be recommended; DUK has no
			// price history and must be skipped by the scorer.
			"XLU": {{Ticker: "NEE"}, {Ticker: "AAA"}, {Ticker: "DUK"}},
			"XLE": {{Ticker: "XOM"}},
		},
		errs: map[string]error{
			"XLK": errors.New("holdings lookup rejected"),
		},
	}
}

func TestRecommend(t *testing.T) {
	rec := newTestRecommender(stubPrices{tables: fixtureTables()}, fixtureConstituents())

	result := rec.Recommend(context.Background(), testPortfolio(), 2)
	require.Nil(t, result.Error)

	require.NotEmpty(t, result.Recommendations)
	assert.LessOrEqual(t, len(result.Recommendations), 2)
	for i, r := range result.Recommendations {
		assert.NotEqual(t, "AAA", r.Ticker, "held tickers must never be recommended")
		assert.NotEqual(t, "DUK", r.Ticker, "candidates without history must be skipped")
		assert.Greater(t, r.CurrentPrice, 0.0)
		if i > 0 {
			assert.GreaterOrEqual(t, result.Recommendations[i-1].Score(), r.Score(),
				"recommendations must be ordered by descending combined reduction")
		}
	}

	// All three proxies with data survive the ranking; the benchmark is
	// unavailable here, so the portfolio beta degrades to 1.0.
	assert.Len(t, result.Analysis.LowCorrelationSectors, 3)
	assert.Equal(t, 1.0, result.Analysis.CurrentBeta)
	assert.Greater(t, result.Analysis.CurrentVolatility, 0.0)
	assert.Empty(t, result.FallbackMessage)
	assert.Empty(t, result.FallbackSuggestions)
}

func TestRecommendHonorsCount(t *testing.T) {
	rec := newTestRecommender(stubPrices{tables: fixtureTables()}, fixtureConstituents())

	result := rec.Recommend(context.Background(), testPortfolio(), 1)
	require.Nil(t, result.Error)
	assert.Len(t, result.Recommendations, 1)
}

func TestRecommendFallbackSuggestions(t *testing.T) {
	// Only one proxy has history and none of its constituents do: scoring
	// yields nothing, so unscored suggestions from that sector are offered.
	tables := map[string]domain.PriceTable{
		"AAA": singleTable("AAA", []float64{100, 102, 101, 104, 103, 106, 105}),
		"XLU": singleTable("XLU", []float64{50, 50.5, 50.2, 50.8, 50.3, 50.9, 50.5}),
	}
	constituents := stubConstituents{
		byProxy: map[string][]marketdata.Constituent{
			"XLU": {{Ticker: "NEE"}, {Ticker: "AAA"}, {Ticker: "DUK"}, {Ticker: "SO"}},
		},
	}
	rec := newTestRecommender(stubPrices{tables: tables}, constituents)

	result := rec.Recommend(context.Background(), testPortfolio(), 2)
	require.Nil(t, result.Error)

	assert.Empty(t, result.Recommendations)
	assert.Contains(t, result.FallbackMessage, "Utilities")
	require.Len(t, result.FallbackSuggestions, 2)
	assert.Equal(t, Suggestion{Ticker: "NEE", Sector: "Utilities"}, result.FallbackSuggestions[0])
	assert.Equal(t, Suggestion{Ticker: "DUK", Sector: "Utilities"}, result.FallbackSuggestions[1])
}

func TestRecommendFailsOpen(t *testing.T) {
	t.Run("portfolio history unavailable", func(t *testing.T) {
		prices := stubPrices{errs: map[string]error{"AAA": errors.New("upstream down")}}
		rec := newTestRecommender(prices, stubConstituents{})

		result := rec.Recommend(context.Background(), testPortfolio(), 2)
		require.NotNil(t, result.Error)
		assert.Empty(t, result.Recommendations)
	})

	t.Run("no sector proxy has data", func(t *testing.T) {
		tables := map[string]domain.PriceTable{
			"AAA": singleTable("AAA", []float64{100, 102, 101, 104, 103, 106, 105}),
		}
		rec := newTestRecommender(stubPrices{tables: tables}, stubConstituents{})

		result := rec.Recommend(context.Background(), testPortfolio(), 2)
		require.NotNil(t, result.Error)
	})

	t.Run("invalid portfolio", func(t *testing.T) {
		rec := newTestRecommender(stubPrices{}, stubConstituents{})

		result := rec.Recommend(context.Background(), domain.Portfolio{}, 2)
		require.NotNil(t, result.Error)
	})
}
