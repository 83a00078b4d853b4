// Package market classifies the current market regime from a benchmark
// index's price series.
package market

import (
	"github.com/rs/zerolog"

	"github.com/aristath/quantfolio/internal/domain"
	"github.com/aristath/quantfolio/pkg/formulas"
)

// Trend thresholds in percent. Exactly ±5 stays Neutral.
const (
	bullishTrendPct = 5.0
	bearishTrendPct = -5.0
	rsiPeriod       = 14
)

// Analyzer derives a MarketCondition from benchmark closes.
type Analyzer struct {
	tradingDays int
	log         zerolog.Logger
}

// NewAnalyzer creates a market analyzer using the given annualization
// convention.
func NewAnalyzer(tradingDays int, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		tradingDays: tradingDays,
		log:         log.With().Str("component", "market").Logger(),
	}
}

// Analyze classifies the regime of the given benchmark price series.
//
// volatility = std(daily returns) × sqrt(tradingDays)
// trend      = (last / first − 1) × 100
// trend >  5 → Bullish, trend < −5 → Bearish, otherwise Neutral.
//
// An empty series yields the Unknown condition with zero volatility and
// trend instead of an error, keeping downstream consumers operable with
// degraded input.
func (a *Analyzer) Analyze(closes []float64) domain.MarketCondition {
	if len(closes) == 0 {
		a.log.Warn().Msg("No benchmark data, market condition unknown")
		return domain.MarketCondition{State: domain.MarketUnknown}
	}

	dailyReturns := formulas.PctChange(closes)
	volatility := formulas.AnnualizedVolatility(dailyReturns, a.tradingDays)
	trendPct := (closes[len(closes)-1]/closes[0] - 1) * 100
	state := classifyTrend(trendPct)

	condition := domain.MarketCondition{
		State:      state,
		Volatility: volatility,
		TrendPct:   trendPct,
		RSI:        formulas.RSI(closes, rsiPeriod),
	}

	a.log.Debug().
		Str("state", string(state)).
		Float64("trend_pct", trendPct).
		Float64("volatility", volatility).
		Msg("Classified market condition")
	return condition
}

// classifyTrend maps a percentage trend onto a market state. The thresholds
// are strict inequalities: a trend of exactly ±5 stays Neutral.
func classifyTrend(trendPct float64) domain.MarketState {
	switch {
	case trendPct > bullishTrendPct:
		return domain.MarketBullish
	case trendPct < bearishTrendPct:
		return domain.MarketBearish
	default:
		return domain.MarketNeutral
	}
}
