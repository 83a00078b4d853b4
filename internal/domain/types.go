package domain

import (
	"fmt"
	"math"
)

// WeightTolerance is the numerical tolerance on the full-investment
// constraint: weights must sum to 1 within this bound.
const WeightTolerance = 1e-6

// Position is a single portfolio holding. Price and Shares must be positive.
type Position struct {
	Ticker string  `json:"ticker"`
	Price  float64 `json:"price"`
	Shares float64 `json:"shares"`
}

// MarketValue returns the position's market value.
func (p Position) MarketValue() float64 {
	return p.Price * p.Shares
}

// Portfolio maps ticker to position. A ticker appears at most once.
type Portfolio map[string]Position

// Tickers returns the held tickers in unspecified order.
func (pf Portfolio) Tickers() []string {
	tickers := make([]string, 0, len(pf))
	for ticker := range pf {
		tickers = append(tickers, ticker)
	}
	return tickers
}

// TotalValue returns the summed market value of all positions.
func (pf Portfolio) TotalValue() float64 {
	var total float64
	for _, pos := range pf {
		total += pos.MarketValue()
	}
	return total
}

// Validate checks positions for non-positive prices or share counts and
// ticker/key disagreements.
func (pf Portfolio) Validate() error {
	if len(pf) == 0 {
		return fmt.Errorf("%w: portfolio is empty", ErrInputMismatch)
	}
	for ticker, pos := range pf {
		if pos.Ticker != "" && pos.Ticker != ticker {
			return fmt.Errorf("%w: position keyed %q carries ticker %q", ErrInputMismatch, ticker, pos.Ticker)
		}
		if pos.Price <= 0 {
			return fmt.Errorf("%w: %s has non-positive price %.4f", ErrInputMismatch, ticker, pos.Price)
		}
		if pos.Shares <= 0 {
			return fmt.Errorf("%w: %s has non-positive share count %.4f", ErrInputMismatch, ticker, pos.Shares)
		}
	}
	return nil
}

// Weights maps ticker to allocation fraction in [0, 1].
type Weights map[string]float64

// WeightsFromPositions derives market-value weights from holdings.
func WeightsFromPositions(pf Portfolio) (Weights, error) {
	if err := pf.Validate(); err != nil {
		return nil, err
	}
	total := pf.TotalValue()
	weights := make(Weights, len(pf))
	for ticker, pos := range pf {
		weights[ticker] = pos.MarketValue() / total
	}
	return weights, nil
}

// Sum returns the total allocation.
func (w Weights) Sum() float64 {
	var sum float64
	for _, v := range w {
		sum += v
	}
	return sum
}

// Valid reports whether every weight lies in [0, 1] and the total is 1
// within WeightTolerance.
func (w Weights) Valid() bool {
	for _, v := range w {
		if v < 0 || v > 1 {
			return false
		}
	}
	return math.Abs(w.Sum()-1) <= WeightTolerance
}

// PortfolioMetrics are historical risk/return characteristics computed over
// the 252-trading-day convention.
type PortfolioMetrics struct {
	AnnualReturn     float64 `json:"annual_return"`
	AnnualVolatility float64 `json:"annual_volatility"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	Beta             float64 `json:"beta"`
}

// MarketState classifies the benchmark's current regime.
type MarketState string

const (
	MarketBullish MarketState = "Bullish"
	MarketBearish MarketState = "Bearish"
	MarketNeutral MarketState = "Neutral"
	// MarketUnknown is returned when no benchmark data is available. It keeps
	// downstream consumers operable with degraded input.
	MarketUnknown MarketState = "Unknown"
)

// MarketCondition describes the benchmark regime together with the numbers
// the classification was derived from.
type MarketCondition struct {
	State      MarketState `json:"market_condition"`
	Volatility float64     `json:"market_volatility"`
	TrendPct   float64     `json:"market_trend"`
	RSI        *float64    `json:"market_rsi,omitempty"`
}

// Recommendation is a diversification candidate scored by its estimated
// risk/beta-reduction potential.
type Recommendation struct {
	Ticker              string  `json:"ticker"`
	Sector              string  `json:"sector"`
	CurrentPrice        float64 `json:"current_price"`
	Volatility          float64 `json:"volatility"`
	Beta                float64 `json:"beta"`
	VolatilityReduction float64 `json:"volatility_reduction"`
	BetaReduction       float64 `json:"beta_reduction"`
}

// Score is the combined improvement estimate used for ranking.
func (r Recommendation) Score() float64 {
	return r.VolatilityReduction + r.BetaReduction
}
