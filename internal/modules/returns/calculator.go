// Package returns converts aligned price tables into periodic returns and
// annualized mean/covariance statistics. It is the leaf every other engine
// module builds on.
package returns

import (
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/quantfolio/internal/domain"
)

// Calculator derives return statistics from price tables.
type Calculator struct {
	tradingDays int
	log         zerolog.Logger
}

// NewCalculator creates a calculator using the given annualization
// convention (252 for daily data).
func NewCalculator(tradingDays int, log zerolog.Logger) *Calculator {
	return &Calculator{
		tradingDays: tradingDays,
		log:         log.With().Str("component", "returns").Logger(),
	}
}

// Returns computes simple period-over-period percentage changes for every
// ticker in the table. The result has one fewer row than the input.
//
// An empty table maps to domain.ErrDataUnavailable; fewer than two aligned
// rows map to domain.ErrInsufficientHistory.
func (c *Calculator) Returns(table domain.PriceTable) (domain.ReturnTable, error) {
	if table.Empty() {
		return domain.ReturnTable{}, fmt.Errorf("%w: no aligned price rows for %v", domain.ErrDataUnavailable, table.Tickers)
	}
	if table.NumRows() < 2 {
		return domain.ReturnTable{}, fmt.Errorf("%w: %d aligned rows, need at least 2", domain.ErrInsufficientHistory, table.NumRows())
	}

	n := table.NumRows() - 1
	rt := domain.ReturnTable{
		Tickers: append([]string(nil), table.Tickers...),
		Dates:   table.Dates[1:],
	}
	rt.Returns = make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, len(table.Tickers))
		for j := range table.Tickers {
			prev := table.Closes[i][j]
			row[j] = (table.Closes[i+1][j] - prev) / prev
		}
		rt.Returns[i] = row
	}
	return rt, nil
}

// AnnualizedMeanCov computes the annualized mean return vector and covariance
// matrix of the return table: mean × tradingDays and covariance ×
// tradingDays. The output is deterministic given the input.
func (c *Calculator) AnnualizedMeanCov(rt domain.ReturnTable) ([]float64, *mat.SymDense, error) {
	if rt.NumRows() < 2 {
		return nil, nil, fmt.Errorf("%w: %d return rows, need at least 2", domain.ErrInsufficientHistory, rt.NumRows())
	}

	k := len(rt.Tickers)
	cols := make([][]float64, k)
	for j, ticker := range rt.Tickers {
		cols[j] = rt.Column(ticker)
	}

	scale := float64(c.tradingDays)
	mu := make([]float64, k)
	for j := range cols {
		mu[j] = stat.Mean(cols[j], nil) * scale
	}

	sigma := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			sigma.SetSym(i, j, stat.Covariance(cols[i], cols[j], nil)*scale)
		}
	}

	c.log.Debug().
		Int("assets", k).
		Int("observations", rt.NumRows()).
		Msg("Computed annualized mean and covariance")
	return mu, sigma, nil
}
