package domain

import "errors"

// Error taxonomy for the quantitative engine.
//
// The optimizer surfaces these directly. The analysis and recommendation
// services catch them and degrade to a tagged result instead, so a missing
// data feed never takes down an aggregate response.
var (
	// ErrDataUnavailable indicates the price provider returned no usable rows
	// for the requested tickers or benchmark.
	ErrDataUnavailable = errors.New("price data unavailable")

	// ErrInsufficientHistory indicates fewer than two aligned observations
	// remained after dropping incomplete rows.
	ErrInsufficientHistory = errors.New("insufficient price history")

	// ErrInputMismatch indicates ticker/price/share inputs disagree
	// (non-positive price or share count, duplicate ticker, empty portfolio).
	ErrInputMismatch = errors.New("portfolio input mismatch")

	// ErrOptimizationDiverged indicates the solver failed to satisfy its
	// constraints or converge. No fallback solver runs; callers decide how
	// to react.
	ErrOptimizationDiverged = errors.New("optimization did not converge")

	// ErrDegenerateVolatility indicates a Sharpe or beta computation would
	// divide by a zero or near-zero volatility.
	ErrDegenerateVolatility = errors.New("degenerate volatility")
)
