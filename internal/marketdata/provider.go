// Package marketdata abstracts the external market-data collaborators behind
// narrow provider interfaces, so the quantitative engine can be exercised
// with deterministic stubs instead of live network calls.
package marketdata

import (
	"context"
	"time"

	"github.com/aristath/quantfolio/internal/domain"
)

// PriceProvider returns aligned daily closing prices for a set of tickers.
//
// Implementations must drop rows where any requested ticker is missing a
// value, and must return an empty table (not an error) on upstream provider
// failure; the engine maps an empty table to domain.ErrDataUnavailable.
type PriceProvider interface {
	DailyCloses(ctx context.Context, tickers []string, start, end time.Time) (domain.PriceTable, error)
}

// Constituent is one member of a sector index, with its weight in the index.
type Constituent struct {
	Ticker string  `json:"ticker"`
	Weight float64 `json:"weight"`
}

// ConstituentsProvider resolves a sector proxy symbol to its most
// representative constituent tickers (at most five). Lookups may fail
// per-proxy; callers degrade instead of aborting.
type ConstituentsProvider interface {
	TopConstituents(ctx context.Context, sectorProxy string) ([]Constituent, error)
}
