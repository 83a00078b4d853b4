// Package projection simulates forward price paths via a stochastic random
// walk calibrated to each asset's historical mean and volatility.
package projection

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/quantfolio/internal/domain"
	"github.com/aristath/quantfolio/pkg/formulas"
)

// Config holds projection conventions.
type Config struct {
	TradingDays  int     // periods per year
	Horizon      int     // projected trading days
	RiskFreeRate float64 // annualized, for the projected Sharpe
}

// Asset is one holding to simulate, calibrated from its trailing history.
type Asset struct {
	Ticker           string
	CurrentPrice     float64
	AnnualReturn     float64
	AnnualVolatility float64
}

// Input bundles one projection request. Seed makes the run reproducible:
// identical seed and inputs produce bit-identical paths. A nil Seed draws a
// time-based seed.
type Input struct {
	Assets  []Asset
	Weights domain.Weights
	Start   time.Time
	Seed    *uint64
}

// Metrics are portfolio-level figures derived from the simulated paths by
// applying the held weights to the simulated daily returns.
type Metrics struct {
	AnnualReturn     float64 `json:"annual_return"`
	AnnualVolatility float64 `json:"annual_volatility"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
}

// Result is a single realization of the forward random walk, not an
// expectation or a price forecast.
type Result struct {
	Dates   []time.Time          `json:"dates"`
	Paths   map[string][]float64 `json:"paths"`
	Metrics Metrics              `json:"metrics"`
}

// Projector runs forward simulations.
type Projector struct {
	cfg Config
	log zerolog.Logger
}

// New creates a projector.
func New(cfg Config, log zerolog.Logger) *Projector {
	return &Projector{
		cfg: cfg,
		log: log.With().Str("component", "projection").Logger(),
	}
}

// Project simulates one forward path per asset over a business-day axis.
//
// Each asset independently draws one daily return per projected trading day
// from Normal(annualReturn/tradingDays, annualVolatility/sqrt(tradingDays))
// and compounds the draws multiplicatively onto the current price.
func (p *Projector) Project(in Input) (Result, error) {
	if len(in.Assets) == 0 {
		return Result{}, fmt.Errorf("%w: no assets to project", domain.ErrInputMismatch)
	}
	for _, a := range in.Assets {
		if a.CurrentPrice <= 0 {
			return Result{}, fmt.Errorf("%w: %s has non-positive price %.4f", domain.ErrInputMismatch, a.Ticker, a.CurrentPrice)
		}
	}

	seed := uint64(time.Now().UnixNano())
	if in.Seed != nil {
		seed = *in.Seed
	}
	src := rand.NewSource(seed)

	dates := businessDays(in.Start, p.cfg.Horizon)
	days := float64(p.cfg.TradingDays)

	paths := make(map[string][]float64, len(in.Assets))
	pathReturns := make([][]float64, len(in.Assets))
	for i, asset := range in.Assets {
		dist := distuv.Normal{
			Mu:    asset.AnnualReturn / days,
			Sigma: asset.AnnualVolatility / math.Sqrt(days),
			Src:   src,
		}

		path := make([]float64, len(dates))
		dailyReturns := make([]float64, len(dates))
		price := asset.CurrentPrice
		for d := range dates {
			r := dist.Rand()
			price *= 1 + r
			path[d] = price
			dailyReturns[d] = r
		}
		paths[asset.Ticker] = path
		pathReturns[i] = dailyReturns
	}

	// Portfolio-level simulated daily returns under the held weights.
	portfolioReturns := make([]float64, len(dates))
	for d := range dates {
		var total float64
		for i, asset := range in.Assets {
			total += in.Weights[asset.Ticker] * pathReturns[i][d]
		}
		portfolioReturns[d] = total
	}

	annualReturn := formulas.AnnualizedReturn(portfolioReturns, p.cfg.TradingDays)
	annualVolatility := formulas.AnnualizedVolatility(portfolioReturns, p.cfg.TradingDays)
	sharpe := formulas.SharpeRatio(annualReturn, annualVolatility, p.cfg.RiskFreeRate)
	if sharpe == nil {
		return Result{}, fmt.Errorf("%w: simulated portfolio volatility is zero", domain.ErrDegenerateVolatility)
	}

	p.log.Debug().
		Int("assets", len(in.Assets)).
		Int("horizon", p.cfg.Horizon).
		Uint64("seed", seed).
		Msg("Simulated forward paths")

	return Result{
		Dates: dates,
		Paths: paths,
		Metrics: Metrics{
			AnnualReturn:     annualReturn,
			AnnualVolatility: annualVolatility,
			SharpeRatio:      *sharpe,
		},
	}, nil
}

// businessDays returns the next n weekdays strictly after start.
func businessDays(start time.Time, n int) []time.Time {
	dates := make([]time.Time, 0, n)
	current := start
	for len(dates) < n {
		current = current.AddDate(0, 0, 1)
		if wd := current.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		dates = append(dates, current)
	}
	return dates
}
