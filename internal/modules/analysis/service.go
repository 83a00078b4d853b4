// Package analysis aggregates historical metrics, market context, and a
// stochastic forward projection into one portfolio analysis response.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantfolio/internal/domain"
	"github.com/aristath/quantfolio/internal/marketdata"
	"github.com/aristath/quantfolio/internal/modules/market"
	"github.com/aristath/quantfolio/internal/modules/projection"
	"github.com/aristath/quantfolio/internal/modules/returns"
	"github.com/aristath/quantfolio/pkg/formulas"
)

// Config holds analysis conventions.
type Config struct {
	TradingDays     int
	LookbackDays    int
	RiskFreeRate    float64
	BenchmarkSymbol string
}

// Request is one analysis invocation. Seed reproduces the projection.
type Request struct {
	Portfolio domain.Portfolio
	Seed      *uint64
}

// Result is the non-raising analysis response. The service aggregates many
// sub-computations, so a single missing dependency degrades into the Error
// field instead of aborting the whole response.
type Result struct {
	TotalInvestment float64                `json:"total_investment,omitempty"`
	Weights         domain.Weights         `json:"weights,omitempty"`
	CurrentValue    map[string]float64     `json:"current_value,omitempty"`
	Historical      domain.PortfolioMetrics `json:"historical_metrics"`
	Projected       projection.Metrics     `json:"projected_metrics"`
	FutureDates     []time.Time            `json:"future_dates,omitempty"`
	FuturePrices    map[string][]float64   `json:"future_prices,omitempty"`
	MarketCondition domain.MarketCondition `json:"market_conditions"`
	Opinion         []string               `json:"opinion,omitempty"`
	Error           *string                `json:"error,omitempty"`
}

// Service runs portfolio analyses.
type Service struct {
	prices    marketdata.PriceProvider
	calc      *returns.Calculator
	market    *market.Analyzer
	projector *projection.Projector
	cfg       Config
	log       zerolog.Logger
}

// NewService creates an analysis service.
func NewService(
	prices marketdata.PriceProvider,
	calc *returns.Calculator,
	marketAnalyzer *market.Analyzer,
	projector *projection.Projector,
	cfg Config,
	log zerolog.Logger,
) *Service {
	return &Service{
		prices:    prices,
		calc:      calc,
		market:    marketAnalyzer,
		projector: projector,
		cfg:       cfg,
		log:       log.With().Str("component", "analysis").Logger(),
	}
}

// Analyze computes the full analysis for the given holdings. It never
// returns a Go error; failures are reported through the Error field.
func (s *Service) Analyze(ctx context.Context, req Request) Result {
	result, err := s.analyze(ctx, req)
	if err != nil {
		s.log.Error().Err(err).Msg("Analysis failed")
		msg := err.Error()
		return Result{Error: &msg}
	}
	return result
}

func (s *Service) analyze(ctx context.Context, req Request) (Result, error) {
	portfolio := req.Portfolio
	weights, err := domain.WeightsFromPositions(portfolio)
	if err != nil {
		return Result{}, err
	}

	end := time.Now()
	start := end.AddDate(0, 0, -s.cfg.LookbackDays)

	table, err := s.prices.DailyCloses(ctx, portfolio.Tickers(), start, end)
	if err != nil {
		return Result{}, err
	}
	rt, err := s.calc.Returns(table)
	if err != nil {
		return Result{}, err
	}
	portfolioSeries := rt.Weighted(weights)

	// Historical portfolio metrics over the trailing window.
	annualReturn := formulas.AnnualizedReturn(portfolioSeries.Values, s.cfg.TradingDays)
	annualVol := formulas.AnnualizedVolatility(portfolioSeries.Values, s.cfg.TradingDays)
	sharpe := formulas.SharpeFromReturns(portfolioSeries.Values, s.cfg.RiskFreeRate, s.cfg.TradingDays)
	if sharpe == nil {
		return Result{}, fmt.Errorf("%w: portfolio volatility is zero over the lookback window", domain.ErrDegenerateVolatility)
	}
	maxDrawdown := 0.0
	if dd := formulas.MaxDrawdownFromReturns(portfolioSeries.Values); dd != nil {
		maxDrawdown = *dd
	}

	// Benchmark feeds both beta and the regime classification; it is allowed
	// to be missing.
	benchCloses, beta := s.benchmark(ctx, portfolioSeries, start, end)
	condition := s.market.Analyze(benchCloses)

	historical := domain.PortfolioMetrics{
		AnnualReturn:     annualReturn,
		AnnualVolatility: annualVol,
		SharpeRatio:      *sharpe,
		MaxDrawdown:      maxDrawdown,
		Beta:             beta,
	}

	// Forward simulation calibrated per asset from the same window.
	assets := make([]projection.Asset, 0, len(table.Tickers))
	for _, ticker := range table.Tickers {
		assetReturns := rt.Column(ticker)
		assets = append(assets, projection.Asset{
			Ticker:           ticker,
			CurrentPrice:     portfolio[ticker].Price,
			AnnualReturn:     formulas.AnnualizedReturn(assetReturns, s.cfg.TradingDays),
			AnnualVolatility: formulas.AnnualizedVolatility(assetReturns, s.cfg.TradingDays),
		})
	}
	projected, err := s.projector.Project(projection.Input{
		Assets:  assets,
		Weights: weights,
		Start:   end,
		Seed:    req.Seed,
	})
	if err != nil {
		return Result{}, err
	}

	currentValue := make(map[string]float64, len(portfolio))
	for ticker, pos := range portfolio {
		currentValue[ticker] = pos.MarketValue()
	}

	return Result{
		TotalInvestment: portfolio.TotalValue(),
		Weights:         weights,
		CurrentValue:    currentValue,
		Historical:      historical,
		Projected:       projected.Metrics,
		FutureDates:     projected.Dates,
		FuturePrices:    projected.Paths,
		MarketCondition: condition,
		Opinion:         generateOpinion(historical, condition),
	}, nil
}

// benchmark fetches the benchmark series and computes the portfolio's market
// beta (cov/var over overlapping dates). A missing benchmark degrades to nil
// closes and the neutral beta of 1.0.
func (s *Service) benchmark(ctx context.Context, portfolioSeries domain.ReturnSeries, start, end time.Time) ([]float64, float64) {
	benchTable, err := s.prices.DailyCloses(ctx, []string{s.cfg.BenchmarkSymbol}, start, end)
	if err != nil || benchTable.Empty() {
		s.log.Warn().Str("benchmark", s.cfg.BenchmarkSymbol).Msg("Benchmark unavailable")
		return nil, 1.0
	}

	closes := benchTable.Column(s.cfg.BenchmarkSymbol)
	benchReturns, err := s.calc.Returns(benchTable)
	if err != nil {
		return closes, 1.0
	}
	benchSeries := domain.ReturnSeries{Dates: benchReturns.Dates, Values: benchReturns.Column(s.cfg.BenchmarkSymbol)}

	pv, bv := domain.AlignReturns(portfolioSeries, benchSeries)
	if b := formulas.Beta(pv, bv); b != nil {
		return closes, *b
	}
	return closes, 1.0
}
