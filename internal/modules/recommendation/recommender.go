// Package recommendation scores diversification candidates by correlating
// the held portfolio's return stream against sector-proxy return streams and
// estimating each candidate's risk/beta-reduction potential.
package recommendation

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/quantfolio/internal/domain"
	"github.com/aristath/quantfolio/internal/marketdata"
	"github.com/aristath/quantfolio/internal/modules/returns"
	"github.com/aristath/quantfolio/pkg/formulas"
)

const (
	// Number of lowest-|correlation| sectors considered diversifying.
	diversifyingSectors = 3
	// Upper bound on unscored fallback suggestions.
	maxFallbackSuggestions = 2
	// Concurrent provider fetches inside one request.
	fetchConcurrency = 4
)

// Config holds recommender tunables.
type Config struct {
	TradingDays     int
	LookbackDays    int
	BenchmarkSymbol string
	// SectorProxies maps proxy symbol to sector label. Defaults to
	// DefaultSectorProxies when empty.
	SectorProxies map[string]string
}

// Analysis summarizes the portfolio figures the scoring was based on.
type Analysis struct {
	CurrentVolatility     float64  `json:"current_volatility"`
	CurrentBeta           float64  `json:"current_beta"`
	LowCorrelationSectors []string `json:"low_correlation_sectors"`
}

// Suggestion is an unscored fallback candidate from the best low-correlation
// sector, offered when no candidate could be fully scored.
type Suggestion struct {
	Ticker string `json:"ticker"`
	Sector string `json:"sector"`
}

// Result is the non-raising recommendation response: total failure is carried
// in Error instead of an error return, so presentation layers stay
// responsive.
type Result struct {
	Recommendations     []domain.Recommendation `json:"recommendations"`
	Analysis            Analysis                `json:"analysis"`
	FallbackMessage     string                  `json:"fallback_message,omitempty"`
	FallbackSuggestions []Suggestion            `json:"fallback_suggestions,omitempty"`
	Error               *string                 `json:"error,omitempty"`
}

// Recommender runs the multi-stage diversification scoring pipeline.
type Recommender struct {
	prices       marketdata.PriceProvider
	constituents marketdata.ConstituentsProvider
	calc         *returns.Calculator
	cfg          Config
	log          zerolog.Logger
}

// New creates a recommender.
func New(
	prices marketdata.PriceProvider,
	constituents marketdata.ConstituentsProvider,
	calc *returns.Calculator,
	cfg Config,
	log zerolog.Logger,
) *Recommender {
	if cfg.SectorProxies == nil {
		cfg.SectorProxies = DefaultSectorProxies
	}
	return &Recommender{
		prices:       prices,
		constituents: constituents,
		calc:         calc,
		cfg:          cfg,
		log:          log.With().Str("component", "recommendation").Logger(),
	}
}

// Recommend returns up to count diversifying tickers for the given holdings.
// It never returns a Go error: failures that leave nothing usable are
// reported through the Error field.
func (r *Recommender) Recommend(ctx context.Context, portfolio domain.Portfolio, count int) Result {
	result, err := r.recommend(ctx, portfolio, count)
	if err != nil {
		r.log.Error().Err(err).Msg("Recommendation failed")
		msg := err.Error()
		return Result{Error: &msg}
	}
	return result
}

func (r *Recommender) recommend(ctx context.Context, portfolio domain.Portfolio, count int) (Result, error) {
	weights, err := domain.WeightsFromPositions(portfolio)
	if err != nil {
		return Result{}, err
	}

	end := time.Now()
	start := end.AddDate(0, 0, -r.cfg.LookbackDays)

	// Stage 1: current portfolio daily returns under position weights.
	table, err := r.prices.DailyCloses(ctx, portfolio.Tickers(), start, end)
	if err != nil {
		return Result{}, err
	}
	rt, err := r.calc.Returns(table)
	if err != nil {
		return Result{}, err
	}
	portfolioSeries := rt.Weighted(weights)

	currentVol := formulas.AnnualizedVolatility(portfolioSeries.Values, r.cfg.TradingDays)
	currentBeta := r.portfolioBeta(ctx, portfolioSeries, start, end)

	// Stage 2+3: rank sector proxies by |correlation|, keep the lowest three.
	sectors := r.rankSectors(ctx, portfolioSeries, start, end)
	if len(sectors) == 0 {
		return Result{}, fmt.Errorf("%w: no sector proxy overlaps the portfolio history", domain.ErrDataUnavailable)
	}
	if len(sectors) > diversifyingSectors {
		sectors = sectors[:diversifyingSectors]
	}

	analysis := Analysis{
		CurrentVolatility: currentVol,
		CurrentBeta:       currentBeta,
	}
	for _, s := range sectors {
		analysis.LowCorrelationSectors = append(analysis.LowCorrelationSectors, s.sector)
	}

	// Stage 4: candidate constituents per selected sector, excluding holdings.
	candidates := r.collectCandidates(ctx, sectors, portfolio)

	// Stage 5: score every eligible candidate.
	recommendations := r.scoreCandidates(ctx, candidates, portfolioSeries, currentVol, currentBeta, start, end)

	// Stage 6: strict descending order by combined reduction, ties broken by
	// ticker for determinism.
	sort.Slice(recommendations, func(i, j int) bool {
		si, sj := recommendations[i].Score(), recommendations[j].Score()
		if si != sj {
			return si > sj
		}
		return recommendations[i].Ticker < recommendations[j].Ticker
	})
	if len(recommendations) > count {
		recommendations = recommendations[:count]
	}

	result := Result{
		Recommendations: recommendations,
		Analysis:        analysis,
	}

	// Stage 7: degrade to unscored suggestions from the single best sector
	// when nothing could be scored; an empty result set is still not an error.
	if len(recommendations) == 0 {
		best := sectors[0]
		for _, c := range candidates {
			if c.sector != best.sector {
				continue
			}
			result.FallbackSuggestions = append(result.FallbackSuggestions, Suggestion{Ticker: c.ticker, Sector: c.sector})
			if len(result.FallbackSuggestions) == maxFallbackSuggestions {
				break
			}
		}
		if len(result.FallbackSuggestions) > 0 {
			result.FallbackMessage = fmt.Sprintf(
				"No suitable recommendations found, but here are top stocks from the best low-correlation sector (%s)",
				best.sector,
			)
		}
	}

	return result, nil
}

// portfolioBeta estimates the portfolio's market beta (cov/var) against the
// benchmark over overlapping dates. Defaults to 1.0 when the benchmark is
// unavailable, matching the degraded-input policy of the analyzer.
func (r *Recommender) portfolioBeta(ctx context.Context, portfolioSeries domain.ReturnSeries, start, end time.Time) float64 {
	benchTable, err := r.prices.DailyCloses(ctx, []string{r.cfg.BenchmarkSymbol}, start, end)
	if err != nil || benchTable.Empty() {
		r.log.Warn().Str("benchmark", r.cfg.BenchmarkSymbol).Msg("Benchmark unavailable, using beta 1.0")
		return 1.0
	}
	benchReturns, err := r.calc.Returns(benchTable)
	if err != nil {
		return 1.0
	}
	benchSeries := domain.ReturnSeries{Dates: benchReturns.Dates, Values: benchReturns.Column(r.cfg.BenchmarkSymbol)}

	pv, bv := domain.AlignReturns(portfolioSeries, benchSeries)
	beta := formulas.Beta(pv, bv)
	if beta == nil {
		return 1.0
	}
	return *beta
}

type sectorCorrelation struct {
	proxy       string
	sector      string
	correlation float64
}

// rankSectors correlates every sector proxy's return stream against the
// portfolio's over the maximal overlapping window, concurrently, and returns
// the proxies ordered ascending by |correlation|. Proxies with no overlap or
// failed fetches are excluded.
func (r *Recommender) rankSectors(ctx context.Context, portfolioSeries domain.ReturnSeries, start, end time.Time) []sectorCorrelation {
	proxies := make([]string, 0, len(r.cfg.SectorProxies))
	for proxy := range r.cfg.SectorProxies {
		proxies = append(proxies, proxy)
	}
	sort.Strings(proxies)

	results := make([]*sectorCorrelation, len(proxies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, proxy := range proxies {
		i, proxy := i, proxy
		g.Go(func() error {
			table, err := r.prices.DailyCloses(gctx, []string{proxy}, start, end)
			if err != nil || table.Empty() {
				r.log.Debug().Str("proxy", proxy).Msg("Skipping sector proxy without data")
				return nil
			}
			rt, err := r.calc.Returns(table)
			if err != nil {
				return nil
			}
			series := domain.ReturnSeries{Dates: rt.Dates, Values: rt.Column(proxy)}
			pv, sv := domain.AlignReturns(portfolioSeries, series)
			if len(pv) < 2 {
				return nil
			}
			results[i] = &sectorCorrelation{
				proxy:       proxy,
				sector:      r.cfg.SectorProxies[proxy],
				correlation: formulas.Correlation(pv, sv),
			}
			return nil
		})
	}
	_ = g.Wait() // item-level failures are recorded as nil slots

	ranked := make([]sectorCorrelation, 0, len(results))
	for _, res := range results {
		if res != nil {
			ranked = append(ranked, *res)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		ai, aj := math.Abs(ranked[i].correlation), math.Abs(ranked[j].correlation)
		if ai != aj {
			return ai < aj
		}
		return ranked[i].proxy < ranked[j].proxy
	})
	return ranked
}

type candidate struct {
	ticker string
	sector string
}

// collectCandidates resolves constituents for the selected sectors
// concurrently, dropping tickers already held and deduplicating across
// sectors (first sector in diversification order wins).
func (r *Recommender) collectCandidates(ctx context.Context, sectors []sectorCorrelation, portfolio domain.Portfolio) []candidate {
	perSector := make([][]marketdata.Constituent, len(sectors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, s := range sectors {
		i, s := i, s
		g.Go(func() error {
			constituents, err := r.constituents.TopConstituents(gctx, s.proxy)
			if err != nil {
				r.log.Warn().Err(err).Str("proxy", s.proxy).Msg("Constituent lookup failed, skipping sector")
				return nil
			}
			perSector[i] = constituents
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]bool, len(portfolio))
	for ticker := range portfolio {
		seen[ticker] = true
	}

	var candidates []candidate
	for i, s := range sectors {
		for _, c := range perSector[i] {
			if seen[c.Ticker] {
				continue
			}
			seen[c.Ticker] = true
			candidates = append(candidates, candidate{ticker: c.Ticker, sector: s.sector})
		}
	}
	return candidates
}

// scoreCandidates evaluates every candidate concurrently. A candidate's beta
// against the portfolio deliberately reuses the Pearson correlation
// coefficient rather than cov/var; the candidate and portfolio streams are
// restricted to overlapping dates first.
func (r *Recommender) scoreCandidates(
	ctx context.Context,
	candidates []candidate,
	portfolioSeries domain.ReturnSeries,
	currentVol, currentBeta float64,
	start, end time.Time,
) []domain.Recommendation {
	scored := make([]*domain.Recommendation, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			rec := r.scoreCandidate(gctx, c, portfolioSeries, currentVol, currentBeta, start, end)
			scored[i] = rec
			return nil
		})
	}
	_ = g.Wait()

	recommendations := make([]domain.Recommendation, 0, len(scored))
	for _, rec := range scored {
		if rec != nil {
			recommendations = append(recommendations, *rec)
		}
	}
	return recommendations
}

func (r *Recommender) scoreCandidate(
	ctx context.Context,
	c candidate,
	portfolioSeries domain.ReturnSeries,
	currentVol, currentBeta float64,
	start, end time.Time,
) *domain.Recommendation {
	table, err := r.prices.DailyCloses(ctx, []string{c.ticker}, start, end)
	if err != nil || table.Empty() {
		r.log.Debug().Str("ticker", c.ticker).Msg("Skipping candidate without price history")
		return nil
	}
	rt, err := r.calc.Returns(table)
	if err != nil {
		return nil
	}
	series := domain.ReturnSeries{Dates: rt.Dates, Values: rt.Column(c.ticker)}

	cv, pv := domain.AlignReturns(series, portfolioSeries)
	if len(cv) < 2 {
		return nil
	}

	volatility := formulas.AnnualizedVolatility(cv, r.cfg.TradingDays)
	beta := formulas.Correlation(cv, pv)

	potentialVol := (currentVol + volatility) / 2
	potentialBeta := (currentBeta + beta) / 2

	closes := table.Column(c.ticker)
	return &domain.Recommendation{
		Ticker:              c.ticker,
		Sector:              c.sector,
		CurrentPrice:        closes[len(closes)-1],
		Volatility:          volatility,
		Beta:                beta,
		VolatilityReduction: currentVol - potentialVol,
		BetaReduction:       currentBeta - potentialBeta,
	}
}
