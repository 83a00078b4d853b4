// Package optimization solves the constrained max-Sharpe allocation problem.
package optimization

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/aristath/quantfolio/internal/domain"
	"github.com/aristath/quantfolio/internal/modules/returns"
)

// Full-investment constraint is enforced as a quadratic penalty; bound
// constraints by projecting iterates into [0, 1].
const penaltyWeight = 1000.0

// Optimizer finds the long-only weight vector maximizing the Sharpe ratio.
//
// Mathematical formulation:
//
//	maximize (w·μ − r_f) / sqrt(wᵀΣw)
//	subject to Σw = 1 and 0 ≤ w_i ≤ 1
//
// where μ and Σ are annualized. The solver is deterministic for a given
// input; it is seeded at the uniform allocation and does not retry on
// failure. Non-convergence surfaces as domain.ErrOptimizationDiverged with
// no fallback, so callers stay in control.
type Optimizer struct {
	calc *returns.Calculator
	log  zerolog.Logger
}

// New creates an optimizer on top of a returns calculator.
func New(calc *returns.Calculator, log zerolog.Logger) *Optimizer {
	return &Optimizer{
		calc: calc,
		log:  log.With().Str("component", "optimizer").Logger(),
	}
}

// MaximizeSharpe optimizes the allocation across the table's tickers.
func (o *Optimizer) MaximizeSharpe(table domain.PriceTable, riskFreeRate float64) (Result, error) {
	if len(table.Tickers) < 2 {
		return Result{}, fmt.Errorf("%w: need at least 2 tickers, got %d", domain.ErrInputMismatch, len(table.Tickers))
	}

	rt, err := o.calc.Returns(table)
	if err != nil {
		return Result{}, err
	}
	mu, sigma, err := o.calc.AnnualizedMeanCov(rt)
	if err != nil {
		return Result{}, err
	}

	weights, err := solveMaxSharpe(mu, sigma, riskFreeRate)
	if err != nil {
		return Result{}, err
	}

	ret, risk := AnnualizedPerformance(weights, mu, sigma)
	if risk < 1e-12 {
		return Result{}, fmt.Errorf("%w: optimal portfolio has near-zero volatility", domain.ErrDegenerateVolatility)
	}
	sharpe := (ret - riskFreeRate) / risk

	result := Result{
		Weights:        make(domain.Weights, len(table.Tickers)),
		ExpectedReturn: ret,
		Risk:           risk,
		Sharpe:         sharpe,
		Assets:         make([]AssetStats, len(table.Tickers)),
	}
	for j, ticker := range table.Tickers {
		result.Weights[ticker] = weights[j]
		result.Assets[j] = AssetStats{
			Ticker:           ticker,
			AnnualReturn:     mu[j],
			AnnualVolatility: math.Sqrt(sigma.At(j, j)),
			Weight:           weights[j],
		}
	}

	o.log.Info().
		Int("assets", len(table.Tickers)).
		Float64("return", ret).
		Float64("risk", risk).
		Float64("sharpe", sharpe).
		Msg("Optimization converged")
	return result, nil
}

// AnnualizedPerformance computes the portfolio's annualized expected return
// and volatility from annualized inputs. Pure and deterministic.
func AnnualizedPerformance(w, mu []float64, sigma *mat.SymDense) (ret, risk float64) {
	n := len(w)
	var variance float64
	for i := 0; i < n; i++ {
		ret += w[i] * mu[i]
		for j := 0; j < n; j++ {
			variance += w[i] * w[j] * sigma.At(i, j)
		}
	}
	return ret, math.Sqrt(math.Max(variance, 0))
}

// solveMaxSharpe minimizes the negative Sharpe ratio with a quadratic penalty
// on the full-investment constraint, iterates projected into [0, 1]. The
// bound projection kinks the penalized objective, so the solver is the
// derivative-free Nelder-Mead simplex rather than a line-search method.
func solveMaxSharpe(mu []float64, sigma *mat.SymDense, riskFreeRate float64) ([]float64, error) {
	n := len(mu)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			w := projectToUnitBounds(x)

			var ret, variance float64
			for i := 0; i < n; i++ {
				ret += mu[i] * w[i]
				for j := 0; j < n; j++ {
					variance += w[i] * w[j] * sigma.At(i, j)
				}
			}
			stdDev := math.Sqrt(math.Max(variance, 1e-10))

			sum := 0.0
			for i := 0; i < n; i++ {
				sum += w[i]
			}

			obj := -(ret - riskFreeRate) / stdDev
			obj += penaltyWeight * (sum - 1.0) * (sum - 1.0)
			return obj
		},
	}

	// Uniform allocation seed keeps the solver deterministic and puts the
	// naive baseline in the initial simplex.
	initial := make([]float64, n)
	for i := range initial {
		initial[i] = 1.0 / float64(n)
	}

	result, err := optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.NelderMead{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOptimizationDiverged, err)
	}
	switch result.Status {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence:
	default:
		return nil, fmt.Errorf("%w: status=%v", domain.ErrOptimizationDiverged, result.Status)
	}

	// Project the solution into bounds, then renormalize the residual
	// penalty slack so weights sum to exactly 1.
	weights := projectToUnitBounds(result.X)
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum <= 1e-10 {
		return nil, fmt.Errorf("%w: solution collapsed to zero allocation", domain.ErrOptimizationDiverged)
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights, nil
}

// projectToUnitBounds clamps every coordinate into [0, 1].
func projectToUnitBounds(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Max(0, math.Min(1, v))
	}
	return out
}
