package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the variance of a slice of float64 values
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// Correlation calculates the Pearson correlation coefficient between two
// equal-length datasets
func Correlation(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	return stat.Correlation(x, y, nil)
}

// Covariance calculates the covariance between two equal-length datasets
func Covariance(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	return stat.Covariance(x, y, nil)
}

// Beta calculates the standard market beta of an asset's returns against a
// reference return stream: cov(asset, reference) / var(reference).
// Returns nil when the reference variance is zero or near-zero.
func Beta(assetReturns, referenceReturns []float64) *float64 {
	if len(assetReturns) < 2 || len(assetReturns) != len(referenceReturns) {
		return nil
	}
	refVar := Variance(referenceReturns)
	if refVar < 1e-12 {
		return nil
	}
	beta := Covariance(assetReturns, referenceReturns) / refVar
	return &beta
}

// PctChange converts prices to simple period-over-period returns.
// PctChange[i] = (Price[i+1] - Price[i]) / Price[i]
func PctChange(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}
	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}
	return returns
}

// AnnualizedReturn scales the mean periodic return to a yearly figure.
func AnnualizedReturn(returns []float64, periodsPerYear int) float64 {
	return Mean(returns) * float64(periodsPerYear)
}

// AnnualizedVolatility scales the periodic standard deviation to a yearly
// figure: StdDev × sqrt(periodsPerYear).
func AnnualizedVolatility(returns []float64, periodsPerYear int) float64 {
	return StdDev(returns) * math.Sqrt(float64(periodsPerYear))
}
