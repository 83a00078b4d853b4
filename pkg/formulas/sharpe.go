package formulas

// SharpeRatio computes the annualized Sharpe ratio from an annualized return
// and volatility. Returns nil when volatility is zero or near-zero, since the
// ratio would be a division by (almost) nothing.
//
//	Sharpe = (Annual Return - Risk-free Rate) / Annual Volatility
func SharpeRatio(annualReturn, annualVolatility, riskFreeRate float64) *float64 {
	if annualVolatility < 1e-12 {
		return nil
	}
	sharpe := (annualReturn - riskFreeRate) / annualVolatility
	return &sharpe
}

// SharpeFromReturns computes the annualized Sharpe ratio directly from a
// periodic return stream.
//
// Args:
//
//	returns: Array of periodic returns (daily, monthly, etc.)
//	riskFreeRate: Risk-free rate (annual, as decimal, e.g., 0.02 for 2%)
//	periodsPerYear: Number of periods per year (252 for daily, 12 for monthly)
//
// Returns:
//
//	Sharpe ratio or nil if insufficient data or zero volatility
func SharpeFromReturns(returns []float64, riskFreeRate float64, periodsPerYear int) *float64 {
	if len(returns) < 2 {
		return nil
	}
	annualReturn := AnnualizedReturn(returns, periodsPerYear)
	annualVolatility := AnnualizedVolatility(returns, periodsPerYear)
	return SharpeRatio(annualReturn, annualVolatility, riskFreeRate)
}
