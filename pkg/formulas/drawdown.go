package formulas

// MaxDrawdown calculates the maximum peak-to-trough decline of a value
// series, expressed as a negative fraction (-0.25 = 25% loss from peak).
// Returns nil when fewer than two observations exist.
func MaxDrawdown(values []float64) *float64 {
	if len(values) < 2 {
		return nil
	}

	maxDrawdown := 0.0
	peak := values[0]
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			drawdown := v/peak - 1
			if drawdown < maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}
	return &maxDrawdown
}

// MaxDrawdownFromReturns compounds a periodic return stream into a cumulative
// growth curve and reports its maximum drawdown.
func MaxDrawdownFromReturns(returns []float64) *float64 {
	if len(returns) < 2 {
		return nil
	}
	curve := make([]float64, len(returns)+1)
	curve[0] = 1.0
	for i, r := range returns {
		curve[i+1] = curve[i] * (1 + r)
	}
	return MaxDrawdown(curve)
}
