package formulas

import (
	"github.com/markcheno/go-talib"
)

// RSI calculates the current Relative Strength Index over the given period
// (typically 14). Returns nil if fewer than length+1 closes are available.
func RSI(closes []float64, length int) *float64 {
	if len(closes) < length+1 {
		return nil
	}

	rsi := talib.Rsi(closes, length)
	if len(rsi) > 0 && !isNaN(rsi[len(rsi)-1]) {
		result := rsi[len(rsi)-1]
		return &result
	}
	return nil
}

// isNaN checks if a float64 is NaN
func isNaN(f float64) bool {
	return f != f
}
