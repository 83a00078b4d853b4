package optimization

import "github.com/aristath/quantfolio/internal/domain"

// Result contains a successful max-Sharpe optimization.
type Result struct {
	Weights        domain.Weights `json:"weights"`
	ExpectedReturn float64        `json:"return"`
	Risk           float64        `json:"risk"`
	Sharpe         float64        `json:"sharpe"`
	Assets         []AssetStats   `json:"assets"`
}

// AssetStats is the per-asset risk/return breakdown accompanying a result.
type AssetStats struct {
	Ticker           string  `json:"ticker"`
	AnnualReturn     float64 `json:"annual_return"`
	AnnualVolatility float64 `json:"annual_volatility"`
	Weight           float64 `json:"weight"`
}
