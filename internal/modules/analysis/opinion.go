package analysis

import "github.com/aristath/quantfolio/internal/domain"

// Opinion thresholds, annualized decimals unless noted.
const (
	strongReturn   = 0.15
	goodReturn     = 0.10
	moderateReturn = 0.05

	lowVolatility      = 0.15
	moderateVolatility = 0.25

	excellentSharpe = 1.5
	goodSharpe      = 1.0

	lowBeta  = 0.8
	highBeta = 1.2

	severeDrawdown = -0.20
)

// generateOpinion renders the metrics into plain-language observations for
// the presentation layer.
func generateOpinion(m domain.PortfolioMetrics, condition domain.MarketCondition) []string {
	var opinion []string

	switch {
	case m.AnnualReturn > strongReturn:
		opinion = append(opinion, "Strong return potential with annual return above 15%")
	case m.AnnualReturn > goodReturn:
		opinion = append(opinion, "Good return potential with annual return above 10%")
	case m.AnnualReturn > moderateReturn:
		opinion = append(opinion, "Moderate return potential with annual return above 5%")
	default:
		opinion = append(opinion, "Low return potential with annual return below 5%")
	}

	switch {
	case m.AnnualVolatility < lowVolatility:
		opinion = append(opinion, "Low volatility portfolio, suitable for conservative investors")
	case m.AnnualVolatility < moderateVolatility:
		opinion = append(opinion, "Moderate volatility, balanced risk-reward profile")
	default:
		opinion = append(opinion, "High volatility portfolio, suitable for aggressive investors")
	}

	switch {
	case m.SharpeRatio > excellentSharpe:
		opinion = append(opinion, "Excellent risk-adjusted returns with Sharpe ratio above 1.5")
	case m.SharpeRatio > goodSharpe:
		opinion = append(opinion, "Good risk-adjusted returns with Sharpe ratio above 1.0")
	default:
		opinion = append(opinion, "Below-average risk-adjusted returns")
	}

	if m.Beta < lowBeta {
		opinion = append(opinion, "Low market sensitivity, good for diversification")
	} else if m.Beta > highBeta {
		opinion = append(opinion, "High market sensitivity, consider adding defensive stocks")
	}

	if m.MaxDrawdown < severeDrawdown {
		opinion = append(opinion, "Significant drawdown risk, consider adding defensive positions")
	}

	switch condition.State {
	case domain.MarketBearish:
		opinion = append(opinion, "Current market conditions are bearish, consider defensive positioning")
	case domain.MarketBullish:
		opinion = append(opinion, "Current market conditions are bullish, good time for growth stocks")
	}

	return opinion
}
