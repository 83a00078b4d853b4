package yahoo

// chartResponse mirrors the Yahoo Finance v8 chart API payload, reduced to
// the fields the engine consumes.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// quoteSummaryResponse mirrors the Yahoo Finance v10 quoteSummary payload
// for the topHoldings module.
type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			TopHoldings struct {
				Holdings []struct {
					Symbol         string `json:"symbol"`
					HoldingPercent struct {
						Raw float64 `json:"raw"`
					} `json:"holdingPercent"`
				} `json:"holdings"`
			} `json:"topHoldings"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"quoteSummary"`
}
