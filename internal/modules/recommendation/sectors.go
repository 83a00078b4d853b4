package recommendation

// DefaultSectorProxies maps the SPDR sector ETFs used as sector-proxy return
// streams to their sector labels.
var DefaultSectorProxies = map[string]string{
	"XLK":  "Technology",
	"XLF":  "Financials",
	"XLV":  "Healthcare",
	"XLE":  "Energy",
	"XLI":  "Industrial",
	"XLP":  "Consumer Staples",
	"XLY":  "Consumer Discretionary",
	"XLB":  "Materials",
	"XLU":  "Utilities",
	"XLRE": "Real Estate",
}
