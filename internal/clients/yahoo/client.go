package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantfolio/internal/domain"
	"github.com/aristath/quantfolio/internal/marketdata"
)

const (
	chartBaseURL        = "https://query1.finance.yahoo.com/v8/finance/chart/"
	quoteSummaryBaseURL = "https://query1.finance.yahoo.com/v10/finance/quoteSummary/"
	maxConstituents     = 5
)

// Client is a Yahoo Finance API client implementing the market-data
// provider contracts.
type Client struct {
	client           *http.Client
	chartBase        string
	quoteSummaryBase string
	log              zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		chartBase:        chartBaseURL,
		quoteSummaryBase: quoteSummaryBaseURL,
		log:              log.With().Str("client", "yahoo").Logger(),
	}
}

// DailyCloses fetches daily closing prices for the given tickers and builds
// an aligned table. Rows where any ticker lacks a close are dropped. Per the
// provider contract, upstream failures yield an empty table, not an error:
// the engine maps emptiness to domain.ErrDataUnavailable where it matters.
func (c *Client) DailyCloses(ctx context.Context, tickers []string, start, end time.Time) (domain.PriceTable, error) {
	rowsByDate := make(map[time.Time]domain.PriceRow)

	for _, ticker := range tickers {
		closes, err := c.fetchDailyCloses(ctx, ticker, start, end)
		if err != nil {
			c.log.Warn().Err(err).Str("symbol", ticker).Msg("Failed to fetch daily closes")
			// Any fully missing ticker empties the aligned table below, which
			// is exactly the contract for provider failure.
			continue
		}
		for date, close := range closes {
			row, ok := rowsByDate[date]
			if !ok {
				row = domain.PriceRow{Date: date, Closes: make(map[string]float64, len(tickers))}
			}
			row.Closes[ticker] = close
			rowsByDate[date] = row
		}
	}

	raw := make([]domain.PriceRow, 0, len(rowsByDate))
	for _, row := range rowsByDate {
		raw = append(raw, row)
	}
	table := domain.BuildPriceTable(tickers, raw)

	c.log.Info().
		Strs("tickers", tickers).
		Int("rows", table.NumRows()).
		Msg("Fetched daily closes")
	return table, nil
}

// fetchDailyCloses fetches one symbol's closes keyed by UTC calendar date.
// Prefers adjusted closes when Yahoo returns them.
func (c *Client) fetchDailyCloses(ctx context.Context, symbol string, start, end time.Time) (map[time.Time]float64, error) {
	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("period1", strconv.FormatInt(start.Unix(), 10))
	params.Add("period2", strconv.FormatInt(end.Unix(), 10))

	reqURL := c.chartBase + url.PathEscape(symbol) + "?" + params.Encode()
	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var result chartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse chart response: %w", err)
	}
	if result.Chart.Error != nil {
		return nil, fmt.Errorf("Yahoo Finance API error: %v", result.Chart.Error)
	}
	if len(result.Chart.Result) == 0 || len(result.Chart.Result[0].Indicators.Quote) == 0 {
		c.log.Warn().Str("symbol", symbol).Msg("No chart data returned")
		return nil, nil
	}

	chartData := result.Chart.Result[0]
	quote := chartData.Indicators.Quote[0]

	var adjCloses []float64
	if len(chartData.Indicators.AdjClose) > 0 {
		adjCloses = chartData.Indicators.AdjClose[0].AdjClose
	}

	closes := make(map[time.Time]float64, len(chartData.Timestamp))
	for i, ts := range chartData.Timestamp {
		if i >= len(quote.Close) {
			continue
		}
		close := quote.Close[i]
		if i < len(adjCloses) && adjCloses[i] != 0 {
			close = adjCloses[i]
		}
		if close <= 0 {
			// Yahoo encodes missing values as zeros
			continue
		}
		day := time.Unix(ts, 0).UTC().Truncate(24 * time.Hour)
		closes[day] = close
	}
	return closes, nil
}

// TopConstituents returns up to five constituent tickers of a sector-proxy
// ETF, ordered by index weight. Unlike price fetches this raises on failure:
// the recommender degrades per-proxy.
func (c *Client) TopConstituents(ctx context.Context, sectorProxy string) ([]marketdata.Constituent, error) {
	params := url.Values{}
	params.Add("modules", "topHoldings")

	reqURL := c.quoteSummaryBase + url.PathEscape(sectorProxy) + "?" + params.Encode()
	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var result quoteSummaryResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse quoteSummary response: %w", err)
	}
	if result.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("Yahoo Finance API error: %v", result.QuoteSummary.Error)
	}
	if len(result.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("no holdings data for %s", sectorProxy)
	}

	holdings := result.QuoteSummary.Result[0].TopHoldings.Holdings
	constituents := make([]marketdata.Constituent, 0, maxConstituents)
	for _, h := range holdings {
		if h.Symbol == "" {
			continue
		}
		constituents = append(constituents, marketdata.Constituent{
			Ticker: h.Symbol,
			Weight: h.HoldingPercent.Raw,
		})
		if len(constituents) == maxConstituents {
			break
		}
	}

	c.log.Debug().
		Str("proxy", sectorProxy).
		Int("count", len(constituents)).
		Msg("Fetched sector constituents")
	return constituents, nil
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Yahoo rejects requests without a browser-ish user agent
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Yahoo Finance API returned status %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
