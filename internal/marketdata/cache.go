package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantfolio/internal/database"
	"github.com/aristath/quantfolio/internal/domain"
)

const dateLayout = "2006-01-02"

// CachingProvider wraps a PriceProvider with an on-disk SQLite cache.
//
// Fresh data is preferred: every request goes upstream first and the result
// is written through to the cache. When upstream fails or returns nothing,
// the cached rows for the requested window are served instead, so transient
// provider outages degrade to slightly stale data rather than empty results.
type CachingProvider struct {
	upstream PriceProvider
	db       *database.DB
	log      zerolog.Logger
}

// NewCachingProvider creates a read-through price cache.
func NewCachingProvider(upstream PriceProvider, db *database.DB, log zerolog.Logger) *CachingProvider {
	return &CachingProvider{
		upstream: upstream,
		db:       db,
		log:      log.With().Str("component", "price_cache").Logger(),
	}
}

// DailyCloses implements PriceProvider.
func (c *CachingProvider) DailyCloses(ctx context.Context, tickers []string, start, end time.Time) (domain.PriceTable, error) {
	table, err := c.upstream.DailyCloses(ctx, tickers, start, end)
	if err == nil && !table.Empty() {
		if storeErr := c.store(ctx, table); storeErr != nil {
			c.log.Warn().Err(storeErr).Msg("Failed to write prices to cache")
		}
		return table, nil
	}
	if err != nil {
		c.log.Warn().Err(err).Strs("tickers", tickers).Msg("Upstream fetch failed, serving from cache")
	}

	cached, cacheErr := c.load(ctx, tickers, start, end)
	if cacheErr != nil {
		c.log.Error().Err(cacheErr).Msg("Cache read failed")
		return domain.PriceTable{Tickers: tickers}, nil
	}
	return cached, nil
}

// Refresh re-fetches a symbol's history and stores it, regardless of cache
// state. Used by the background refresh job.
func (c *CachingProvider) Refresh(ctx context.Context, symbol string, start, end time.Time) error {
	table, err := c.upstream.DailyCloses(ctx, []string{symbol}, start, end)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", symbol, err)
	}
	if table.Empty() {
		return fmt.Errorf("refresh %s: %w", symbol, domain.ErrDataUnavailable)
	}
	return c.store(ctx, table)
}

func (c *CachingProvider) store(ctx context.Context, table domain.PriceTable) error {
	tx, err := c.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_closes (symbol, date, close)
		VALUES (?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET close = excluded.close, fetched_at = datetime('now')
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, date := range table.Dates {
		for j, ticker := range table.Tickers {
			if _, err := stmt.ExecContext(ctx, ticker, date.Format(dateLayout), table.Closes[i][j]); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func (c *CachingProvider) load(ctx context.Context, tickers []string, start, end time.Time) (domain.PriceTable, error) {
	rowsByDate := make(map[string]domain.PriceRow)
	for _, ticker := range tickers {
		rows, err := c.db.Conn().QueryContext(ctx, `
			SELECT date, close FROM daily_closes
			WHERE symbol = ? AND date >= ? AND date <= ?
			ORDER BY date
		`, ticker, start.Format(dateLayout), end.Format(dateLayout))
		if err != nil {
			return domain.PriceTable{}, err
		}
		for rows.Next() {
			var dateStr string
			var close float64
			if err := rows.Scan(&dateStr, &close); err != nil {
				rows.Close()
				return domain.PriceTable{}, err
			}
			row, ok := rowsByDate[dateStr]
			if !ok {
				date, err := time.Parse(dateLayout, dateStr)
				if err != nil {
					rows.Close()
					return domain.PriceTable{}, err
				}
				row = domain.PriceRow{Date: date, Closes: make(map[string]float64, len(tickers))}
			}
			row.Closes[ticker] = close
			rowsByDate[dateStr] = row
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return domain.PriceTable{}, err
		}
		rows.Close()
	}

	raw := make([]domain.PriceRow, 0, len(rowsByDate))
	for _, row := range rowsByDate {
		raw = append(raw, row)
	}
	table := domain.BuildPriceTable(tickers, raw)
	c.log.Debug().Strs("tickers", tickers).Int("rows", table.NumRows()).Msg("Served prices from cache")
	return table, nil
}
