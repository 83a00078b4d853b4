package marketdata

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/quantfolio/internal/database"
	"github.com/aristath/quantfolio/internal/domain"
	"github.com/aristath/quantfolio/pkg/logger"
)

// flakyUpstream serves a fixed table until it is switched to failing.
type flakyUpstream struct {
	table   domain.PriceTable
	failing bool
}

func (f *flakyUpstream) DailyCloses(_ context.Context, tickers []string, _, _ time.Time) (domain.PriceTable, error) {
	if f.failing {
		return domain.PriceTable{}, errors.New("upstream down")
	}
	return f.table, nil
}

func testDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "prices.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate())
	return db
}

func fixtureTable() domain.PriceTable {
	return domain.PriceTable{
		Tickers: []string{"AAA", "BBB"},
		Dates: []time.Time{
			time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
		},
		Closes: [][]float64{
			{100, 50},
			{102, 49},
			{101, 51},
		},
	}
}

func TestCachingProviderServesCacheOnOutage(t *testing.T) {
	upstream := &flakyUpstream{table: fixtureTable()}
	provider := NewCachingProvider(upstream, testDB(t), logger.Nop())

	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	// First fetch goes upstream and writes through to the cache.
	fresh, err := provider.DailyCloses(ctx, []string{"AAA", "BBB"}, start, end)
	require.NoError(t, err)
	require.Equal(t, 3, fresh.NumRows())

	// Upstream goes dark: the cached rows must be served instead.
	upstream.failing = true
	cached, err := provider.DailyCloses(ctx, []string{"AAA", "BBB"}, start, end)
	require.NoError(t, err)
	assert.Equal(t, fresh.Dates, cached.Dates)
	assert.Equal(t, fresh.Closes, cached.Closes)
	assert.Equal(t, []string{"AAA", "BBB"}, cached.Tickers)
}

func TestCachingProviderWindowFilter(t *testing.T) {
	upstream := &flakyUpstream{table: fixtureTable()}
	provider := NewCachingProvider(upstream, testDB(t), logger.Nop())

	ctx := context.Background()
	_, err := provider.DailyCloses(ctx, []string{"AAA", "BBB"},
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// Cached reads honor the requested window.
	upstream.failing = true
	cached, err := provider.DailyCloses(ctx, []string{"AAA", "BBB"},
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 1, cached.NumRows())
	assert.Equal(t, []float64{102, 49}, cached.Closes[0])
}

func TestCachingProviderEmptyOnColdCacheOutage(t *testing.T) {
	upstream := &flakyUpstream{failing: true}
	provider := NewCachingProvider(upstream, testDB(t), logger.Nop())

	table, err := provider.DailyCloses(context.Background(), []string{"AAA"},
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, table.Empty())
	assert.Equal(t, []string{"AAA"}, table.Tickers)
}

func TestRefresh(t *testing.T) {
	upstream := &flakyUpstream{table: fixtureTable()}
	db := testDB(t)
	provider := NewCachingProvider(upstream, db, logger.Nop())

	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	require.NoError(t, provider.Refresh(ctx, "AAA", start, end))

	var count int
	require.NoError(t, db.Conn().QueryRow(
		`SELECT COUNT(*) FROM daily_closes WHERE symbol = 'AAA'`).Scan(&count))
	assert.Equal(t, 3, count)

	upstream.failing = true
	err := provider.Refresh(ctx, "AAA", start, end)
	assert.Error(t, err)
}
