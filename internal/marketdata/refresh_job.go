package marketdata

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RefreshJob re-fetches the benchmark and sector-proxy histories into the
// price cache on a schedule, so analysis requests stay answerable across
// upstream outages.
type RefreshJob struct {
	cache        *CachingProvider
	symbols      []string
	lookbackDays int
	log          zerolog.Logger
}

// NewRefreshJob creates a refresh job for the given symbols.
func NewRefreshJob(cache *CachingProvider, symbols []string, lookbackDays int, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		cache:        cache,
		symbols:      symbols,
		lookbackDays: lookbackDays,
		log:          log.With().Str("job", "price_refresh").Logger(),
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "price_refresh"
}

// Run refreshes every configured symbol. Per-symbol failures are logged and
// skipped; the job only reports the last error so the scheduler keeps it on
// its cadence.
func (j *RefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	end := time.Now()
	start := end.AddDate(0, 0, -j.lookbackDays)

	var lastErr error
	refreshed := 0
	for _, symbol := range j.symbols {
		if err := j.cache.Refresh(ctx, symbol, start, end); err != nil {
			j.log.Warn().Err(err).Str("symbol", symbol).Msg("Refresh failed")
			lastErr = err
			continue
		}
		refreshed++
	}

	j.log.Info().
		Int("refreshed", refreshed).
		Int("total", len(j.symbols)).
		Msg("Price cache refresh completed")
	return lastErr
}
