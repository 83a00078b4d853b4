package projection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/quantfolio/internal/domain"
	"github.com/aristath/quantfolio/pkg/logger"
)

func newProjector(horizon int) *Projector {
	return New(Config{TradingDays: 252, Horizon: horizon, RiskFreeRate: 0.01}, logger.Nop())
}

func sampleInput(seed uint64) Input {
	return Input{
		Assets: []Asset{
			{Ticker: "AAA", CurrentPrice: 100, AnnualReturn: 0.08, AnnualVolatility: 0.20},
			{Ticker: "BBB", CurrentPrice: 50, AnnualReturn: 0.12, AnnualVolatility: 0.30},
		},
		Weights: domain.Weights{"AAA": 0.6, "BBB": 0.4},
		// A Friday, so the first projected day must be the following Monday.
		Start: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Seed:  &seed,
	}
}

func TestProjectReproducibleWithSeed(t *testing.T) {
	projector := newProjector(30)

	first, err := projector.Project(sampleInput(42))
	require.NoError(t, err)
	second, err := projector.Project(sampleInput(42))
	require.NoError(t, err)

	assert.Equal(t, first.Dates, second.Dates)
	assert.Equal(t, first.Paths, second.Paths)
	assert.Equal(t, first.Metrics, second.Metrics)

	other, err := projector.Project(sampleInput(7))
	require.NoError(t, err)
	assert.NotEqual(t, first.Paths["AAA"], other.Paths["AAA"])
}

func TestProjectBusinessDayAxis(t *testing.T) {
	projector := newProjector(10)

	result, err := projector.Project(sampleInput(1))
	require.NoError(t, err)
	require.Len(t, result.Dates, 10)

	// Starting Friday 2024-01-05 the axis begins Monday 2024-01-08.
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), result.Dates[0])
	for i, date := range result.Dates {
		wd := date.Weekday()
		assert.NotEqual(t, time.Saturday, wd, "date %d falls on a Saturday", i)
		assert.NotEqual(t, time.Sunday, wd, "date %d falls on a Sunday", i)
		if i > 0 {
			assert.True(t, date.After(result.Dates[i-1]), "dates must be strictly increasing")
		}
	}

	for _, ticker := range []string{"AAA", "BBB"} {
		require.Len(t, result.Paths[ticker], 10)
		for _, price := range result.Paths[ticker] {
			assert.Greater(t, price, 0.0)
		}
	}
}

func TestProjectInputValidation(t *testing.T) {
	projector := newProjector(10)

	_, err := projector.Project(Input{})
	assert.ErrorIs(t, err, domain.ErrInputMismatch)

	in := sampleInput(1)
	in.Assets[0].CurrentPrice = 0
	_, err = projector.Project(in)
	assert.ErrorIs(t, err, domain.ErrInputMismatch)
}

func TestProjectDegenerateVolatility(t *testing.T) {
	projector := newProjector(10)

	seed := uint64(3)
	in := Input{
		Assets: []Asset{
			{Ticker: "AAA", CurrentPrice: 100, AnnualReturn: 0.05, AnnualVolatility: 0},
		},
		Weights: domain.Weights{"AAA": 1.0},
		Start:   time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Seed:    &seed,
	}
	_, err := projector.Project(in)
	assert.ErrorIs(t, err, domain.ErrDegenerateVolatility)
}
