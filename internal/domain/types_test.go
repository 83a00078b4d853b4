package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortfolioValidate(t *testing.T) {
	tests := []struct {
		name      string
		portfolio Portfolio
		wantErr   bool
	}{
		{
			name: "valid holdings",
			portfolio: Portfolio{
				"AAA": {Ticker: "AAA", Price: 100, Shares: 10},
				"BBB": {Price: 50, Shares: 4},
			},
		},
		{
			name:      "empty portfolio",
			portfolio: Portfolio{},
			wantErr:   true,
		},
		{
			name: "key and ticker disagree",
			portfolio: Portfolio{
				"AAA": {Ticker: "BBB", Price: 100, Shares: 10},
			},
			wantErr: true,
		},
		{
			name: "non-positive price",
			portfolio: Portfolio{
				"AAA": {Ticker: "AAA", Price: 0, Shares: 10},
			},
			wantErr: true,
		},
		{
			name: "non-positive shares",
			portfolio: Portfolio{
				"AAA": {Ticker: "AAA", Price: 100, Shares: -1},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.portfolio.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInputMismatch)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWeightsFromPositions(t *testing.T) {
	pf := Portfolio{
		"AAA": {Ticker: "AAA", Price: 100, Shares: 6}, // 600
		"BBB": {Ticker: "BBB", Price: 50, Shares: 8},  // 400
	}

	weights, err := WeightsFromPositions(pf)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, weights["AAA"], 1e-12)
	assert.InDelta(t, 0.4, weights["BBB"], 1e-12)
	assert.True(t, weights.Valid())

	_, err = WeightsFromPositions(Portfolio{})
	assert.ErrorIs(t, err, ErrInputMismatch)
}

func TestWeightsValid(t *testing.T) {
	assert.True(t, Weights{"AAA": 1.0}.Valid())
	assert.True(t, Weights{"AAA": 0.5, "BBB": 0.5 + 1e-7}.Valid())
	assert.False(t, Weights{"AAA": 0.5}.Valid())
	assert.False(t, Weights{"AAA": 1.5, "BBB": -0.5}.Valid())
}

func TestRecommendationScore(t *testing.T) {
	rec := Recommendation{VolatilityReduction: 0.02, BetaReduction: 0.1}
	assert.InDelta(t, 0.12, rec.Score(), 1e-12)
}
