package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"regrisk-backend/models"
)

func TestRecommendCritical(t *testing.T) {
	rec := Recommend(0.9, models.RiskCritical, nil)

	assert.Equal(t, "reduce", rec.Action)
	assert.InDelta(t, 0.54, rec.SuggestedReduction, 1e-9)
	assert.True(t, rec.HedgeRecommended)
	assert.Equal(t, "immediate_analyst_review", rec.Monitoring)
	assert.NotEmpty(t, rec.Recommendations)
}

func TestRecommendCriticalReductionCapped(t *testing.T) {
	rec := Recommend(1.5, models.RiskCritical, nil)
	assert.InDelta(t, 0.8, rec.SuggestedReduction, 1e-9)
}

func TestRecommendHigh(t *testing.T) {
	rec := Recommend(0.6, models.RiskHigh, nil)

	assert.Equal(t, "trim", rec.Action)
	assert.InDelta(t, 0.18, rec.SuggestedReduction, 1e-9)
	assert.True(t, rec.HedgeRecommended)
	assert.Equal(t, "daily", rec.Monitoring)
}

func TestRecommendMediumHedgeDependsOnMarketCap(t *testing.T) {
	large := Recommend(0.3, models.RiskMedium, &models.CompanyMetadata{MarketCap: 5e9})
	small := Recommend(0.3, models.RiskMedium, &models.CompanyMetadata{MarketCap: 5e8})
	unknown := Recommend(0.3, models.RiskMedium, nil)

	assert.Equal(t, "monitor", large.Action)
	assert.Zero(t, large.SuggestedReduction)
	assert.True(t, large.HedgeRecommended)
	assert.False(t, small.HedgeRecommended)
	assert.False(t, unknown.HedgeRecommended)
	assert.Equal(t, "set_alerts", large.Monitoring)
}

func TestRecommendLow(t *testing.T) {
	rec := Recommend(0.05, models.RiskLow, nil)

	assert.Equal(t, "no_action", rec.Action)
	assert.Zero(t, rec.SuggestedReduction)
	assert.False(t, rec.HedgeRecommended)
	assert.Equal(t, "none", rec.Monitoring)
}
