package scoring

import "regrisk-backend/models"

// Market cap above which medium-risk positions warrant a hedge
const hedgeMarketCapFloor = 1e9

// Recommend maps a risk assessment to a deterministic action plan. The
// suggested reduction scales with the expected score but is capped per band.
func Recommend(score float64, riskLevel models.RiskLevel, metadata *models.CompanyMetadata) models.Recommendation {
	switch riskLevel {
	case models.RiskCritical:
		return models.Recommendation{
			Action:             "reduce",
			SuggestedReduction: minFloat(0.8, 0.6*score),
			HedgeRecommended:   true,
			Monitoring:         "immediate_analyst_review",
			Recommendations: []string{
				"Reduce position immediately",
				"Hedge remaining exposure",
				"Escalate to analyst for review",
			},
		}
	case models.RiskHigh:
		return models.Recommendation{
			Action:             "trim",
			SuggestedReduction: minFloat(0.4, 0.3*score),
			HedgeRecommended:   true,
			Monitoring:         "daily",
			Recommendations: []string{
				"Trim position",
				"Hedge remaining exposure",
				"Monitor daily for developments",
			},
		}
	case models.RiskMedium:
		return models.Recommendation{
			Action:             "monitor",
			SuggestedReduction: 0,
			HedgeRecommended:   metadata != nil && metadata.MarketCap > hedgeMarketCapFloor,
			Monitoring:         "set_alerts",
			Recommendations: []string{
				"Set alerts on legislation status changes",
				"Review exposure at next rebalance",
			},
		}
	default:
		return models.Recommendation{
			Action:             "no_action",
			SuggestedReduction: 0,
			HedgeRecommended:   false,
			Monitoring:         "none",
			Recommendations: []string{
				"No action required",
			},
		}
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
