package scoring

import (
	"strings"

	"regrisk-backend/models"
)

// Defaults for optional company metadata fields
const (
	defaultMarginSensitivity     = 0.2
	defaultSupplyChainDependency = 0.0
	defaultLegalExposure         = 0.0
)

// Revenue exposure fallbacks
const (
	highRiskCountryExposure = 0.4
	defaultRevenueExposure  = 0.2
)

// highRiskCountries flags operating countries that imply elevated exposure to
// trade-related legislation when no regional revenue data is available.
var highRiskCountries = map[string]struct{}{
	"china":       {},
	"taiwan":      {},
	"vietnam":     {},
	"india":       {},
	"south korea": {},
}

// SensitivityWeights are the linear blend weights of the sensitivity model.
// LegalExposure is carried at zero weight until the estimator improves.
type SensitivityWeights struct {
	RevenueExposed        float64
	MarginSensitivity     float64
	SupplyChainDependency float64
	LegalExposure         float64
}

// DefaultSensitivityWeights returns the standard sensitivity blend
func DefaultSensitivityWeights() SensitivityWeights {
	return SensitivityWeights{
		RevenueExposed:        0.6,
		MarginSensitivity:     0.3,
		SupplyChainDependency: 0.1,
		LegalExposure:         0.0,
	}
}

// revenueEstimator attempts one strategy for estimating the exposed revenue
// share. It reports false when its inputs are absent so the next estimator in
// the chain runs.
type revenueEstimator func(metadata *models.CompanyMetadata) (float64, bool)

// revenueEstimators run in order; the first applicable one wins. Explicit
// regional revenue data beats the country heuristic, which beats the flat
// default.
var revenueEstimators = []revenueEstimator{
	regionalRevenueShare,
	highRiskCountryHeuristic,
	flatRevenueDefault,
}

// estimateRevenueExposed returns the fraction of revenue exposed to the
// legislation, in [0, 1]
func estimateRevenueExposed(metadata *models.CompanyMetadata) float64 {
	for _, estimate := range revenueEstimators {
		if v, ok := estimate(metadata); ok {
			return v
		}
	}
	return defaultRevenueExposure
}

// regionalRevenueShare sums revenue in affected regions over total revenue
func regionalRevenueShare(metadata *models.CompanyMetadata) (float64, bool) {
	if metadata == nil || len(metadata.RevenueByRegion) == 0 || len(metadata.AffectedRegions) == 0 {
		return 0, false
	}

	var total, exposed float64
	for _, v := range metadata.RevenueByRegion {
		total += v
	}
	if total <= 0 {
		return 0, false
	}
	for _, region := range metadata.AffectedRegions {
		exposed += metadata.RevenueByRegion[region]
	}
	return clamp(exposed/total, 0, 1), true
}

// highRiskCountryHeuristic fires when the company operates in any flagged
// country
func highRiskCountryHeuristic(metadata *models.CompanyMetadata) (float64, bool) {
	if metadata == nil {
		return 0, false
	}
	for _, country := range metadata.Entities.Countries {
		if _, ok := highRiskCountries[strings.ToLower(country)]; ok {
			return highRiskCountryExposure, true
		}
	}
	return 0, false
}

func flatRevenueDefault(*models.CompanyMetadata) (float64, bool) {
	return defaultRevenueExposure, true
}

// computeSensitivity blends the company sensitivity factors into a single
// multiplier in [0, 1]
func (s *RiskScorer) computeSensitivity(metadata *models.CompanyMetadata) float64 {
	revenueExposed := estimateRevenueExposed(metadata)
	margin := defaultMarginSensitivity
	supplyChain := defaultSupplyChainDependency
	legal := defaultLegalExposure
	if metadata != nil {
		if metadata.MarginSensitivity != nil {
			margin = *metadata.MarginSensitivity
		}
		if metadata.SupplyChainDependency != nil {
			supplyChain = *metadata.SupplyChainDependency
		}
		if metadata.LegalExposure != nil {
			legal = *metadata.LegalExposure
		}
	}

	w := s.sensitivityWeights
	sensitivity := w.RevenueExposed*revenueExposed +
		w.MarginSensitivity*margin +
		w.SupplyChainDependency*supplyChain +
		w.LegalExposure*legal
	return clamp(sensitivity, 0, 1)
}
