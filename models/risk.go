package models

// RiskLevel is a banded classification of the expected risk score
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Contributor is one chunk's contribution to a risk score, with the full
// weight breakdown for explainability
type Contributor struct {
	SectionType   string  `json:"section_type"`
	SectionTitle  string  `json:"section_title"`
	FilingType    string  `json:"filing_type"`
	FilingDate    string  `json:"filing_date"`
	SentenceText  string  `json:"sentence_text"` // truncated to 200 chars
	Similarity    float64 `json:"similarity"`
	Weight        float64 `json:"weight"`
	Exposure      float64 `json:"exposure"`
	SectionWeight float64 `json:"w_section"`
	RecencyWeight float64 `json:"w_recency"`
	SizeWeight    float64 `json:"w_size"`
}

// SensitivityBreakdown itemizes the company-level sensitivity factor
type SensitivityBreakdown struct {
	OverallSensitivity    float64 `json:"overall_sensitivity"`
	RevenueExposed        float64 `json:"revenue_exposed"`
	MarginSensitivity     float64 `json:"margin_sensitivity"`
	SupplyChainDependency float64 `json:"supply_chain_dependency"`
}

// ScoreAdjustments records how the external probability blends worst case
// into expected case
type ScoreAdjustments struct {
	PolymarketProbability float64 `json:"polymarket_probability"`
	ExpectedScore         float64 `json:"expected_score"`
	WorstCaseScore        float64 `json:"worst_case_score"`
}

// ExplanationStats summarizes which evidence drove the score
type ExplanationStats struct {
	TotalMatchingChunks int            `json:"total_matching_chunks"`
	SectionBreakdown    map[string]int `json:"section_breakdown"`
}

// Explanation is the structured provenance attached to every risk result
type Explanation struct {
	Summary         string               `json:"summary"`
	RawScore        float64              `json:"raw_score"`
	Sensitivity     SensitivityBreakdown `json:"sensitivity_breakdown"`
	Adjustments     ScoreAdjustments     `json:"adjustments"`
	TopContributors []Contributor        `json:"top_contributors"`
	Statistics      ExplanationStats     `json:"statistics"`
}

// RiskResult is the full outcome of one scoring call. It is a pure function
// of its inputs plus scorer configuration; every field is populated on every
// call (the empty-score sentinel has TotalMatches == 0 and RiskLow).
type RiskResult struct {
	RawScore        float64       `json:"raw_score"`
	Sensitivity     float64       `json:"sensitivity"`
	AdjustedScore   float64       `json:"adjusted_score"`
	FinalExpected   float64       `json:"final_expected"`
	FinalWorst      float64       `json:"final_worst"`
	RiskLevel       RiskLevel     `json:"risk_level"`
	TopContributors []Contributor `json:"top_contributors"`
	Explanation     Explanation   `json:"explanation"`
	TotalMatches    int           `json:"total_matches"`
	TotalExposure   float64       `json:"total_exposure"`
	TotalWeight     float64       `json:"total_weight"`
}

// Recommendation is a deterministic action plan keyed off the risk level
type Recommendation struct {
	Action             string   `json:"action"`
	SuggestedReduction float64  `json:"suggested_reduction"`
	HedgeRecommended   bool     `json:"hedge_recommended"`
	Monitoring         string   `json:"monitoring"`
	Recommendations    []string `json:"recommendations"`
}

// LLMAnalysis is the structured qualitative assessment produced by the
// language model. Best-effort: numeric scoring never depends on it.
type LLMAnalysis struct {
	ImpactSummary           string   `json:"impact_summary"`
	AffectedRiskTypes       []string `json:"affected_risk_types"`
	BusinessImpact          string   `json:"business_impact"`
	Recommendation          string   `json:"recommendation"` // "buy", "sell", "trim", "rotate", "neutral"
	RecommendationReasoning string   `json:"recommendation_reasoning"`
	RotationTarget          string   `json:"rotation_target,omitempty"`
	Confidence              int      `json:"confidence"` // 0-100
	MitigationStrategies    []string `json:"mitigation_strategies"`
}
