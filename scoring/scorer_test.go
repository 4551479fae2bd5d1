package scoring

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regrisk-backend/models"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

func newTestScorer(opts ...Option) *RiskScorer {
	return NewRiskScorer(append([]Option{WithClock(testClock)}, opts...)...)
}

// fullWeightChunk builds a chunk whose weight product is exactly 1.0:
// risk_factors section, filed today, text at the size saturation point.
func fullWeightChunk(sim float64) Chunk {
	date := testNow
	return Chunk{
		PrecomputedSimilarity: sim,
		SectionType:           models.SectionRiskFactors,
		SectionTitle:          "Item 1A",
		FilingType:            "10-K",
		FilingDate:            &date,
		Text:                  strings.Repeat("a", 4000),
	}
}

func floatPtr(v float64) *float64 { return &v }

func TestScoreBounds(t *testing.T) {
	s := newTestScorer()
	chunks := []Chunk{
		fullWeightChunk(0.95),
		fullWeightChunk(0.8),
		fullWeightChunk(0.72),
	}

	result := s.ComputeCompanyScoreFromMatches(chunks, nil, nil, 0.5)

	assert.GreaterOrEqual(t, result.RawScore, 0.0)
	assert.LessOrEqual(t, result.RawScore, 1.0)
	assert.GreaterOrEqual(t, result.AdjustedScore, 0.0)
	assert.LessOrEqual(t, result.AdjustedScore, 1.0)
	assert.GreaterOrEqual(t, result.FinalExpected, 0.0)
	assert.LessOrEqual(t, result.FinalExpected, result.FinalWorst)
	assert.Equal(t, result.AdjustedScore, result.FinalWorst)
}

func TestThresholdBoundaryIsInclusive(t *testing.T) {
	s := newTestScorer()

	atThreshold := s.ComputeCompanyScoreFromMatches([]Chunk{fullWeightChunk(0.7)}, nil, nil, 1.0)
	assert.Equal(t, 1, atThreshold.TotalMatches)
	assert.InDelta(t, 0.7, atThreshold.RawScore, 1e-9)

	belowThreshold := s.ComputeCompanyScoreFromMatches([]Chunk{fullWeightChunk(0.699)}, nil, nil, 1.0)
	assert.Equal(t, 0, belowThreshold.TotalMatches)
}

func TestBelowThresholdChunksAffectNothing(t *testing.T) {
	s := newTestScorer()
	base := []Chunk{fullWeightChunk(0.9), fullWeightChunk(0.75)}
	withNoise := append([]Chunk{fullWeightChunk(0.1), fullWeightChunk(0.69)}, base...)

	baseResult := s.ComputeCompanyScoreFromMatches(base, nil, nil, 1.0)
	noisyResult := s.ComputeCompanyScoreFromMatches(withNoise, nil, nil, 1.0)

	// Excluded chunks leave both numerator and denominator untouched.
	assert.InDelta(t, baseResult.RawScore, noisyResult.RawScore, 1e-9)
	assert.Equal(t, baseResult.TotalMatches, noisyResult.TotalMatches)
}

func TestSelfNormalizationUnderDuplication(t *testing.T) {
	s := newTestScorer()
	chunks := []Chunk{fullWeightChunk(0.9), fullWeightChunk(0.75)}
	doubled := append(append([]Chunk{}, chunks...), chunks...)

	single := s.ComputeCompanyScoreFromMatches(chunks, nil, nil, 1.0)
	double := s.ComputeCompanyScoreFromMatches(doubled, nil, nil, 1.0)

	assert.InDelta(t, single.RawScore, double.RawScore, 1e-9)
	assert.Equal(t, 2*single.TotalMatches, double.TotalMatches)
}

func TestAddingWeakerChunkLowersRawScore(t *testing.T) {
	s := newTestScorer()
	strong := s.ComputeCompanyScoreFromMatches([]Chunk{fullWeightChunk(0.95)}, nil, nil, 1.0)
	diluted := s.ComputeCompanyScoreFromMatches([]Chunk{fullWeightChunk(0.95), fullWeightChunk(0.72)}, nil, nil, 1.0)

	assert.Less(t, diluted.RawScore, strong.RawScore)
	assert.GreaterOrEqual(t, diluted.RawScore, 0.72)
}

func TestEmptyInputReturnsSentinel(t *testing.T) {
	s := newTestScorer()

	result := s.ComputeCompanyScoreFromMatches(nil, nil, nil, 1.0)

	assert.Equal(t, 0, result.TotalMatches)
	assert.Equal(t, models.RiskLow, result.RiskLevel)
	assert.Zero(t, result.RawScore)
	assert.Zero(t, result.FinalExpected)
	assert.Equal(t, "No matches found", result.Explanation.Summary)
	assert.Empty(t, result.TopContributors)
}

func TestNoLegislationEmbeddingsReturnsSentinel(t *testing.T) {
	s := newTestScorer()

	result := s.ComputeCompanyScore([]Chunk{{Embedding: []float64{1, 0}}}, nil, nil, 1.0)

	assert.Equal(t, 0, result.TotalMatches)
	assert.Equal(t, "No matches found", result.Explanation.Summary)
}

func TestDefaultMetadataScenario(t *testing.T) {
	// One chunk at sim 0.9 and full weight, no metadata, certain passage.
	// Sensitivity = 0.6*0.2 + 0.3*0.2 = 0.18.
	s := newTestScorer()

	result := s.ComputeCompanyScoreFromMatches([]Chunk{fullWeightChunk(0.9)}, nil, nil, 1.0)

	require.Equal(t, 1, result.TotalMatches)
	assert.InDelta(t, 0.9, result.RawScore, 1e-9)
	assert.InDelta(t, 0.18, result.Sensitivity, 1e-9)
	assert.InDelta(t, 0.162, result.AdjustedScore, 1e-9)
	assert.InDelta(t, 0.162, result.FinalExpected, 1e-9)
	assert.Equal(t, models.RiskLow, result.RiskLevel)
}

func TestHighSensitivityScenario(t *testing.T) {
	// China operations trigger the 0.4 revenue heuristic. Sensitivity =
	// 0.6*0.4 + 0.3*1.0 + 0.1*0.6 = 0.60; adjusted 0.54; expected 0.405.
	s := newTestScorer()
	metadata := &models.CompanyMetadata{
		CompanyName:           "Acme Semiconductor",
		MarginSensitivity:     floatPtr(1.0),
		SupplyChainDependency: floatPtr(0.6),
		Entities:              models.CompanyEntities{Countries: []string{"China"}},
	}

	result := s.ComputeCompanyScoreFromMatches([]Chunk{fullWeightChunk(0.9)}, nil, metadata, 0.75)

	assert.InDelta(t, 0.60, result.Sensitivity, 1e-9)
	assert.InDelta(t, 0.54, result.AdjustedScore, 1e-9)
	assert.InDelta(t, 0.405, result.FinalExpected, 1e-9)
	assert.InDelta(t, 0.54, result.FinalWorst, 1e-9)
	assert.Equal(t, models.RiskMedium, result.RiskLevel)
}

func TestProbabilityBlendsExpectedScore(t *testing.T) {
	s := newTestScorer()
	chunks := []Chunk{fullWeightChunk(0.9)}

	certain := s.ComputeCompanyScoreFromMatches(chunks, nil, nil, 1.0)
	unlikely := s.ComputeCompanyScoreFromMatches(chunks, nil, nil, 0.1)

	assert.InDelta(t, certain.AdjustedScore, certain.FinalExpected, 1e-9)
	assert.InDelta(t, 0.1*unlikely.AdjustedScore, unlikely.FinalExpected, 1e-9)
	// Worst case ignores the probability.
	assert.InDelta(t, certain.FinalWorst, unlikely.FinalWorst, 1e-9)
}

func TestClassifyRiskBoundaries(t *testing.T) {
	assert.Equal(t, models.RiskLow, ClassifyRisk(0.0))
	assert.Equal(t, models.RiskLow, ClassifyRisk(0.19))
	assert.Equal(t, models.RiskMedium, ClassifyRisk(0.20))
	assert.Equal(t, models.RiskMedium, ClassifyRisk(0.49))
	assert.Equal(t, models.RiskHigh, ClassifyRisk(0.50))
	assert.Equal(t, models.RiskHigh, ClassifyRisk(0.74))
	assert.Equal(t, models.RiskCritical, ClassifyRisk(0.75))
	assert.Equal(t, models.RiskCritical, ClassifyRisk(1.0))
}

func TestTopContributorsOrderedAndCapped(t *testing.T) {
	s := newTestScorer()
	chunks := make([]Chunk, 0, 15)
	for i := 0; i < 15; i++ {
		chunks = append(chunks, fullWeightChunk(0.71+float64(i)*0.01))
	}

	result := s.ComputeCompanyScoreFromMatches(chunks, nil, nil, 1.0)

	require.Len(t, result.TopContributors, 10)
	for i := 1; i < len(result.TopContributors); i++ {
		assert.GreaterOrEqual(t,
			result.TopContributors[i-1].Exposure,
			result.TopContributors[i].Exposure)
	}
	assert.InDelta(t, 0.85, result.TopContributors[0].Similarity, 1e-9)
}

func TestContributorTextTruncation(t *testing.T) {
	s := newTestScorer()
	chunk := fullWeightChunk(0.9)
	chunk.Text = strings.Repeat("x", 500)

	result := s.ComputeCompanyScoreFromMatches([]Chunk{chunk}, nil, nil, 1.0)

	require.Len(t, result.TopContributors, 1)
	text := result.TopContributors[0].SentenceText
	assert.Len(t, text, 203)
	assert.True(t, strings.HasSuffix(text, "..."))

	short := fullWeightChunk(0.9)
	short.Text = "short sentence"
	result = s.ComputeCompanyScoreFromMatches([]Chunk{short}, nil, nil, 1.0)
	assert.Equal(t, "short sentence", result.TopContributors[0].SentenceText)
}

func TestContributorWeightBreakdown(t *testing.T) {
	s := newTestScorer()
	chunk := fullWeightChunk(0.8)

	result := s.ComputeCompanyScoreFromMatches([]Chunk{chunk}, nil, nil, 1.0)

	require.Len(t, result.TopContributors, 1)
	c := result.TopContributors[0]
	assert.InDelta(t, 1.0, c.SectionWeight, 1e-9)
	assert.InDelta(t, 1.0, c.RecencyWeight, 1e-9)
	assert.InDelta(t, 1.0, c.SizeWeight, 1e-9)
	assert.InDelta(t, c.Similarity*c.Weight, c.Exposure, 1e-9)
	assert.Equal(t, "2026-03-15", c.FilingDate)
	assert.Equal(t, "10-K", c.FilingType)
}

func TestContributorMissingFields(t *testing.T) {
	s := newTestScorer()
	chunk := Chunk{PrecomputedSimilarity: 0.9, Text: strings.Repeat("a", 4000)}

	result := s.ComputeCompanyScoreFromMatches([]Chunk{chunk}, nil, nil, 1.0)

	require.Len(t, result.TopContributors, 1)
	c := result.TopContributors[0]
	assert.Equal(t, "unknown", c.SectionType)
	assert.Equal(t, "N/A", c.FilingType)
	assert.Equal(t, "N/A", c.FilingDate)
}

func TestExplanationContents(t *testing.T) {
	s := newTestScorer()
	metadata := &models.CompanyMetadata{
		MarginSensitivity: floatPtr(0.5),
		Entities:          models.CompanyEntities{Countries: []string{"Taiwan"}},
	}

	result := s.ComputeCompanyScoreFromMatches([]Chunk{fullWeightChunk(0.9)}, nil, metadata, 0.8)

	e := result.Explanation
	assert.Contains(t, e.Summary, "Risk Level: ")
	assert.Contains(t, e.Summary, strings.ToUpper(string(result.RiskLevel)))
	assert.InDelta(t, result.RawScore, e.RawScore, 1e-9)
	assert.InDelta(t, result.Sensitivity, e.Sensitivity.OverallSensitivity, 1e-9)
	assert.InDelta(t, 0.4, e.Sensitivity.RevenueExposed, 1e-9)
	assert.InDelta(t, 0.5, e.Sensitivity.MarginSensitivity, 1e-9)
	assert.InDelta(t, 0.8, e.Adjustments.PolymarketProbability, 1e-9)
	assert.InDelta(t, result.FinalExpected, e.Adjustments.ExpectedScore, 1e-9)
	assert.InDelta(t, result.FinalWorst, e.Adjustments.WorstCaseScore, 1e-9)
	assert.Equal(t, 1, e.Statistics.TotalMatchingChunks)
	assert.Equal(t, 1, e.Statistics.SectionBreakdown[models.SectionRiskFactors])
}

func TestComputeCompanyScoreUsesEmbeddings(t *testing.T) {
	s := newTestScorer()
	date := testNow
	chunks := []Chunk{
		{
			Embedding:   []float64{1, 0, 0},
			SectionType: models.SectionRiskFactors,
			FilingDate:  &date,
			Text:        strings.Repeat("a", 4000),
		},
		{SectionType: models.SectionRiskFactors}, // no embedding, skipped
	}
	legislation := [][]float64{{1, 0, 0}, {0, 1, 0}}

	result := s.ComputeCompanyScore(chunks, legislation, nil, 1.0)

	// Max aggregation picks the identical vector.
	require.Equal(t, 1, result.TotalMatches)
	assert.InDelta(t, 1.0, result.RawScore, 1e-9)
}

func TestWeightedAvgAggregation(t *testing.T) {
	s := newTestScorer(WithAggregation(AggregateWeightedAvg), WithSimilarityThreshold(0.4))
	date := testNow
	chunk := Chunk{
		Embedding:   []float64{1, 0, 0},
		SectionType: models.SectionRiskFactors,
		FilingDate:  &date,
		Text:        strings.Repeat("a", 4000),
	}
	legislation := [][]float64{{1, 0, 0}, {0, 1, 0}}

	result := s.ComputeCompanyScore([]Chunk{chunk}, legislation, nil, 1.0)

	require.Equal(t, 1, result.TotalMatches)
	assert.InDelta(t, 0.5, result.RawScore, 1e-9)
}

func TestFromMatchesFallsBackToEmbedding(t *testing.T) {
	s := newTestScorer()
	date := testNow
	chunk := Chunk{
		Embedding:   []float64{1, 0},
		SectionType: models.SectionRiskFactors,
		FilingDate:  &date,
		Text:        strings.Repeat("a", 4000),
	}

	result := s.ComputeCompanyScoreFromMatches([]Chunk{chunk}, []float64{1, 0}, nil, 1.0)

	require.Equal(t, 1, result.TotalMatches)
	assert.InDelta(t, 1.0, result.RawScore, 1e-9)
}

func TestSectionWeightShiftsScore(t *testing.T) {
	s := newTestScorer()
	date := testNow
	riskChunk := fullWeightChunk(0.75)
	otherChunk := Chunk{
		PrecomputedSimilarity: 0.95,
		SectionType:           models.SectionOther,
		FilingDate:            &date,
		Text:                  strings.Repeat("a", 4000),
	}

	result := s.ComputeCompanyScoreFromMatches([]Chunk{riskChunk, otherChunk}, nil, nil, 1.0)

	// other carries half the weight of risk_factors:
	// (0.75*1.0 + 0.95*0.5) / 1.5
	assert.InDelta(t, (0.75+0.475)/1.5, result.RawScore, 1e-9)
}
