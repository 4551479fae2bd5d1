package scoring

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"regrisk-backend/models"
)

// Default hyperparameters for the scoring methodology
const (
	DefaultLambdaRecency   = 0.001 // decay rate per day
	DefaultSimThreshold    = 0.7   // minimum similarity to consider
	DefaultTokenBase       = 1000  // base tokens for size normalization
	DefaultTopContributors = 10
)

// Risk category thresholds (lower bound inclusive)
const (
	mediumThreshold   = 0.20
	highThreshold     = 0.50
	criticalThreshold = 0.75
)

// AggregationMethod selects how similarities across legislation chunks are reduced
type AggregationMethod string

const (
	AggregateMax         AggregationMethod = "max"
	AggregateWeightedAvg AggregationMethod = "weighted_avg"
)

// DefaultSectionWeights maps filing section types to their evidence weight.
// 8-K significant events are nearly as important as the risk factors section.
func DefaultSectionWeights() map[string]float64 {
	return map[string]float64{
		models.SectionRiskFactors:       1.0,
		models.SectionSignificantEvents: 0.95,
		models.SectionBusiness:          0.6,
		models.SectionOther:             0.5,
	}
}

// Chunk is the unified scoring input. Similarity is resolved from either the
// embedding (compared against legislation embeddings) or a precomputed value
// returned by the vector store alongside the match.
type Chunk struct {
	Embedding             []float64
	PrecomputedSimilarity float64
	SectionType           string
	SectionTitle          string
	FilingType            string
	FilingDate            *time.Time
	Text                  string
}

// RiskScorer computes regulatory risk scores from weighted chunk exposures.
// Configuration is fixed at construction; a single instance is safe to share
// across concurrent callers.
type RiskScorer struct {
	sectionWeights     map[string]float64
	lambdaRecency      float64
	simThreshold       float64
	tokenBase          float64
	sensitivityWeights SensitivityWeights
	aggregation        AggregationMethod
	topN               int
	now                func() time.Time
}

// Option is a functional option for RiskScorer
type Option func(*RiskScorer)

// WithSectionWeights overrides the section-type weight table
func WithSectionWeights(weights map[string]float64) Option {
	return func(s *RiskScorer) {
		s.sectionWeights = make(map[string]float64, len(weights))
		for k, v := range weights {
			s.sectionWeights[k] = v
		}
	}
}

// WithRecencyDecay sets the exponential decay rate per day
func WithRecencyDecay(lambda float64) Option {
	return func(s *RiskScorer) {
		s.lambdaRecency = lambda
	}
}

// WithSimilarityThreshold sets the minimum similarity for a chunk to count
func WithSimilarityThreshold(threshold float64) Option {
	return func(s *RiskScorer) {
		s.simThreshold = threshold
	}
}

// WithTokenBase sets the token count at which size weight saturates
func WithTokenBase(tokens float64) Option {
	return func(s *RiskScorer) {
		s.tokenBase = tokens
	}
}

// WithSensitivityWeights overrides the sensitivity component weights
func WithSensitivityWeights(weights SensitivityWeights) Option {
	return func(s *RiskScorer) {
		s.sensitivityWeights = weights
	}
}

// WithAggregation sets how similarity across legislation chunks is reduced
func WithAggregation(method AggregationMethod) Option {
	return func(s *RiskScorer) {
		s.aggregation = method
	}
}

// WithTopContributors sets how many contributors are reported
func WithTopContributors(n int) Option {
	return func(s *RiskScorer) {
		s.topN = n
	}
}

// WithClock overrides the time source used for recency weighting
func WithClock(now func() time.Time) Option {
	return func(s *RiskScorer) {
		s.now = now
	}
}

// NewRiskScorer creates a risk scorer with the given options
func NewRiskScorer(opts ...Option) *RiskScorer {
	s := &RiskScorer{
		sectionWeights:     DefaultSectionWeights(),
		lambdaRecency:      DefaultLambdaRecency,
		simThreshold:       DefaultSimThreshold,
		tokenBase:          DefaultTokenBase,
		sensitivityWeights: DefaultSensitivityWeights(),
		aggregation:        AggregateMax,
		topN:               DefaultTopContributors,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SimilarityThreshold returns the configured minimum similarity
func (s *RiskScorer) SimilarityThreshold() float64 {
	return s.simThreshold
}

// chunkScore holds the per-chunk scoring breakdown for one call
type chunkScore struct {
	chunk      Chunk
	weight     float64
	similarity float64
	exposure   float64
	wSection   float64
	wRecency   float64
	wSize      float64
}

// ComputeCompanyScore computes a full risk assessment by comparing chunk
// embeddings against one or more legislation embeddings.
func (s *RiskScorer) ComputeCompanyScore(
	chunks []Chunk,
	legislationEmbeddings [][]float64,
	metadata *models.CompanyMetadata,
	polymarketP float64,
) models.RiskResult {
	if len(legislationEmbeddings) == 0 {
		return EmptyScore()
	}
	return s.score(chunks, metadata, polymarketP, func(c Chunk) (float64, bool) {
		if len(c.Embedding) == 0 {
			return 0, false
		}
		return s.aggregateSimilarity(c.Embedding, legislationEmbeddings), true
	})
}

// ComputeCompanyScoreFromMatches computes a risk assessment from chunks whose
// similarity was already computed by the vector store. Chunks that carry an
// embedding but no precomputed similarity fall back to a direct comparison.
func (s *RiskScorer) ComputeCompanyScoreFromMatches(
	chunks []Chunk,
	legislationEmbedding []float64,
	metadata *models.CompanyMetadata,
	polymarketP float64,
) models.RiskResult {
	return s.score(chunks, metadata, polymarketP, func(c Chunk) (float64, bool) {
		if c.PrecomputedSimilarity != 0 {
			return c.PrecomputedSimilarity, true
		}
		if len(c.Embedding) > 0 && len(legislationEmbedding) > 0 {
			return cosineSimilarity(c.Embedding, legislationEmbedding), true
		}
		return 0, true
	})
}

// score is the single scoring path shared by both entry points. resolve
// returns the similarity for a chunk, or false when the chunk cannot be
// scored at all and must be skipped.
func (s *RiskScorer) score(
	chunks []Chunk,
	metadata *models.CompanyMetadata,
	polymarketP float64,
	resolve func(Chunk) (float64, bool),
) models.RiskResult {
	if len(chunks) == 0 {
		return EmptyScore()
	}

	scored := make([]chunkScore, 0, len(chunks))
	for _, chunk := range chunks {
		sim, ok := resolve(chunk)
		if !ok {
			continue
		}

		// Threshold filter: excluded chunks contribute to neither the
		// numerator nor the denominator. Equality is included.
		if sim < s.simThreshold {
			continue
		}

		wSection := s.sectionWeight(chunk.SectionType)
		wRecency := s.recencyWeight(chunk.FilingDate)
		wSize := s.sizeWeight(chunk.Text)
		weight := wSection * wRecency * wSize

		scored = append(scored, chunkScore{
			chunk:      chunk,
			weight:     weight,
			similarity: sim,
			exposure:   sim * weight,
			wSection:   wSection,
			wRecency:   wRecency,
			wSize:      wSize,
		})
	}

	if len(scored) == 0 {
		return EmptyScore()
	}

	var totalExposure, totalWeight float64
	for _, cs := range scored {
		totalExposure += cs.exposure
		totalWeight += cs.weight
	}

	// Weighted-average similarity: adding low-relevance chunks cannot
	// inflate the score.
	rawScore := clamp(totalExposure/(totalWeight+epsilon), 0, 1)

	sensitivity := s.computeSensitivity(metadata)
	adjustedScore := rawScore * sensitivity
	finalExpected := adjustedScore * polymarketP
	finalWorst := adjustedScore
	riskLevel := ClassifyRisk(finalExpected)
	topContributors := s.topContributorList(scored)

	explanation := s.buildExplanation(
		rawScore, sensitivity, finalExpected, finalWorst,
		riskLevel, topContributors, len(scored), metadata, polymarketP,
	)

	return models.RiskResult{
		RawScore:        rawScore,
		Sensitivity:     sensitivity,
		AdjustedScore:   adjustedScore,
		FinalExpected:   finalExpected,
		FinalWorst:      finalWorst,
		RiskLevel:       riskLevel,
		TopContributors: topContributors,
		Explanation:     explanation,
		TotalMatches:    len(scored),
		TotalExposure:   totalExposure,
		TotalWeight:     totalWeight,
	}
}

// ClassifyRisk maps an expected score to its risk band (lower bound inclusive)
func ClassifyRisk(score float64) models.RiskLevel {
	switch {
	case score >= criticalThreshold:
		return models.RiskCritical
	case score >= highThreshold:
		return models.RiskHigh
	case score >= mediumThreshold:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// topContributorList returns the top N chunks sorted by exposure descending
func (s *RiskScorer) topContributorList(scored []chunkScore) []models.Contributor {
	sorted := make([]chunkScore, len(scored))
	copy(sorted, scored)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].exposure > sorted[j].exposure
	})

	n := s.topN
	if n > len(sorted) {
		n = len(sorted)
	}

	contributors := make([]models.Contributor, 0, n)
	for _, cs := range sorted[:n] {
		contributors = append(contributors, models.Contributor{
			SectionType:   sectionOrUnknown(cs.chunk.SectionType),
			SectionTitle:  cs.chunk.SectionTitle,
			FilingType:    valueOrNA(cs.chunk.FilingType),
			FilingDate:    formatFilingDate(cs.chunk.FilingDate),
			SentenceText:  truncateSentence(cs.chunk.Text, 200),
			Similarity:    cs.similarity,
			Weight:        cs.weight,
			Exposure:      cs.exposure,
			SectionWeight: cs.wSection,
			RecencyWeight: cs.wRecency,
			SizeWeight:    cs.wSize,
		})
	}
	return contributors
}

func (s *RiskScorer) buildExplanation(
	rawScore, sensitivity, finalExpected, finalWorst float64,
	riskLevel models.RiskLevel,
	topContributors []models.Contributor,
	totalChunks int,
	metadata *models.CompanyMetadata,
	polymarketP float64,
) models.Explanation {
	return models.Explanation{
		Summary:  fmt.Sprintf("Risk Level: %s, Score: %.3f", strings.ToUpper(string(riskLevel)), finalExpected),
		RawScore: rawScore,
		Sensitivity: models.SensitivityBreakdown{
			OverallSensitivity:    sensitivity,
			RevenueExposed:        estimateRevenueExposed(metadata),
			MarginSensitivity:     metadataValue(metadata, func(m *models.CompanyMetadata) *float64 { return m.MarginSensitivity }),
			SupplyChainDependency: metadataValue(metadata, func(m *models.CompanyMetadata) *float64 { return m.SupplyChainDependency }),
		},
		Adjustments: models.ScoreAdjustments{
			PolymarketProbability: polymarketP,
			ExpectedScore:         finalExpected,
			WorstCaseScore:        finalWorst,
		},
		TopContributors: topContributors,
		Statistics: models.ExplanationStats{
			TotalMatchingChunks: totalChunks,
			SectionBreakdown:    sectionBreakdown(topContributors),
		},
	}
}

// sectionBreakdown counts contributors by section type
func sectionBreakdown(contributors []models.Contributor) map[string]int {
	breakdown := make(map[string]int)
	for _, c := range contributors {
		breakdown[c.SectionType]++
	}
	return breakdown
}

// EmptyScore is the sentinel returned when no chunk qualifies. Callers must
// check TotalMatches == 0 rather than expect an error.
func EmptyScore() models.RiskResult {
	return models.RiskResult{
		RiskLevel:       models.RiskLow,
		TopContributors: []models.Contributor{},
		Explanation: models.Explanation{
			Summary: "No matches found",
			Statistics: models.ExplanationStats{
				SectionBreakdown: map[string]int{},
			},
		},
	}
}

// metadataValue reads an optional metadata field for display, 0 when absent
func metadataValue(metadata *models.CompanyMetadata, field func(*models.CompanyMetadata) *float64) float64 {
	if metadata == nil {
		return 0
	}
	if v := field(metadata); v != nil {
		return *v
	}
	return 0
}

func sectionOrUnknown(sectionType string) string {
	if sectionType == "" {
		return "unknown"
	}
	return sectionType
}

func valueOrNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

func formatFilingDate(d *time.Time) string {
	if d == nil {
		return "N/A"
	}
	return d.Format("2006-01-02")
}

func truncateSentence(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
