package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"regrisk-backend/models"
	"regrisk-backend/repository"
	"regrisk-backend/scoring"
)

// DefaultTopK is the default vector search breadth
const DefaultTopK = 50

// Legacy scoring parameters, kept for backwards-compatible comparisons
// against historical assessments
var legacySectionWeights = map[string]float64{
	models.SectionRiskFactors:       1.5,
	models.SectionBusiness:          1.2,
	models.SectionSignificantEvents: 1.0,
	models.SectionOther:             0.8,
}

const legacyMaxWeight = 1.5

// ScoringMode selects the scoring methodology
type ScoringMode string

const (
	ScoringAdvanced ScoringMode = "advanced"
	ScoringLegacy   ScoringMode = "legacy"
)

var (
	ErrLegislationTextRequired = errors.New("legislation text is required")
	ErrAnalysisJobNotFound     = errors.New("analysis job not found")
)

// ChunkSearcher finds filing chunks similar to a query embedding
type ChunkSearcher interface {
	SearchSimilar(ctx context.Context, embedding []float64, ticker string, topK int) ([]models.ChunkMatch, error)
	ListTickers(ctx context.Context) ([]string, error)
}

// Embedder embeds query text for retrieval
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
}

// ImpactLLM produces qualitative assessments
type ImpactLLM interface {
	AnalyzeImpact(ctx context.Context, legislationText, companyName string, matches []models.ChunkMatch, riskLevel models.RiskLevel, score float64) (*models.LLMAnalysis, error)
}

// ProbabilitySource resolves a prediction-market probability by slug
type ProbabilitySource interface {
	GetProbability(ctx context.Context, slug string) (float64, error)
}

// ImpactAnalyzer orchestrates legislation impact analysis: embed the
// legislation, search filing chunks, score, recommend, and optionally attach
// a qualitative LLM assessment.
type ImpactAnalyzer struct {
	searcher    ChunkSearcher
	embedder    Embedder
	llm         ImpactLLM
	probability ProbabilitySource
	jobRepo     *repository.AnalysisJobRepository
	scorer      *scoring.RiskScorer
	mode        ScoringMode
	topK        int
}

// ImpactAnalyzerOption is a functional option for ImpactAnalyzer
type ImpactAnalyzerOption func(*ImpactAnalyzer)

// ImpactWithSearcher sets the chunk searcher
func ImpactWithSearcher(searcher ChunkSearcher) ImpactAnalyzerOption {
	return func(a *ImpactAnalyzer) {
		a.searcher = searcher
	}
}

// ImpactWithEmbedder sets the query embedder
func ImpactWithEmbedder(embedder Embedder) ImpactAnalyzerOption {
	return func(a *ImpactAnalyzer) {
		a.embedder = embedder
	}
}

// ImpactWithLLM sets the qualitative analyzer
func ImpactWithLLM(llm ImpactLLM) ImpactAnalyzerOption {
	return func(a *ImpactAnalyzer) {
		a.llm = llm
	}
}

// ImpactWithProbabilitySource sets the prediction-market client
func ImpactWithProbabilitySource(source ProbabilitySource) ImpactAnalyzerOption {
	return func(a *ImpactAnalyzer) {
		a.probability = source
	}
}

// ImpactWithJobRepository sets the analysis job repository
func ImpactWithJobRepository(repo *repository.AnalysisJobRepository) ImpactAnalyzerOption {
	return func(a *ImpactAnalyzer) {
		a.jobRepo = repo
	}
}

// ImpactWithScorer sets the risk scorer
func ImpactWithScorer(scorer *scoring.RiskScorer) ImpactAnalyzerOption {
	return func(a *ImpactAnalyzer) {
		a.scorer = scorer
	}
}

// ImpactWithScoringMode selects advanced or legacy scoring
func ImpactWithScoringMode(mode ScoringMode) ImpactAnalyzerOption {
	return func(a *ImpactAnalyzer) {
		a.mode = mode
	}
}

// ImpactWithTopK sets the default vector search breadth
func ImpactWithTopK(topK int) ImpactAnalyzerOption {
	return func(a *ImpactAnalyzer) {
		a.topK = topK
	}
}

// NewImpactAnalyzer creates an impact analyzer
func NewImpactAnalyzer(opts ...ImpactAnalyzerOption) *ImpactAnalyzer {
	a := &ImpactAnalyzer{
		scorer: scoring.NewRiskScorer(),
		mode:   ScoringAdvanced,
		topK:   DefaultTopK,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeRequest describes one company/legislation analysis
type AnalyzeRequest struct {
	LegislationText       string
	Ticker                string // empty analyzes across all companies
	CompanyName           string
	TopK                  int
	Metadata              *models.CompanyMetadata
	PolymarketSlug        string
	PolymarketProbability *float64 // overrides slug lookup when set
	IncludeLLMAnalysis    bool
}

// MatchedSentence is one filing disclosure matched against the legislation
type MatchedSentence struct {
	Ticker      string  `json:"ticker"`
	SectionType string  `json:"section_type"`
	FilingType  string  `json:"filing_type"`
	FilingDate  string  `json:"filing_date"`
	Similarity  float64 `json:"similarity"`
	Sentence    string  `json:"sentence"`
}

// GroupStats summarizes match similarity within one section or filing type
type GroupStats struct {
	Count         int     `json:"count"`
	AvgSimilarity float64 `json:"avg_similarity"`
	MaxSimilarity float64 `json:"max_similarity"`
}

// MatchStatistics summarizes where the matches came from
type MatchStatistics struct {
	TotalMatches int                   `json:"total_matches"`
	BySection    map[string]GroupStats `json:"by_section"`
	ByFilingType map[string]GroupStats `json:"by_filing_type"`
}

// AnalyzeResult is the full outcome of one impact analysis
type AnalyzeResult struct {
	Ticker           string                `json:"ticker,omitempty"`
	CompanyName      string                `json:"company_name,omitempty"`
	Probability      float64               `json:"polymarket_probability"`
	Risk             models.RiskResult     `json:"risk"`
	Recommendation   models.Recommendation `json:"recommendation"`
	MatchedSentences []MatchedSentence     `json:"matched_sentences"`
	Statistics       MatchStatistics       `json:"statistics"`
	ExplanationText  string                `json:"explanation_text"`
	LLMAnalysis      *models.LLMAnalysis   `json:"llm_analysis,omitempty"`
}

// AnalyzeImpact runs the full pipeline for one company. The LLM step is
// best-effort: its failure is logged and the numeric result stands.
func (a *ImpactAnalyzer) AnalyzeImpact(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	if a.searcher == nil {
		return nil, errors.New("chunk searcher not set")
	}
	if a.embedder == nil {
		return nil, errors.New("embedder not set")
	}
	if strings.TrimSpace(req.LegislationText) == "" {
		return nil, ErrLegislationTextRequired
	}

	probability := a.resolveProbability(ctx, req)

	embedding, err := a.embedder.EmbedQuery(ctx, req.LegislationText)
	if err != nil {
		return nil, fmt.Errorf("failed to embed legislation: %w", err)
	}

	topK := req.TopK
	if topK <= 0 {
		topK = a.topK
	}

	matches, err := a.searcher.SearchSimilar(ctx, embedding, req.Ticker, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	// Pre-filter at the scorer threshold so statistics and matched
	// sentences agree with what the score was computed from.
	matches = filterByThreshold(matches, a.scorer.SimilarityThreshold())

	var risk models.RiskResult
	if a.mode == ScoringLegacy {
		risk = legacyScore(matches)
	} else {
		risk = a.scorer.ComputeCompanyScoreFromMatches(matchesToChunks(matches), embedding, req.Metadata, probability)
	}

	stats := computeStatistics(matches)
	result := &AnalyzeResult{
		Ticker:           req.Ticker,
		CompanyName:      req.CompanyName,
		Probability:      probability,
		Risk:             risk,
		Recommendation:   scoring.Recommend(risk.FinalExpected, risk.RiskLevel, req.Metadata),
		MatchedSentences: formatMatchedSentences(matches),
		Statistics:       stats,
		ExplanationText:  buildExplanationText(req.Ticker, risk, stats, matches),
	}

	if req.IncludeLLMAnalysis && a.llm != nil {
		analysis, err := a.llm.AnalyzeImpact(ctx, req.LegislationText, companyLabel(req), matches, risk.RiskLevel, risk.FinalExpected)
		if err != nil {
			log.Printf("Warning: LLM analysis failed for %s: %v. Using default analysis.", companyLabel(req), err)
		}
		result.LLMAnalysis = analysis
	}

	return result, nil
}

// resolveProbability prefers an explicit request value, then the market
// lookup, then certainty (worst case = expected case)
func (a *ImpactAnalyzer) resolveProbability(ctx context.Context, req AnalyzeRequest) float64 {
	if req.PolymarketProbability != nil {
		p := *req.PolymarketProbability
		if p < 0 {
			p = 0
		}
		if p > 1 {
			p = 1
		}
		return p
	}

	if req.PolymarketSlug != "" && a.probability != nil {
		p, err := a.probability.GetProbability(ctx, req.PolymarketSlug)
		if err != nil {
			log.Printf("Warning: Failed to fetch Polymarket probability for %s: %v. Defaulting to 1.0.", req.PolymarketSlug, err)
			return 1.0
		}
		return p
	}

	return 1.0
}

func companyLabel(req AnalyzeRequest) string {
	if req.CompanyName != "" {
		return req.CompanyName
	}
	if req.Ticker != "" {
		return req.Ticker
	}
	return "the company"
}

func filterByThreshold(matches []models.ChunkMatch, threshold float64) []models.ChunkMatch {
	filtered := make([]models.ChunkMatch, 0, len(matches))
	for _, m := range matches {
		if m.Similarity >= threshold {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

func matchesToChunks(matches []models.ChunkMatch) []scoring.Chunk {
	chunks := make([]scoring.Chunk, 0, len(matches))
	for _, m := range matches {
		chunks = append(chunks, scoring.Chunk{
			PrecomputedSimilarity: m.Similarity,
			SectionType:           m.SectionType,
			SectionTitle:          m.SectionTitle,
			FilingType:            m.FilingType,
			FilingDate:            m.FilingDate,
			Text:                  m.Sentence,
			Embedding:             m.Embedding,
		})
	}
	return chunks
}

// legacyScore reproduces the original 3-tier methodology: mean weighted
// similarity normalized by the maximum section weight
func legacyScore(matches []models.ChunkMatch) models.RiskResult {
	if len(matches) == 0 {
		return scoring.EmptyScore()
	}

	var sum float64
	for _, m := range matches {
		w, ok := legacySectionWeights[m.SectionType]
		if !ok {
			w = legacySectionWeights[models.SectionOther]
		}
		sum += m.Similarity * w
	}
	score := sum / float64(len(matches)) / legacyMaxWeight

	var level models.RiskLevel
	switch {
	case score >= 0.8:
		level = models.RiskHigh
	case score >= 0.5:
		level = models.RiskMedium
	default:
		level = models.RiskLow
	}

	return models.RiskResult{
		RawScore:        score,
		Sensitivity:     1.0,
		AdjustedScore:   score,
		FinalExpected:   score,
		FinalWorst:      score,
		RiskLevel:       level,
		TopContributors: []models.Contributor{},
		Explanation: models.Explanation{
			Summary: fmt.Sprintf("Risk Level: %s, Score: %.3f", strings.ToUpper(string(level)), score),
		},
		TotalMatches: len(matches),
	}
}

func formatMatchedSentences(matches []models.ChunkMatch) []MatchedSentence {
	sentences := make([]MatchedSentence, 0, len(matches))
	for _, m := range matches {
		date := "N/A"
		if m.FilingDate != nil {
			date = m.FilingDate.Format("2006-01-02")
		}
		sentences = append(sentences, MatchedSentence{
			Ticker:      m.Ticker,
			SectionType: m.SectionType,
			FilingType:  m.FilingType,
			FilingDate:  date,
			Similarity:  m.Similarity,
			Sentence:    m.Sentence,
		})
	}
	return sentences
}

// computeStatistics aggregates match similarity per section and filing type
func computeStatistics(matches []models.ChunkMatch) MatchStatistics {
	stats := MatchStatistics{
		TotalMatches: len(matches),
		BySection:    make(map[string]GroupStats),
		ByFilingType: make(map[string]GroupStats),
	}

	sums := make(map[string]float64)
	for _, m := range matches {
		section := m.SectionType
		if section == "" {
			section = "unknown"
		}
		g := stats.BySection[section]
		g.Count++
		sums["s:"+section] += m.Similarity
		if m.Similarity > g.MaxSimilarity {
			g.MaxSimilarity = m.Similarity
		}
		stats.BySection[section] = g

		filingType := m.FilingType
		if filingType == "" {
			filingType = "unknown"
		}
		f := stats.ByFilingType[filingType]
		f.Count++
		sums["f:"+filingType] += m.Similarity
		if m.Similarity > f.MaxSimilarity {
			f.MaxSimilarity = m.Similarity
		}
		stats.ByFilingType[filingType] = f
	}

	for section, g := range stats.BySection {
		g.AvgSimilarity = sums["s:"+section] / float64(g.Count)
		stats.BySection[section] = g
	}
	for filingType, f := range stats.ByFilingType {
		f.AvgSimilarity = sums["f:"+filingType] / float64(f.Count)
		stats.ByFilingType[filingType] = f
	}

	return stats
}

// buildExplanationText renders a human-readable assessment of the numeric
// result
func buildExplanationText(ticker string, risk models.RiskResult, stats MatchStatistics, matches []models.ChunkMatch) string {
	var b strings.Builder

	subject := "the company"
	if ticker != "" {
		subject = ticker
	}

	if stats.TotalMatches == 0 {
		fmt.Fprintf(&b, "No filing disclosures from %s matched the legislation above the similarity threshold. ", subject)
		b.WriteString("The assessed regulatory risk is low.")
		return b.String()
	}

	fmt.Fprintf(&b, "Regulatory risk assessment for %s: %s (expected score %.3f, worst case %.3f).\n\n",
		subject, strings.ToUpper(string(risk.RiskLevel)), risk.FinalExpected, risk.FinalWorst)

	fmt.Fprintf(&b, "%d filing disclosures matched the legislation. ", stats.TotalMatches)
	sections := make([]string, 0, len(stats.BySection))
	for section := range stats.BySection {
		sections = append(sections, section)
	}
	sort.Strings(sections)
	for _, section := range sections {
		g := stats.BySection[section]
		fmt.Fprintf(&b, "%s: %d matches (avg %.2f, max %.2f). ", section, g.Count, g.AvgSimilarity, g.MaxSimilarity)
	}
	b.WriteString("\n\nStrongest matches:\n")

	sorted := make([]models.ChunkMatch, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Similarity > sorted[j].Similarity
	})
	for i, m := range sorted {
		if i >= 5 {
			break
		}
		sentence := m.Sentence
		if len(sentence) > 200 {
			sentence = sentence[:200] + "..."
		}
		fmt.Fprintf(&b, "%d. [%s, similarity %.2f] %s\n", i+1, m.SectionType, m.Similarity, sentence)
	}

	b.WriteString("\n")
	switch risk.RiskLevel {
	case models.RiskCritical:
		b.WriteString("The legislation overlaps directly with disclosed risk factors; immediate review is warranted.")
	case models.RiskHigh:
		b.WriteString("The legislation substantially overlaps with disclosed risk factors and events.")
	case models.RiskMedium:
		b.WriteString("The legislation partially overlaps with disclosed business activities; monitor for status changes.")
	default:
		b.WriteString("Overlap with disclosed activities is limited; no immediate action indicated.")
	}

	return b.String()
}
