package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"regrisk-backend/models"
)

const (
	generationModel      = "models/gemini-3-pro-preview"
	maxSummarizeInput    = 8000
	summaryFallbackChars = 500
	maxAnalysisMatches   = 5
)

var ErrGenerationFailed = errors.New("failed to generate content")

// LLMAnalyzer produces qualitative legislation summaries and impact
// assessments via the Gemini generation API. All of its output is advisory:
// numeric risk scores never depend on it, and every method degrades to a
// deterministic fallback when the API is unavailable.
type LLMAnalyzer struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// LLMAnalyzerOption is a functional option for LLMAnalyzer
type LLMAnalyzerOption func(*LLMAnalyzer)

// LLMWithAPIKey sets the API key
func LLMWithAPIKey(key string) LLMAnalyzerOption {
	return func(a *LLMAnalyzer) {
		a.apiKey = key
	}
}

// LLMWithBaseURL overrides the API base URL
func LLMWithBaseURL(url string) LLMAnalyzerOption {
	return func(a *LLMAnalyzer) {
		a.baseURL = url
	}
}

// LLMWithHTTPClient overrides the HTTP client
func LLMWithHTTPClient(client *http.Client) LLMAnalyzerOption {
	return func(a *LLMAnalyzer) {
		a.httpClient = client
	}
}

// NewLLMAnalyzer creates an LLM analyzer. The API key defaults to
// GEMINI_API_KEY.
func NewLLMAnalyzer(opts ...LLMAnalyzerOption) *LLMAnalyzer {
	a := &LLMAnalyzer{
		apiKey:     os.Getenv("GEMINI_API_KEY"),
		baseURL:    geminiBaseURL,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SummarizeLegislation produces a 2-3 sentence plain-language summary of a
// bill. On any API failure it falls back to truncated source text so callers
// always get a usable summary.
func (a *LLMAnalyzer) SummarizeLegislation(ctx context.Context, text string) string {
	input := text
	if len(input) > maxSummarizeInput {
		input = input[:maxSummarizeInput]
	}

	prompt := fmt.Sprintf(`Summarize the following legislation in 2-3 sentences. Focus on what the legislation regulates, which industries it affects, and what compliance obligations it creates. Plain language, no preamble.

LEGISLATION TEXT:
%s`, input)

	summary, err := a.generateWithRetry(ctx, prompt, 0.2)
	if err != nil {
		log.Printf("Warning: Failed to summarize legislation: %v. Using truncated text.", err)
		return fallbackSummary(text)
	}
	return strings.TrimSpace(summary)
}

// fallbackSummary truncates the source text when summarization fails
func fallbackSummary(text string) string {
	if len(text) <= summaryFallbackChars {
		return text
	}
	return text[:summaryFallbackChars] + "..."
}

// AnalyzeImpact produces a structured qualitative assessment of how the
// legislation affects one company. Always returns a usable analysis: if the
// API call or JSON parsing fails, a deterministic default derived from the
// risk level is returned alongside the error.
func (a *LLMAnalyzer) AnalyzeImpact(
	ctx context.Context,
	legislationText string,
	companyName string,
	matches []models.ChunkMatch,
	riskLevel models.RiskLevel,
	score float64,
) (*models.LLMAnalysis, error) {
	prompt := a.buildImpactPrompt(legislationText, companyName, matches, riskLevel, score)

	raw, err := a.generateWithRetry(ctx, prompt, 0.3)
	if err != nil {
		return defaultAnalysis(riskLevel, score), fmt.Errorf("impact analysis generation failed: %w", err)
	}

	analysis := &models.LLMAnalysis{}
	if err := json.Unmarshal([]byte(extractJSON(raw)), analysis); err != nil {
		return defaultAnalysis(riskLevel, score), fmt.Errorf("failed to parse impact analysis: %w", err)
	}

	analysis.Recommendation = normalizeRecommendation(analysis.Recommendation)
	if analysis.Confidence < 0 {
		analysis.Confidence = 0
	}
	if analysis.Confidence > 100 {
		analysis.Confidence = 100
	}

	return analysis, nil
}

func (a *LLMAnalyzer) buildImpactPrompt(
	legislationText string,
	companyName string,
	matches []models.ChunkMatch,
	riskLevel models.RiskLevel,
	score float64,
) string {
	legislation := legislationText
	if len(legislation) > maxSummarizeInput {
		legislation = legislation[:maxSummarizeInput]
	}

	var evidence strings.Builder
	for i, m := range matches {
		if i >= maxAnalysisMatches {
			break
		}
		evidence.WriteString(fmt.Sprintf("- [%s, similarity %.2f] %s\n", m.SectionType, m.Similarity, m.Sentence))
	}
	if evidence.Len() == 0 {
		evidence.WriteString("- No matching filing disclosures found.\n")
	}

	return fmt.Sprintf(`You are a regulatory risk analyst. Assess how the legislation below affects %s.

LEGISLATION:
%s

MATCHED FILING DISCLOSURES:
%s
QUANTITATIVE ASSESSMENT:
Risk level %s, score %.3f (weighted similarity between the company's SEC filing disclosures and the legislation).

TASK:
Respond with ONLY a JSON object, no markdown fences, with exactly these fields:
{
  "impact_summary": "2-3 sentence summary of the expected impact",
  "affected_risk_types": ["list of affected risk categories"],
  "business_impact": "1-2 sentences on operational and financial impact",
  "recommendation": "one of: buy, sell, trim, rotate, neutral",
  "recommendation_reasoning": "1-2 sentences justifying the recommendation",
  "rotation_target": "sector or ticker to rotate into, empty string if not applicable",
  "confidence": 0-100,
  "mitigation_strategies": ["list of 2-4 concrete mitigation steps"]
}`,
		companyName, legislation, evidence.String(), strings.ToUpper(string(riskLevel)), score)
}

// extractJSON pulls a JSON object out of model output that may be wrapped in
// markdown fences or surrounded by prose
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	if idx := strings.Index(text, "```json"); idx >= 0 {
		text = text[idx+len("```json"):]
	} else if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+len("```"):]
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[:idx]
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return strings.TrimSpace(text)
}

// normalizeRecommendation maps model output onto the closed recommendation set
func normalizeRecommendation(rec string) string {
	switch strings.ToLower(strings.TrimSpace(rec)) {
	case "buy":
		return "buy"
	case "sell":
		return "sell"
	case "trim", "reduce":
		return "trim"
	case "rotate":
		return "rotate"
	default:
		return "neutral"
	}
}

// defaultAnalysis is the deterministic fallback when the LLM is unavailable
func defaultAnalysis(riskLevel models.RiskLevel, score float64) *models.LLMAnalysis {
	analysis := &models.LLMAnalysis{
		ImpactSummary:           fmt.Sprintf("Automated assessment: %s regulatory risk (score %.3f) based on filing similarity analysis.", riskLevel, score),
		AffectedRiskTypes:       []string{"regulatory"},
		BusinessImpact:          "Qualitative analysis unavailable; refer to the matched filing disclosures.",
		Recommendation:          "neutral",
		RecommendationReasoning: "Insufficient qualitative signal; defaulting to neutral.",
		Confidence:              25,
		MitigationStrategies:    []string{"Monitor legislation status", "Review matched filing sections"},
	}

	switch riskLevel {
	case models.RiskCritical, models.RiskHigh:
		analysis.Recommendation = "trim"
		analysis.RecommendationReasoning = "Elevated quantitative risk score; trimming exposure pending qualitative review."
	}

	return analysis
}

// generateWithRetry calls the generation API with exponential backoff, the
// same discipline as the embedding client
func (a *LLMAnalyzer) generateWithRetry(ctx context.Context, prompt string, temperature float64) (string, error) {
	var content string
	var err error
	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		content, err = a.callGenerationAPI(ctx, prompt, temperature)
		if err != nil {
			if attempt == maxRetries-1 {
				return "", fmt.Errorf("generation failed after %d attempts: %w", maxRetries, err)
			}
			continue
		}

		if content != "" {
			return content, nil
		}

		if attempt == maxRetries-1 {
			return "", ErrGenerationFailed
		}
	}

	return "", ErrGenerationFailed
}

// callGenerationAPI calls the Gemini generation API directly via HTTP
func (a *LLMAnalyzer) callGenerationAPI(ctx context.Context, prompt string, temperature float64) (string, error) {
	if a.apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY not set")
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature": temperature,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := a.baseURL + "/" + generationModel + ":generateContent"

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		log.Printf("Gemini API error: Status %d, Body: %s", resp.StatusCode, string(bodyBytes))
		return "", fmt.Errorf("API error: %d - %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason,omitempty"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason,omitempty"`
		} `json:"promptFeedback,omitempty"`
		Error struct {
			Code    int    `json:"code,omitempty"`
			Message string `json:"message,omitempty"`
		} `json:"error,omitempty"`
	}

	bodyBytes, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		log.Printf("Failed to decode response. Body: %s", string(bodyBytes))
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if apiResp.Error.Message != "" {
		return "", fmt.Errorf("API error: %s (code: %d)", apiResp.Error.Message, apiResp.Error.Code)
	}

	if apiResp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("API blocked prompt: %s", apiResp.PromptFeedback.BlockReason)
	}

	if len(apiResp.Candidates) == 0 {
		return "", fmt.Errorf("API returned no candidates")
	}

	var responseText strings.Builder
	for i, candidate := range apiResp.Candidates {
		if candidate.FinishReason != "" && candidate.FinishReason != "STOP" {
			log.Printf("Warning: Candidate %d finished with reason: %s", i, candidate.FinishReason)
		}

		for _, part := range candidate.Content.Parts {
			responseText.WriteString(part.Text)
		}
	}

	result := responseText.String()
	if result == "" {
		return "", fmt.Errorf("API returned empty content")
	}

	return result, nil
}
