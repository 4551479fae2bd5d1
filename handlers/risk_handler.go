package handlers

import (
	"net/http"
	"strconv"

	"regrisk-backend/models"
	"regrisk-backend/service"

	"github.com/gin-gonic/gin"
)

// RiskHandler handles HTTP requests for risk analysis
type RiskHandler struct {
	analyzer *service.ImpactAnalyzer
}

// NewRiskHandler creates a new risk handler
func NewRiskHandler(analyzer *service.ImpactAnalyzer) *RiskHandler {
	return &RiskHandler{analyzer: analyzer}
}

// AnalyzeRiskRequest represents the request body for a risk analysis
type AnalyzeRiskRequest struct {
	LegislationText       string                  `json:"legislation_text" binding:"required"`
	Ticker                string                  `json:"ticker"`
	CompanyName           string                  `json:"company_name"`
	TopK                  int                     `json:"top_k"`
	CompanyMetadata       *models.CompanyMetadata `json:"company_metadata"`
	PolymarketSlug        string                  `json:"polymarket_slug"`
	PolymarketProbability *float64                `json:"polymarket_probability"`
	IncludeLLMAnalysis    bool                    `json:"include_llm_analysis"`
}

// AnalyzeRisk handles POST /api/risk/analyze
func (h *RiskHandler) AnalyzeRisk(c *gin.Context) {
	var req AnalyzeRiskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	result, err := h.analyzer.AnalyzeImpact(c.Request.Context(), service.AnalyzeRequest{
		LegislationText:       req.LegislationText,
		Ticker:                req.Ticker,
		CompanyName:           req.CompanyName,
		TopK:                  req.TopK,
		Metadata:              req.CompanyMetadata,
		PolymarketSlug:        req.PolymarketSlug,
		PolymarketProbability: req.PolymarketProbability,
		IncludeLLMAnalysis:    req.IncludeLLMAnalysis,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ANALYSIS_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// GetCompanyRisk handles GET /api/companies/:ticker/risk
func (h *RiskHandler) GetCompanyRisk(c *gin.Context) {
	ticker := c.Param("ticker")
	legislationText := c.Query("legislation_text")
	if legislationText == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_LEGISLATION_TEXT",
				"message": "legislation_text query parameter is required",
			},
		})
		return
	}

	topK := 0
	if topKStr := c.Query("top_k"); topKStr != "" {
		if v, err := strconv.Atoi(topKStr); err == nil {
			topK = v
		}
	}

	result, err := h.analyzer.AnalyzeImpact(c.Request.Context(), service.AnalyzeRequest{
		LegislationText: legislationText,
		Ticker:          ticker,
		TopK:            topK,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ANALYSIS_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// GetRecommendations handles GET /api/recommendations/:ticker
func (h *RiskHandler) GetRecommendations(c *gin.Context) {
	ticker := c.Param("ticker")
	legislationText := c.Query("legislation_text")
	if legislationText == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_LEGISLATION_TEXT",
				"message": "legislation_text query parameter is required",
			},
		})
		return
	}

	result, err := h.analyzer.AnalyzeImpact(c.Request.Context(), service.AnalyzeRequest{
		LegislationText:    legislationText,
		Ticker:             ticker,
		IncludeLLMAnalysis: true,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ANALYSIS_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"ticker":         ticker,
			"risk_level":     result.Risk.RiskLevel,
			"expected_score": result.Risk.FinalExpected,
			"recommendation": result.Recommendation,
			"llm_analysis":   result.LLMAnalysis,
		},
	})
}
