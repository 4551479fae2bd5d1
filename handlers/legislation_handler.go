package handlers

import (
	"context"
	"log"
	"net/http"

	"regrisk-backend/models"
	"regrisk-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LegislationHandler handles HTTP requests for legislation and batch analysis
type LegislationHandler struct {
	legislationService *service.LegislationService
	analyzer           *service.ImpactAnalyzer
}

// NewLegislationHandler creates a new legislation handler
func NewLegislationHandler(legislationService *service.LegislationService, analyzer *service.ImpactAnalyzer) *LegislationHandler {
	return &LegislationHandler{
		legislationService: legislationService,
		analyzer:           analyzer,
	}
}

// CreateLegislationRequest represents the request body for tracking legislation
type CreateLegislationRequest struct {
	LegislationID  string  `json:"legislation_id"`
	Title          string  `json:"title" binding:"required"`
	Status         string  `json:"status"`
	Text           string  `json:"text" binding:"required"`
	PolymarketSlug *string `json:"polymarket_slug"`
}

// CreateLegislation handles POST /api/legislation
func (h *LegislationHandler) CreateLegislation(c *gin.Context) {
	var req CreateLegislationRequest
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

	result, err := h.legislationService.CreateLegislation(c.Request.Context(), service.CreateLegislationRequest{
		LegislationID:  req.LegislationID,
		Title:          req.Title,
		Status:         models.LegislationStatus(req.Status),
		Text:           req.Text,
		PolymarketSlug: req.PolymarketSlug,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CREATE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    result.Legislation,
	})
}

// GetLegislation handles GET /api/legislation/:id
func (h *LegislationHandler) GetLegislation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid legislation ID format",
			},
		})
		return
	}

	legislation, err := h.legislationService.GetLegislation(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Legislation not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    legislation,
	})
}

// ListLegislation handles GET /api/legislation
func (h *LegislationHandler) ListLegislation(c *gin.Context) {
	var status *models.LegislationStatus
	if statusStr := c.Query("status"); statusStr != "" {
		s := models.LegislationStatus(statusStr)
		status = &s
	}

	records, err := h.legislationService.ListLegislation(c.Request.Context(), service.ListLegislationRequest{
		Status: status,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LIST_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    records,
	})
}

// UpdateLegislationRequest represents the request body for updating legislation
type UpdateLegislationRequest struct {
	LegislationID  string  `json:"legislation_id"`
	Title          string  `json:"title"`
	Status         string  `json:"status"`
	Text           string  `json:"text"`
	PolymarketSlug *string `json:"polymarket_slug"`
}

// UpdateLegislation handles PUT /api/legislation/:id
func (h *LegislationHandler) UpdateLegislation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid legislation ID format",
			},
		})
		return
	}

	legislation, err := h.legislationService.GetLegislation(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Legislation not found",
			},
		})
		return
	}

	var req UpdateLegislationRequest
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

	textChanged := false
	if req.LegislationID != "" {
		legislation.LegislationID = req.LegislationID
	}
	if req.Title != "" {
		legislation.Title = req.Title
	}
	if req.Status != "" {
		legislation.Status = models.LegislationStatus(req.Status)
	}
	if req.Text != "" && req.Text != legislation.Text {
		legislation.Text = req.Text
		textChanged = true
	}
	if req.PolymarketSlug != nil {
		legislation.PolymarketSlug = req.PolymarketSlug
	}

	updated, err := h.legislationService.UpdateLegislation(c.Request.Context(), service.UpdateLegislationRequest{
		Legislation: legislation,
		TextChanged: textChanged,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPDATE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    updated,
	})
}

// DeleteLegislation handles DELETE /api/legislation/:id
func (h *LegislationHandler) DeleteLegislation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid legislation ID format",
			},
		})
		return
	}

	if err := h.legislationService.DeleteLegislation(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DELETE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}

// StartAnalysisRequest represents the request body for a batch analysis
type StartAnalysisRequest struct {
	Tickers []string `json:"tickers"`
}

// StartAnalysis handles POST /api/legislation/:id/analyze
func (h *LegislationHandler) StartAnalysis(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid legislation ID format",
			},
		})
		return
	}

	legislation, err := h.legislationService.GetLegislation(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Legislation not found",
			},
		})
		return
	}

	var req StartAnalysisRequest
	// Body is optional; an empty body analyzes every known ticker.
	_ = c.ShouldBindJSON(&req)

	result, err := h.analyzer.StartBatchAnalysis(c.Request.Context(), service.BatchAnalyzeRequest{
		Legislation: legislation,
		Tickers:     req.Tickers,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "JOB_CREATION_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	// Spawn background goroutine for actual processing
	// Use background context (not request context) to avoid cancellation
	go func() {
		bgCtx := context.Background()
		if err := h.analyzer.ProcessBatch(bgCtx, result.JobID, legislation); err != nil {
			log.Printf("Analysis job %s failed: %v", result.JobID, err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data": gin.H{
			"job_id":  result.JobID,
			"status":  "pending",
			"message": "Analysis job created. Poll /api/jobs/:id for updates.",
		},
	})
}

// GetJobStatus handles GET /api/jobs/:id
func (h *LegislationHandler) GetJobStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid job ID format",
			},
		})
		return
	}

	job, err := h.analyzer.GetJobStatus(c.Request.Context(), id)
	if err != nil {
		if err == service.ErrAnalysisJobNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Analysis job not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    job,
	})
}
