package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"regrisk-backend/models"
	"regrisk-backend/repository"
	"regrisk-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FilingHandler handles HTTP requests for the raw filing archive
type FilingHandler struct {
	filingRepo       *repository.FilingRepository
	storage          storage.Storage
	maxFileSize      int64
	allowedMimeTypes map[string]bool
}

// NewFilingHandler creates a new filing handler
func NewFilingHandler(filingRepo *repository.FilingRepository, storage storage.Storage) *FilingHandler {
	return &FilingHandler{
		filingRepo:  filingRepo,
		storage:     storage,
		maxFileSize: 50 * 1024 * 1024, // 50MB, 10-Ks run large
		allowedMimeTypes: map[string]bool{
			"application/pdf":  true,
			"text/plain":       true,
			"text/html":        true,
			"application/json": true,
		},
	}
}

// UploadFiling handles POST /api/filings/upload
func (h *FilingHandler) UploadFiling(c *gin.Context) {
	ticker := c.PostForm("ticker")
	if ticker == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_TICKER",
				"message": "ticker is required",
			},
		})
		return
	}

	filingType := c.PostForm("filing_type")
	filingDate := models.ParseFilingDate(c.PostForm("filing_date"))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "File is required",
			},
		})
		return
	}

	if fileHeader.Size > h.maxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_TOO_LARGE",
				"message": fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxFileSize),
			},
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_OPEN_ERROR",
				"message": err.Error(),
			},
		})
		return
	}
	defer file.Close()

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		filename := strings.ToLower(fileHeader.Filename)
		switch {
		case strings.HasSuffix(filename, ".pdf"):
			mimeType = "application/pdf"
		case strings.HasSuffix(filename, ".txt"):
			mimeType = "text/plain"
		case strings.HasSuffix(filename, ".htm"), strings.HasSuffix(filename, ".html"):
			mimeType = "text/html"
		case strings.HasSuffix(filename, ".json"):
			mimeType = "application/json"
		default:
			mimeType = "application/octet-stream"
		}
	}

	if !h.allowedMimeTypes[mimeType] && !strings.HasPrefix(mimeType, "text/") {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FILE_TYPE",
				"message": "File type not allowed. Allowed types: PDF, TXT, HTML, JSON",
			},
		})
		return
	}

	filingID := uuid.New()

	storagePath, err := h.storage.Upload(c.Request.Context(), filingID, fileHeader.Filename, file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": fmt.Sprintf("Failed to upload filing: %v", err),
			},
		})
		return
	}

	filing := &models.FilingDocument{
		ID:          filingID,
		Ticker:      strings.ToUpper(ticker),
		FilingType:  filingType,
		FilingDate:  filingDate,
		Filename:    fileHeader.Filename,
		MimeType:    mimeType,
		Size:        fileHeader.Size,
		StoragePath: storagePath,
	}

	if err := h.filingRepo.Create(c.Request.Context(), filing); err != nil {
		// Try to clean up uploaded file
		h.storage.Delete(c.Request.Context(), storagePath)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": fmt.Sprintf("Failed to save filing record: %v", err),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"id":          filing.ID,
			"ticker":      filing.Ticker,
			"filing_type": filing.FilingType,
			"filename":    filing.Filename,
			"mime_type":   filing.MimeType,
			"size":        filing.Size,
			"created_at":  filing.CreatedAt,
		},
	})
}

// GetFiling handles GET /api/filings/:id
func (h *FilingHandler) GetFiling(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid filing ID format",
			},
		})
		return
	}

	filing, err := h.filingRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Filing not found",
			},
		})
		return
	}

	reader, err := h.storage.Download(c.Request.Context(), filing.StoragePath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DOWNLOAD_FAILED",
				"message": fmt.Sprintf("Failed to download filing: %v", err),
			},
		})
		return
	}
	defer reader.Close()

	c.Header("Content-Type", filing.MimeType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filing.Filename))
	c.DataFromReader(http.StatusOK, filing.Size, filing.MimeType, reader, nil)
}

// ListFilings handles GET /api/companies/:ticker/filings
func (h *FilingHandler) ListFilings(c *gin.Context) {
	ticker := strings.ToUpper(c.Param("ticker"))

	filings, err := h.filingRepo.ListByTicker(c.Request.Context(), ticker)
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
		"data":    filings,
	})
}
