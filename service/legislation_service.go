package service

import (
	"context"
	"errors"
	"fmt"

	"regrisk-backend/models"
	"regrisk-backend/repository"

	"github.com/google/uuid"
)

var ErrLegislationNotFound = errors.New("legislation not found")

// Summarizer produces a plain-language summary of legislation text
type Summarizer interface {
	SummarizeLegislation(ctx context.Context, text string) string
}

// LegislationService handles the legislation lifecycle: records are embedded
// and summarized on creation so analysis and retrieval work immediately.
type LegislationService struct {
	legislationRepo *repository.LegislationRepository
	embedder        Embedder
	summarizer      Summarizer
}

// LegislationServiceOption is a functional option for LegislationService
type LegislationServiceOption func(*LegislationService)

// WithLegislationRepository sets the legislation repository
func WithLegislationRepository(repo *repository.LegislationRepository) LegislationServiceOption {
	return func(s *LegislationService) {
		s.legislationRepo = repo
	}
}

// WithLegislationEmbedder sets the embedder
func WithLegislationEmbedder(embedder Embedder) LegislationServiceOption {
	return func(s *LegislationService) {
		s.embedder = embedder
	}
}

// WithLegislationSummarizer sets the summarizer
func WithLegislationSummarizer(summarizer Summarizer) LegislationServiceOption {
	return func(s *LegislationService) {
		s.summarizer = summarizer
	}
}

// NewLegislationService creates a new legislation service
func NewLegislationService(opts ...LegislationServiceOption) *LegislationService {
	s := &LegislationService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateLegislationRequest represents a request to track new legislation
type CreateLegislationRequest struct {
	LegislationID  string
	Title          string
	Status         models.LegislationStatus
	Text           string
	PolymarketSlug *string
}

// CreateLegislationResult represents the result of creating legislation
type CreateLegislationResult struct {
	Legislation *models.Legislation
}

// CreateLegislation stores a new legislation record with its embedding and a
// generated summary. Summarization is best-effort; embedding is not.
func (s *LegislationService) CreateLegislation(ctx context.Context, req CreateLegislationRequest) (*CreateLegislationResult, error) {
	if s.legislationRepo == nil {
		return nil, errors.New("legislation repository not set")
	}
	if req.Text == "" {
		return nil, ErrLegislationTextRequired
	}

	legislation := &models.Legislation{
		LegislationID:  req.LegislationID,
		Title:          req.Title,
		Status:         req.Status,
		Text:           req.Text,
		PolymarketSlug: req.PolymarketSlug,
	}
	if legislation.Status == "" {
		legislation.Status = models.LegislationProposed
	}

	if s.embedder != nil {
		embedding, err := s.embedder.EmbedQuery(ctx, req.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed legislation: %w", err)
		}
		legislation.Embedding = embedding
	}

	if s.summarizer != nil {
		summary := s.summarizer.SummarizeLegislation(ctx, req.Text)
		legislation.Summary = &summary
	}

	if err := s.legislationRepo.Create(ctx, legislation); err != nil {
		return nil, err
	}

	return &CreateLegislationResult{Legislation: legislation}, nil
}

// GetLegislation retrieves a legislation record by ID
func (s *LegislationService) GetLegislation(ctx context.Context, id uuid.UUID) (*models.Legislation, error) {
	if s.legislationRepo == nil {
		return nil, errors.New("legislation repository not set")
	}

	legislation, err := s.legislationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrLegislationNotFound
	}

	return legislation, nil
}

// UpdateLegislationRequest represents a request to update legislation
type UpdateLegislationRequest struct {
	Legislation *models.Legislation
	TextChanged bool // re-embed and re-summarize when true
}

// UpdateLegislation updates a legislation record, refreshing the embedding
// and summary if the text changed
func (s *LegislationService) UpdateLegislation(ctx context.Context, req UpdateLegislationRequest) (*models.Legislation, error) {
	if s.legislationRepo == nil {
		return nil, errors.New("legislation repository not set")
	}

	if req.TextChanged {
		if s.embedder != nil {
			embedding, err := s.embedder.EmbedQuery(ctx, req.Legislation.Text)
			if err != nil {
				return nil, fmt.Errorf("failed to embed legislation: %w", err)
			}
			req.Legislation.Embedding = embedding
		}
		if s.summarizer != nil {
			summary := s.summarizer.SummarizeLegislation(ctx, req.Legislation.Text)
			req.Legislation.Summary = &summary
		}
	}

	if err := s.legislationRepo.Update(ctx, req.Legislation); err != nil {
		return nil, err
	}

	return req.Legislation, nil
}

// ListLegislationRequest represents a request to list legislation
type ListLegislationRequest struct {
	Status *models.LegislationStatus
	Limit  int
	Offset int
}

// ListLegislation lists legislation records, newest first
func (s *LegislationService) ListLegislation(ctx context.Context, req ListLegislationRequest) ([]*models.Legislation, error) {
	if s.legislationRepo == nil {
		return nil, errors.New("legislation repository not set")
	}

	return s.legislationRepo.List(ctx, req.Status, req.Limit, req.Offset)
}

// DeleteLegislation deletes a legislation record
func (s *LegislationService) DeleteLegislation(ctx context.Context, id uuid.UUID) error {
	if s.legislationRepo == nil {
		return errors.New("legislation repository not set")
	}

	return s.legislationRepo.Delete(ctx, id)
}
