package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"regrisk-backend/models"

	"github.com/google/uuid"
)

// BatchAnalyzeRequest describes a batch analysis of one legislation record
// across many tickers
type BatchAnalyzeRequest struct {
	Legislation *models.Legislation
	Tickers     []string // empty analyzes every ticker in the chunk store
}

// BatchAnalyzeResult is the immediate response to starting a batch job
type BatchAnalyzeResult struct {
	JobID uuid.UUID
}

// StartBatchAnalysis creates an analysis job and returns immediately; the
// actual work runs in ProcessBatch on a background goroutine.
func (a *ImpactAnalyzer) StartBatchAnalysis(ctx context.Context, req BatchAnalyzeRequest) (*BatchAnalyzeResult, error) {
	if a.jobRepo == nil {
		return nil, errors.New("analysis job repository not set")
	}
	if req.Legislation == nil {
		return nil, ErrLegislationTextRequired
	}

	tickers := req.Tickers
	if len(tickers) == 0 {
		if a.searcher == nil {
			return nil, errors.New("chunk searcher not set")
		}
		var err error
		tickers, err = a.searcher.ListTickers(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list tickers: %w", err)
		}
	}
	if len(tickers) == 0 {
		return nil, errors.New("no tickers to analyze")
	}

	steps := make(models.AnalysisSteps, 0, len(tickers))
	for _, ticker := range tickers {
		steps = append(steps, models.AnalysisStep{
			Ticker: ticker,
			Status: "pending",
		})
	}

	job := &models.AnalysisJob{
		LegislationID: req.Legislation.ID,
		Status:        models.JobStatusPending,
		Steps:         steps,
	}

	if err := a.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create analysis job: %w", err)
	}

	return &BatchAnalyzeResult{JobID: job.ID}, nil
}

// ProcessBatch performs the batch analysis work in the background. Per-ticker
// failures are recorded on the step and the batch continues; only job-level
// failures abort.
func (a *ImpactAnalyzer) ProcessBatch(ctx context.Context, jobID uuid.UUID, legislation *models.Legislation) error {
	if a.jobRepo == nil {
		return errors.New("analysis job repository not set")
	}

	job, err := a.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load analysis job: %w", err)
	}

	if err := a.jobRepo.UpdateStatus(ctx, jobID, models.JobStatusInProgress); err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	var probability *float64
	// Resolve the market probability once for the whole batch.
	if legislation.PolymarketSlug != nil && *legislation.PolymarketSlug != "" && a.probability != nil {
		if p, err := a.probability.GetProbability(ctx, *legislation.PolymarketSlug); err == nil {
			probability = &p
		}
	}

	steps := job.Steps
	for i := range steps {
		ticker := steps[i].Ticker

		steps[i].Status = "in_progress"
		if err := a.jobRepo.UpdateProgress(ctx, jobID, ticker, steps); err != nil {
			a.markJobFailed(ctx, jobID, "failed to update progress: "+err.Error())
			return err
		}

		result, err := a.AnalyzeImpact(ctx, AnalyzeRequest{
			LegislationText:       legislation.Text,
			Ticker:                ticker,
			PolymarketProbability: probability,
		})
		if err != nil {
			steps[i].Status = "failed"
			steps[i].Error = err.Error()
		} else {
			steps[i].Status = "completed"
			steps[i].RiskLevel = result.Risk.RiskLevel
			steps[i].Score = result.Risk.FinalExpected
		}

		if err := a.jobRepo.UpdateProgress(ctx, jobID, ticker, steps); err != nil {
			a.markJobFailed(ctx, jobID, "failed to update progress: "+err.Error())
			return err
		}
	}

	if err := a.jobRepo.Complete(ctx, jobID); err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	return nil
}

// GetJobStatus retrieves the status of an analysis job
func (a *ImpactAnalyzer) GetJobStatus(ctx context.Context, jobID uuid.UUID) (*models.AnalysisJob, error) {
	if a.jobRepo == nil {
		return nil, errors.New("analysis job repository not set")
	}

	job, err := a.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, ErrAnalysisJobNotFound
	}

	return job, nil
}

// markJobFailed marks a job as failed with an error message
func (a *ImpactAnalyzer) markJobFailed(ctx context.Context, jobID uuid.UUID, errorMessage string) {
	if err := a.jobRepo.Fail(ctx, jobID, errorMessage); err != nil {
		log.Printf("Warning: Failed to mark job %s as failed: %v", jobID, err)
	}
}
