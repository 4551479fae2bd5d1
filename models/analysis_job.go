package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AnalysisJobStatus represents the status of a batch analysis job
type AnalysisJobStatus string

const (
	JobStatusPending    AnalysisJobStatus = "pending"
	JobStatusInProgress AnalysisJobStatus = "in_progress"
	JobStatusCompleted  AnalysisJobStatus = "completed"
	JobStatusFailed     AnalysisJobStatus = "failed"
)

// AnalysisStep tracks one ticker within a batch analysis job
type AnalysisStep struct {
	Ticker    string    `json:"ticker"`
	Status    string    `json:"status"` // "pending", "in_progress", "completed", "failed"
	RiskLevel RiskLevel `json:"risk_level,omitempty"`
	Score     float64   `json:"score,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// AnalysisSteps represents the per-ticker progress of a job
type AnalysisSteps []AnalysisStep

// Value implements driver.Valuer for JSONB
func (a AnalysisSteps) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements sql.Scanner for JSONB
func (a *AnalysisSteps) Scan(value interface{}) error {
	if value == nil {
		*a = make(AnalysisSteps, 0)
		return nil
	}

	// Handle different types that pgx might return for JSONB
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*a = make(AnalysisSteps, 0)
		return nil
	}

	if len(bytes) == 0 {
		*a = make(AnalysisSteps, 0)
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// AnalysisJob represents a background batch impact analysis over many tickers
type AnalysisJob struct {
	ID            uuid.UUID         `json:"id"`
	LegislationID uuid.UUID         `json:"legislation_id"`
	Status        AnalysisJobStatus `json:"status"`
	CurrentTicker *string           `json:"current_ticker,omitempty"`
	Steps         AnalysisSteps     `json:"steps"`
	ErrorMessage  *string           `json:"error_message,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
}
