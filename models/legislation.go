package models

import (
	"time"

	"github.com/google/uuid"
)

// LegislationStatus represents the lifecycle status of a tracked bill
type LegislationStatus string

const (
	LegislationProposed LegislationStatus = "proposed"
	LegislationPending  LegislationStatus = "pending"
	LegislationEnacted  LegislationStatus = "enacted"
	LegislationArchived LegislationStatus = "archived"
)

// Legislation represents a tracked piece of legislation with its embedding
type Legislation struct {
	ID             uuid.UUID         `json:"id"`
	LegislationID  string            `json:"legislation_id"` // external identifier, e.g. "HR-1234"
	Title          string            `json:"title"`
	Status         LegislationStatus `json:"status"`
	Text           string            `json:"text"`
	Summary        *string           `json:"summary,omitempty"`
	PolymarketSlug *string           `json:"polymarket_slug,omitempty"`
	Embedding      []float64         `json:"embedding,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}
