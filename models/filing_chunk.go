package models

import (
	"time"

	"github.com/google/uuid"
)

// Section types recognized in SEC filings. Anything else is weighted as "other".
const (
	SectionRiskFactors       = "risk_factors"
	SectionBusiness          = "business"
	SectionSignificantEvents = "significant_events"
	SectionOther             = "other"
)

// FilingChunk represents one embedded sentence from a company filing
type FilingChunk struct {
	ID           uuid.UUID  `json:"id"`
	Ticker       string     `json:"ticker"`
	CompanyName  string     `json:"company_name"`
	SectionType  string     `json:"section_type"` // "risk_factors", "business", "significant_events", "other"
	SectionTitle string     `json:"section_title"`
	FilingType   string     `json:"filing_type"` // "10-K", "10-Q", "8-K", ...
	FilingDate   *time.Time `json:"filing_date,omitempty"`
	SentenceIdx  int        `json:"sentence_idx"`
	Sentence     string     `json:"sentence"`
	Embedding    []float64  `json:"embedding,omitempty"`
}

// ChunkMatch is a filing chunk returned by vector similarity search,
// annotated with the cosine similarity computed by the database
type ChunkMatch struct {
	FilingChunk
	Similarity float64 `json:"similarity"`
}

// ParseFilingDate parses filing dates as they appear in parsed filings
// (ISO date or ISO datetime). Returns nil for anything unparsable so
// downstream scoring falls back to its neutral recency weight.
func ParseFilingDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
