package models

import (
	"time"

	"github.com/google/uuid"
)

// FilingDocument represents an archived raw filing document
type FilingDocument struct {
	ID          uuid.UUID  `json:"id"`
	Ticker      string     `json:"ticker"`
	FilingType  string     `json:"filing_type"`
	FilingDate  *time.Time `json:"filing_date,omitempty"`
	Filename    string     `json:"filename"`
	MimeType    string     `json:"mime_type"`
	Size        int64      `json:"size"`
	StoragePath string     `json:"storage_path"`
	CreatedAt   time.Time  `json:"created_at"`
}
