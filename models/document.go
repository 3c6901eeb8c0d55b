package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Document represents an ingested contract
type Document struct {
	ID                uuid.UUID `json:"id"`
	FileName          string    `json:"file_name"`
	RawText           string    `json:"raw_text"`
	NormalizedText    string    `json:"normalized_text"`
	AnalysisTimestamp time.Time `json:"analysis_timestamp"`
}

// DocumentRef is the reference to a document carried by a report
type DocumentRef struct {
	ID       uuid.UUID `json:"id"`
	FileName string    `json:"file_name"`
}

func normalizeWord(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}
