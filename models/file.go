package models

import (
	"time"

	"github.com/google/uuid"
)

// ContractFile represents an archived contract upload.
// It records where the original bytes live; analysis results are never stored.
type ContractFile struct {
	ID          uuid.UUID `json:"id"`
	Filename    string    `json:"filename"`
	MimeType    string    `json:"mime_type"`
	Size        int64     `json:"size"`
	StoragePath string    `json:"storage_path"`
	CreatedAt   time.Time `json:"created_at"`
}
