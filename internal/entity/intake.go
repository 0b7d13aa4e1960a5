package entity

import (
	"time"

	"github.com/bookkeeper-io/bookkeeper/constants"
)

// FileInfo is the submission payload provided by file and email handlers.
type FileInfo struct {
	FileLocation string    `json:"file_location"`
	FileID       string    `json:"file_id"`
	Source       string    `json:"source"`
	Date         time.Time `json:"date"`
}

// IntakeRecord tracks one submitted document through its processing lifecycle.
// The natural key for duplicate detection is (FileLocation, FileID, Source, Date).
type IntakeRecord struct {
	ID            string                     `json:"id"`
	FileLocation  string                     `json:"file_location"`
	FileID        string                     `json:"file_id"`
	Source        string                     `json:"source"`
	Date          time.Time                  `json:"date"`
	Status        constants.ProcessingStatus `json:"processing_status"`
	StatusDetails map[string]any             `json:"status_details,omitempty"`
	CreatedAt     time.Time                  `json:"created_at"`
	UpdatedAt     time.Time                  `json:"updated_at"`
}

// QueueItem is the slice of an intake record handed to the extraction worker.
type QueueItem struct {
	ID           string    `json:"id"`
	FileLocation string    `json:"file_location"`
	FileID       string    `json:"file_id"`
	Source       string    `json:"source"`
	Date         time.Time `json:"date"`
	QueuedAt     time.Time `json:"queued_at"`
}
