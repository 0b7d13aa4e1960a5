package constants

// ProcessingStatus is the canonical lifecycle status for intake records.
type ProcessingStatus string

// Stable values (store these exact strings in DB).
const (
	StatusQueuedForExtraction ProcessingStatus = "queued_for_extraction"
	StatusProcessing          ProcessingStatus = "processing"
	StatusCompleted           ProcessingStatus = "completed"
	StatusFailed              ProcessingStatus = "failed"
	// StatusQuarantined is reserved for external tooling; core code never assigns it.
	StatusQuarantined ProcessingStatus = "quarantined"
)

// ValidationStatus describes whether extracted data passed completeness checks.
type ValidationStatus string

const (
	ValidationComplete       ValidationStatus = "complete"
	ValidationRequiresReview ValidationStatus = "requires_review"
)

// DocumentStatus is the status stored on a typed document record.
type DocumentStatus string

const (
	DocumentComplete DocumentStatus = "complete"
	DocumentReview   DocumentStatus = "review"
)
