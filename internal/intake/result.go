package intake

import (
	"github.com/bookkeeper-io/bookkeeper/constants"
	"github.com/bookkeeper-io/bookkeeper/internal/common"
)

// SubmitStatus tags the outcome of a submission. Duplicates and validation
// failures are expected outcomes, not faults, so callers switch on the tag
// instead of unwrapping errors.
type SubmitStatus string

const (
	SubmitSuccess         SubmitStatus = "success"
	SubmitDuplicate       SubmitStatus = "duplicate"
	SubmitValidationError SubmitStatus = "validation_error"
	SubmitDatabaseError   SubmitStatus = "database_error"
)

// SubmitResult is the tagged result of Manager.Submit.
type SubmitResult struct {
	Status SubmitStatus

	// Populated on SubmitSuccess.
	IntakeID         string
	ProcessingStatus constants.ProcessingStatus

	// Populated on SubmitDuplicate.
	ExistingID string

	// Populated on SubmitValidationError; lists every offending field.
	FieldErrors []common.FieldError

	// Human-readable context for duplicate and error outcomes.
	Message string
}

// MissingFields returns the offending field names of a validation outcome.
func (r SubmitResult) MissingFields() []string {
	fields := make([]string, len(r.FieldErrors))
	for i, fe := range r.FieldErrors {
		fields[i] = fe.Field
	}
	return fields
}
