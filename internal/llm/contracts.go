package llm

import (
	"context"

	"github.com/bookkeeper-io/bookkeeper/constants"
)

// DocumentAnalyzer is the interface the pipeline depends on.
//
// Classify never returns an error to the pipeline's benefit: a provider
// failure or an unrecognized label degrades to Other. ExtractFields
// returns the provider's raw JSON payload so callers can coerce it with
// CoerceExtractedData and keep the raw bytes for diagnostics.
type DocumentAnalyzer interface {
	Classify(ctx context.Context, text string) constants.DocumentType
	ExtractFields(ctx context.Context, text string, docType constants.DocumentType) ([]byte, error)
}
