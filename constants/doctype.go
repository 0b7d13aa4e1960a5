package constants

import "strings"

// DocumentType is the classifier output for a processed document.
type DocumentType string

const (
	Invoice DocumentType = "invoice"
	Receipt DocumentType = "receipt"
	Other   DocumentType = "other"
)

// ParseDocumentType maps a free-form classifier label to a DocumentType.
// Anything unrecognized maps to Other.
func ParseDocumentType(s string) DocumentType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "invoice":
		return Invoice
	case "receipt":
		return Receipt
	default:
		return Other
	}
}
