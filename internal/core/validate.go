package core

import (
	"github.com/bookkeeper-io/bookkeeper/constants"
	"github.com/bookkeeper-io/bookkeeper/internal/entity"
)

// Field names reported by completeness validation. These are the names an
// operator sees in missing_fields, so they stay stable.
const (
	FieldTotalAmount      = "total_amount"
	FieldDate             = "date"
	FieldFromCompanyName  = "from_company_name"
	FieldInvoiceNumber    = "invoice_number"
	FieldToCompanyName    = "to_company_name"
	FieldReceiptNumber    = "receipt_number"
	FieldLineItemsOrTotal = "line_items_or_total"
)

// ValidateCompleteness checks whether extracted data carries everything a
// bookkeeping entry needs. It accumulates every violation instead of stopping
// at the first, so a review queue shows the full gap at once. Incompleteness
// is not an error: the document is still saved, flagged requires_review.
func ValidateCompleteness(data *entity.ExtractedData) (isComplete bool, missing []string) {
	if data == nil {
		return false, []string{FieldTotalAmount, FieldDate, FieldFromCompanyName}
	}

	hasTotal := data.TotalAmount != nil && *data.TotalAmount > 0
	if !hasTotal {
		missing = append(missing, FieldTotalAmount)
	}
	if data.Date == nil {
		missing = append(missing, FieldDate)
	}
	if data.FromCompany == nil || data.FromCompany.Name == "" {
		missing = append(missing, FieldFromCompanyName)
	}

	switch data.DocumentType {
	case constants.Invoice:
		if data.DocumentNumber == "" {
			missing = append(missing, FieldInvoiceNumber)
		}
		if data.ToCompany == nil || data.ToCompany.Name == "" {
			missing = append(missing, FieldToCompanyName)
		}
	case constants.Receipt:
		if data.DocumentNumber == "" {
			missing = append(missing, FieldReceiptNumber)
		}
		if len(data.LineItems) == 0 && !hasTotal {
			missing = append(missing, FieldLineItemsOrTotal)
		}
	}

	return len(missing) == 0, missing
}
