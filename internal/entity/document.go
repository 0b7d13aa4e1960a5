package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/bookkeeper-io/bookkeeper/constants"
)

// CompanyInfo is the structured party block on an extracted document.
// Name is the only field required for completeness when the block is present.
type CompanyInfo struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	TaxID   string `json:"tax_id,omitempty"`
}

// LineItem is one billed line on an invoice or receipt.
// Monetary fields are minor currency units (cents); nil means absent.
type LineItem struct {
	Description string `json:"description"`
	Quantity    *int64 `json:"quantity,omitempty"`
	UnitPrice   *int64 `json:"unit_price,omitempty"`
	TotalPrice  *int64 `json:"total_price,omitempty"`
}

// ExtractedData is the transient result of one extraction pass.
// All monetary amounts are minor currency units; a nil pointer means the
// analyzer did not produce a usable value, never zero.
type ExtractedData struct {
	DocumentType   constants.DocumentType `json:"document_type"`
	DocumentNumber string                 `json:"document_number,omitempty"`
	Date           *time.Time             `json:"date,omitempty"`
	DueDate        *time.Time             `json:"due_date,omitempty"`
	FromCompany    *CompanyInfo           `json:"from_company,omitempty"`
	ToCompany      *CompanyInfo           `json:"to_company,omitempty"`
	LineItems      []LineItem             `json:"line_items,omitempty"`
	Subtotal       *int64                 `json:"subtotal,omitempty"`
	TaxAmount      *int64                 `json:"tax_amount,omitempty"`
	TotalAmount    *int64                 `json:"total_amount,omitempty"`
	PaymentMethod  string                 `json:"payment_method,omitempty"`
	Currency       string                 `json:"currency,omitempty"`
	RawText        string                 `json:"raw_text"`
}

// Document is the persisted typed record (invoice or receipt) derived from an
// intake record plus its extracted data. Exactly one document exists per
// intake id; IntakeID is a reference, not ownership.
type Document struct {
	ID             uuid.UUID                `json:"id"`
	IntakeID       string                   `json:"intake_id"`
	DocumentType   constants.DocumentType   `json:"document_type"`
	DocumentNumber string                   `json:"document_number,omitempty"`
	Date           *time.Time               `json:"date,omitempty"`
	DueDate        *time.Time               `json:"due_date,omitempty"`
	FromCompany    *CompanyInfo             `json:"from_company,omitempty"`
	ToCompany      *CompanyInfo             `json:"to_company,omitempty"`
	LineItems      []LineItem               `json:"line_items,omitempty"`
	Subtotal       *int64                   `json:"subtotal,omitempty"`
	TaxAmount      *int64                   `json:"tax_amount,omitempty"`
	TotalAmount    *int64                   `json:"total_amount,omitempty"`
	PaymentMethod  string                   `json:"payment_method,omitempty"`
	Currency       string                   `json:"currency,omitempty"`
	Status         constants.DocumentStatus `json:"status"`
	MissingFields  []string                 `json:"missing_fields,omitempty"`
	RawText        string                   `json:"raw_text,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
}
