package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bookkeeper-io/bookkeeper/constants"
	"github.com/bookkeeper-io/bookkeeper/internal/entity"
)

// CoerceExtractedData turns the provider's JSON payload into typed extracted
// data. The coercion is deliberately forgiving: any individual field that
// cannot be interpreted becomes absent (nil) rather than failing the whole
// document. Monetary values arrive in major units (12.34) and are stored in
// minor units (1234); absent is always nil, never zero.
func CoerceExtractedData(raw []byte, docType constants.DocumentType, rawText string) (*entity.ExtractedData, error) {
	var m map[string]any
	if err := json.Unmarshal(StripJSONFences(raw), &m); err != nil {
		return nil, fmt.Errorf("decode extracted fields: %w", err)
	}

	out := &entity.ExtractedData{
		DocumentType: docType,
		RawText:      rawText,
	}

	out.DocumentNumber = coerceString(m["document_number"])
	out.PaymentMethod = coerceString(m["payment_method"])
	if c := coerceString(m["currency"]); c != "" {
		out.Currency = strings.ToUpper(c)
	}

	out.Date = coerceDate(m["date"])
	if docType != constants.Receipt {
		out.DueDate = coerceDate(m["due_date"])
	}

	out.FromCompany = coerceCompany(m["from_company"])
	out.ToCompany = coerceCompany(m["to_company"])

	out.Subtotal = coerceMoney(m["subtotal"])
	out.TaxAmount = coerceMoney(m["tax_amount"])
	out.TotalAmount = coerceMoney(m["total_amount"])

	if items, ok := m["line_items"].([]any); ok {
		for _, it := range items {
			im, ok := it.(map[string]any)
			if !ok {
				continue
			}
			li := entity.LineItem{
				Description: coerceString(im["description"]),
				Quantity:    coerceInt(im["quantity"]),
				UnitPrice:   coerceMoney(im["unit_price"]),
				TotalPrice:  coerceMoney(im["total_price"]),
			}
			if li.Description == "" && li.TotalPrice == nil && li.UnitPrice == nil {
				continue
			}
			out.LineItems = append(out.LineItems, li)
		}
	}

	return out, nil
}

// FallbackExtractedData is what the pipeline stores when field extraction
// failed entirely. The document still completes, flagged for review by the
// completeness rules.
func FallbackExtractedData(docType constants.DocumentType, rawText string) *entity.ExtractedData {
	return &entity.ExtractedData{
		DocumentType: docType,
		RawText:      rawText,
	}
}

func coerceString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// coerceMoney accepts a major-unit number (or numeric string) and returns
// the minor-unit value. Anything else is absent.
func coerceMoney(v any) *int64 {
	switch t := v.(type) {
	case float64:
		n := int64(math.Round(t * 100))
		return &n
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
		s = strings.TrimPrefix(s, "$")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		n := int64(math.Round(f * 100))
		return &n
	default:
		return nil
	}
}

func coerceInt(v any) *int64 {
	switch t := v.(type) {
	case float64:
		n := int64(math.Round(t))
		return &n
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return nil
		}
		return &n
	default:
		return nil
	}
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

func coerceDate(v any) *time.Time {
	s := coerceString(v)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func coerceCompany(v any) *entity.CompanyInfo {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	c := &entity.CompanyInfo{
		Name:    coerceString(m["name"]),
		Address: coerceString(m["address"]),
		Phone:   coerceString(m["phone"]),
		Email:   coerceString(m["email"]),
		TaxID:   coerceString(m["tax_id"]),
	}
	if c.Name == "" && c.Address == "" && c.Phone == "" && c.Email == "" && c.TaxID == "" {
		return nil
	}
	return c
}
