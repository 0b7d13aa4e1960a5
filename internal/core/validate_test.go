package core

import (
	"testing"
	"time"

	"github.com/bookkeeper-io/bookkeeper/constants"
	"github.com/bookkeeper-io/bookkeeper/internal/entity"
)

func completeInvoice() *entity.ExtractedData {
	total := int64(50000)
	date := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	return &entity.ExtractedData{
		DocumentType:   constants.Invoice,
		DocumentNumber: "INV-100",
		Date:           &date,
		FromCompany:    &entity.CompanyInfo{Name: "Acme Corp"},
		ToCompany:      &entity.CompanyInfo{Name: "Widget LLC"},
		TotalAmount:    &total,
	}
}

func completeReceipt() *entity.ExtractedData {
	total := int64(1299)
	date := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	return &entity.ExtractedData{
		DocumentType:   constants.Receipt,
		DocumentNumber: "R-77",
		Date:           &date,
		FromCompany:    &entity.CompanyInfo{Name: "Corner Store"},
		TotalAmount:    &total,
	}
}

func assertMissing(t *testing.T, missing []string, want ...string) {
	t.Helper()
	got := map[string]bool{}
	for _, f := range missing {
		got[f] = true
	}
	for _, w := range want {
		if !got[w] {
			t.Errorf("expected %q in missing fields, got %v", w, missing)
		}
	}
	if len(missing) != len(want) {
		t.Errorf("expected %d missing fields, got %v", len(want), missing)
	}
}

func TestValidateCompleteInvoice(t *testing.T) {
	ok, missing := ValidateCompleteness(completeInvoice())
	if !ok {
		t.Errorf("expected complete, missing: %v", missing)
	}
}

func TestValidateCompleteReceipt(t *testing.T) {
	ok, missing := ValidateCompleteness(completeReceipt())
	if !ok {
		t.Errorf("expected complete, missing: %v", missing)
	}
}

func TestValidateInvoiceMissingSpecificFields(t *testing.T) {
	data := completeInvoice()
	data.DocumentNumber = ""
	data.ToCompany = nil

	ok, missing := ValidateCompleteness(data)
	if ok {
		t.Fatal("expected incomplete")
	}
	assertMissing(t, missing, FieldInvoiceNumber, FieldToCompanyName)
}

func TestValidateZeroTotalIsMissing(t *testing.T) {
	data := completeInvoice()
	zero := int64(0)
	data.TotalAmount = &zero

	ok, missing := ValidateCompleteness(data)
	if ok {
		t.Fatal("expected incomplete for zero total")
	}
	assertMissing(t, missing, FieldTotalAmount)
}

func TestValidateReceiptZeroTotalNoItems(t *testing.T) {
	data := completeReceipt()
	zero := int64(0)
	data.TotalAmount = &zero

	ok, missing := ValidateCompleteness(data)
	if ok {
		t.Fatal("expected incomplete")
	}
	// A worthless total also fails the line-items-or-total requirement.
	assertMissing(t, missing, FieldTotalAmount, FieldLineItemsOrTotal)
}

func TestValidateReceiptLineItemsWithoutTotal(t *testing.T) {
	data := completeReceipt()
	data.TotalAmount = nil
	price := int64(500)
	data.LineItems = []entity.LineItem{{Description: "coffee", TotalPrice: &price}}

	ok, missing := ValidateCompleteness(data)
	if ok {
		t.Fatal("total is required for all documents")
	}
	// Line items satisfy line_items_or_total, but not total_amount itself.
	assertMissing(t, missing, FieldTotalAmount)
}

func TestValidateAccumulatesEverything(t *testing.T) {
	ok, missing := ValidateCompleteness(&entity.ExtractedData{DocumentType: constants.Invoice})
	if ok {
		t.Fatal("expected incomplete")
	}
	assertMissing(t, missing,
		FieldTotalAmount, FieldDate, FieldFromCompanyName, FieldInvoiceNumber, FieldToCompanyName)
}

func TestValidateEmptyCompanyNameCounts(t *testing.T) {
	data := completeReceipt()
	data.FromCompany = &entity.CompanyInfo{Address: "1 Main St"}

	ok, missing := ValidateCompleteness(data)
	if ok {
		t.Fatal("expected incomplete")
	}
	assertMissing(t, missing, FieldFromCompanyName)
}

func TestValidateNilData(t *testing.T) {
	ok, missing := ValidateCompleteness(nil)
	if ok {
		t.Fatal("nil data can never be complete")
	}
	if len(missing) == 0 {
		t.Error("expected missing fields for nil data")
	}
}
