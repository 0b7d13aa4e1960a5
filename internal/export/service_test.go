package export

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/bookkeeper-io/bookkeeper/constants"
	"github.com/bookkeeper-io/bookkeeper/internal/entity"
	"github.com/bookkeeper-io/bookkeeper/internal/repository"
)

func newTestService(t *testing.T) (*Service, repository.DocumentRepository) {
	t.Helper()
	db, err := repository.Open(context.Background(), repository.Config{
		Path: filepath.Join(t.TempDir(), "test.db"),
	}, nil)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close(nil) })
	docs := repository.NewDocumentRepository(db, nil)
	return NewService(docs, nil), docs
}

func TestWriteXLSX(t *testing.T) {
	svc, docs := newTestService(t)
	ctx := context.Background()

	total := int64(135000)
	date := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	invoice := &entity.ExtractedData{
		DocumentType:   constants.Invoice,
		DocumentNumber: "INV-1",
		Date:           &date,
		FromCompany:    &entity.CompanyInfo{Name: "Acme Corp"},
		ToCompany:      &entity.CompanyInfo{Name: "Widget LLC"},
		TotalAmount:    &total,
		Currency:       "USD",
	}
	if _, err := docs.Save(ctx, constants.Invoice, invoice, "intake-1", true, nil); err != nil {
		t.Fatalf("save invoice: %v", err)
	}

	rTotal := int64(1299)
	receipt := &entity.ExtractedData{
		DocumentType: constants.Receipt,
		FromCompany:  &entity.CompanyInfo{Name: "Corner Store"},
		TotalAmount:  &rTotal,
	}
	if _, err := docs.Save(ctx, constants.Receipt, receipt, "intake-2", false, []string{"date", "receipt_number"}); err != nil {
		t.Fatalf("save receipt: %v", err)
	}

	out := filepath.Join(t.TempDir(), "out.xlsx")
	n, err := svc.WriteXLSX(ctx, out, nil, nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 documents exported, got %d", n)
	}

	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	for _, sheet := range []string{"Invoices", "Receipts"} {
		if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
			t.Errorf("missing sheet %s", sheet)
		}
	}

	rows, err := f.GetRows("Invoices")
	if err != nil {
		t.Fatalf("read invoices sheet: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 invoice, got %d rows", len(rows))
	}
	row := rows[1]
	if row[2] != "INV-1" {
		t.Errorf("invoice number column: %q", row[2])
	}
	if row[5] != "Acme Corp" {
		t.Errorf("from column: %q", row[5])
	}
	if row[9] != "1350" {
		t.Errorf("total column (major units): %q", row[9])
	}

	rRows, err := f.GetRows("Receipts")
	if err != nil {
		t.Fatalf("read receipts sheet: %v", err)
	}
	if len(rRows) != 2 {
		t.Fatalf("expected header + 1 receipt, got %d rows", len(rRows))
	}
	if rRows[1][12] != "review" {
		t.Errorf("status column: %q", rRows[1][12])
	}
	if rRows[1][13] != "date, receipt_number" {
		t.Errorf("missing fields column: %q", rRows[1][13])
	}
}

func TestWriteXLSXEmptyStore(t *testing.T) {
	svc, _ := newTestService(t)

	out := filepath.Join(t.TempDir(), "empty.xlsx")
	n, err := svc.WriteXLSX(context.Background(), out, nil, nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 documents, got %d", n)
	}
	if _, err := excelize.OpenFile(out); err != nil {
		t.Errorf("workbook should still be written: %v", err)
	}
}
