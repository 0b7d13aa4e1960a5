package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/bookkeeper-io/bookkeeper/constants"
	"github.com/bookkeeper-io/bookkeeper/internal/entity"
	"github.com/bookkeeper-io/bookkeeper/internal/repository"
)

// Service writes processed documents to a spreadsheet for bookkeeping
// handoff. One sheet per document type; monetary columns are converted back
// to major units.
type Service struct {
	docs   repository.DocumentRepository
	logger *slog.Logger
}

func NewService(docs repository.DocumentRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, logger: logger}
}

var exportHeader = []string{
	"Document ID", "Intake ID", "Number", "Date", "Due Date",
	"From", "To", "Subtotal", "Tax", "Total", "Currency",
	"Payment Method", "Status", "Missing Fields",
}

// WriteXLSX exports invoices and receipts in [from, to] to path. A nil bound
// leaves that side open.
func (s *Service) WriteXLSX(ctx context.Context, path string, from, to *time.Time) (int, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export file close error", "error", err)
		}
	}()

	total := 0
	for i, docType := range []constants.DocumentType{constants.Invoice, constants.Receipt} {
		docs, err := s.docs.ListByType(ctx, docType, from, to)
		if err != nil {
			return 0, fmt.Errorf("list %ss: %w", docType, err)
		}

		sheet := sheetName(docType)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return 0, err
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return 0, err
			}
		}
		if err := s.writeSheet(f, sheet, docs); err != nil {
			return 0, err
		}
		total += len(docs)
	}

	if err := f.SaveAs(path); err != nil {
		return 0, fmt.Errorf("save workbook: %w", err)
	}
	s.logger.Info("export.xlsx.written", "path", path, "documents", total)
	return total, nil
}

func (s *Service) writeSheet(f *excelize.File, sheet string, docs []*entity.Document) error {
	for col, h := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for row, doc := range docs {
		values := []any{
			doc.ID.String(),
			doc.IntakeID,
			doc.DocumentNumber,
			fmtDate(doc.Date),
			fmtDate(doc.DueDate),
			companyName(doc.FromCompany),
			companyName(doc.ToCompany),
			fmtMoney(doc.Subtotal),
			fmtMoney(doc.TaxAmount),
			fmtMoney(doc.TotalAmount),
			doc.Currency,
			doc.PaymentMethod,
			string(doc.Status),
			joinFields(doc.MissingFields),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func sheetName(docType constants.DocumentType) string {
	switch docType {
	case constants.Invoice:
		return "Invoices"
	case constants.Receipt:
		return "Receipts"
	default:
		return "Other"
	}
}

func fmtDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// fmtMoney converts minor units back to a major-unit value for the sheet.
// Absent values stay blank rather than showing 0.00.
func fmtMoney(v *int64) any {
	if v == nil {
		return ""
	}
	return float64(*v) / 100
}

func companyName(c *entity.CompanyInfo) string {
	if c == nil {
		return ""
	}
	return c.Name
}

func joinFields(fields []string) string {
	out := ""
	for i, f := range fields {
		if i > 0 {
			out += ", "
		}
		out += f
	}
	return out
}
