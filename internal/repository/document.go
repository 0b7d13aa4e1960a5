package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bookkeeper-io/bookkeeper/constants"
	"github.com/bookkeeper-io/bookkeeper/internal/entity"
)

// DocumentRepository persists typed document records (invoices, receipts).
// Save is idempotent per intake id: at most one typed record ever exists for
// a given intake record, even under concurrent or retried saves.
type DocumentRepository interface {
	Save(ctx context.Context, docType constants.DocumentType, data *entity.ExtractedData, intakeID string, isComplete bool, missingFields []string) (uuid.UUID, error)
	GetByIntakeID(ctx context.Context, docType constants.DocumentType, intakeID string) (*entity.Document, error)
	ListByType(ctx context.Context, docType constants.DocumentType, from, to *time.Time) ([]*entity.Document, error)
}

type documentRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewDocumentRepository(db *DB, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepository{db: db, logger: logger}
}

func tableFor(docType constants.DocumentType) (string, error) {
	switch docType {
	case constants.Invoice:
		return "invoices", nil
	case constants.Receipt:
		return "receipts", nil
	default:
		return "", fmt.Errorf("no collection for document type %q", docType)
	}
}

func (r *documentRepository) Save(ctx context.Context, docType constants.DocumentType, data *entity.ExtractedData, intakeID string, isComplete bool, missingFields []string) (uuid.UUID, error) {
	table, err := tableFor(docType)
	if err != nil {
		return uuid.Nil, err
	}
	if data == nil {
		return uuid.Nil, errors.New("extracted data is required")
	}
	if intakeID == "" {
		return uuid.Nil, errors.New("intake id is required")
	}

	// Fast path: a record for this intake already exists (re-processing after
	// a crash or a retried call).
	if existing, err := r.GetByIntakeID(ctx, docType, intakeID); err != nil {
		return uuid.Nil, err
	} else if existing != nil {
		r.logger.Warn("document already exists for intake", "intake_id", intakeID, "document_id", existing.ID)
		return existing.ID, nil
	}

	status := constants.DocumentComplete
	if !isComplete {
		status = constants.DocumentReview
	} else {
		missingFields = nil
	}

	fromJSON, err := marshalJSON(data.FromCompany)
	if err != nil {
		return uuid.Nil, err
	}
	toJSON, err := marshalJSON(data.ToCompany)
	if err != nil {
		return uuid.Nil, err
	}
	itemsJSON, err := marshalJSON(data.LineItems)
	if err != nil {
		return uuid.Nil, err
	}
	missingJSON, err := marshalJSON(missingFields)
	if err != nil {
		return uuid.Nil, err
	}

	id := uuid.New()
	now := fmtTime(time.Now())
	_, err = r.db.sql.ExecContext(ctx, r.db.rebind(`
		INSERT INTO `+table+`
			(id, intake_id, document_number, doc_date, due_date, from_company, to_company,
			 line_items, subtotal, tax_amount, total_amount, payment_method, currency,
			 status, missing_fields, raw_text, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		id.String(), intakeID, nullStr(data.DocumentNumber), nullTime(data.Date), nullTime(data.DueDate),
		fromJSON, toJSON, itemsJSON,
		nullInt(data.Subtotal), nullInt(data.TaxAmount), nullInt(data.TotalAmount),
		nullStr(data.PaymentMethod), nullStr(data.Currency),
		string(status), missingJSON, truncateRawText(data.RawText), now, now,
	)
	if err != nil {
		// A concurrent save for the same intake id hits the UNIQUE constraint;
		// that is success-equivalent, so re-read and return the winner's id.
		if existing, rerr := r.GetByIntakeID(ctx, docType, intakeID); rerr == nil && existing != nil {
			r.logger.Warn("concurrent document save, returning existing", "intake_id", intakeID, "document_id", existing.ID)
			return existing.ID, nil
		}
		r.logger.Error("document save failed", "intake_id", intakeID, "error", err)
		return uuid.Nil, err
	}

	r.logger.Info("document saved", "table", table, "document_id", id, "intake_id", intakeID, "status", status)
	return id, nil
}

func (r *documentRepository) GetByIntakeID(ctx context.Context, docType constants.DocumentType, intakeID string) (*entity.Document, error) {
	table, err := tableFor(docType)
	if err != nil {
		return nil, err
	}
	row := r.db.sql.QueryRowContext(ctx, r.db.rebind(
		selectDocumentColumns+` FROM `+table+` WHERE intake_id = ?`), intakeID)
	return scanDocument(row, docType)
}

func (r *documentRepository) ListByType(ctx context.Context, docType constants.DocumentType, from, to *time.Time) ([]*entity.Document, error) {
	table, err := tableFor(docType)
	if err != nil {
		return nil, err
	}
	q := selectDocumentColumns + ` FROM ` + table + ` WHERE 1=1`
	var args []any
	if from != nil {
		q += ` AND doc_date >= ?`
		args = append(args, fmtTime(*from))
	}
	if to != nil {
		q += ` AND doc_date <= ?`
		args = append(args, fmtTime(*to))
	}
	q += ` ORDER BY doc_date, created_at`

	rows, err := r.db.sql.QueryContext(ctx, r.db.rebind(q), args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn("rows close error", "error", err)
		}
	}()

	var docs []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows, docType)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

const selectDocumentColumns = `
	SELECT id, intake_id, document_number, doc_date, due_date, from_company, to_company,
	       line_items, subtotal, tax_amount, total_amount, payment_method, currency,
	       status, missing_fields, raw_text, created_at, updated_at`

func scanDocument(row rowScanner, docType constants.DocumentType) (*entity.Document, error) {
	var doc entity.Document
	var idStr, status, createdStr, updatedStr string
	var docNumber, docDate, dueDate, fromJSON, toJSON, itemsJSON, payMethod, currency, missingJSON, rawText sql.NullString
	var subtotal, taxAmount, totalAmount sql.NullInt64

	err := row.Scan(&idStr, &doc.IntakeID, &docNumber, &docDate, &dueDate, &fromJSON, &toJSON,
		&itemsJSON, &subtotal, &taxAmount, &totalAmount, &payMethod, &currency,
		&status, &missingJSON, &rawText, &createdStr, &updatedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	doc.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	doc.DocumentType = docType
	doc.DocumentNumber = docNumber.String
	doc.PaymentMethod = payMethod.String
	doc.Currency = currency.String
	doc.Status = constants.DocumentStatus(status)
	doc.RawText = rawText.String
	doc.CreatedAt = parseTime(createdStr)
	doc.UpdatedAt = parseTime(updatedStr)
	if docDate.Valid {
		t := parseTime(docDate.String)
		doc.Date = &t
	}
	if dueDate.Valid {
		t := parseTime(dueDate.String)
		doc.DueDate = &t
	}
	if subtotal.Valid {
		doc.Subtotal = &subtotal.Int64
	}
	if taxAmount.Valid {
		doc.TaxAmount = &taxAmount.Int64
	}
	if totalAmount.Valid {
		doc.TotalAmount = &totalAmount.Int64
	}
	if err := unmarshalJSON(fromJSON, &doc.FromCompany); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(toJSON, &doc.ToCompany); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(itemsJSON, &doc.LineItems); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(missingJSON, &doc.MissingFields); err != nil {
		return nil, err
	}
	return &doc, nil
}

func truncateRawText(s string) string {
	if len(s) > constants.MaxRawTextChars {
		return s[:constants.MaxRawTextChars]
	}
	return s
}

func marshalJSON(v any) (sql.NullString, error) {
	switch t := v.(type) {
	case *entity.CompanyInfo:
		if t == nil {
			return sql.NullString{}, nil
		}
	case []entity.LineItem:
		if t == nil {
			return sql.NullString{}, nil
		}
	case []string:
		if t == nil {
			return sql.NullString{}, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func unmarshalJSON(src sql.NullString, dst any) error {
	if !src.Valid || src.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(src.String), dst)
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: fmtTime(*t), Valid: true}
}
