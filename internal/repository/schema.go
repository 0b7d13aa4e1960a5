package repository

import (
	"context"
	"strings"
)

// Timestamps and dates are stored as RFC3339Nano UTC text in both dialects;
// monetary amounts are integer minor currency units.
const schema = `
CREATE TABLE IF NOT EXISTS intake_records (
	id TEXT PRIMARY KEY,
	file_location TEXT NOT NULL,
	file_id TEXT NOT NULL,
	source TEXT NOT NULL,
	date TEXT NOT NULL,
	processing_status TEXT NOT NULL,
	status_details TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_intake_natural_key
	ON intake_records(file_location, file_id, source, date);

CREATE INDEX IF NOT EXISTS idx_intake_status_created
	ON intake_records(processing_status, created_at);

CREATE TABLE IF NOT EXISTS invoices (
	id TEXT PRIMARY KEY,
	intake_id TEXT NOT NULL UNIQUE,
	document_number TEXT,
	doc_date TEXT,
	due_date TEXT,
	from_company TEXT,
	to_company TEXT,
	line_items TEXT,
	subtotal INTEGER,
	tax_amount INTEGER,
	total_amount INTEGER,
	payment_method TEXT,
	currency TEXT,
	status TEXT NOT NULL,
	missing_fields TEXT,
	raw_text TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS receipts (
	id TEXT PRIMARY KEY,
	intake_id TEXT NOT NULL UNIQUE,
	document_number TEXT,
	doc_date TEXT,
	due_date TEXT,
	from_company TEXT,
	to_company TEXT,
	line_items TEXT,
	subtotal INTEGER,
	tax_amount INTEGER,
	total_amount INTEGER,
	payment_method TEXT,
	currency TEXT,
	status TEXT NOT NULL,
	missing_fields TEXT,
	raw_text TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// initSchema executes each DDL statement separately; the pgx driver does not
// accept multi-statement commands over the extended protocol.
func initSchema(ctx context.Context, db *DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.sql.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
