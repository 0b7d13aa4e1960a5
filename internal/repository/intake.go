package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/bookkeeper-io/bookkeeper/constants"
	"github.com/bookkeeper-io/bookkeeper/internal/entity"
)

// IntakeRepository is the store surface for intake records. DequeueOldestQueued
// is the only operation that must be atomic across workers.
type IntakeRepository interface {
	Insert(ctx context.Context, rec *entity.IntakeRecord) error
	FindByNaturalKey(ctx context.Context, location, fileID, source string, date time.Time) (*entity.IntakeRecord, error)
	GetByID(ctx context.Context, id string) (*entity.IntakeRecord, error)
	DequeueOldestQueued(ctx context.Context) (*entity.QueueItem, error)
	UpdateStatus(ctx context.Context, id string, status constants.ProcessingStatus, details map[string]any) (bool, error)
	ListQueued(ctx context.Context) ([]entity.QueueItem, error)
	FailAllQueued(ctx context.Context, reason string) (int64, error)
	CountByStatus(ctx context.Context, status constants.ProcessingStatus) (int64, error)
}

type intakeRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewIntakeRepository(db *DB, logger *slog.Logger) IntakeRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &intakeRepository{db: db, logger: logger}
}

func (r *intakeRepository) Insert(ctx context.Context, rec *entity.IntakeRecord) error {
	details, err := marshalDetails(rec.StatusDetails)
	if err != nil {
		return err
	}
	_, err = r.db.sql.ExecContext(ctx, r.db.rebind(`
		INSERT INTO intake_records
			(id, file_location, file_id, source, date, processing_status, status_details, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		rec.ID, rec.FileLocation, rec.FileID, rec.Source, fmtTime(rec.Date),
		string(rec.Status), details, fmtTime(rec.CreatedAt), fmtTime(rec.UpdatedAt),
	)
	if err != nil {
		r.logger.Error("intake insert failed", "id", rec.ID, "error", err)
		return err
	}
	return nil
}

func (r *intakeRepository) FindByNaturalKey(ctx context.Context, location, fileID, source string, date time.Time) (*entity.IntakeRecord, error) {
	row := r.db.sql.QueryRowContext(ctx, r.db.rebind(`
		SELECT id, file_location, file_id, source, date, processing_status, status_details, created_at, updated_at
		FROM intake_records
		WHERE file_location = ? AND file_id = ? AND source = ? AND date = ?`),
		location, fileID, source, fmtTime(date),
	)
	return scanIntake(row)
}

func (r *intakeRepository) GetByID(ctx context.Context, id string) (*entity.IntakeRecord, error) {
	row := r.db.sql.QueryRowContext(ctx, r.db.rebind(`
		SELECT id, file_location, file_id, source, date, processing_status, status_details, created_at, updated_at
		FROM intake_records
		WHERE id = ?`),
		id,
	)
	return scanIntake(row)
}

// DequeueOldestQueued claims the oldest queued record and flips it to
// processing in one statement, so concurrent pollers can never claim the same
// record. Returns (nil, nil) when the queue is empty.
func (r *intakeRepository) DequeueOldestQueued(ctx context.Context) (*entity.QueueItem, error) {
	q := `
		UPDATE intake_records
		SET processing_status = ?, updated_at = ?
		WHERE id = (
			SELECT id FROM intake_records
			WHERE processing_status = ?
			ORDER BY created_at, id
			LIMIT 1
		)
		RETURNING id, file_location, file_id, source, date, created_at`
	if r.db.dialect == dialectPostgres {
		q = `
		UPDATE intake_records
		SET processing_status = ?, updated_at = ?
		WHERE id = (
			SELECT id FROM intake_records
			WHERE processing_status = ?
			ORDER BY created_at, id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, file_location, file_id, source, date, created_at`
	}

	var item entity.QueueItem
	var dateStr, queuedStr string
	err := r.db.sql.QueryRowContext(ctx, r.db.rebind(q),
		string(constants.StatusProcessing), fmtTime(time.Now()),
		string(constants.StatusQueuedForExtraction),
	).Scan(&item.ID, &item.FileLocation, &item.FileID, &item.Source, &dateStr, &queuedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("dequeue failed", "error", err)
		return nil, err
	}
	item.Date = parseTime(dateStr)
	item.QueuedAt = parseTime(queuedStr)
	r.logger.Info("dequeued intake record", "id", item.ID, "file_id", item.FileID)
	return &item, nil
}

// UpdateStatus sets the status and merges details into status_details.
// Returns false when the id does not exist; callers treat that as "already
// handled", not as an error.
//
// The merge is read-then-write, not atomic. That is safe under the current
// ownership rule: a processing record belongs to exactly one worker (the
// dequeue claims it), so no second writer touches status_details between the
// read and the update. Revisit with a SQL-side JSON merge if a record ever
// gains concurrent writers.
func (r *intakeRepository) UpdateStatus(ctx context.Context, id string, status constants.ProcessingStatus, details map[string]any) (bool, error) {
	merged := details
	if len(details) > 0 {
		existing, err := r.GetByID(ctx, id)
		if err != nil {
			return false, err
		}
		if existing == nil {
			return false, nil
		}
		if existing.StatusDetails != nil {
			merged = existing.StatusDetails
			for k, v := range details {
				merged[k] = v
			}
		}
	}

	var (
		res sql.Result
		err error
	)
	if merged != nil {
		var blob sql.NullString
		blob, err = marshalDetails(merged)
		if err != nil {
			return false, err
		}
		res, err = r.db.sql.ExecContext(ctx, r.db.rebind(`
			UPDATE intake_records
			SET processing_status = ?, updated_at = ?, status_details = ?
			WHERE id = ?`),
			string(status), fmtTime(time.Now()), blob, id,
		)
	} else {
		res, err = r.db.sql.ExecContext(ctx, r.db.rebind(`
			UPDATE intake_records
			SET processing_status = ?, updated_at = ?
			WHERE id = ?`),
			string(status), fmtTime(time.Now()), id,
		)
	}
	if err != nil {
		r.logger.Error("intake status update failed", "id", id, "status", status, "error", err)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *intakeRepository) ListQueued(ctx context.Context) ([]entity.QueueItem, error) {
	rows, err := r.db.sql.QueryContext(ctx, r.db.rebind(`
		SELECT id, file_location, file_id, source, date, created_at
		FROM intake_records
		WHERE processing_status = ?
		ORDER BY created_at, id`),
		string(constants.StatusQueuedForExtraction),
	)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn("rows close error", "error", err)
		}
	}()

	var items []entity.QueueItem
	for rows.Next() {
		var item entity.QueueItem
		var dateStr, queuedStr string
		if err := rows.Scan(&item.ID, &item.FileLocation, &item.FileID, &item.Source, &dateStr, &queuedStr); err != nil {
			return nil, err
		}
		item.Date = parseTime(dateStr)
		item.QueuedAt = parseTime(queuedStr)
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *intakeRepository) FailAllQueued(ctx context.Context, reason string) (int64, error) {
	details, err := marshalDetails(map[string]any{"reason": reason})
	if err != nil {
		return 0, err
	}
	res, err := r.db.sql.ExecContext(ctx, r.db.rebind(`
		UPDATE intake_records
		SET processing_status = ?, updated_at = ?, status_details = ?
		WHERE processing_status = ?`),
		string(constants.StatusFailed), fmtTime(time.Now()), details,
		string(constants.StatusQueuedForExtraction),
	)
	if err != nil {
		r.logger.Error("fail all queued failed", "error", err)
		return 0, err
	}
	return res.RowsAffected()
}

func (r *intakeRepository) CountByStatus(ctx context.Context, status constants.ProcessingStatus) (int64, error) {
	var n int64
	err := r.db.sql.QueryRowContext(ctx, r.db.rebind(`
		SELECT COUNT(*) FROM intake_records WHERE processing_status = ?`),
		string(status),
	).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIntake(row rowScanner) (*entity.IntakeRecord, error) {
	var rec entity.IntakeRecord
	var status, dateStr, createdStr, updatedStr string
	var details sql.NullString
	err := row.Scan(&rec.ID, &rec.FileLocation, &rec.FileID, &rec.Source, &dateStr, &status, &details, &createdStr, &updatedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.Status = constants.ProcessingStatus(status)
	rec.Date = parseTime(dateStr)
	rec.CreatedAt = parseTime(createdStr)
	rec.UpdatedAt = parseTime(updatedStr)
	if details.Valid && details.String != "" {
		if err := json.Unmarshal([]byte(details.String), &rec.StatusDetails); err != nil {
			return nil, err
		}
	}
	return &rec, nil
}

func marshalDetails(details map[string]any) (sql.NullString, error) {
	if details == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(details)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
