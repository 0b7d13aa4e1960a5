package intake

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/bookkeeper-io/bookkeeper/constants"
	"github.com/bookkeeper-io/bookkeeper/internal/common"
	"github.com/bookkeeper-io/bookkeeper/internal/entity"
	"github.com/bookkeeper-io/bookkeeper/internal/repository"
)

// ClearReason is recorded on every record failed by ClearQueue.
const ClearReason = "Queue cleared"

// Manager is the central coordination point for document intake: validation,
// duplicate detection, record creation, and the dequeue-with-lock handoff to
// the extraction pipeline. It owns the IntakeRecord lifecycle exclusively.
type Manager struct {
	repo    repository.IntakeRepository
	checker *DuplicateChecker
	logger  *slog.Logger
}

func NewManager(repo repository.IntakeRepository, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		repo:    repo,
		checker: NewDuplicateChecker(repo, logger),
		logger:  logger,
	}
}

// Submit processes a submission from a file or email handler. It never
// returns an error: every outcome, including store failures, is a tagged
// SubmitResult. No record is created for duplicates or invalid submissions;
// a created record starts queued_for_extraction in the same insert.
func (m *Manager) Submit(ctx context.Context, info entity.FileInfo) SubmitResult {
	v := common.NewValidator()
	v.Require("file_location", info.FileLocation)
	v.Require("file_id", info.FileID)
	v.Require("source", info.Source)
	v.RequireTime("date", info.Date)
	if v.HasErrors() {
		m.logger.Warn("intake.submit.invalid", "fields", v.Fields())
		return SubmitResult{
			Status:      SubmitValidationError,
			FieldErrors: v.Errors(),
			Message:     v.ErrorMessage(),
		}
	}

	dup, err := m.checker.Check(ctx, info.FileLocation, info.FileID, info.Source, info.Date)
	if err != nil {
		return SubmitResult{Status: SubmitDatabaseError, Message: "Database error occurred"}
	}
	if dup.IsDuplicate {
		m.logger.Info("intake.submit.duplicate", "file_id", info.FileID, "existing_id", dup.ExistingID)
		return SubmitResult{
			Status:     SubmitDuplicate,
			ExistingID: dup.ExistingID,
			Message:    dup.Message,
		}
	}

	now := time.Now().UTC()
	rec := &entity.IntakeRecord{
		ID:           ulid.Make().String(),
		FileLocation: info.FileLocation,
		FileID:       info.FileID,
		Source:       info.Source,
		Date:         info.Date.UTC(),
		Status:       constants.StatusQueuedForExtraction,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := m.repo.Insert(ctx, rec); err != nil {
		m.logger.Error("intake.submit.insert_failed", "file_id", info.FileID, "error", err)
		return SubmitResult{Status: SubmitDatabaseError, Message: "Database error occurred"}
	}

	m.logger.Info("intake.submit.queued", "id", rec.ID, "file_id", rec.FileID, "source", rec.Source)
	return SubmitResult{
		Status:           SubmitSuccess,
		IntakeID:         rec.ID,
		ProcessingStatus: rec.Status,
	}
}

// DequeueNext claims the oldest queued record, atomically transitioning it to
// processing so at most one worker ever holds a given record. Returns
// (nil, nil) when the queue is empty.
func (m *Manager) DequeueNext(ctx context.Context) (*entity.QueueItem, error) {
	return m.repo.DequeueOldestQueued(ctx)
}

// UpdateStatus sets the record's status and merges details. A false return
// means the id was not found; callers treat that as "already handled".
func (m *Manager) UpdateStatus(ctx context.Context, id string, status constants.ProcessingStatus, details map[string]any) bool {
	ok, err := m.repo.UpdateStatus(ctx, id, status, details)
	if err != nil {
		m.logger.Error("intake.status.update_failed", "id", id, "status", status, "error", err)
		return false
	}
	m.logger.Info("intake.status.updated", "id", id, "status", status)
	return ok
}

// Get retrieves an intake record by id. Returns (nil, nil) when absent.
func (m *Manager) Get(ctx context.Context, id string) (*entity.IntakeRecord, error) {
	return m.repo.GetByID(ctx, id)
}

// ListQueued returns a read-only snapshot of the queue, oldest first.
func (m *Manager) ListQueued(ctx context.Context) ([]entity.QueueItem, error) {
	return m.repo.ListQueued(ctx)
}

// ClearQueue bulk-fails every queued record. Administrative escape hatch,
// not part of the normal flow.
func (m *Manager) ClearQueue(ctx context.Context) (int64, error) {
	n, err := m.repo.FailAllQueued(ctx, ClearReason)
	if err != nil {
		m.logger.Error("intake.queue.clear_failed", "error", err)
		return 0, err
	}
	m.logger.Info("intake.queue.cleared", "records", n)
	return n, nil
}
