package intake

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bookkeeper-io/bookkeeper/internal/common"
	"github.com/bookkeeper-io/bookkeeper/internal/repository"
)

// DuplicateResult is the outcome of a duplicate detection check.
type DuplicateResult struct {
	IsDuplicate bool
	ExistingID  string
	Message     string
}

// DuplicateChecker decides whether a submission repeats prior work. The match
// is exact equality on the (location, file id, source, date) natural key; a
// mismatch in any one field means "not a duplicate" even when the other three
// match. The key is deliberately not content-based.
type DuplicateChecker struct {
	repo   repository.IntakeRepository
	logger *slog.Logger
}

func NewDuplicateChecker(repo repository.IntakeRepository, logger *slog.Logger) *DuplicateChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &DuplicateChecker{repo: repo, logger: logger}
}

// Check looks up the natural key. A store failure surfaces as a database
// error; callers must not read a failed check as "not duplicate".
func (c *DuplicateChecker) Check(ctx context.Context, location, fileID, source string, date time.Time) (DuplicateResult, error) {
	existing, err := c.repo.FindByNaturalKey(ctx, location, fileID, source, date)
	if err != nil {
		c.logger.Error("duplicate check failed", "file_id", fileID, "error", err)
		return DuplicateResult{}, common.DatabaseError("failed to check duplicates", err)
	}
	if existing == nil {
		return DuplicateResult{}, nil
	}
	return DuplicateResult{
		IsDuplicate: true,
		ExistingID:  existing.ID,
		Message:     fmt.Sprintf("Already processed: %s", existing.Status),
	}, nil
}
