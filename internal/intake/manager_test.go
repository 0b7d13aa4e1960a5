package intake

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bookkeeper-io/bookkeeper/constants"
	"github.com/bookkeeper-io/bookkeeper/internal/entity"
	"github.com/bookkeeper-io/bookkeeper/internal/repository"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	db, err := repository.Open(context.Background(), repository.Config{
		Path: filepath.Join(t.TempDir(), "test.db"),
	}, nil)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close(nil) })
	return NewManager(repository.NewIntakeRepository(db, nil), nil)
}

func sampleFile() entity.FileInfo {
	return entity.FileInfo{
		FileLocation: "/docs/march/invoice.pdf",
		FileID:       "invoice.pdf_2048_1741600000",
		Source:       "email",
		Date:         time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestSubmitQueuesRecord(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	res := m.Submit(ctx, sampleFile())
	if res.Status != SubmitSuccess {
		t.Fatalf("expected success, got %v (%s)", res.Status, res.Message)
	}
	if res.IntakeID == "" {
		t.Fatal("expected an intake id")
	}
	if res.ProcessingStatus != constants.StatusQueuedForExtraction {
		t.Errorf("expected queued_for_extraction, got %s", res.ProcessingStatus)
	}

	rec, err := m.Get(ctx, res.IntakeID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec == nil {
		t.Fatal("expected stored record")
	}
	if rec.Status != constants.StatusQueuedForExtraction {
		t.Errorf("stored record not queued: %s", rec.Status)
	}
}

func TestSubmitDuplicate(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	first := m.Submit(ctx, sampleFile())
	if first.Status != SubmitSuccess {
		t.Fatalf("first submit failed: %v", first.Message)
	}

	second := m.Submit(ctx, sampleFile())
	if second.Status != SubmitDuplicate {
		t.Fatalf("expected duplicate, got %v", second.Status)
	}
	if second.ExistingID != first.IntakeID {
		t.Errorf("expected existing id %s, got %s", first.IntakeID, second.ExistingID)
	}
	if second.Message == "" {
		t.Error("duplicate result should explain the existing record's status")
	}

	// No second record was created.
	queued, err := m.ListQueued(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(queued) != 1 {
		t.Errorf("expected 1 queued record, got %d", len(queued))
	}
}

func TestSubmitDifferentSourceIsNotDuplicate(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if res := m.Submit(ctx, sampleFile()); res.Status != SubmitSuccess {
		t.Fatalf("first submit failed: %v", res.Message)
	}
	info := sampleFile()
	info.Source = "file_upload"
	if res := m.Submit(ctx, info); res.Status != SubmitSuccess {
		t.Errorf("different source must be a new submission, got %v", res.Status)
	}
}

func TestSubmitValidationEnumeratesAllMissing(t *testing.T) {
	m := newTestManager(t)

	res := m.Submit(context.Background(), entity.FileInfo{})
	if res.Status != SubmitValidationError {
		t.Fatalf("expected validation error, got %v", res.Status)
	}

	missing := res.MissingFields()
	want := map[string]bool{"file_location": false, "file_id": false, "source": false, "date": false}
	for _, f := range missing {
		if _, ok := want[f]; !ok {
			t.Errorf("unexpected field %q", f)
			continue
		}
		want[f] = true
	}
	for f, seen := range want {
		if !seen {
			t.Errorf("expected %q in missing fields, got %v", f, missing)
		}
	}
}

func TestDequeueNextClaims(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	res := m.Submit(ctx, sampleFile())
	if res.Status != SubmitSuccess {
		t.Fatalf("submit failed: %v", res.Message)
	}

	item, err := m.DequeueNext(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if item == nil || item.ID != res.IntakeID {
		t.Fatalf("expected claimed %s, got %+v", res.IntakeID, item)
	}

	again, err := m.DequeueNext(ctx)
	if err != nil {
		t.Fatalf("second dequeue: %v", err)
	}
	if again != nil {
		t.Errorf("record claimed twice: %+v", again)
	}
}

func TestClearQueue(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		info := sampleFile()
		info.FileID = info.FileID + string(rune('a'+i))
		if res := m.Submit(ctx, info); res.Status != SubmitSuccess {
			t.Fatalf("submit %d failed: %v", i, res.Message)
		}
	}

	n, err := m.ClearQueue(ctx)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 cleared, got %d", n)
	}

	queued, err := m.ListQueued(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(queued) != 0 {
		t.Errorf("expected empty queue after clear, got %d", len(queued))
	}
}
