package async

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bookkeeper-io/bookkeeper/constants"
	"github.com/bookkeeper-io/bookkeeper/internal/core"
	"github.com/bookkeeper-io/bookkeeper/internal/entity"
	"github.com/bookkeeper-io/bookkeeper/internal/extract"
	"github.com/bookkeeper-io/bookkeeper/internal/intake"
	"github.com/bookkeeper-io/bookkeeper/internal/repository"
)

type stubExtractor struct{}

func (stubExtractor) Extract(context.Context, string) (extract.TextResult, error) {
	return extract.TextResult{Text: "Receipt from Corner Store, total 12.99", Method: "stub"}, nil
}

type stubAnalyzer struct{}

func (stubAnalyzer) Classify(context.Context, string) constants.DocumentType {
	return constants.Receipt
}

func (stubAnalyzer) ExtractFields(context.Context, string, constants.DocumentType) ([]byte, error) {
	return []byte(`{"document_type": "receipt", "document_number": "R-1",
		"date": "2026-03-10", "from_company": {"name": "Corner Store"}, "total_amount": 12.99}`), nil
}

func newTestPoller(t *testing.T) (*Poller, *intake.Manager) {
	t.Helper()
	db, err := repository.Open(context.Background(), repository.Config{
		Path: filepath.Join(t.TempDir(), "test.db"),
	}, nil)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close(nil) })

	queue := intake.NewManager(repository.NewIntakeRepository(db, nil), nil)
	processor := core.NewProcessor(queue, repository.NewDocumentRepository(db, nil),
		stubExtractor{}, stubAnalyzer{}, nil)
	return NewPoller(processor, 20*time.Millisecond, nil), queue
}

func TestPollerStopsOnCancel(t *testing.T) {
	p, _ := newTestPoller(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}

func TestPollerDrainsQueue(t *testing.T) {
	p, queue := newTestPoller(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 3; i++ {
		res := queue.Submit(ctx, entity.FileInfo{
			FileLocation: "/docs/r.pdf",
			FileID:       "r.pdf_10_" + string(rune('a'+i)),
			Source:       "email",
			Date:         time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		})
		if res.Status != intake.SubmitSuccess {
			t.Fatalf("submit %d: %v", i, res.Message)
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	deadline := time.After(5 * time.Second)
	for p.Processed() < 3 {
		select {
		case <-deadline:
			t.Fatalf("timed out, processed %d of 3", p.Processed())
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done

	queued, err := queue.ListQueued(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(queued) != 0 {
		t.Errorf("expected drained queue, got %d", len(queued))
	}
}
