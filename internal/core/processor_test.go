package core

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bookkeeper-io/bookkeeper/constants"
	"github.com/bookkeeper-io/bookkeeper/internal/entity"
	"github.com/bookkeeper-io/bookkeeper/internal/extract"
	"github.com/bookkeeper-io/bookkeeper/internal/intake"
	"github.com/bookkeeper-io/bookkeeper/internal/repository"
)

type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) Extract(context.Context, string) (extract.TextResult, error) {
	if s.err != nil {
		return extract.TextResult{}, s.err
	}
	return extract.TextResult{Text: s.text, Method: "stub", Pages: 1}, nil
}

// cancellingExtractor cancels the poll context from inside Extract, the way
// a shutdown signal lands while a record is being worked on.
type cancellingExtractor struct {
	cancel context.CancelFunc
}

func (c cancellingExtractor) Extract(context.Context, string) (extract.TextResult, error) {
	c.cancel()
	return extract.TextResult{}, context.Canceled
}

type stubAnalyzer struct {
	docType    constants.DocumentType
	fields     []byte
	extractErr error
	panics     bool
}

func (s stubAnalyzer) Classify(context.Context, string) constants.DocumentType {
	if s.panics {
		panic("analyzer blew up")
	}
	return s.docType
}

func (s stubAnalyzer) ExtractFields(context.Context, string, constants.DocumentType) ([]byte, error) {
	return s.fields, s.extractErr
}

type pipelineEnv struct {
	queue *intake.Manager
	docs  repository.DocumentRepository
}

func newPipelineEnv(t *testing.T) pipelineEnv {
	t.Helper()
	db, err := repository.Open(context.Background(), repository.Config{
		Path: filepath.Join(t.TempDir(), "test.db"),
	}, nil)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close(nil) })
	return pipelineEnv{
		queue: intake.NewManager(repository.NewIntakeRepository(db, nil), nil),
		docs:  repository.NewDocumentRepository(db, nil),
	}
}

func (env pipelineEnv) submit(t *testing.T) string {
	t.Helper()
	res := env.queue.Submit(context.Background(), entity.FileInfo{
		FileLocation: "/docs/test.pdf",
		FileID:       "test.pdf_100_1741600000",
		Source:       "email",
		Date:         time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	if res.Status != intake.SubmitSuccess {
		t.Fatalf("submit failed: %v", res.Message)
	}
	return res.IntakeID
}

func (env pipelineEnv) record(t *testing.T, id string) *entity.IntakeRecord {
	t.Helper()
	rec, err := env.queue.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if rec == nil {
		t.Fatalf("record %s vanished", id)
	}
	return rec
}

const completeInvoiceJSON = `{
	"document_type": "invoice",
	"document_number": "INV-1",
	"date": "2026-03-01",
	"from_company": {"name": "Acme Corp"},
	"to_company": {"name": "Widget LLC"},
	"total_amount": 450.00,
	"currency": "USD"
}`

func TestProcessInvoiceCompletes(t *testing.T) {
	env := newPipelineEnv(t)
	id := env.submit(t)

	p := NewProcessor(env.queue, env.docs,
		stubExtractor{text: "Invoice INV-1 from Acme"},
		stubAnalyzer{docType: constants.Invoice, fields: []byte(completeInvoiceJSON)},
		nil)

	ok, err := p.ProcessNext(context.Background())
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !ok {
		t.Fatal("expected a record to be processed")
	}

	rec := env.record(t, id)
	if rec.Status != constants.StatusCompleted {
		t.Fatalf("expected completed, got %s (%v)", rec.Status, rec.StatusDetails)
	}
	if rec.StatusDetails["validation_status"] != string(constants.ValidationComplete) {
		t.Errorf("validation status: %v", rec.StatusDetails["validation_status"])
	}
	if rec.StatusDetails["saved_document_id"] == nil {
		t.Error("expected a saved document id")
	}

	doc, err := env.docs.GetByIntakeID(context.Background(), constants.Invoice, id)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if doc == nil {
		t.Fatal("expected an invoice record")
	}
	if doc.TotalAmount == nil || *doc.TotalAmount != 45000 {
		t.Errorf("total: %v", doc.TotalAmount)
	}

	// Queue is drained.
	ok, err = p.ProcessNext(context.Background())
	if err != nil {
		t.Fatalf("second process: %v", err)
	}
	if ok {
		t.Error("queue should be empty")
	}
}

func TestProcessOtherCompletesWithoutRecord(t *testing.T) {
	env := newPipelineEnv(t)
	id := env.submit(t)

	p := NewProcessor(env.queue, env.docs,
		stubExtractor{text: "a newsletter"},
		stubAnalyzer{docType: constants.Other},
		nil)

	if ok, err := p.ProcessNext(context.Background()); err != nil || !ok {
		t.Fatalf("process: ok=%v err=%v", ok, err)
	}

	rec := env.record(t, id)
	if rec.Status != constants.StatusCompleted {
		t.Fatalf("expected completed, got %s", rec.Status)
	}
	if rec.StatusDetails["note"] == nil {
		t.Error("expected a note explaining why no record was created")
	}
	for _, dt := range []constants.DocumentType{constants.Invoice, constants.Receipt} {
		doc, err := env.docs.GetByIntakeID(context.Background(), dt, id)
		if err != nil {
			t.Fatalf("get %s: %v", dt, err)
		}
		if doc != nil {
			t.Errorf("no %s record should exist, got %s", dt, doc.ID)
		}
	}
}

func TestProcessExtractionFailureFails(t *testing.T) {
	env := newPipelineEnv(t)
	id := env.submit(t)

	p := NewProcessor(env.queue, env.docs,
		stubExtractor{err: extract.ErrNotFound},
		stubAnalyzer{docType: constants.Invoice},
		nil)

	if ok, err := p.ProcessNext(context.Background()); err != nil || !ok {
		t.Fatalf("process: ok=%v err=%v", ok, err)
	}

	rec := env.record(t, id)
	if rec.Status != constants.StatusFailed {
		t.Fatalf("expected failed, got %s", rec.Status)
	}
	if rec.StatusDetails["error"] == nil {
		t.Error("expected an error detail")
	}
}

func TestProcessEmptyTextFails(t *testing.T) {
	env := newPipelineEnv(t)
	id := env.submit(t)

	p := NewProcessor(env.queue, env.docs,
		stubExtractor{text: "   \n  "},
		stubAnalyzer{docType: constants.Invoice},
		nil)

	if ok, err := p.ProcessNext(context.Background()); err != nil || !ok {
		t.Fatalf("process: ok=%v err=%v", ok, err)
	}

	rec := env.record(t, id)
	if rec.Status != constants.StatusFailed {
		t.Fatalf("expected failed, got %s", rec.Status)
	}
	if rec.StatusDetails["error"] != "no text extracted" {
		t.Errorf("error detail: %v", rec.StatusDetails["error"])
	}
}

func TestProcessAnalyzerFailureStillCompletes(t *testing.T) {
	env := newPipelineEnv(t)
	id := env.submit(t)

	p := NewProcessor(env.queue, env.docs,
		stubExtractor{text: "Receipt from Corner Store"},
		stubAnalyzer{docType: constants.Receipt, extractErr: errors.New("rate limited")},
		nil)

	if ok, err := p.ProcessNext(context.Background()); err != nil || !ok {
		t.Fatalf("process: ok=%v err=%v", ok, err)
	}

	rec := env.record(t, id)
	if rec.Status != constants.StatusCompleted {
		t.Fatalf("analyzer failure must not fail the record, got %s", rec.Status)
	}
	if rec.StatusDetails["validation_status"] != string(constants.ValidationRequiresReview) {
		t.Errorf("expected requires_review, got %v", rec.StatusDetails["validation_status"])
	}
	if rec.StatusDetails["review_reason"] == nil {
		t.Error("expected a review reason")
	}

	doc, err := env.docs.GetByIntakeID(context.Background(), constants.Receipt, id)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if doc == nil {
		t.Fatal("fallback document must still be saved")
	}
	if doc.Status != constants.DocumentReview {
		t.Errorf("expected review status, got %s", doc.Status)
	}
	if doc.RawText == "" {
		t.Error("fallback document must carry the raw text")
	}
}

func TestProcessShutdownMidItemStillFailsRecord(t *testing.T) {
	env := newPipelineEnv(t)
	id := env.submit(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewProcessor(env.queue, env.docs,
		cancellingExtractor{cancel: cancel},
		stubAnalyzer{docType: constants.Invoice},
		nil)

	if ok, err := p.ProcessNext(ctx); err != nil || !ok {
		t.Fatalf("process: ok=%v err=%v", ok, err)
	}

	// A claimed record must never stay in processing; the failure write runs
	// on a context that survives the cancellation.
	rec := env.record(t, id)
	if rec.Status == constants.StatusProcessing {
		t.Fatal("record stuck in processing after mid-item cancellation")
	}
	if rec.Status != constants.StatusFailed {
		t.Fatalf("expected failed, got %s", rec.Status)
	}
	if rec.StatusDetails["error"] == nil {
		t.Error("expected an error detail")
	}
}

func TestProcessPanicFailsRecord(t *testing.T) {
	env := newPipelineEnv(t)
	id := env.submit(t)

	p := NewProcessor(env.queue, env.docs,
		stubExtractor{text: "some text"},
		stubAnalyzer{panics: true},
		nil)

	if ok, err := p.ProcessNext(context.Background()); err != nil || !ok {
		t.Fatalf("process: ok=%v err=%v", ok, err)
	}

	rec := env.record(t, id)
	if rec.Status != constants.StatusFailed {
		t.Fatalf("expected failed after panic, got %s", rec.Status)
	}
}
