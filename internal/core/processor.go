package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bookkeeper-io/bookkeeper/constants"
	"github.com/bookkeeper-io/bookkeeper/internal/entity"
	"github.com/bookkeeper-io/bookkeeper/internal/extract"
	"github.com/bookkeeper-io/bookkeeper/internal/intake"
	"github.com/bookkeeper-io/bookkeeper/internal/llm"
	"github.com/bookkeeper-io/bookkeeper/internal/repository"
)

// Processor runs the extraction pipeline for one queued record at a time:
// claim, extract text, classify, extract fields, validate completeness, save.
//
// The failure policy is deliberate: only execution failures (missing file,
// unreadable file, no text, save error, panic) produce a failed record.
// Analyzer degradation and incomplete data still complete, flagged for
// review, so a flaky provider never wedges the queue.
type Processor struct {
	queue     *intake.Manager
	docs      repository.DocumentRepository
	extractor extract.TextExtractor
	analyzer  llm.DocumentAnalyzer
	logger    *slog.Logger
}

func NewProcessor(
	queue *intake.Manager,
	docs repository.DocumentRepository,
	extractor extract.TextExtractor,
	analyzer llm.DocumentAnalyzer,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		queue:     queue,
		docs:      docs,
		extractor: extractor,
		analyzer:  analyzer,
		logger:    logger,
	}
}

// ProcessNext claims the oldest queued record and runs it to a terminal
// status. Returns false when the queue was empty. The returned error covers
// only the dequeue itself; per-record outcomes land on the record.
func (p *Processor) ProcessNext(ctx context.Context) (bool, error) {
	item, err := p.queue.DequeueNext(ctx)
	if err != nil {
		return false, err
	}
	if item == nil {
		return false, nil
	}
	p.process(ctx, item)
	return true, nil
}

func (p *Processor) process(ctx context.Context, item *entity.QueueItem) {
	start := time.Now()

	// Once a record is claimed it must reach a terminal status even when the
	// poll context is cancelled mid-item (shutdown); the save and the status
	// write therefore run on a non-cancellable context.
	term := context.WithoutCancel(ctx)

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline.panic", "id", item.ID, "panic", r)
			p.fail(term, item.ID, fmt.Sprintf("panic during processing: %v", r))
		}
	}()

	p.logger.Info("pipeline.start", "id", item.ID, "file_id", item.FileID, "source", item.Source)

	if reason := checkQueueItem(item); reason != "" {
		p.fail(term, item.ID, reason)
		return
	}

	res, err := p.extractor.Extract(ctx, item.FileLocation)
	if err != nil {
		p.logger.Error("pipeline.extract_failed", "id", item.ID, "path", item.FileLocation, "error", err)
		p.fail(term, item.ID, err.Error())
		return
	}
	text := strings.TrimSpace(res.Text)
	if text == "" {
		p.logger.Error("pipeline.no_text", "id", item.ID, "path", item.FileLocation, "method", res.Method)
		p.fail(term, item.ID, "no text extracted")
		return
	}
	p.logger.Info("pipeline.text_extracted",
		"id", item.ID, "method", res.Method, "pages", res.Pages, "chars", len(text))

	docType := p.analyzer.Classify(ctx, text)
	if docType == constants.Other {
		// Not a financial document we track. The record completes so it is
		// never retried, but no typed record is created.
		p.logger.Info("pipeline.classified_other", "id", item.ID)
		p.complete(term, item.ID, map[string]any{
			"extraction_completed_at": time.Now().UTC().Format(time.RFC3339),
			"document_type":           string(constants.Other),
			"note":                    "document type not supported, no record created",
		})
		return
	}

	var (
		data         *entity.ExtractedData
		reviewReason string
	)
	rawFields, err := p.analyzer.ExtractFields(ctx, text, docType)
	if err != nil {
		p.logger.Warn("pipeline.extract_fields_degraded", "id", item.ID, "error", err)
		data = llm.FallbackExtractedData(docType, text)
		reviewReason = "field extraction failed: " + err.Error()
	} else {
		data, err = llm.CoerceExtractedData(rawFields, docType, text)
		if err != nil {
			p.logger.Warn("pipeline.coerce_degraded", "id", item.ID, "error", err)
			data = llm.FallbackExtractedData(docType, text)
			reviewReason = "extracted fields unusable: " + err.Error()
		}
	}

	isComplete, missing := ValidateCompleteness(data)

	docID, err := p.docs.Save(term, docType, data, item.ID, isComplete, missing)
	if err != nil {
		p.logger.Error("pipeline.save_failed", "id", item.ID, "error", err)
		p.fail(term, item.ID, "failed to save document: "+err.Error())
		return
	}

	validation := constants.ValidationComplete
	if !isComplete {
		validation = constants.ValidationRequiresReview
	}
	details := map[string]any{
		"extraction_completed_at": time.Now().UTC().Format(time.RFC3339),
		"document_type":           string(docType),
		"validation_status":       string(validation),
		"saved_document_id":       docID.String(),
	}
	if len(missing) > 0 {
		details["missing_fields"] = missing
	}
	if reviewReason != "" {
		details["review_reason"] = reviewReason
	}
	p.complete(term, item.ID, details)

	p.logger.Info("pipeline.done",
		"id", item.ID,
		"document_type", docType,
		"document_id", docID,
		"validation_status", validation,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}

// checkQueueItem guards against rows corrupted outside the normal submit
// path. Returns a failure reason or "".
func checkQueueItem(item *entity.QueueItem) string {
	switch {
	case item.ID == "":
		return "invalid queue item: missing id"
	case item.FileLocation == "":
		return "invalid queue item: missing file_location"
	case item.FileID == "":
		return "invalid queue item: missing file_id"
	case item.Source == "":
		return "invalid queue item: missing source"
	}
	return ""
}

func (p *Processor) complete(ctx context.Context, id string, details map[string]any) {
	p.queue.UpdateStatus(ctx, id, constants.StatusCompleted, details)
}

func (p *Processor) fail(ctx context.Context, id string, reason string) {
	p.queue.UpdateStatus(ctx, id, constants.StatusFailed, map[string]any{
		"error":     reason,
		"failed_at": time.Now().UTC().Format(time.RFC3339),
	})
}
