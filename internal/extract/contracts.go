package extract

import (
	"context"
	"errors"
	"time"
)

// Extraction failure classes. The pipeline maps any of these to a failed
// intake record; it never retries them.
var (
	ErrNotFound         = errors.New("file not found")
	ErrTooLarge         = errors.New("file too large")
	ErrEmpty            = errors.New("file is empty")
	ErrExtractionFailed = errors.New("text extraction failed")
)

// TextResult is the outcome of one text extraction.
type TextResult struct {
	Text     string
	Pages    int
	Format   string // constants.PDF | IMAGE | HTML | TXT
	Method   string // "pdf-text" | "pdf-ocr" | "image-ocr" | "html" | "txt"
	Duration time.Duration
	Warnings []string
}

// TextExtractor turns a document file into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextResult, error)
}
