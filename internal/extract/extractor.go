package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bookkeeper-io/bookkeeper/constants"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit
	MaxBytes      int64  // 0 -> constants.MaxDocumentBytes

	Timeout time.Duration // per-document wall clock limit; 0 = no limit
}

// Extractor picks a strategy based on file extension.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = constants.MaxDocumentBytes
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Extract validates the file and dispatches by extension.
func (e *Extractor) Extract(ctx context.Context, path string) (TextResult, error) {
	start := time.Now()

	st, err := os.Stat(path)
	if os.IsNotExist(err) {
		return TextResult{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return TextResult{}, fmt.Errorf("%w: stat %s: %v", ErrExtractionFailed, path, err)
	}
	if st.Size() == 0 {
		return TextResult{}, fmt.Errorf("%w: %s", ErrEmpty, path)
	}
	if st.Size() > e.cfg.MaxBytes {
		return TextResult{}, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, st.Size(), e.cfg.MaxBytes)
	}

	// The deadline bounds every external tool invocation for this document,
	// so a hung pdftotext or tesseract cannot wedge the worker.
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	ext := constants.NormalizeExt(filepath.Ext(path))
	format := constants.MapExtToFormat(ext)
	e.logger.Debug("starting text extraction", "path", path, "ext", ext, "format", format)

	var res TextResult
	switch format {
	case constants.PDF:
		res, err = e.extractPDF(ctx, path)
	case constants.IMAGE:
		res, err = e.extractImage(ctx, path)
	case constants.HTML:
		res, err = e.extractHTML(path)
	case constants.TXT:
		res, err = e.extractTxt(path)
	default:
		e.logger.Warn("unsupported extension", "extension", ext, "path", path)
		return TextResult{}, fmt.Errorf("%w: unsupported extension %q", ErrExtractionFailed, ext)
	}
	res.Duration = time.Since(start)
	return res, err
}
