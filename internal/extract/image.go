package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/bookkeeper-io/bookkeeper/constants"
)

func (e *Extractor) extractImage(ctx context.Context, path string) (TextResult, error) {
	txt, warns, err := e.tesseractOCR(ctx, path)
	if err != nil {
		return TextResult{Format: constants.IMAGE, Warnings: warns},
			fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	return TextResult{
		Text:     strings.TrimSpace(txt),
		Pages:    1,
		Format:   constants.IMAGE,
		Method:   "image-ocr",
		Warnings: warns,
	}, nil
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, path, "stdout", "-l", e.cfg.TesseractLang)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil, nil
}
