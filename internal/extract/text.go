package extract

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/bookkeeper-io/bookkeeper/constants"
)

func (e *Extractor) extractTxt(path string) (TextResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return TextResult{Format: constants.TXT}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	text := string(raw)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	return TextResult{
		Text:   strings.TrimSpace(text),
		Pages:  1,
		Format: constants.TXT,
		Method: "txt",
	}, nil
}
