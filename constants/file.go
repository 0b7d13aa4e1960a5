package constants

import "strings"

// File format identifiers for the text extraction stage.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
	HTML  = "HTML"
	TXT   = "TXT"
)

// MaxDocumentBytes caps the size of any document handed to text extraction.
const MaxDocumentBytes = 100 * 1024 * 1024

// MaxRawTextChars caps the raw_text stored on typed document records.
const MaxRawTextChars = 10000

// AllowedExtensions holds the default allowed file extensions for intake.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"tiff": {},
	"bmp":  {},
	"html": {},
	"htm":  {},
	"txt":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a normalized extension to its extraction format.
// Returns "" for unsupported extensions.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "png", "jpg", "jpeg", "tiff", "bmp":
		return IMAGE
	case "html", "htm":
		return HTML
	case "txt":
		return TXT
	default:
		return ""
	}
}
