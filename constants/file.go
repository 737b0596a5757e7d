package constants

import "strings"

// Document formats accepted for extraction.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

// FileTypes holds the allowed values for a document's format.
var FileTypes = []string{PDF, IMAGE}

// AllowedExtensions holds the file extensions accepted on upload.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// IsAllowedExt reports whether ext (with or without a leading dot) may be uploaded.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// MapExtToFormat returns PDF or IMAGE for an allowed extension, "" otherwise.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "png", "jpg", "jpeg":
		return IMAGE
	default:
		return ""
	}
}

// ExtFromFilename returns the normalized extension after the last dot of name.
func ExtFromFilename(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return NormalizeExt(name[i+1:])
}
