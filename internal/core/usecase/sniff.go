package usecase

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

// FileExtension returns the lower-cased text after the last dot.
func FileExtension(filename string) (string, bool) {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return "", false
	}
	return strings.ToLower(filename[idx+1:]), true
}

// SniffFormat checks declared metadata only; the payload is never inspected.
func SniffFormat(filename, mimeType string) (string, error) {
	ext, ok := FileExtension(filename)
	if !ok || !slices.Contains(domain.AllowedExtensions, ext) {
		return "", domain.NewError(
			domain.ErrUnsupportedFormat,
			"File type not allowed. Allowed types include: "+strings.Join(domain.AllowedExtensions, ", "),
		)
	}

	expected := domain.ExpectedMimeTypes[ext]
	if mimeType != expected {
		return "", domain.NewError(
			domain.ErrMimeMismatch,
			fmt.Sprintf("MIME type doesn't match expected type for .%s. Expected: %s, got: %s", ext, expected, mimeType),
		)
	}
	return ext, nil
}
