package plaintext

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

const Method = "plaintext"

type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract decodes payload as UTF-8. Invalid encodings yield an empty result.
func (e *Extractor) Extract(ctx context.Context, payload []byte) domain.Extraction {
	if !utf8.Valid(payload) {
		e.logger.WarnContext(ctx, "plaintext_invalid_utf8", "bytes", len(payload))
		return domain.NewExtraction("", Method)
	}
	return domain.NewExtraction(string(payload), Method)
}
