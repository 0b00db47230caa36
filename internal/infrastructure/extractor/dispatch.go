package extractor

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/core/ports"
	"github.com/kirillkom/document-classifier/internal/infrastructure/extractor/docx"
	"github.com/kirillkom/document-classifier/internal/infrastructure/extractor/pdf"
	"github.com/kirillkom/document-classifier/internal/infrastructure/extractor/plaintext"
)

// Dispatcher routes a payload to the strategy registered for its extension.
type Dispatcher struct {
	strategies map[string]Strategy
	logger     *slog.Logger
}

func NewDispatcher(strategies map[string]Strategy, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	table := make(map[string]Strategy, len(strategies))
	for ext, strategy := range strategies {
		table[strings.ToLower(ext)] = strategy
	}
	return &Dispatcher{strategies: table, logger: logger}
}

// New wires the default strategy table: plain text, PDF with per-page OCR
// fallback, DOCX paragraphs falling back to embedded images, and images.
func New(ocr ports.ImageOCR, rasterizer ports.PageRasterizer, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	image := imageStrategy{ocr: ocr}
	word := Chain{
		docx.NewParagraphs(logger),
		docx.NewEmbeddedImages(ocr, logger),
	}
	return NewDispatcher(map[string]Strategy{
		domain.ExtTXT:  plaintext.NewExtractor(logger),
		domain.ExtPDF:  pdf.NewExtractor(rasterizer, ocr, logger),
		domain.ExtDOCX: word,
		domain.ExtPNG:  image,
		domain.ExtJPG:  image,
		domain.ExtJPEG: image,
	}, logger)
}

func (d *Dispatcher) Extract(ctx context.Context, ext string, payload []byte) domain.Extraction {
	strategy, ok := d.strategies[strings.ToLower(ext)]
	if !ok {
		d.logger.WarnContext(ctx, "extraction_unsupported", "ext", ext)
		return domain.UnsupportedExtraction()
	}
	return strategy.Extract(ctx, payload)
}
