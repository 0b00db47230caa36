package pdf

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/core/ports"
)

const (
	MethodTextLayer = "pdf_text"
	MethodOCR       = "pdf_ocr"
	MethodMixed     = "pdf_mixed"
)

// Extractor reads the native text layer page by page and rasterises pages
// without one for OCR. A page that cannot be read contributes nothing.
type Extractor struct {
	rasterizer ports.PageRasterizer
	ocr        ports.ImageOCR
	logger     *slog.Logger
}

func NewExtractor(rasterizer ports.PageRasterizer, ocr ports.ImageOCR, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{rasterizer: rasterizer, ocr: ocr, logger: logger}
}

func (e *Extractor) Extract(ctx context.Context, payload []byte) domain.Extraction {
	reader, pages, err := open(payload)
	if err != nil {
		e.logger.WarnContext(ctx, "pdf_open_failed", "bytes", len(payload), "error", err)
		return domain.NewExtraction("", MethodTextLayer)
	}

	images := &pageImages{e: e, payload: payload}
	defer images.close(ctx)

	var (
		parts  []string
		native int
		ocred  int
	)
	for page := 1; page <= pages; page++ {
		if ctx.Err() != nil {
			e.logger.WarnContext(ctx, "pdf_extraction_interrupted", "page", page, "error", ctx.Err())
			break
		}

		text, err := pageText(reader, page)
		if err != nil {
			e.logger.WarnContext(ctx, "pdf_page_skipped", "page", page, "error", err)
			continue
		}
		if text != "" {
			parts = append(parts, text)
			native++
			continue
		}

		if text := images.recognize(ctx, page); text != "" {
			parts = append(parts, text)
			ocred++
		}
	}

	return domain.NewExtraction(strings.Join(parts, "\n"), method(native, ocred))
}

// pageImages opens the document for rendering on the first page that needs
// OCR and reuses it for the rest.
type pageImages struct {
	e        *Extractor
	payload  []byte
	renderer ports.PageRenderer
	failed   bool
}

func (p *pageImages) recognize(ctx context.Context, page int) string {
	if p.e.rasterizer == nil || p.e.ocr == nil || p.failed {
		return ""
	}
	if p.renderer == nil {
		renderer, err := p.e.rasterizer.Open(ctx, p.payload)
		if err != nil {
			p.failed = true
			p.e.logger.WarnContext(ctx, "pdf_rasterize_failed", "page", page, "error", err)
			return ""
		}
		p.renderer = renderer
	}

	raster, err := p.renderer.Rasterize(ctx, page)
	if err != nil {
		p.e.logger.WarnContext(ctx, "pdf_rasterize_failed", "page", page, "error", err)
		return ""
	}
	return strings.TrimSpace(p.e.ocr.Recognize(ctx, raster))
}

func (p *pageImages) close(ctx context.Context) {
	if p.renderer == nil {
		return
	}
	if err := p.renderer.Close(); err != nil {
		p.e.logger.WarnContext(ctx, "pdf_render_cleanup_failed", "error", err)
	}
}

func open(payload []byte) (reader *lpdf.Reader, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			reader, pages, err = nil, 0, fmt.Errorf("open pdf: %v", r)
		}
	}()

	reader, err = lpdf.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, 0, fmt.Errorf("open pdf: %w", err)
	}
	return reader, reader.NumPage(), nil
}

// pageText returns the trimmed text layer of a 1-based page.
func pageText(reader *lpdf.Reader, page int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("read page: %v", r)
		}
	}()

	p := reader.Page(page)
	if p.V.IsNull() {
		return "", fmt.Errorf("page object missing")
	}
	text, err = p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("read page text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func method(native, ocred int) string {
	switch {
	case ocred == 0:
		return MethodTextLayer
	case native == 0:
		return MethodOCR
	default:
		return MethodMixed
	}
}
