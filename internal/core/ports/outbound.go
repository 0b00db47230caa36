package ports

import (
	"context"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

// TextExtractor turns an uploaded payload into text. Soft failures come back
// as domain.ExtractionEmpty; only an unknown extension is ExtractionUnsupported.
type TextExtractor interface {
	Extract(ctx context.Context, ext string, payload []byte) domain.Extraction
}

// ImageOCR recognises text in raw image bytes. It never fails: malformed
// images and engine errors yield "".
type ImageOCR interface {
	Recognize(ctx context.Context, image []byte) string
}

// OCREngine runs recognition over an already pre-processed raster.
type OCREngine interface {
	Recognize(ctx context.Context, png []byte) (string, error)
}

// PageRasterizer stages one PDF for rendering. Callers must close the
// returned PageRenderer.
type PageRasterizer interface {
	Open(ctx context.Context, pdf []byte) (PageRenderer, error)
}

// PageRenderer renders 1-based pages of an opened PDF to PNG bytes.
type PageRenderer interface {
	Rasterize(ctx context.Context, page int) ([]byte, error)
	Close() error
}

// ModelProvider is the pre-loaded tokenizer + sequence classification model.
type ModelProvider interface {
	IsReady() bool
	Tokenize(text string) (domain.Encoding, error)
	Infer(ctx context.Context, encoding domain.Encoding) ([]float32, error)
}

// TextClassifier reduces text to a label. A nil result with nil error means
// the input was degenerate and inference was skipped.
type TextClassifier interface {
	Classify(ctx context.Context, text string) (*domain.Classification, error)
}
