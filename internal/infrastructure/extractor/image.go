package extractor

import (
	"context"

	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/core/ports"
)

const MethodImageOCR = "image_ocr"

type imageStrategy struct {
	ocr ports.ImageOCR
}

func (s imageStrategy) Extract(ctx context.Context, payload []byte) domain.Extraction {
	return domain.NewExtraction(s.ocr.Recognize(ctx, payload), MethodImageOCR)
}
