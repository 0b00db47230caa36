package extractor

import (
	"context"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

// Strategy extracts text from a payload of one known format.
type Strategy interface {
	Extract(ctx context.Context, payload []byte) domain.Extraction
}

// Step is one link of a Chain. A non-nil error means the payload could not
// be read at all.
type Step interface {
	Try(ctx context.Context, payload []byte) (domain.Extraction, error)
}

type StepFunc func(ctx context.Context, payload []byte) (domain.Extraction, error)

func (f StepFunc) Try(ctx context.Context, payload []byte) (domain.Extraction, error) {
	return f(ctx, payload)
}

// Chain tries steps in order and returns the first one that finds text. A
// later step runs only after the earlier ones read the payload cleanly and
// came back empty; a step error ends the chain with empty text.
type Chain []Step

func (c Chain) Extract(ctx context.Context, payload []byte) domain.Extraction {
	result := domain.NewExtraction("", "none")
	for _, step := range c {
		next, err := step.Try(ctx, payload)
		if err != nil {
			return domain.NewExtraction("", next.Method)
		}
		if next.Status == domain.ExtractionFound {
			return next
		}
		if next.Status == domain.ExtractionEmpty {
			result = next
		}
	}
	return result
}
