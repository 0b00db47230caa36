package ports

import (
	"context"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

// DocumentClassifier is the inbound contract for single-file classification.
// A nil file means the request carried none. Failures are *domain.Error values
// (or wrap one) carrying the client message.
type DocumentClassifier interface {
	Classify(ctx context.Context, file *domain.UploadedFile) (*domain.ClassificationOutcome, error)
}

// ReadinessProbe reports whether the classification model can serve requests.
type ReadinessProbe interface {
	IsReady() bool
	Refresh(ctx context.Context) bool
}
