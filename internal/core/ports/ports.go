package ports

import (
	"time"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

// PipelineObserver receives per-stage outcomes for metrics.
type PipelineObserver interface {
	ObserveExtraction(ext string, extraction domain.Extraction, duration time.Duration)
	ObserveClassification(result domain.Classification, duration time.Duration)
	ObserveFailure(kind domain.ErrorKind)
}

type NopObserver struct{}

func (NopObserver) ObserveExtraction(string, domain.Extraction, time.Duration) {}
func (NopObserver) ObserveClassification(domain.Classification, time.Duration) {}
func (NopObserver) ObserveFailure(domain.ErrorKind)                            {}
