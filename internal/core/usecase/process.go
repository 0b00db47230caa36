package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/core/ports"
)

type ClassifyDocumentUseCase struct {
	model      ports.ModelProvider
	extractor  ports.TextExtractor
	classifier ports.TextClassifier
	observer   ports.PipelineObserver
	logger     *slog.Logger
}

func NewClassifyDocumentUseCase(
	model ports.ModelProvider,
	extractor ports.TextExtractor,
	classifier ports.TextClassifier,
	observer ports.PipelineObserver,
	logger *slog.Logger,
) *ClassifyDocumentUseCase {
	if observer == nil {
		observer = ports.NopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ClassifyDocumentUseCase{
		model:      model,
		extractor:  extractor,
		classifier: classifier,
		observer:   observer,
		logger:     logger,
	}
}

func (uc *ClassifyDocumentUseCase) Classify(ctx context.Context, file *domain.UploadedFile) (*domain.ClassificationOutcome, error) {
	outcome, err := uc.processPipeline(ctx, file)
	if err != nil {
		kind := domain.KindOf(err)
		uc.observer.ObserveFailure(kind)
		uc.logger.WarnContext(ctx, "classification_rejected", "kind", kind, "error", err)
		return nil, err
	}
	return outcome, nil
}

func (uc *ClassifyDocumentUseCase) processPipeline(ctx context.Context, file *domain.UploadedFile) (*domain.ClassificationOutcome, error) {
	if err := ValidateModelState(uc.model); err != nil {
		return nil, err
	}
	if err := ValidateUpload(file); err != nil {
		return nil, err
	}

	ext, err := SniffFormat(file.Filename, file.MimeType)
	if err != nil {
		return nil, err
	}

	text, err := uc.extractText(ctx, ext, file.Payload)
	if err != nil {
		return nil, err
	}

	classification, err := uc.classify(ctx, text)
	if err != nil {
		return nil, err
	}

	return &domain.ClassificationOutcome{
		Label:      classification.Label,
		Confidence: classification.Confidence,
		Text:       text,
	}, nil
}

func (uc *ClassifyDocumentUseCase) extractText(ctx context.Context, ext string, payload []byte) (string, error) {
	start := time.Now()
	extraction := uc.extractor.Extract(ctx, ext, payload)
	uc.observer.ObserveExtraction(ext, extraction, time.Since(start))

	uc.logger.DebugContext(ctx, "text_extracted",
		"ext", ext,
		"status", extraction.Status.String(),
		"method", extraction.Method,
		"chars", len(extraction.Text),
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)

	if extraction.Status == domain.ExtractionUnsupported {
		return "", domain.NewError(domain.ErrUnsupportedFormat, fmt.Sprintf("Unsupported file type: .%s", ext))
	}
	if err := ValidateText(extraction.Text); err != nil {
		return "", err
	}
	return extraction.Text, nil
}

func (uc *ClassifyDocumentUseCase) classify(ctx context.Context, text string) (domain.Classification, error) {
	start := time.Now()
	classification, err := uc.classifier.Classify(ctx, text)
	if err != nil {
		return domain.Classification{}, fmt.Errorf("classify document: %w", err)
	}
	if classification == nil || classification.Label == "" {
		return domain.Classification{}, domain.NewError(domain.ErrClassificationFailed, msgClassificationFailed)
	}

	uc.observer.ObserveClassification(*classification, time.Since(start))
	return *classification, nil
}
