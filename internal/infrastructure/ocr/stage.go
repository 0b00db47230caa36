package ocr

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/document-classifier/internal/core/ports"
)

const (
	OutcomeText        = "text"
	OutcomeEmpty       = "empty"
	OutcomeDecodeError = "decode_error"
	OutcomeEngineError = "engine_error"
)

type Observer interface {
	ObserveOCR(outcome string, duration time.Duration)
}

// Stage never fails: any problem along the way yields "". Each call stands
// alone, so an engine failure on one image never affects the next.
type Stage struct {
	prep     Preprocessor
	engine   ports.OCREngine
	observer Observer
	logger   *slog.Logger
}

func NewStage(prep Preprocessor, engine ports.OCREngine, observer Observer, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stage{
		prep:     prep,
		engine:   engine,
		observer: observer,
		logger:   logger,
	}
}

func (s *Stage) Recognize(ctx context.Context, image []byte) string {
	start := time.Now()
	text, outcome := s.recognize(ctx, image)
	if s.observer != nil {
		s.observer.ObserveOCR(outcome, time.Since(start))
	}
	return text
}

func (s *Stage) recognize(ctx context.Context, image []byte) (string, string) {
	png, err := s.prep.Prepare(image)
	if err != nil {
		s.logger.WarnContext(ctx, "ocr_decode_failed", "bytes", len(image), "error", err)
		return "", OutcomeDecodeError
	}

	text, err := s.engine.Recognize(ctx, png)
	if err != nil {
		s.logger.WarnContext(ctx, "ocr_failed", "error", err)
		return "", OutcomeEngineError
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", OutcomeEmpty
	}
	return text, OutcomeText
}
