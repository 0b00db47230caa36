package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/core/ports"
)

type ClassifyTextUseCase struct {
	model  ports.ModelProvider
	labels []domain.Label
}

func NewClassifyTextUseCase(model ports.ModelProvider) *ClassifyTextUseCase {
	return &ClassifyTextUseCase{
		model:  model,
		labels: domain.Labels,
	}
}

// Classify returns nil, nil for empty input without touching the model.
func (uc *ClassifyTextUseCase) Classify(ctx context.Context, text string) (*domain.Classification, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	encoding, err := uc.model.Tokenize(text)
	if err != nil {
		return nil, fmt.Errorf("tokenize text: %w", err)
	}

	logits, err := uc.model.Infer(ctx, encoding)
	if err != nil {
		return nil, fmt.Errorf("model inference: %w", err)
	}
	if len(logits) != len(uc.labels) {
		return nil, domain.WrapError(
			domain.ErrClassificationFailed,
			"reduce logits",
			fmt.Errorf("got %d scores for %d labels", len(logits), len(uc.labels)),
		)
	}

	probs, err := Softmax(logits)
	if err != nil {
		return nil, domain.WrapError(domain.ErrClassificationFailed, "reduce logits", err)
	}

	best := Argmax(probs)
	return &domain.Classification{
		Label:      uc.labels[best],
		Confidence: probs[best],
	}, nil
}

// Softmax is computed in float64 with max subtraction for stability.
func Softmax(logits []float32) ([]float64, error) {
	if len(logits) == 0 {
		return nil, errors.New("empty logits")
	}

	maxLogit := math.Inf(-1)
	for _, v := range logits {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("non-finite logit %v", v)
		}
		maxLogit = math.Max(maxLogit, f)
	}

	probs := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		probs[i] = math.Exp(float64(v) - maxLogit)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs, nil
}

// Argmax keeps the first index on ties.
func Argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}
