package usecase

import (
	"strings"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

const (
	msgMissingFile          = "No file provided"
	msgEmptyFilename        = "Empty filename"
	msgModelUnavailable     = "Model or tokenizer is not loaded properly. Ensure the model name is correct or try again later."
	msgEmptyExtraction      = "Text extraction result is empty"
	msgClassificationFailed = "Unable to classify document."
)

func ValidateModelState(model interface{ IsReady() bool }) error {
	if model == nil || !model.IsReady() {
		return domain.NewError(domain.ErrModelUnavailable, msgModelUnavailable)
	}
	return nil
}

func ValidateUpload(file *domain.UploadedFile) error {
	if file == nil {
		return domain.NewError(domain.ErrMissingFile, msgMissingFile)
	}
	// Only a missing name is empty; whitespace names fail later as unsupported.
	if file.Filename == "" {
		return domain.NewError(domain.ErrEmptyFilename, msgEmptyFilename)
	}
	return nil
}

func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return domain.NewError(domain.ErrEmptyExtraction, msgEmptyExtraction)
	}
	return nil
}
