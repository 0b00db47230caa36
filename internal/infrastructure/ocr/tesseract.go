package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kirillkom/document-classifier/internal/infrastructure/command"
)

type TesseractConfig struct {
	Binary      string
	Language    string
	PSM         int
	OEM         int
	TessdataDir string
}

// Tesseract reads a PNG from stdin and writes recognised text to stdout.
type Tesseract struct {
	cfg    TesseractConfig
	runner command.Runner
}

func NewTesseract(cfg TesseractConfig, runner command.Runner) *Tesseract {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = "tesseract"
	}
	if strings.TrimSpace(cfg.Language) == "" {
		cfg.Language = "eng"
	}
	return &Tesseract{cfg: cfg, runner: runner}
}

func (t *Tesseract) Recognize(ctx context.Context, png []byte) (string, error) {
	out, err := t.runner.Run(ctx, png, t.cfg.Binary, t.args()...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (t *Tesseract) args() []string {
	args := []string{"stdin", "stdout", "-l", t.cfg.Language}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.cfg.PSM))
	}
	if t.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(t.cfg.OEM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	return args
}
