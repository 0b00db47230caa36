package docx

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/core/ports"
)

const MethodImages = "docx_ocr"

type relationships struct {
	Items []relationship `xml:"Relationship"`
}

type relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

// EmbeddedImages runs OCR over every image related to the main document part
// and joins the non-empty results.
type EmbeddedImages struct {
	ocr    ports.ImageOCR
	logger *slog.Logger
}

func NewEmbeddedImages(ocr ports.ImageOCR, logger *slog.Logger) *EmbeddedImages {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbeddedImages{ocr: ocr, logger: logger}
}

func (e *EmbeddedImages) Extract(ctx context.Context, payload []byte) domain.Extraction {
	extraction, _ := e.Try(ctx, payload)
	return extraction
}

func (e *EmbeddedImages) Try(ctx context.Context, payload []byte) (domain.Extraction, error) {
	arc, rels, err := readImageRelationships(payload)
	if err != nil {
		e.logger.WarnContext(ctx, "docx_images_failed", "error", err)
		return domain.NewExtraction("", MethodImages), err
	}

	var texts []string
	for _, rel := range rels {
		if ctx.Err() != nil {
			break
		}
		name := resolveTarget(rel.Target)
		image, err := arc.read(name)
		if err != nil {
			e.logger.WarnContext(ctx, "docx_image_skipped", "relationship", rel.ID, "target", rel.Target, "error", err)
			continue
		}
		if text := strings.TrimSpace(e.ocr.Recognize(ctx, image)); text != "" {
			texts = append(texts, text)
		}
	}
	return domain.NewExtraction(strings.Join(texts, "\n"), MethodImages), nil
}

func readImageRelationships(payload []byte) (*archive, []relationship, error) {
	arc, err := openArchive(payload)
	if err != nil {
		return nil, nil, err
	}
	raw, err := arc.read(relsPart)
	if err != nil {
		return nil, nil, err
	}

	var parsed relationships
	if err := xml.Unmarshal(raw, &parsed); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", relsPart, err)
	}

	images := make([]relationship, 0, len(parsed.Items))
	for _, rel := range parsed.Items {
		if !strings.Contains(rel.Type, "image") {
			continue
		}
		if strings.EqualFold(rel.TargetMode, "External") {
			continue
		}
		images = append(images, rel)
	}
	return arc, images, nil
}

// resolveTarget maps a relationship target to its archive entry name.
// Targets are relative to word/ unless absolute within the package.
func resolveTarget(target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join("word", target)
}
