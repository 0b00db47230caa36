package docx

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

const MethodParagraphs = "docx_text"

var wordNamespaces = map[string]bool{
	"http://schemas.openxmlformats.org/wordprocessingml/2006/main": true,
	"http://purl.oclc.org/ooxml/wordprocessingml/main":             true,
}

// Paragraphs joins the text of the top-level body paragraphs of the main
// document part. Tables, text boxes and other nested content are skipped.
type Paragraphs struct {
	logger *slog.Logger
}

func NewParagraphs(logger *slog.Logger) *Paragraphs {
	if logger == nil {
		logger = slog.Default()
	}
	return &Paragraphs{logger: logger}
}

func (p *Paragraphs) Extract(ctx context.Context, payload []byte) domain.Extraction {
	extraction, _ := p.Try(ctx, payload)
	return extraction
}

// Try is Extract that also reports whether the document part could be read,
// so callers can tell a broken archive from a document with no text.
func (p *Paragraphs) Try(ctx context.Context, payload []byte) (domain.Extraction, error) {
	text, err := p.extract(payload)
	if err != nil {
		p.logger.WarnContext(ctx, "docx_paragraphs_failed", "error", err)
		return domain.NewExtraction("", MethodParagraphs), err
	}
	return domain.NewExtraction(text, MethodParagraphs), nil
}

func (p *Paragraphs) extract(payload []byte) (string, error) {
	arc, err := openArchive(payload)
	if err != nil {
		return "", err
	}
	rc, err := arc.open(documentPart)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	paragraphs, err := readParagraphs(io.LimitReader(rc, maxPartSize))
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", documentPart, err)
	}
	return strings.Join(paragraphs, "\n"), nil
}

// readParagraphs collects the w:p children of w:body in document order. Text
// comes from w:t in the paragraph's runs, including runs wrapped in a
// hyperlink; w:tab and w:br/w:cr in those runs map to tab and newline.
func readParagraphs(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)

	// stack holds local names of open elements; "" marks a foreign namespace.
	var (
		paragraphs []string
		current    strings.Builder
		stack      []string
		inText     bool
	)

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := ""
			if wordNamespaces[t.Name.Space] {
				name = t.Name.Local
			}
			switch name {
			case "p":
				if parentIs(stack, "body") {
					current.Reset()
				}
			case "t":
				inText = inBodyRun(stack)
			case "tab":
				if inBodyRun(stack) {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if inBodyRun(stack) {
					current.WriteByte('\n')
				}
			}
			stack = append(stack, name)

		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			name := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			switch name {
			case "p":
				if parentIs(stack, "body") {
					paragraphs = append(paragraphs, current.String())
				}
			case "t":
				inText = false
			}

		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	return paragraphs, nil
}

func parentIs(stack []string, name string) bool {
	return len(stack) > 0 && stack[len(stack)-1] == name
}

// inBodyRun reports whether the innermost open element is a run of a
// top-level body paragraph, directly or through a w:hyperlink.
func inBodyRun(stack []string) bool {
	n := len(stack)
	if n < 3 || stack[n-1] != "r" {
		return false
	}
	i := n - 2
	if stack[i] == "hyperlink" {
		i--
	}
	return i >= 1 && stack[i] == "p" && stack[i-1] == "body"
}
