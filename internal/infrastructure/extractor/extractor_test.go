package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/core/ports"
)

type fakeOCR struct {
	text  string
	calls int
}

func (f *fakeOCR) Recognize(context.Context, []byte) string {
	f.calls++
	return f.text
}

type fakeRasterizer struct{}

func (fakeRasterizer) Open(context.Context, []byte) (ports.PageRenderer, error) {
	return fakeRenderer{}, nil
}

type fakeRenderer struct{}

func (fakeRenderer) Rasterize(context.Context, int) ([]byte, error) { return []byte("png"), nil }

func (fakeRenderer) Close() error { return nil }

func fixed(text, method string) Step {
	return StepFunc(func(context.Context, []byte) (domain.Extraction, error) {
		return domain.NewExtraction(text, method), nil
	})
}

func unreadable(method string) Step {
	return StepFunc(func(context.Context, []byte) (domain.Extraction, error) {
		return domain.NewExtraction("", method), errors.New("truncated archive")
	})
}

const (
	wordML     = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`
	scanRels   = `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/scan.png"/></Relationships>`
	relsPart   = "word/_rels/document.xml.rels"
	docPart    = "word/document.xml"
	scanPart   = "word/media/scan.png"
	scanPixels = "scan"
)

func buildDocx(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range parts {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		_, _ = fw.Write([]byte(content))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestChainReturnsFirstNonEmpty(t *testing.T) {
	chain := Chain{fixed("", "first"), fixed("second text", "second"), fixed("third text", "third")}
	got := chain.Extract(context.Background(), nil)
	if got.Text != "second text" || got.Method != "second" {
		t.Fatalf("unexpected extraction %+v", got)
	}
}

func TestChainAllEmpty(t *testing.T) {
	got := Chain{fixed("", "first"), fixed(" ", "second")}.Extract(context.Background(), nil)
	if got.Status != domain.ExtractionEmpty || got.Method != "second" {
		t.Fatalf("unexpected extraction %+v", got)
	}
	if got := (Chain{}).Extract(context.Background(), nil); got.Status != domain.ExtractionEmpty {
		t.Fatalf("empty chain must yield empty extraction, got %+v", got)
	}
}

func TestChainStopsOnUnreadablePayload(t *testing.T) {
	got := Chain{unreadable("first"), fixed("second text", "second")}.Extract(context.Background(), nil)
	if got.Status != domain.ExtractionEmpty || got.Method != "first" {
		t.Fatalf("expected chain to stop with empty text, got %+v", got)
	}
}

func TestDispatcherUnknownExtensionIsUnsupported(t *testing.T) {
	d := New(&fakeOCR{}, fakeRasterizer{}, nil)
	for _, ext := range []string{"gif", "xlsx", ""} {
		if got := d.Extract(context.Background(), ext, []byte("x")); got.Status != domain.ExtractionUnsupported {
			t.Fatalf("expected unsupported for %q, got %+v", ext, got)
		}
	}
}

func TestDispatcherRoutesByExtension(t *testing.T) {
	ocr := &fakeOCR{text: "INVOICE"}
	d := New(ocr, fakeRasterizer{}, nil)

	if got := d.Extract(context.Background(), "TXT", []byte(" hello ")); got.Text != "hello" {
		t.Fatalf("unexpected txt extraction %+v", got)
	}
	for _, ext := range []string{"png", "jpg", "jpeg"} {
		got := d.Extract(context.Background(), ext, []byte("image"))
		if got.Text != "INVOICE" || got.Method != MethodImageOCR {
			t.Fatalf("unexpected %s extraction %+v", ext, got)
		}
	}
	if ocr.calls != 3 {
		t.Fatalf("expected 3 OCR calls, got %d", ocr.calls)
	}
}

func TestDispatcherDocxFallsBackToImages(t *testing.T) {
	payload := buildDocx(t, map[string]string{
		docPart:  `<w:document ` + wordML + `><w:body><w:p><w:r><w:t>  </w:t></w:r></w:p></w:body></w:document>`,
		relsPart: scanRels,
		scanPart: scanPixels,
	})

	ocr := &fakeOCR{text: "Scanned contract"}
	got := New(ocr, fakeRasterizer{}, nil).Extract(context.Background(), "docx", payload)
	if got.Text != "Scanned contract" || got.Method != "docx_ocr" {
		t.Fatalf("unexpected extraction %+v", got)
	}
}

func TestDispatcherDocxTableOnlyFallsBackToImages(t *testing.T) {
	payload := buildDocx(t, map[string]string{
		docPart:  `<w:document ` + wordML + `><w:body><w:tbl><w:tr><w:tc><w:p><w:r><w:t>Cell text</w:t></w:r></w:p></w:tc></w:tr></w:tbl></w:body></w:document>`,
		relsPart: scanRels,
		scanPart: scanPixels,
	})

	ocr := &fakeOCR{text: "Scanned form"}
	got := New(ocr, fakeRasterizer{}, nil).Extract(context.Background(), "docx", payload)
	if got.Text != "Scanned form" || got.Method != "docx_ocr" {
		t.Fatalf("expected table-only document to use image OCR, got %+v", got)
	}
}

func TestDispatcherDocxBrokenDocumentSkipsImages(t *testing.T) {
	payload := buildDocx(t, map[string]string{
		docPart:  `<w:document ` + wordML + `><w:body><w:p><w:r><w:t>Lease agr`,
		relsPart: scanRels,
		scanPart: scanPixels,
	})

	ocr := &fakeOCR{text: "Scanned contract"}
	got := New(ocr, fakeRasterizer{}, nil).Extract(context.Background(), "docx", payload)
	if got.Status != domain.ExtractionEmpty || got.Text != "" {
		t.Fatalf("expected empty extraction for broken document part, got %+v", got)
	}
	if ocr.calls != 0 {
		t.Fatalf("image OCR must not run when the document part is unreadable, got %d calls", ocr.calls)
	}
}

func TestDispatcherDocxParagraphsSkipOCR(t *testing.T) {
	payload := buildDocx(t, map[string]string{
		docPart: `<w:document ` + wordML + `><w:body><w:p><w:r><w:t>Lease agreement</w:t></w:r></w:p></w:body></w:document>`,
	})

	ocr := &fakeOCR{text: "should not be used"}
	got := New(ocr, fakeRasterizer{}, nil).Extract(context.Background(), "docx", payload)
	if got.Text != "Lease agreement" {
		t.Fatalf("unexpected extraction %+v", got)
	}
	if ocr.calls != 0 {
		t.Fatalf("OCR must not run when paragraphs have text")
	}
}
