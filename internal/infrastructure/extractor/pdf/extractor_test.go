package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/core/ports"
)

type fakeRasterizer struct {
	openErr error
	err     error
	opens   int
	closes  int
	pages   []int
}

func (f *fakeRasterizer) Open(context.Context, []byte) (ports.PageRenderer, error) {
	f.opens++
	if f.openErr != nil {
		return nil, f.openErr
	}
	return fakeRenderer{f}, nil
}

type fakeRenderer struct {
	f *fakeRasterizer
}

func (r fakeRenderer) Rasterize(_ context.Context, page int) ([]byte, error) {
	r.f.pages = append(r.f.pages, page)
	if r.f.err != nil {
		return nil, r.f.err
	}
	return []byte(fmt.Sprintf("raster-%d", page)), nil
}

func (r fakeRenderer) Close() error {
	r.f.closes++
	return nil
}

type fakeOCR struct {
	results map[string]string
}

func (f *fakeOCR) Recognize(_ context.Context, image []byte) string {
	return f.results[string(image)]
}

func textPage(s string) string {
	return fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", s)
}

// scannedPage draws without any text operators.
const scannedPage = "0 0 m 100 100 l S"

type stream struct {
	dict string
	data string
}

// buildPDF writes a minimal single-font PDF with one content stream per page.
func buildPDF(pages ...string) []byte {
	streams := make([]stream, len(pages))
	for i, content := range pages {
		streams[i] = stream{data: content}
	}
	return buildPDFStreams(streams...)
}

func buildPDFStreams(pages ...stream) []byte {
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
	}
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objs = append(objs,
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
	for i, content := range pages {
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d %s>>\nstream\n%s\nendstream", len(content.data), content.dict, content.data),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, obj := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func TestExtractNativeTextLayerInPageOrder(t *testing.T) {
	rasterizer := &fakeRasterizer{}
	e := NewExtractor(rasterizer, &fakeOCR{}, nil)

	got := e.Extract(context.Background(), buildPDF(textPage("Invoice 1023"), textPage("Total Due 450")))
	if got.Status != domain.ExtractionFound {
		t.Fatalf("expected text, got %+v", got)
	}
	first := strings.Index(got.Text, "Invoice 1023")
	second := strings.Index(got.Text, "Total Due 450")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("expected both pages in order, got %q", got.Text)
	}
	if got.Method != MethodTextLayer {
		t.Fatalf("unexpected method %q", got.Method)
	}
	if len(rasterizer.pages) != 0 || rasterizer.opens != 0 {
		t.Fatalf("no page should be rasterised, got %v", rasterizer.pages)
	}
}

func TestExtractFallsBackToOCRPerPage(t *testing.T) {
	rasterizer := &fakeRasterizer{}
	ocr := &fakeOCR{results: map[string]string{"raster-2": "  DRIVER LICENSE  "}}
	e := NewExtractor(rasterizer, ocr, nil)

	got := e.Extract(context.Background(), buildPDF(textPage("State of Ohio"), scannedPage, textPage("Class D")))
	if len(rasterizer.pages) != 1 || rasterizer.pages[0] != 2 {
		t.Fatalf("expected only page 2 rasterised, got %v", rasterizer.pages)
	}
	ohio := strings.Index(got.Text, "State of Ohio")
	license := strings.Index(got.Text, "DRIVER LICENSE")
	class := strings.Index(got.Text, "Class D")
	if ohio < 0 || license < 0 || class < 0 || !(ohio < license && license < class) {
		t.Fatalf("expected OCR text merged in page order, got %q", got.Text)
	}
	if got.Method != MethodMixed {
		t.Fatalf("unexpected method %q", got.Method)
	}
}

func TestExtractScannedOnly(t *testing.T) {
	ocr := &fakeOCR{results: map[string]string{"raster-1": "PASSPORT"}}
	got := NewExtractor(&fakeRasterizer{}, ocr, nil).Extract(context.Background(), buildPDF(scannedPage))
	if got.Text != "PASSPORT" || got.Method != MethodOCR {
		t.Fatalf("unexpected extraction %+v", got)
	}
}

func TestExtractRasterizeFailureIsSoft(t *testing.T) {
	rasterizer := &fakeRasterizer{err: errors.New("pdftoppm missing")}
	got := NewExtractor(rasterizer, &fakeOCR{}, nil).Extract(context.Background(), buildPDF(scannedPage, textPage("Agreement")))
	if !strings.Contains(got.Text, "Agreement") {
		t.Fatalf("expected remaining page text, got %q", got.Text)
	}
}

func TestExtractUnreadableDocumentIsEmpty(t *testing.T) {
	rasterizer := &fakeRasterizer{}
	for _, payload := range [][]byte{nil, []byte("not a pdf"), []byte("%PDF-1.4\ngarbage")} {
		got := NewExtractor(rasterizer, &fakeOCR{}, nil).Extract(context.Background(), payload)
		if got.Status != domain.ExtractionEmpty {
			t.Fatalf("expected empty extraction for %q, got %+v", payload, got)
		}
	}
	if len(rasterizer.pages) != 0 || rasterizer.opens != 0 {
		t.Fatalf("unreadable documents must not be rasterised")
	}
}

func TestExtractOpensDocumentOncePerExtraction(t *testing.T) {
	rasterizer := &fakeRasterizer{}
	ocr := &fakeOCR{results: map[string]string{"raster-1": "PAGE ONE", "raster-3": "PAGE THREE"}}

	got := NewExtractor(rasterizer, ocr, nil).Extract(context.Background(), buildPDF(scannedPage, textPage("Middle"), scannedPage))
	if got.Text != "PAGE ONE\nMiddle\nPAGE THREE" {
		t.Fatalf("unexpected text %q", got.Text)
	}
	if rasterizer.opens != 1 || rasterizer.closes != 1 {
		t.Fatalf("expected one open and one close, got %d and %d", rasterizer.opens, rasterizer.closes)
	}
	if len(rasterizer.pages) != 2 || rasterizer.pages[0] != 1 || rasterizer.pages[1] != 3 {
		t.Fatalf("expected pages 1 and 3 rasterised, got %v", rasterizer.pages)
	}
}

func TestExtractOpenFailureSkipsOCR(t *testing.T) {
	rasterizer := &fakeRasterizer{openErr: errors.New("disk full")}
	got := NewExtractor(rasterizer, &fakeOCR{}, nil).Extract(context.Background(), buildPDF(scannedPage, textPage("Lease"), scannedPage))
	if got.Text != "Lease" || got.Method != MethodTextLayer {
		t.Fatalf("unexpected extraction %+v", got)
	}
	if rasterizer.opens != 1 || rasterizer.closes != 0 {
		t.Fatalf("expected a single failed open, got %d opens and %d closes", rasterizer.opens, rasterizer.closes)
	}
}

func TestExtractSkipsBrokenPageKeepsOthersInOrder(t *testing.T) {
	rasterizer := &fakeRasterizer{}
	payload := buildPDFStreams(
		stream{data: textPage("Page one")},
		stream{dict: "/Filter /FlateDecode ", data: "this is not deflate data"},
		stream{data: textPage("Page three")},
	)

	got := NewExtractor(rasterizer, &fakeOCR{}, nil).Extract(context.Background(), payload)
	if got.Text != "Page one\nPage three" {
		t.Fatalf("expected surviving pages joined in order, got %q", got.Text)
	}
	if got.Method != MethodTextLayer {
		t.Fatalf("unexpected method %q", got.Method)
	}
	if rasterizer.opens != 0 {
		t.Fatalf("a page that fails to read must not be rasterised")
	}
}
