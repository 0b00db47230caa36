package mcpadapter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

type classifierFake struct {
	outcome *domain.ClassificationOutcome
	err     error
	file    *domain.UploadedFile
}

func (f *classifierFake) Classify(_ context.Context, file *domain.UploadedFile) (*domain.ClassificationOutcome, error) {
	f.file = file
	if f.err != nil {
		return nil, f.err
	}
	return f.outcome, nil
}

func callTool(t *testing.T, classifier *classifierFake, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = ToolClassifyDocument
	req.Params.Arguments = args

	res, err := ClassifyDocumentHandler(classifier)(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected one content item, got %d", len(res.Content))
	}
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	default:
		t.Fatalf("unexpected content type %T", res.Content[0])
		return ""
	}
}

func TestClassifyDocumentToolReturnsOutcome(t *testing.T) {
	fake := &classifierFake{outcome: &domain.ClassificationOutcome{
		Label:      domain.LabelContract,
		Confidence: 0.88,
		Text:       "This Agreement",
	}}

	res := callTool(t, fake, map[string]any{
		"filename":       "agreement.txt",
		"mime_type":      "text/plain",
		"content_base64": base64.StdEncoding.EncodeToString([]byte("This Agreement")),
	})
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}

	var got domain.ClassificationOutcome
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if got.Label != domain.LabelContract || got.Confidence != 0.88 {
		t.Fatalf("unexpected outcome %+v", got)
	}
	if fake.file.Filename != "agreement.txt" || string(fake.file.Payload) != "This Agreement" {
		t.Fatalf("unexpected upload %+v", fake.file)
	}
}

func TestClassifyDocumentToolReportsPipelineError(t *testing.T) {
	fake := &classifierFake{err: domain.NewError(domain.ErrMimeMismatch, "MIME type doesn't match expected type for .pdf. Expected: application/pdf, got: image/png")}

	res := callTool(t, fake, map[string]any{
		"filename":       "file.pdf",
		"mime_type":      "image/png",
		"content_base64": base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")),
	})
	if !res.IsError {
		t.Fatalf("expected tool error")
	}
	if text := resultText(t, res); !strings.HasPrefix(text, "MimeMismatch: ") {
		t.Fatalf("expected kind prefix, got %q", text)
	}
}

func TestClassifyDocumentToolRejectsBadBase64(t *testing.T) {
	fake := &classifierFake{}

	res := callTool(t, fake, map[string]any{
		"filename":       "a.txt",
		"mime_type":      "text/plain",
		"content_base64": "!!not base64!!",
	})
	if !res.IsError {
		t.Fatalf("expected tool error")
	}
	if fake.file != nil {
		t.Fatalf("classifier must not run on undecodable content")
	}
}
