package mcpadapter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/core/ports"
)

const ToolClassifyDocument = "classify_document"

// NewServer exposes the classification pipeline as a single MCP tool.
func NewServer(name, version string, classifier ports.DocumentClassifier) *server.MCPServer {
	s := server.NewMCPServer(name, version, server.WithToolCapabilities(false))
	s.AddTool(classifyDocumentTool(), ClassifyDocumentHandler(classifier))
	return s
}

func classifyDocumentTool() mcp.Tool {
	return mcp.NewTool(ToolClassifyDocument,
		mcp.WithDescription("Extract text from a document (pdf, png, jpg, jpeg, docx, txt) and classify it as invoice, driving_license, contract or passport."),
		mcp.WithString("filename",
			mcp.Required(),
			mcp.Description("Original file name; the extension selects the extraction strategy."),
		),
		mcp.WithString("mime_type",
			mcp.Required(),
			mcp.Description("Declared media type; must match the extension exactly."),
		),
		mcp.WithString("content_base64",
			mcp.Required(),
			mcp.Description("File bytes, standard base64."),
		),
	)
}

func ClassifyDocumentHandler(classifier ports.DocumentClassifier) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filename := req.GetString("filename", "")
		mimeType := req.GetString("mime_type", "")
		content, err := req.RequireString("content_base64")
		if err != nil {
			return mcp.NewToolResultError("No file provided"), nil
		}
		payload, err := base64.StdEncoding.DecodeString(strings.TrimSpace(content))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("content_base64 is not valid base64: %v", err)), nil
		}

		outcome, err := classifier.Classify(ctx, &domain.UploadedFile{
			Filename: filename,
			MimeType: mimeType,
			Payload:  payload,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s: %s", domain.KindOf(err), domain.ClientMessage(err))), nil
		}

		out, err := json.Marshal(outcome)
		if err != nil {
			return nil, fmt.Errorf("marshal outcome: %w", err)
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}
