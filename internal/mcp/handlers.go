package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hpungsan/mimic/internal/errors"
	"github.com/hpungsan/mimic/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	deps   Deps
	logger *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps Deps, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{deps: deps, logger: logger}
}

// StoreRequest represents the arguments for message_store.
type StoreRequest struct {
	UserID  string  `json:"user_id"`
	Message string  `json:"message"`
	TS      *string `json:"ts,omitempty"`
}

// ImportRequest represents the arguments for message_import.
type ImportRequest struct {
	Path string `json:"path"`
}

// GenerateRequest represents the arguments for mimic_generate.
type GenerateRequest struct {
	UserID string `json:"user_id,omitempty"`
	All    bool   `json:"all,omitempty"`
	Before string `json:"before,omitempty"`
	After  string `json:"after,omitempty"`
	Author string `json:"author,omitempty"`
}

// HaikuRequest represents the arguments for mimic_haiku.
type HaikuRequest struct {
	Text   string `json:"text"`
	Author string `json:"author,omitempty"`
	Year   int    `json:"year,omitempty"`
}

// HandleStore handles the message_store tool call.
func (h *Handlers) HandleStore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[StoreRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Store(ctx, h.deps.DB, ops.StoreInput{
		AuthorID: input.UserID,
		Text:     input.Message,
		TS:       input.TS,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleImport handles the message_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Import(ctx, h.deps.DB, ops.ImportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}
	if result.Imported > 0 && h.deps.Models != nil {
		h.deps.Models.Reset()
		h.logger.Info("model cache reset after import", zap.Int("imported", result.Imported))
	}

	return successResult(result)
}

// HandleAuthors handles the message_authors tool call.
func (h *Handlers) HandleAuthors(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Authors(ctx, h.deps.DB)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleGenerate handles the mimic_generate tool call.
func (h *Handlers) HandleGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GenerateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Generate(ctx, h.deps.Generator, ops.GenerateInput{
		AuthorID: input.UserID,
		All:      input.All,
		Before:   input.Before,
		After:    input.After,
		Author:   input.Author,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleHaiku handles the mimic_haiku tool call.
func (h *Handlers) HandleHaiku(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HaikuRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Haiku(ops.HaikuInput{Text: input.Text, Author: input.Author, Year: input.Year})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// errorResult converts an error to an MCP error result.
// Wrapping context (e.g. "import: ") is kept in the message.
func errorResult(err error) *mcp.CallToolResult {
	mErr := errors.As(err)

	message := mErr.Message
	if mErr.Code != errors.ErrInternal {
		if prefix := strings.TrimSuffix(err.Error(), mErr.Error()); prefix != err.Error() {
			message = prefix + message
		}
	}

	errorObj := map[string]any{
		"code":    mErr.Code,
		"message": message,
		"status":  mErr.Status,
	}
	// Only include details for non-internal errors to avoid leaking
	// sensitive info like file paths or SQL errors
	if mErr.Code != errors.ErrInternal && len(mErr.Details) > 0 {
		errorObj["details"] = mErr.Details
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult converts data to an MCP success result.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
