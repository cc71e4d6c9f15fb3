// ABOUTME: MCP tool handler implementations for the docqa server
// ABOUTME: Failures become tool errors carrying the error kind, never protocol errors
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/docqa/internal/core"
	"github.com/harper/docqa/internal/models"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	service  Service
	inflight sync.WaitGroup
}

// NewHandlers creates handlers over svc
func NewHandlers(svc Service) *Handlers {
	return &Handlers{service: svc}
}

// IngestText handles the ingest_text tool
func (h *Handlers) IngestText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.inflight.Add(1)
	defer h.inflight.Done()

	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text argument is required and must be a string"), nil
	}

	var metadata map[string]any
	if args, ok := request.Params.Arguments.(map[string]any); ok {
		if m, ok := args["metadata"].(map[string]any); ok {
			metadata = m
		}
	}

	res, err := h.service.Ingest(ctx, core.IngestRequest{
		Text:     text,
		ID:       request.GetString("id", ""),
		Metadata: metadata,
	})
	if err != nil {
		return toolError("ingest failed", err), nil
	}

	response := map[string]interface{}{
		"document_id": res.DocumentID,
		"chunks":      len(res.ChunkData),
		"characters":  len([]rune(res.ExtractedText)),
	}
	return jsonResult(response)
}

// QueryDocuments handles the query_documents tool
func (h *Handlers) QueryDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.inflight.Add(1)
	defer h.inflight.Done()

	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}

	resp, err := h.service.Query(ctx, core.QueryRequest{
		Query: query,
		K:     request.GetInt("k", 0),
		Mode:  request.GetString("response_mode", ""),
	})
	if err != nil {
		return toolError("query failed", err), nil
	}

	sources := make([]map[string]interface{}, len(resp.RetrievedChunks))
	for i, chunk := range resp.RetrievedChunks {
		sources[i] = map[string]interface{}{
			"text":  chunk,
			"score": resp.Scores[i],
		}
	}

	response := map[string]interface{}{
		"answer":          resp.Answer,
		"response_mode":   resp.Mode,
		"context_used":    resp.ContextUsed,
		"sources":         sources,
		"processing_time": resp.Elapsed.Seconds(),
	}
	return jsonResult(response)
}

// ListDocuments handles the list_documents tool
func (h *Handlers) ListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	includeText := request.GetBool("include_text", false)

	docs, err := h.service.Documents(ctx)
	if err != nil {
		return toolError("failed to list documents", err), nil
	}

	out := make([]map[string]interface{}, len(docs))
	for i, d := range docs {
		entry := map[string]interface{}{
			"id":          d.ID,
			"metadata":    d.Metadata,
			"created_at":  d.CreatedAt.Format(time.RFC3339),
			"chunk_count": d.NumChunks(),
		}
		if includeText {
			entry["raw_text"] = d.RawText
		}
		out[i] = entry
	}

	response := map[string]interface{}{
		"documents": out,
		"count":     len(out),
	}
	return jsonResult(response)
}

// ResetDocuments handles the reset_documents tool
func (h *Handlers) ResetDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !request.GetBool("confirm", false) {
		return mcp.NewToolResultError("refusing to reset without confirm=true"), nil
	}

	removed, err := h.service.Reset(ctx)
	if err != nil {
		return toolError("reset failed", err), nil
	}
	return jsonResult(map[string]interface{}{"removed": removed})
}

// Shutdown waits for in-flight ingest and query calls to finish
func (h *Handlers) Shutdown() {
	h.inflight.Wait()
}

func toolError(prefix string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s (%s): %v", prefix, models.KindOf(err), err))
}

func jsonResult(response interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
