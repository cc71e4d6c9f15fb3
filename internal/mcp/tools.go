// ABOUTME: MCP tool definitions and registration for the docqa server
// ABOUTME: Exposes ingest, query, list, and reset to LLM agents over stdio
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/docqa/internal/core"
	"github.com/harper/docqa/internal/models"
)

// Service is the subset of core.Service the tools call
type Service interface {
	Ingest(ctx context.Context, req core.IngestRequest) (*core.IngestResult, error)
	Query(ctx context.Context, req core.QueryRequest) (*core.QueryResponse, error)
	Documents(ctx context.Context) ([]models.Document, error)
	Reset(ctx context.Context) (int, error)
}

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, svc Service) *Handlers {
	handlers := NewHandlers(svc)

	modes := make([]string, 0, len(models.Modes()))
	for _, m := range models.Modes() {
		modes = append(modes, string(m))
	}

	// 1. ingest_text - chunk, embed, and store a piece of text
	server.AddTool(mcp.Tool{
		Name:        "ingest_text",
		Description: "Store a document in the knowledge base. The text is chunked and embedded so later queries can retrieve it.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Document text to store",
				},
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Optional document ID; fails if the ID already exists",
				},
				"metadata": map[string]interface{}{
					"type":        "object",
					"description": "Optional string, number, or boolean fields to keep with the document",
				},
			},
			Required: []string{"text"},
		},
	}, handlers.IngestText)

	// 2. query_documents - answer a question from stored documents
	server.AddTool(mcp.Tool{
		Name:        "query_documents",
		Description: "Answer a question using the most similar stored document chunks as context.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Question to answer",
				},
				"k": map[string]interface{}{
					"type":        "number",
					"description": "Number of chunks to retrieve (default: server setting)",
				},
				"response_mode": map[string]interface{}{
					"type":        "string",
					"enum":        modes,
					"description": "db_only returns raw chunks; the others generate an answer",
					"default":     string(models.DefaultMode),
				},
			},
			Required: []string{"query"},
		},
	}, handlers.QueryDocuments)

	// 3. list_documents - list stored documents
	server.AddTool(mcp.Tool{
		Name:        "list_documents",
		Description: "List stored documents with their metadata and chunk counts.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"include_text": map[string]interface{}{
					"type":        "boolean",
					"description": "Include each document's full text (default: false)",
					"default":     false,
				},
			},
		},
	}, handlers.ListDocuments)

	// 4. reset_documents - delete everything
	server.AddTool(mcp.Tool{
		Name:        "reset_documents",
		Description: "Delete every stored document. Requires confirm=true.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"confirm": map[string]interface{}{
					"type":        "boolean",
					"description": "Must be true to delete all documents",
				},
			},
			Required: []string{"confirm"},
		},
	}, handlers.ResetDocuments)

	return handlers
}
