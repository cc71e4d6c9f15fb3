// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Lets LLM agents ingest and query documents via stdio
package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/harper/docqa/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs docqa as an MCP (Model Context Protocol) server so agents like
Claude can ingest text and ask questions over stdio.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by Claude Desktop)
  docqa mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "docqa": {
  #       "command": "docqa",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, _, err := openService(ctx)
	if err != nil {
		return err
	}

	server := mcpserver.NewMCPServer("docqa", versionInfo.Version)
	handlers := mcp.RegisterTools(server, svc)

	if !quiet {
		log.Println("docqa MCP server starting on stdio...")
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		if !quiet {
			log.Println("Shutdown signal received, gracefully shutting down...")
		}
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("server error: %w", err)
		}
	}

	// Let in-flight tool calls finish before the store goes away
	handlers.Shutdown()
	if err := svc.Close(context.Background()); err != nil {
		log.Printf("Warning: Error closing store: %v", err)
	}

	if !quiet && runErr == nil {
		log.Println("Shutdown complete")
	}
	return runErr
}
