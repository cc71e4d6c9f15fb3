// ABOUTME: Serve command runs the HTTP API
// ABOUTME: Upload, query, listing, and reset endpoints over one shared store
package commands

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harper/docqa/internal/server"
)

var serveAddr string

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Endpoints:
  POST /upload        multipart file upload (field "files")
  POST /upload-text   JSON {"text": "...", "metadata": {...}}
  POST /query         JSON {"query": "...", "response_mode": "db_gemini", "k": 3}
  GET  /db-contents   list stored documents
  POST /reset-db      remove every document
  GET  /healthz       liveness probe`,
		Example: `  docqa serve
  docqa serve --addr :9000
  DOCQA_STORE_BACKEND=memory docqa serve`,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8000)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, cfg, err := openService(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(context.Background()); err != nil {
			log.Printf("Warning: Error closing store: %v", err)
		}
	}()

	srvCfg := &server.Config{
		Addr:            cfg.Server.Addr,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxUploadBytes:  cfg.Server.MaxUploadBytes,
		Quiet:           quiet,
	}
	if serveAddr != "" {
		srvCfg.Addr = serveAddr
	}

	if !quiet {
		log.Printf("Starting docqa %s (store=%s embedder=%s generator=%s)",
			versionInfo.Version, cfg.Store.Backend, svc.Embedder().Name(), svc.Generator().Name())
	}

	if err := server.New(svc, srvCfg).ListenAndServe(ctx); err != nil {
		return err
	}

	if !quiet {
		log.Println("Shutdown complete")
	}
	return nil
}
