// ABOUTME: Main entry point for the standalone docqa HTTP server
// ABOUTME: Loads config, opens the store, and serves the API until SIGINT/SIGTERM
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/harper/docqa/internal/config"
	"github.com/harper/docqa/internal/core"
	"github.com/harper/docqa/internal/server"
)

// Version information (set by goreleaser)
var version = "dev"

func main() {
	configPath := flag.String("config", os.Getenv("DOCQA_CONFIG"), "Path to a config file")
	addr := flag.String("addr", "", "Listen address (overrides server.addr)")
	verbose := flag.Bool("verbose", false, "Log pipeline steps")
	flag.Parse()

	// Load .env file if it exists (for API keys)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found (this is okay for production): %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.PrintWarnings()

	core.Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := core.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize service: %v", err)
	}
	svc.SetVerbose(*verbose)

	srvCfg := &server.Config{
		Addr:            cfg.Server.Addr,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxUploadBytes:  cfg.Server.MaxUploadBytes,
	}
	if *addr != "" {
		srvCfg.Addr = *addr
	}

	log.Printf("docqa %s (store=%s embedder=%s generator=%s)",
		version, cfg.Store.Backend, svc.Embedder().Name(), svc.Generator().Name())

	serveErr := server.New(svc, srvCfg).ListenAndServe(ctx)

	if err := svc.Close(context.Background()); err != nil {
		log.Printf("Warning: Error closing store: %v", err)
	}
	if serveErr != nil {
		log.Fatalf("Server error: %v", serveErr)
	}
}
