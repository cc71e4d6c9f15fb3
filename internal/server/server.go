// ABOUTME: HTTP JSON API over the ingest and query pipelines
// ABOUTME: Routes, middleware, and graceful shutdown for the docqa server
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/harper/docqa/internal/core"
	"github.com/harper/docqa/internal/models"
)

// Service is the subset of core.Service the HTTP layer needs
type Service interface {
	Ingest(ctx context.Context, req core.IngestRequest) (*core.IngestResult, error)
	Query(ctx context.Context, req core.QueryRequest) (*core.QueryResponse, error)
	Documents(ctx context.Context) ([]models.Document, error)
	Reset(ctx context.Context) (int, error)
}

// Config holds server configuration
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	// MaxUploadBytes caps multipart and JSON request bodies
	MaxUploadBytes int64
	// Quiet suppresses per-request log lines
	Quiet bool
}

// DefaultConfig returns the defaults used when no config is supplied
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":8000",
		ShutdownTimeout: 15 * time.Second,
		MaxUploadBytes:  32 << 20,
	}
}

// Server is the docqa HTTP server
type Server struct {
	config  *Config
	service Service
	handler http.Handler
}

// New creates a server for svc
func New(svc Service, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	s := &Server{
		config:  config,
		service: svc,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /upload-text", s.handleUploadText)
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("POST /reset-db", s.handleReset)
	mux.HandleFunc("GET /db-contents", s.handleDBContents)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	var h http.Handler = mux
	h = processTimeMiddleware(h)
	if !config.Quiet {
		h = loggingMiddleware(h)
	}
	s.handler = corsMiddleware(h)
	return s
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until ctx is done, then drains in-flight requests
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("docqa server listening on %s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
