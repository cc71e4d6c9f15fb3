// ABOUTME: Service owns the store and collaborators behind every ingest and query
// ABOUTME: Opened once by a command or server and closed on shutdown
package core

import (
	"context"
	"fmt"

	"github.com/harper/docqa/internal/config"
	"github.com/harper/docqa/internal/llm"
	"github.com/harper/docqa/internal/models"
	"github.com/harper/docqa/internal/observability"
	"github.com/harper/docqa/internal/storage"
)

// Version is reported in trace resources; the CLI sets it from build flags
var Version = "dev"

// Options tunes the pipelines built by NewService
type Options struct {
	Chunking        ChunkConfig
	DefaultK        int
	MaxK            int
	MaxContextChars int
	BatchSize       int
	Workers         int
	Verbose         bool
}

// OptionsFromConfig extracts pipeline options from cfg
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Chunking: ChunkConfig{
			Size:        cfg.Chunking.Size,
			Overlap:     cfg.Chunking.Overlap,
			MinTrailing: cfg.Chunking.MinTrailing,
			Strategy:    Strategy(cfg.Chunking.Strategy),
		},
		DefaultK:        cfg.Retrieval.DefaultK,
		MaxK:            cfg.Retrieval.MaxK,
		MaxContextChars: cfg.Retrieval.MaxContextChars,
		BatchSize:       cfg.Embedding.BatchSize,
		Workers:         cfg.Embedding.Workers,
	}
}

// Service bundles the store with the ingest and query pipelines
type Service struct {
	store     *storage.VectorStore
	embedder  llm.Embedder
	generator llm.Generator
	ingestor  *Ingestor
	queries   *QueryEngine
	tracing   *observability.TracerProvider
}

// Open builds collaborators, the store, and tracing from cfg
func Open(ctx context.Context, cfg *config.Config) (*Service, error) {
	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: Version,
		OTLPEndpoint:   cfg.Tracing.Endpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	embedder, generator, err := llm.New(cfg)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}

	svc, err := NewService(store, embedder, generator, OptionsFromConfig(cfg))
	if err != nil {
		_ = store.Close()
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	svc.tracing = tp
	return svc, nil
}

// NewService wires pipelines around an already-open store
func NewService(store *storage.VectorStore, embedder llm.Embedder, generator llm.Generator, opts Options) (*Service, error) {
	if embedder.Dimensions() != store.Dimension() {
		return nil, models.NewError(models.KindDimensionMismatch, "open service",
			"embedder %s produces %d dimensions, store expects %d", embedder.Name(), embedder.Dimensions(), store.Dimension())
	}

	chunker, err := NewChunkEngine(opts.Chunking)
	if err != nil {
		return nil, fmt.Errorf("invalid chunking config: %w", err)
	}

	ingestor := NewIngestor(chunker, embedder, store, opts.BatchSize, opts.Workers)
	ingestor.SetVerbose(opts.Verbose)

	queries := NewQueryEngine(
		NewRetriever(embedder, store, opts.DefaultK, opts.MaxK),
		NewContextHydrator(opts.MaxContextChars),
		generator,
	)
	queries.SetVerbose(opts.Verbose)

	return &Service{
		store:     store,
		embedder:  embedder,
		generator: generator,
		ingestor:  ingestor,
		queries:   queries,
	}, nil
}

// SetVerbose toggles pipeline logging
func (s *Service) SetVerbose(v bool) {
	s.ingestor.SetVerbose(v)
	s.queries.SetVerbose(v)
}

// Ingest stores one document
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	return s.ingestor.Ingest(ctx, req)
}

// Query answers one question
func (s *Service) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	return s.queries.Query(ctx, req)
}

// Documents lists stored documents without embeddings
func (s *Service) Documents(ctx context.Context) ([]models.Document, error) {
	ctx, span := observability.StartStoreSpan(ctx, "list")
	defer span.End()

	docs, err := s.store.ListAll(ctx)
	if err != nil {
		observability.RecordError(span, err)
	}
	return docs, err
}

// Reset removes every document and returns how many were removed
func (s *Service) Reset(ctx context.Context) (int, error) {
	ctx, span := observability.StartStoreSpan(ctx, "reset")
	defer span.End()

	n, err := s.store.Reset(ctx)
	if err != nil {
		observability.RecordError(span, err)
	}
	return n, err
}

// Store exposes the owned store
func (s *Service) Store() *storage.VectorStore {
	return s.store
}

// Embedder returns the configured embedder
func (s *Service) Embedder() llm.Embedder {
	return s.embedder
}

// Generator returns the configured generator
func (s *Service) Generator() llm.Generator {
	return s.generator
}

// Close releases the store and flushes traces
func (s *Service) Close(ctx context.Context) error {
	err := s.store.Close()
	if s.tracing != nil {
		if terr := s.tracing.Shutdown(ctx); terr != nil && err == nil {
			err = terr
		}
	}
	return err
}
