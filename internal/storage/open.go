// ABOUTME: Builds the configured VectorStore backend
// ABOUTME: memory, sqlite, qdrant, or charm, all pinned to the embedder dimension
package storage

import (
	"context"
	"fmt"

	"github.com/harper/docqa/internal/charm"
	"github.com/harper/docqa/internal/config"
	"github.com/harper/docqa/internal/similarity"
	"github.com/harper/docqa/internal/storage/charmkv"
	"github.com/harper/docqa/internal/storage/memory"
	"github.com/harper/docqa/internal/storage/qdrant"
	"github.com/harper/docqa/internal/storage/sqlite"
)

// Open creates the store selected by cfg.Store.Backend
func Open(ctx context.Context, cfg *config.Config) (*VectorStore, error) {
	metric, err := similarity.ParseMetric(cfg.Retrieval.Metric)
	if err != nil {
		return nil, err
	}
	dim := cfg.Embedding.Dimension

	var backend Backend
	switch cfg.Store.Backend {
	case config.BackendMemory:
		backend = memory.New()
	case config.BackendSQLite:
		backend, err = sqlite.OpenStore(cfg.Store.DBPath, dim)
	case config.BackendQdrant:
		backend, err = qdrant.Open(ctx, cfg.Store.QdrantHost, cfg.Store.QdrantPort, cfg.Store.QdrantCollection, dim)
	case config.BackendCharm:
		backend, err = charmkv.Open(&charm.Config{
			Host:     cfg.Store.CharmHost,
			DBName:   cfg.Store.CharmDBName,
			AutoSync: cfg.Store.AutoSync,
		}, dim)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if err != nil {
		return nil, err
	}

	return New(backend, dim, metric), nil
}
