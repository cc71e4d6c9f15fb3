// ABOUTME: VectorStore owns a storage backend and enforces the store-wide invariants
// ABOUTME: Shared lock for insert/search/list, exclusive lock for reset and close
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harper/docqa/internal/models"
	"github.com/harper/docqa/internal/similarity"
)

// Backend persists documents and their embedded chunks.
// Insert must commit a document and all its chunks atomically.
type Backend interface {
	Insert(ctx context.Context, doc *models.Document) error
	// Documents lists every document without chunk bodies, oldest first
	Documents(ctx context.Context) ([]models.Document, error)
	// Scan visits every stored chunk with its embedding in insertion order
	Scan(ctx context.Context, fn func(models.Chunk) error) error
	// Reset removes everything and reports how many documents were removed
	Reset(ctx context.Context) (int, error)
	Close() error
}

// Searcher is implemented by backends with their own cosine index
type Searcher interface {
	Search(ctx context.Context, query []float64, k int) ([]models.RetrievalResult, error)
}

// ErrClosed is returned after Close
var ErrClosed = models.NewError(models.KindStoreUnavailable, "store", "store is closed")

// VectorStore is the single shared, explicitly owned document store
type VectorStore struct {
	mu        sync.RWMutex
	backend   Backend
	dimension int
	metric    similarity.Metric
	closed    bool
}

// New wraps backend; every stored and query vector must have dimension values
func New(backend Backend, dimension int, metric similarity.Metric) *VectorStore {
	if metric == nil {
		metric = similarity.Cosine{}
	}
	return &VectorStore{
		backend:   backend,
		dimension: dimension,
		metric:    metric,
	}
}

// Dimension returns the fixed embedding width
func (s *VectorStore) Dimension() int {
	return s.dimension
}

// Metric returns the configured similarity metric
func (s *VectorStore) Metric() similarity.Metric {
	return s.metric
}

// Insert persists doc with its chunks and returns its id.
// A missing id is assigned; an explicit id that already exists fails with DuplicateIdentity.
func (s *VectorStore) Insert(ctx context.Context, doc *models.Document) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", ErrClosed
	}

	if err := doc.Validate(s.dimension); err != nil {
		return "", err
	}

	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	doc.Metadata = models.CleanMetadata(doc.Metadata)
	for i := range doc.Chunks {
		doc.Chunks[i].DocumentID = doc.ID
	}
	doc.ChunkCount = len(doc.Chunks)

	if err := s.backend.Insert(ctx, doc); err != nil {
		return "", storeError("insert", err)
	}
	return doc.ID, nil
}

// ListAll returns every document with metadata and chunk counts, no embeddings
func (s *VectorStore) ListAll(ctx context.Context) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	docs, err := s.backend.Documents(ctx)
	if err != nil {
		return nil, storeError("list", err)
	}
	return docs, nil
}

// Reset removes all documents and chunks; no reader observes a partial clear
func (s *VectorStore) Reset(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	n, err := s.backend.Reset(ctx)
	if err != nil {
		return 0, storeError("reset", err)
	}
	return n, nil
}

// Search returns up to k chunks most similar to query, best first.
// k below 1 is raised to 1; asking for more than are stored returns all of them.
func (s *VectorStore) Search(ctx context.Context, query []float64, k int) ([]models.RetrievalResult, error) {
	if err := models.ValidateDimension(query, s.dimension); err != nil {
		return nil, err
	}
	if k < 1 {
		k = 1
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	if searcher, ok := s.backend.(Searcher); ok {
		if _, cosine := s.metric.(similarity.Cosine); cosine {
			results, err := searcher.Search(ctx, query, k)
			if err != nil {
				return nil, storeError("search", err)
			}
			return results, nil
		}
	}

	top := similarity.NewTopK(k)
	err := s.backend.Scan(ctx, func(c models.Chunk) error {
		if len(c.Embedding) != s.dimension {
			return models.NewError(models.KindDimensionMismatch, "search",
				"stored chunk %s/%d has %d dimensions, store expects %d", c.DocumentID, c.Index, len(c.Embedding), s.dimension)
		}
		top.Push(c, s.metric.Score(query, c.Embedding))
		return nil
	})
	if err != nil {
		return nil, storeError("search", err)
	}
	return top.Results(), nil
}

// Close releases the backend; later calls fail with StoreUnavailable
func (s *VectorStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.backend.Close()
}

// storeError keeps classified errors and marks everything else as StoreUnavailable
func storeError(op string, err error) error {
	var classified *models.Error
	if errors.As(err, &classified) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return models.WrapError(models.KindCanceled, op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.WrapError(models.KindTimeout, op, err)
	}
	return models.WrapError(models.KindStoreUnavailable, op, fmt.Errorf("backend: %w", err))
}
