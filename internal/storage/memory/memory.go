// ABOUTME: In-memory storage backend for tests and ephemeral servers
// ABOUTME: Holds documents and chunks in insertion order behind its own RWMutex
package memory

import (
	"context"
	"sync"

	"github.com/harper/docqa/internal/models"
)

// Store is a simple in-memory backend; search is brute force over Scan
type Store struct {
	mu     sync.RWMutex
	docs   map[string]*models.Document
	order  []string
	chunks []models.Chunk
	seq    int64
}

// New creates an empty store
func New() *Store {
	return &Store{docs: make(map[string]*models.Document)}
}

// Insert stores doc, failing with DuplicateIdentity if its id exists
func (s *Store) Insert(ctx context.Context, doc *models.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[doc.ID]; exists {
		return models.NewError(models.KindDuplicateIdentity, "memory insert", "document %q already exists", doc.ID)
	}

	stored := *doc
	stored.Chunks = nil
	stored.ChunkCount = len(doc.Chunks)
	stored.Metadata = copyMetadata(doc.Metadata)

	for _, c := range doc.Chunks {
		s.seq++
		c.Seq = s.seq
		c.Embedding = append([]float64(nil), c.Embedding...)
		s.chunks = append(s.chunks, c)
	}
	s.docs[doc.ID] = &stored
	s.order = append(s.order, doc.ID)
	return nil
}

// Documents lists documents in insertion order
func (s *Store) Documents(ctx context.Context) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Document, 0, len(s.order))
	for _, id := range s.order {
		d := *s.docs[id]
		d.Metadata = copyMetadata(d.Metadata)
		out = append(out, d)
	}
	return out, nil
}

// Scan visits chunks in insertion order
func (s *Store) Scan(ctx context.Context, fn func(models.Chunk) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i, c := range s.chunks {
		// Check cancellation periodically on large stores
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}

// Reset clears everything
func (s *Store) Reset(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.docs)
	s.docs = make(map[string]*models.Document)
	s.order = nil
	s.chunks = nil
	return n, nil
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}

func copyMetadata(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
