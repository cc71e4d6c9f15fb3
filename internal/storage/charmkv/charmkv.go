// ABOUTME: Charm KV storage backend; each document and its chunks live under one key
// ABOUTME: Single-key writes keep inserts atomic across cloud sync
package charmkv

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/harper/docqa/internal/charm"
	"github.com/harper/docqa/internal/models"
)

// KV is the subset of the charm client the backend needs
type KV interface {
	Set(key string, value []byte) error
	Get(key string) ([]byte, error)
	DeleteMany(keys []string) error
	ListKeys(prefix string) ([]string, error)
}

type chunkRecord struct {
	Index     int       `json:"index"`
	Text      string    `json:"text"`
	Embedding []float64 `json:"embedding"`
	Seq       int64     `json:"seq"`
}

type documentRecord struct {
	ID        string         `json:"id"`
	RawText   string         `json:"raw_text"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
	Chunks    []chunkRecord  `json:"chunks"`
}

// Store implements the storage backend on charm KV
type Store struct {
	kv      KV
	closer  func() error
	mu      sync.Mutex
	nextSeq int64
}

// Open opens the charm database described by cfg
func Open(cfg *charm.Config, dimension int) (*Store, error) {
	client, err := charm.NewClient(cfg)
	if err != nil {
		return nil, models.WrapError(models.KindStoreUnavailable, "charm open", err)
	}
	s, err := New(client, dimension)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	s.closer = client.Close
	return s, nil
}

// New builds a store over kv, pinning the embedding dimension
func New(kv KV, dimension int) (*Store, error) {
	s := &Store{kv: kv, nextSeq: 1}
	if err := s.pinDimension(dimension); err != nil {
		return nil, err
	}

	// Continue the sequence after whatever has been synced in
	records, err := s.records()
	if err != nil {
		return nil, models.WrapError(models.KindStoreUnavailable, "charm open", err)
	}
	for _, r := range records {
		for _, c := range r.Chunks {
			if c.Seq >= s.nextSeq {
				s.nextSeq = c.Seq + 1
			}
		}
	}
	return s, nil
}

func (s *Store) pinDimension(dimension int) error {
	key := charm.MetaKey("dimension")
	keys, err := s.kv.ListKeys(key)
	if err != nil {
		return models.WrapError(models.KindStoreUnavailable, "charm open", err)
	}
	if !contains(keys, key) {
		if err := s.kv.Set(key, []byte(strconv.Itoa(dimension))); err != nil {
			return models.WrapError(models.KindStoreUnavailable, "charm open", err)
		}
		return nil
	}

	raw, err := s.kv.Get(key)
	if err != nil {
		return models.WrapError(models.KindStoreUnavailable, "charm open", err)
	}
	existing, err := strconv.Atoi(string(raw))
	if err != nil {
		return models.WrapError(models.KindStoreUnavailable, "charm open", fmt.Errorf("corrupt dimension %q: %w", raw, err))
	}
	if existing != dimension {
		return models.NewError(models.KindDimensionMismatch, "charm open",
			"charm database holds %d-dimensional embeddings, embedder produces %d", existing, dimension)
	}
	return nil
}

// Insert writes the document under a single key
func (s *Store) Insert(ctx context.Context, doc *models.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := charm.DocumentKey(doc.ID)
	keys, err := s.kv.ListKeys(key)
	if err != nil {
		return err
	}
	if contains(keys, key) {
		return models.NewError(models.KindDuplicateIdentity, "charm insert", "document %q already exists", doc.ID)
	}

	rec := documentRecord{
		ID:        doc.ID,
		RawText:   doc.RawText,
		Metadata:  doc.Metadata,
		CreatedAt: doc.CreatedAt,
		Chunks:    make([]chunkRecord, len(doc.Chunks)),
	}
	seq := s.nextSeq
	for i, c := range doc.Chunks {
		rec.Chunks[i] = chunkRecord{Index: c.Index, Text: c.Text, Embedding: c.Embedding, Seq: seq}
		seq++
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return models.WrapError(models.KindInvalidInput, "charm insert", err)
	}
	if err := s.kv.Set(key, data); err != nil {
		return err
	}
	s.nextSeq = seq
	return nil
}

// records loads every document record sorted by creation time
func (s *Store) records() ([]documentRecord, error) {
	keys, err := s.kv.ListKeys(charm.DocumentPrefix)
	if err != nil {
		return nil, err
	}

	records := make([]documentRecord, 0, len(keys))
	for _, key := range keys {
		raw, err := s.kv.Get(key)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		var rec documentRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", key, err)
		}
		if rec.ID == "" {
			rec.ID = charm.DocumentID(key)
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return firstSeq(records[i]) < firstSeq(records[j])
	})
	return records, nil
}

// Documents lists documents in insertion order
func (s *Store) Documents(ctx context.Context) ([]models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := s.records()
	if err != nil {
		return nil, err
	}

	docs := make([]models.Document, 0, len(records))
	for _, r := range records {
		meta := r.Metadata
		if meta == nil {
			meta = map[string]any{}
		}
		docs = append(docs, models.Document{
			ID:         r.ID,
			RawText:    r.RawText,
			Metadata:   meta,
			CreatedAt:  r.CreatedAt,
			ChunkCount: len(r.Chunks),
		})
	}
	return docs, nil
}

// Scan visits chunks document by document in insertion order
func (s *Store) Scan(ctx context.Context, fn func(models.Chunk) error) error {
	records, err := s.records()
	if err != nil {
		return err
	}
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, c := range r.Chunks {
			err := fn(models.Chunk{
				DocumentID: r.ID,
				Index:      c.Index,
				Text:       c.Text,
				Embedding:  c.Embedding,
				Seq:        c.Seq,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// Reset deletes every document key; the pinned dimension survives
func (s *Store) Reset(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.kv.ListKeys(charm.DocumentPrefix)
	if err != nil {
		return 0, err
	}
	if err := s.kv.DeleteMany(keys); err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Close closes the charm client when this store opened it
func (s *Store) Close() error {
	if s.closer != nil {
		return s.closer()
	}
	return nil
}

func firstSeq(r documentRecord) int64 {
	if len(r.Chunks) == 0 {
		return 0
	}
	return r.Chunks[0].Seq
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
