// ABOUTME: SQLite storage backend for documents and embedded chunks
// ABOUTME: Inserts are single transactions; the embedding dimension is pinned in store_meta
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/harper/docqa/internal/models"
)

const dimensionKey = "dimension"

// DocumentStore implements the storage backend on top of DB
type DocumentStore struct {
	db *DB
	// SQLite allows one writer; writes from this process queue here
	writeMu sync.Mutex
}

// OpenStore opens the database at path and pins it to dimension.
// A database created with another dimension is rejected with DimensionMismatch.
func OpenStore(path string, dimension int) (*DocumentStore, error) {
	db, err := Open(path)
	if err != nil {
		return nil, models.WrapError(models.KindStoreUnavailable, "sqlite open", err)
	}
	return newDocumentStore(db, dimension)
}

// OpenMemoryStore creates an in-memory store (for testing)
func OpenMemoryStore(dimension int) (*DocumentStore, error) {
	db, err := OpenInMemory()
	if err != nil {
		return nil, models.WrapError(models.KindStoreUnavailable, "sqlite open", err)
	}
	return newDocumentStore(db, dimension)
}

func newDocumentStore(db *DB, dimension int) (*DocumentStore, error) {
	s := &DocumentStore{db: db}
	if err := s.pinDimension(dimension); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// pinDimension records dimension on first use and checks it afterwards
func (s *DocumentStore) pinDimension(dimension int) error {
	var stored string
	err := s.db.QueryRow("SELECT value FROM store_meta WHERE key = ?", dimensionKey).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.Exec("INSERT INTO store_meta (key, value) VALUES (?, ?)", dimensionKey, strconv.Itoa(dimension))
		if err != nil {
			return models.WrapError(models.KindStoreUnavailable, "sqlite open", err)
		}
		return nil
	case err != nil:
		return models.WrapError(models.KindStoreUnavailable, "sqlite open", err)
	}

	existing, err := strconv.Atoi(stored)
	if err != nil {
		return models.WrapError(models.KindStoreUnavailable, "sqlite open", fmt.Errorf("corrupt dimension %q: %w", stored, err))
	}
	if existing != dimension {
		return models.NewError(models.KindDimensionMismatch, "sqlite open",
			"database %s holds %d-dimensional embeddings, embedder produces %d", s.db.Path(), existing, dimension)
	}
	return nil
}

// DB returns the underlying database
func (s *DocumentStore) DB() *DB {
	return s.db
}

// Insert writes the document row and every chunk in one transaction
func (s *DocumentStore) Insert(ctx context.Context, doc *models.Document) error {
	meta, err := json.Marshal(doc.Metadata)
	if err != nil {
		return models.WrapError(models.KindInvalidInput, "sqlite insert", fmt.Errorf("metadata: %w", err))
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM documents WHERE id = ?", doc.ID).Scan(&exists)
		if err == nil {
			return models.NewError(models.KindDuplicateIdentity, "sqlite insert", "document %q already exists", doc.ID)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents (id, raw_text, metadata, chunk_count, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, doc.ID, doc.RawText, string(meta), len(doc.Chunks), doc.CreatedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			if isUniqueViolation(err) {
				return models.NewError(models.KindDuplicateIdentity, "sqlite insert", "document %q already exists", doc.ID)
			}
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO chunks (document_id, chunk_index, content, vector)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()

		for _, c := range doc.Chunks {
			if _, err := stmt.ExecContext(ctx, doc.ID, c.Index, c.Text, vectorToBlob(c.Embedding)); err != nil {
				return fmt.Errorf("chunk %d: %w", c.Index, err)
			}
		}
		return nil
	})
}

// Documents lists documents in insertion order
func (s *DocumentStore) Documents(ctx context.Context) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, raw_text, metadata, chunk_count, created_at
		FROM documents
		ORDER BY rowid
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var docs []models.Document
	for rows.Next() {
		var (
			doc       models.Document
			meta      string
			createdAt string
		)
		if err := rows.Scan(&doc.ID, &doc.RawText, &meta, &doc.ChunkCount, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(meta), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("document %s metadata: %w", doc.ID, err)
		}
		if doc.Metadata == nil {
			doc.Metadata = map[string]any{}
		}
		doc.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("document %s created_at: %w", doc.ID, err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Scan visits chunks in insertion order
func (s *DocumentStore) Scan(ctx context.Context, fn func(models.Chunk) error) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, document_id, chunk_index, content, vector
		FROM chunks
		ORDER BY seq
	`)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			c    models.Chunk
			blob []byte
		)
		if err := rows.Scan(&c.Seq, &c.DocumentID, &c.Index, &c.Text, &blob); err != nil {
			return err
		}
		c.Embedding, err = blobToVector(blob)
		if err != nil {
			return fmt.Errorf("chunk %s/%d: %w", c.DocumentID, c.Index, err)
		}
		if err := fn(c); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Reset deletes every document and chunk in one transaction
func (s *DocumentStore) Reset(ctx context.Context) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var count int
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM documents")
		return err
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Close closes the database
func (s *DocumentStore) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
