// ABOUTME: Document is one ingested unit of text with its metadata and ordered chunks
// ABOUTME: Documents are immutable once stored; only reset removes them
package models

import (
	"fmt"
	"time"
)

// Document represents an ingested source and its chunks
type Document struct {
	ID        string         `json:"id"`
	RawText   string         `json:"raw_text"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	Chunks    []Chunk        `json:"chunks,omitempty"`

	// ChunkCount is filled by listings that do not load chunk bodies
	ChunkCount int `json:"chunk_count"`
}

// NumChunks returns the number of chunks whether or not they were loaded
func (d *Document) NumChunks() int {
	if len(d.Chunks) > 0 {
		return len(d.Chunks)
	}
	return d.ChunkCount
}

// Validate checks chunk ownership, contiguous indices, and embedding width.
// A dimension of zero skips the width check.
func (d *Document) Validate(dimension int) error {
	for i, c := range d.Chunks {
		if c.Index != i {
			return NewError(KindInvalidInput, "validate document", "chunk %d has index %d", i, c.Index)
		}
		if c.DocumentID != "" && d.ID != "" && c.DocumentID != d.ID {
			return NewError(KindInvalidInput, "validate document", "chunk %d belongs to %q, not %q", i, c.DocumentID, d.ID)
		}
		if dimension > 0 {
			if err := ValidateDimension(c.Embedding, dimension); err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
		}
	}
	return nil
}

// CleanMetadata keeps only string, number, and bool values.
// JSON numbers arrive as float64; integers are widened to float64 so backends agree.
func CleanMetadata(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case string, bool, float64:
			out[k] = val
		case float32:
			out[k] = float64(val)
		case int:
			out[k] = float64(val)
		case int64:
			out[k] = float64(val)
		case int32:
			out[k] = float64(val)
		case nil:
			// dropped
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
