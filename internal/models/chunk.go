// ABOUTME: Chunk is a contiguous slice of a document's text plus its embedding
// ABOUTME: Chunks are ordered within a document by a zero-based index
package models

// Chunk represents one embedded piece of a document
type Chunk struct {
	DocumentID string    `json:"document_id"`
	Index      int       `json:"index"`
	Text       string    `json:"text"`
	Embedding  []float64 `json:"embedding,omitempty"`

	// Seq is the store-wide insertion order, used to break score ties
	Seq int64 `json:"-"`
}

// ChunkData pairs a chunk's text with its embedding for API responses
type ChunkData struct {
	Chunk     string    `json:"chunk"`
	Embedding []float64 `json:"embedding"`
}
