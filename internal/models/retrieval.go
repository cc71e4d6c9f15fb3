// ABOUTME: Transient per-request types for retrieval and query transparency
// ABOUTME: Neither RetrievalResult nor QueryRecord is ever persisted
package models

import "time"

// RetrievalResult is a stored chunk with its similarity to a query
type RetrievalResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// QueryRecord captures one query's full pipeline output
type QueryRecord struct {
	Query          string
	QueryEmbedding []float64
	Results        []RetrievalResult
	// ContextUsed counts results that fit in the generation context
	ContextUsed int
	Answer      string
	Elapsed     time.Duration
}
