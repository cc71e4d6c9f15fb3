// ABOUTME: Retriever embeds queries and finds the nearest stored chunks
// ABOUTME: Resolves the requested k against the configured default and ceiling
package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/harper/docqa/internal/llm"
	"github.com/harper/docqa/internal/models"
	"github.com/harper/docqa/internal/observability"
	"github.com/harper/docqa/internal/storage"
)

// Retriever performs vector search for query text
type Retriever struct {
	embedder llm.Embedder
	store    *storage.VectorStore
	defaultK int
	maxK     int
}

// NewRetriever creates a Retriever; maxK <= 0 leaves k unbounded
func NewRetriever(embedder llm.Embedder, store *storage.VectorStore, defaultK, maxK int) *Retriever {
	if defaultK < 1 {
		defaultK = 1
	}
	return &Retriever{
		embedder: embedder,
		store:    store,
		defaultK: defaultK,
		maxK:     maxK,
	}
}

// ResolveK maps a requested k to the one searched: 0 selects the default,
// negative values are rejected, and values above the ceiling are lowered to it.
func (r *Retriever) ResolveK(k int) (int, error) {
	switch {
	case k < 0:
		return 0, models.NewError(models.KindInvalidInput, "retrieve", "k must be positive, got %d", k)
	case k == 0:
		return r.defaultK, nil
	case r.maxK > 0 && k > r.maxK:
		return r.maxK, nil
	}
	return k, nil
}

// Embed computes the query vector
func (r *Retriever) Embed(ctx context.Context, query string) ([]float64, error) {
	ctx, span := observability.StartEmbedSpan(ctx, r.embedder.Name(), 1)
	defer span.End()

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		observability.RecordError(span, err)
		return nil, embedError(err)
	}
	if err := models.ValidateDimension(vec, r.store.Dimension()); err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("query embedding: %w", err)
	}
	return vec, nil
}

// Retrieve embeds query and returns its vector with the k nearest chunks, best first
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]float64, []models.RetrievalResult, error) {
	vec, err := r.Embed(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	results, err := r.RetrieveByVector(ctx, vec, k)
	if err != nil {
		return nil, nil, err
	}
	return vec, results, nil
}

// RetrieveByVector searches with a precomputed query vector
func (r *Retriever) RetrieveByVector(ctx context.Context, vec []float64, k int) ([]models.RetrievalResult, error) {
	k, err := r.ResolveK(k)
	if err != nil {
		return nil, err
	}

	ctx, span := observability.StartStoreSpan(ctx, "search")
	defer span.End()

	results, err := r.store.Search(ctx, vec, k)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	return results, nil
}

// embedError classifies an unclassified embedder error as EmbeddingFailure
func embedError(err error) error {
	return classify(models.KindEmbeddingFailure, "embed", err)
}

// classify keeps classified errors, maps context errors, and tags the rest with kind
func classify(kind models.Kind, op string, err error) error {
	switch {
	case models.KindOf(err) != models.KindInternal:
		return err
	case errors.Is(err, context.Canceled):
		return models.WrapError(models.KindCanceled, op, err)
	case errors.Is(err, context.DeadlineExceeded):
		return models.WrapError(models.KindTimeout, op, err)
	}
	return models.WrapError(kind, op, err)
}
