// ABOUTME: Ingestor turns a file or raw text into a stored, embedded document
// ABOUTME: All-or-nothing: any extraction or embedding failure persists nothing
package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/harper/docqa/internal/extract"
	"github.com/harper/docqa/internal/llm"
	"github.com/harper/docqa/internal/models"
	"github.com/harper/docqa/internal/observability"
	"github.com/harper/docqa/internal/storage"
)

// IngestRequest is one file or one piece of raw text.
// When Filename is set, Data is extracted by extension; otherwise Text is used.
type IngestRequest struct {
	Filename string
	Data     []byte
	Text     string
	Metadata map[string]any
	// ID is optional; an empty ID is assigned by the store
	ID string
}

// IngestResult reports what was stored
type IngestResult struct {
	DocumentID    string             `json:"document_id"`
	Filename      string             `json:"filename,omitempty"`
	ExtractedText string             `json:"extracted_text"`
	ChunkData     []models.ChunkData `json:"chunk_data"`
}

// Ingestor runs the extract, chunk, embed, persist pipeline
type Ingestor struct {
	chunker   *ChunkEngine
	embedder  llm.Embedder
	store     *storage.VectorStore
	batchSize int
	workers   int
	verbose   bool
}

// NewIngestor creates an Ingestor; batchSize and workers below 1 are raised to 1
func NewIngestor(chunker *ChunkEngine, embedder llm.Embedder, store *storage.VectorStore, batchSize, workers int) *Ingestor {
	if batchSize < 1 {
		batchSize = 1
	}
	if workers < 1 {
		workers = 1
	}
	return &Ingestor{
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		batchSize: batchSize,
		workers:   workers,
	}
}

// SetVerbose enables per-document log lines
func (in *Ingestor) SetVerbose(v bool) {
	in.verbose = v
}

// Ingest stores one document and returns its text and embedded chunks
func (in *Ingestor) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	source := req.Filename
	if source == "" {
		source = "text"
	}
	ctx, span := observability.StartIngestSpan(ctx, source, len(req.Data)+len(req.Text))
	defer span.End()

	result, err := in.ingest(ctx, req)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	observability.RecordIngestResult(span, result.DocumentID, len(result.ChunkData))

	if in.verbose {
		log.Printf("[Ingest] stored %s from %s: %d chunks", result.DocumentID, source, len(result.ChunkData))
	}
	return result, nil
}

func (in *Ingestor) ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	text := req.Text
	if req.Filename != "" {
		extracted, err := extract.Extract(ctx, req.Filename, req.Data)
		if err != nil {
			return nil, err
		}
		text = extracted
	}

	if strings.TrimSpace(text) == "" {
		name := req.Filename
		if name == "" {
			name = "text"
		}
		return nil, models.NewError(models.KindEmptyContent, "ingest", "%s contains no text", name)
	}

	pieces := in.chunker.Chunk(text)
	vectors, err := in.embedChunks(ctx, pieces)
	if err != nil {
		return nil, err
	}

	metadata := models.CleanMetadata(req.Metadata)
	if req.Filename != "" {
		if _, ok := metadata["filename"]; !ok {
			metadata["filename"] = req.Filename
		}
	}

	doc := &models.Document{
		ID:       req.ID,
		RawText:  text,
		Metadata: metadata,
		Chunks:   make([]models.Chunk, len(pieces)),
	}
	for i, p := range pieces {
		doc.Chunks[i] = models.Chunk{Index: i, Text: p, Embedding: vectors[i]}
	}

	// Last point where the caller may still abandon the request
	if err := ctx.Err(); err != nil {
		return nil, classify(models.KindCanceled, "ingest", err)
	}

	storeCtx, storeSpan := observability.StartStoreSpan(context.WithoutCancel(ctx), "insert")
	id, err := in.store.Insert(storeCtx, doc)
	if err != nil {
		observability.RecordError(storeSpan, err)
		storeSpan.End()
		return nil, err
	}
	storeSpan.End()

	chunkData := make([]models.ChunkData, len(pieces))
	for i, p := range pieces {
		chunkData[i] = models.ChunkData{Chunk: p, Embedding: vectors[i]}
	}
	return &IngestResult{
		DocumentID:    id,
		Filename:      req.Filename,
		ExtractedText: text,
		ChunkData:     chunkData,
	}, nil
}

// embedChunks embeds texts in batches, running up to workers batches at once.
// Vectors come back in the order of texts regardless of batch completion order.
func (in *Ingestor) embedChunks(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	dim := in.store.Dimension()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.workers)

	for start := 0; start < len(texts); start += in.batchSize {
		end := min(start+in.batchSize, len(texts))
		g.Go(func() error {
			batchCtx, span := observability.StartEmbedSpan(gctx, in.embedder.Name(), end-start)
			defer span.End()

			vecs, err := in.embedder.EmbedMany(batchCtx, texts[start:end])
			if err != nil {
				observability.RecordError(span, err)
				return embedError(err)
			}
			if len(vecs) != end-start {
				err := models.NewError(models.KindEmbeddingFailure, "embed",
					"embedder returned %d vectors for %d chunks", len(vecs), end-start)
				observability.RecordError(span, err)
				return err
			}
			for i, v := range vecs {
				if err := models.ValidateDimension(v, dim); err != nil {
					return fmt.Errorf("chunk %d: %w", start+i, err)
				}
				vectors[start+i] = v
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
