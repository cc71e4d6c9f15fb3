// ABOUTME: QueryEngine answers a question from the stored documents
// ABOUTME: Embed, retrieve, hydrate context, then generate or echo per response mode
package core

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/harper/docqa/internal/llm"
	"github.com/harper/docqa/internal/models"
	"github.com/harper/docqa/internal/observability"
)

// NoDataMessage is the db_only answer when nothing fits the context
const NoDataMessage = "No relevant data found."

// QueryRequest is one question
type QueryRequest struct {
	Query string
	// K is the number of chunks to retrieve; 0 selects the configured default
	K int
	// Mode names a response mode; empty selects the default
	Mode string
}

// QueryResponse is the shaped answer with its retrieval transparency fields.
// Embeddings are previews unless the mode keeps them whole.
type QueryResponse struct {
	Answer              string
	Mode                models.ResponseMode
	ContextUsed         int
	RetrievedChunks     []string
	RetrievedEmbeddings [][]float64
	Scores              []float64
	QueryEmbedding      []float64
	Elapsed             time.Duration

	// Record keeps the unshaped pipeline output
	Record *models.QueryRecord
}

// QueryEngine orchestrates retrieval and generation
type QueryEngine struct {
	retriever *Retriever
	hydrator  *ContextHydrator
	generator llm.Generator
	verbose   bool
}

// NewQueryEngine creates a QueryEngine
func NewQueryEngine(retriever *Retriever, hydrator *ContextHydrator, generator llm.Generator) *QueryEngine {
	return &QueryEngine{
		retriever: retriever,
		hydrator:  hydrator,
		generator: generator,
	}
}

// SetVerbose enables per-query log lines
func (q *QueryEngine) SetVerbose(v bool) {
	q.verbose = v
}

// Query runs the full pipeline. An empty store is not an error: the answer
// is produced without grounding and ContextUsed is zero.
func (q *QueryEngine) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	started := time.Now()

	spec, err := models.ParseResponseMode(req.Mode)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, models.NewError(models.KindInvalidInput, "query", "query must not be empty")
	}
	k, err := q.retriever.ResolveK(req.K)
	if err != nil {
		return nil, err
	}

	ctx, span := observability.StartQuerySpan(ctx, spec.Mode, k)
	defer span.End()

	record, err := q.run(ctx, req.Query, k, spec)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	record.Elapsed = time.Since(started)
	observability.RecordQueryResult(span, len(record.Results), record.ContextUsed, record.Elapsed)

	if q.verbose {
		log.Printf("[Query] mode=%s k=%d retrieved=%d used=%d in %s",
			spec.Mode, k, len(record.Results), record.ContextUsed, record.Elapsed)
	}
	return Shape(record, spec), nil
}

func (q *QueryEngine) run(ctx context.Context, query string, k int, spec models.ModeSpec) (*models.QueryRecord, error) {
	vec, results, err := q.retriever.Retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}

	contextTexts := q.hydrator.Hydrate(results)
	record := &models.QueryRecord{
		Query:          query,
		QueryEmbedding: vec,
		Results:        results,
		ContextUsed:    len(contextTexts),
	}

	if !spec.Generate {
		if len(contextTexts) == 0 {
			record.Answer = NoDataMessage
		} else {
			record.Answer = strings.Join(contextTexts, "\n")
		}
		return record, nil
	}

	genCtx, span := observability.StartGenerateSpan(ctx, q.generator.Name(), len(contextTexts))
	defer span.End()

	answer, err := q.generator.Generate(genCtx, llm.GenerateRequest{
		Query:       query,
		Context:     contextTexts,
		Instruction: spec.Instruction,
	})
	if err != nil {
		err = classify(models.KindGenerationFailure, "generate", err)
		observability.RecordError(span, err)
		return nil, err
	}
	record.Answer = answer
	return record, nil
}

// Shape projects a record into a response for the given mode.
// Stored and query embeddings are never modified.
func Shape(record *models.QueryRecord, spec models.ModeSpec) *QueryResponse {
	resp := &QueryResponse{
		Answer:              record.Answer,
		Mode:                spec.Mode,
		ContextUsed:         record.ContextUsed,
		RetrievedChunks:     make([]string, len(record.Results)),
		RetrievedEmbeddings: make([][]float64, len(record.Results)),
		Scores:              make([]float64, len(record.Results)),
		QueryEmbedding:      models.Preview(record.QueryEmbedding, spec.PreviewDims),
		Elapsed:             record.Elapsed,
		Record:              record,
	}
	for i, r := range record.Results {
		resp.RetrievedChunks[i] = r.Chunk.Text
		resp.RetrievedEmbeddings[i] = models.Preview(r.Chunk.Embedding, spec.PreviewDims)
		resp.Scores[i] = r.Score
	}
	return resp
}
