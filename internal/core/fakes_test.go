// ABOUTME: Test collaborators for the core pipelines
// ABOUTME: A vocabulary embedder, a recording generator, and helpers for memory-backed services
package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"unicode"

	"github.com/harper/docqa/internal/llm"
	"github.com/harper/docqa/internal/storage"
	"github.com/harper/docqa/internal/storage/memory"
)

var vocab = []string{"sky", "blue", "color", "stocks", "rose", "today", "market", "grass", "green", "rain"}

// vocabDim is one axis per vocabulary word plus one shared axis for everything else
const vocabDim = 16

// vocabEmbedder counts vocabulary words, one axis each
type vocabEmbedder struct {
	calls atomic.Int64
}

func (e *vocabEmbedder) Name() string    { return "vocab" }
func (e *vocabEmbedder) Dimensions() int { return vocabDim }

func (e *vocabEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	e.calls.Add(1)
	return vocabVector(text), nil
}

func (e *vocabEmbedder) EmbedMany(_ context.Context, texts []string) ([][]float64, error) {
	e.calls.Add(1)
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = vocabVector(t)
	}
	return out, nil
}

func vocabVector(text string) []float64 {
	vec := make([]float64, vocabDim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		axis := vocabDim - 1
		for i, v := range vocab {
			if v == w {
				axis = i
				break
			}
		}
		vec[axis]++
	}
	return vec
}

// failingEmbedder succeeds until its failOn-th EmbedMany call
type failingEmbedder struct {
	vocabEmbedder
	failOn int64
	n      atomic.Int64
}

func (e *failingEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float64, error) {
	if e.n.Add(1) == e.failOn {
		return nil, fmt.Errorf("upstream exploded")
	}
	return e.vocabEmbedder.EmbedMany(ctx, texts)
}

// recordingGenerator remembers the last request
type recordingGenerator struct {
	mu    sync.Mutex
	calls int
	last  llm.GenerateRequest
	err   error
}

func (g *recordingGenerator) Name() string { return "recording" }

func (g *recordingGenerator) Generate(_ context.Context, req llm.GenerateRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.last = req
	if g.err != nil {
		return "", g.err
	}
	return fmt.Sprintf("answer from %d sources", len(req.Context)), nil
}

func (g *recordingGenerator) lastRequest() (llm.GenerateRequest, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last, g.calls
}

func defaultOptions() Options {
	return Options{
		Chunking:  ChunkConfig{Size: 1000, Overlap: 0, Strategy: StrategyWord},
		DefaultK:  3,
		MaxK:      10,
		BatchSize: 4,
		Workers:   2,
	}
}

func newMemoryStore(dim int) *storage.VectorStore {
	return storage.New(memory.New(), dim, nil)
}

func newTestService(t *testing.T, embedder llm.Embedder, generator llm.Generator, opts Options) *Service {
	t.Helper()
	svc, err := NewService(newMemoryStore(embedder.Dimensions()), embedder, generator, opts)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	t.Cleanup(func() { _ = svc.Close(context.Background()) })
	return svc
}
