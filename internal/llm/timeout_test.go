// ABOUTME: Tests for per-call timeouts and rate limiting wrappers
// ABOUTME: Timeouts, cancellation, and upstream failures must stay distinguishable
package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harper/docqa/internal/models"
)

// blockingEmbedder waits for its context, simulating a hung upstream
type blockingEmbedder struct{}

func (blockingEmbedder) Name() string    { return "blocking" }
func (blockingEmbedder) Dimensions() int { return 2 }

func (blockingEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (b blockingEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float64, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// failingGenerator always fails with an unclassified upstream error
type failingGenerator struct{}

func (failingGenerator) Name() string { return "failing" }

func (failingGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	return "", errors.New("upstream unavailable")
}

// countingGenerator records calls and answers immediately
type countingGenerator struct{ calls int }

func (g *countingGenerator) Name() string { return "counting" }

func (g *countingGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	g.calls++
	return "ok", nil
}

func TestWithEmbedTimeout_ReportsTimeout(t *testing.T) {
	e := WithEmbedTimeout(blockingEmbedder{}, 10*time.Millisecond)

	_, err := e.Embed(context.Background(), "text")
	if models.KindOf(err) != models.KindTimeout {
		t.Fatalf("Embed() kind = %v, want Timeout (err: %v)", models.KindOf(err), err)
	}

	_, err = e.EmbedMany(context.Background(), []string{"a", "b"})
	if models.KindOf(err) != models.KindTimeout {
		t.Errorf("EmbedMany() kind = %v, want Timeout", models.KindOf(err))
	}
}

func TestWithEmbedTimeout_CallerCancel(t *testing.T) {
	e := WithEmbedTimeout(blockingEmbedder{}, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := e.Embed(ctx, "text")
	if models.KindOf(err) != models.KindCanceled {
		t.Errorf("Embed() kind = %v, want Canceled", models.KindOf(err))
	}
}

func TestWithGenerateTimeout_UpstreamFailure(t *testing.T) {
	g := WithGenerateTimeout(failingGenerator{}, time.Second)

	_, err := g.Generate(context.Background(), GenerateRequest{Query: "q"})
	if models.KindOf(err) != models.KindGenerationFailure {
		t.Errorf("Generate() kind = %v, want GenerationFailure", models.KindOf(err))
	}
}

func TestWithTimeout_ZeroIsPassthrough(t *testing.T) {
	inner := blockingEmbedder{}
	if got := WithEmbedTimeout(inner, 0); got != Embedder(inner) {
		t.Error("WithEmbedTimeout(e, 0) should return e")
	}
}

func TestRateLimitedGenerator(t *testing.T) {
	inner := &countingGenerator{}

	// Disabled limiter returns the inner generator
	if got := NewRateLimitedGenerator(inner, RateLimitConfig{}); got != Generator(inner) {
		t.Error("zero rate should not wrap")
	}

	g := NewRateLimitedGenerator(inner, RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 2})
	for i := 0; i < 3; i++ {
		if _, err := g.Generate(context.Background(), GenerateRequest{}); err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestRateLimitedEmbedder_DeadlineTooShort(t *testing.T) {
	h, _ := NewHashEmbedder(8)
	// One token per minute with burst 1: the second call cannot fit a 10ms deadline
	e := NewRateLimitedEmbedder(h, RateLimitConfig{RequestsPerSecond: 1.0 / 60, BurstSize: 1})

	if _, err := e.Embed(context.Background(), "first"); err != nil {
		t.Fatalf("first Embed() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := e.Embed(ctx, "second")
	if models.KindOf(err) != models.KindTimeout {
		t.Errorf("Embed() kind = %v, want Timeout (err: %v)", models.KindOf(err), err)
	}
}
