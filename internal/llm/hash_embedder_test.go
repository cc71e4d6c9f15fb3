// ABOUTME: Tests for the feature-hashing embedder
// ABOUTME: Verifies determinism, normalization, and lexical similarity ordering
package llm

import (
	"context"
	"math"
	"testing"

	"github.com/harper/docqa/internal/models"
	"github.com/harper/docqa/internal/similarity"
)

func TestNewHashEmbedder_InvalidDimension(t *testing.T) {
	if _, err := NewHashEmbedder(0); err == nil {
		t.Error("NewHashEmbedder(0) should fail")
	}
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	e, _ := NewHashEmbedder(256)
	a, err := e.Embed(context.Background(), "Grass is green.")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	b, _ := e.Embed(context.Background(), "Grass is green.")

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Embed() not deterministic at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestHashEmbedder_Normalized(t *testing.T) {
	e, _ := NewHashEmbedder(128)
	v, err := e.Embed(context.Background(), "Stocks rose two percent today")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(v) != 128 {
		t.Errorf("len(v) = %d, want 128", len(v))
	}
	norm := 0.0
	for _, x := range v {
		norm += x * x
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-9 {
		t.Errorf("norm = %v, want 1", math.Sqrt(norm))
	}
}

func TestHashEmbedder_SharedWordsScoreHigher(t *testing.T) {
	e, _ := NewHashEmbedder(4096)
	ctx := context.Background()

	query, _ := e.Embed(ctx, "What color is the sky?")
	sky, _ := e.Embed(ctx, "The sky is blue. Grass is green.")
	stocks, _ := e.Embed(ctx, "Stocks rose 2% today.")

	metric := similarity.Cosine{}
	if s, o := metric.Score(query, sky), metric.Score(query, stocks); s <= o {
		t.Errorf("sky score %v should exceed stocks score %v", s, o)
	}
}

func TestHashEmbedder_StopwordOnlyText(t *testing.T) {
	e, _ := NewHashEmbedder(64)
	v, err := e.Embed(context.Background(), "the and of")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(v) != 64 {
		t.Errorf("len(v) = %d, want 64", len(v))
	}
}

func TestHashEmbedder_CancellingTokens(t *testing.T) {
	// One bucket: every token collides, so opposite signs sum to zero
	e, _ := NewHashEmbedder(1)
	_, a := e.bucket("apple")
	_, b := e.bucket("stone")
	if a == b {
		t.Fatal("apple and stone should hash to opposite signs")
	}

	v, err := e.Embed(context.Background(), "apple stone")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(v) != 1 || math.Abs(v[0]-1) > 1e-9 {
		t.Errorf("Embed() = %v, want [1]", v)
	}
}

func TestHashEmbedder_BlankFails(t *testing.T) {
	e, _ := NewHashEmbedder(64)
	_, err := e.Embed(context.Background(), "   ")
	if models.KindOf(err) != models.KindEmbeddingFailure {
		t.Errorf("Embed(blank) kind = %v, want EmbeddingFailure", models.KindOf(err))
	}
}

func TestHashEmbedder_EmbedManyPreservesOrder(t *testing.T) {
	e, _ := NewHashEmbedder(512)
	ctx := context.Background()
	texts := []string{"alpha beta", "gamma delta", "epsilon"}

	many, err := e.EmbedMany(ctx, texts)
	if err != nil {
		t.Fatalf("EmbedMany() error = %v", err)
	}
	for i, text := range texts {
		one, _ := e.Embed(ctx, text)
		if (similarity.Cosine{}).Score(one, many[i]) < 0.9999 {
			t.Errorf("EmbedMany()[%d] does not match Embed(%q)", i, text)
		}
	}
}

func TestHashEmbedder_CanceledContext(t *testing.T) {
	e, _ := NewHashEmbedder(64)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Embed(ctx, "text")
	if models.KindOf(err) != models.KindCanceled {
		t.Errorf("Embed() kind = %v, want Canceled", models.KindOf(err))
	}
}
