// ABOUTME: Per-call deadlines for embedder and generator collaborators
// ABOUTME: A call that outlives its budget fails with Timeout, not an upstream failure
package llm

import (
	"context"
	"errors"
	"time"

	"github.com/harper/docqa/internal/models"
)

// TimeoutEmbedder bounds every embedding call
type TimeoutEmbedder struct {
	inner   Embedder
	timeout time.Duration
}

// TimeoutGenerator bounds every generation call
type TimeoutGenerator struct {
	inner   Generator
	timeout time.Duration
}

// WithEmbedTimeout wraps e so each call gets at most d; d <= 0 returns e unchanged
func WithEmbedTimeout(e Embedder, d time.Duration) Embedder {
	if d <= 0 {
		return e
	}
	return &TimeoutEmbedder{inner: e, timeout: d}
}

// WithGenerateTimeout wraps g so each call gets at most d; d <= 0 returns g unchanged
func WithGenerateTimeout(g Generator, d time.Duration) Generator {
	if d <= 0 {
		return g
	}
	return &TimeoutGenerator{inner: g, timeout: d}
}

func (t *TimeoutEmbedder) Name() string    { return t.inner.Name() }
func (t *TimeoutEmbedder) Dimensions() int { return t.inner.Dimensions() }

func (t *TimeoutEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	v, err := t.inner.Embed(callCtx, text)
	if err != nil {
		return nil, boundedError(ctx, callCtx, models.KindEmbeddingFailure, "embed", t.timeout, err)
	}
	return v, nil
}

func (t *TimeoutEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float64, error) {
	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	v, err := t.inner.EmbedMany(callCtx, texts)
	if err != nil {
		return nil, boundedError(ctx, callCtx, models.KindEmbeddingFailure, "embed", t.timeout, err)
	}
	return v, nil
}

func (t *TimeoutGenerator) Name() string { return t.inner.Name() }

func (t *TimeoutGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	answer, err := t.inner.Generate(callCtx, req)
	if err != nil {
		return "", boundedError(ctx, callCtx, models.KindGenerationFailure, "generate", t.timeout, err)
	}
	return answer, nil
}

// boundedError tells apart the caller going away, our own deadline firing, and upstream failure
func boundedError(parent, call context.Context, kind models.Kind, op string, timeout time.Duration, err error) error {
	if perr := parent.Err(); perr != nil {
		if errors.Is(perr, context.DeadlineExceeded) {
			return models.WrapError(models.KindTimeout, op, perr)
		}
		return models.WrapError(models.KindCanceled, op, perr)
	}
	if errors.Is(call.Err(), context.DeadlineExceeded) {
		return &models.Error{
			Kind:    models.KindTimeout,
			Op:      op,
			Message: "exceeded " + timeout.String(),
			Err:     err,
		}
	}
	return classify(kind, op, err)
}
