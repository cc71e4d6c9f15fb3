// ABOUTME: Token-bucket rate limiting for embedder and generator calls
// ABOUTME: Waiting honours the caller's context so cancelled requests stop queueing
package llm

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/harper/docqa/internal/models"
)

// RateLimitConfig holds rate limiting configuration for upstream calls
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit
	RequestsPerSecond float64
	// BurstSize is the maximum burst size
	BurstSize int
}

// RateLimitedEmbedder delays calls to stay under a request rate
type RateLimitedEmbedder struct {
	inner   Embedder
	limiter *rate.Limiter
}

// RateLimitedGenerator delays calls to stay under a request rate
type RateLimitedGenerator struct {
	inner   Generator
	limiter *rate.Limiter
}

func newLimiter(cfg RateLimitConfig) *rate.Limiter {
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
}

// NewRateLimitedEmbedder wraps e; a non-positive rate returns e unchanged
func NewRateLimitedEmbedder(e Embedder, cfg RateLimitConfig) Embedder {
	if cfg.RequestsPerSecond <= 0 {
		return e
	}
	return &RateLimitedEmbedder{inner: e, limiter: newLimiter(cfg)}
}

// NewRateLimitedGenerator wraps g; a non-positive rate returns g unchanged
func NewRateLimitedGenerator(g Generator, cfg RateLimitConfig) Generator {
	if cfg.RequestsPerSecond <= 0 {
		return g
	}
	return &RateLimitedGenerator{inner: g, limiter: newLimiter(cfg)}
}

func (r *RateLimitedEmbedder) Name() string    { return r.inner.Name() }
func (r *RateLimitedEmbedder) Dimensions() int { return r.inner.Dimensions() }

func (r *RateLimitedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, waitError(ctx, models.KindEmbeddingFailure, err)
	}
	return r.inner.Embed(ctx, text)
}

// EmbedMany counts as one request; batching is what the limit rewards
func (r *RateLimitedEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float64, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, waitError(ctx, models.KindEmbeddingFailure, err)
	}
	return r.inner.EmbedMany(ctx, texts)
}

func (r *RateLimitedGenerator) Name() string { return r.inner.Name() }

func (r *RateLimitedGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", waitError(ctx, models.KindGenerationFailure, err)
	}
	return r.inner.Generate(ctx, req)
}

// waitError reports a limiter wait that could not finish before the deadline as a timeout
func waitError(ctx context.Context, kind models.Kind, err error) error {
	if ctx.Err() != nil {
		return classify(kind, "rate limit", ctx.Err())
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		// rate.Limiter refuses up front when the wait would pass the deadline
		return models.WrapError(models.KindTimeout, "rate limit", err)
	}
	return models.WrapError(kind, "rate limit", err)
}
