// ABOUTME: Builds the configured embedder and generator
// ABOUTME: Applies rate limiting and per-call timeouts around the chosen providers
package llm

import (
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/docqa/internal/config"
)

// New creates the embedder and generator selected by cfg
func New(cfg *config.Config) (Embedder, Generator, error) {
	var (
		client    *OpenAIClient
		embedder  Embedder
		generator Generator
	)

	if cfg.Embedding.Embedder == config.ProviderOpenAI || cfg.Embedding.Generator == config.ProviderOpenAI {
		c, err := NewOpenAIClientWithConfig(&ClientConfig{
			APIKey:         cfg.OpenAI.APIKey,
			BaseURL:        cfg.OpenAI.BaseURL,
			ChatModel:      cfg.OpenAI.ChatModel,
			EmbeddingModel: openai.EmbeddingModel(cfg.OpenAI.EmbeddingModel),
			Dimensions:     cfg.Embedding.Dimension,
			Temperature:    float32(cfg.OpenAI.Temperature),
			MaxRetries:     cfg.OpenAI.MaxRetries,
			RetryDelay:     cfg.OpenAI.RetryDelay,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create OpenAI client: %w", err)
		}
		client = c
	}

	switch cfg.Embedding.Embedder {
	case config.ProviderOpenAI:
		embedder = client
	case config.ProviderHash:
		h, err := NewHashEmbedder(cfg.Embedding.Dimension)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create hash embedder: %w", err)
		}
		embedder = h
	default:
		return nil, nil, fmt.Errorf("unknown embedder %q", cfg.Embedding.Embedder)
	}

	switch cfg.Embedding.Generator {
	case config.ProviderOpenAI:
		generator = client
	case config.ProviderExtractive:
		generator = NewExtractiveGenerator(3)
	default:
		return nil, nil, fmt.Errorf("unknown generator %q", cfg.Embedding.Generator)
	}

	limits := RateLimitConfig{
		RequestsPerSecond: cfg.OpenAI.RequestsPerSecond,
		BurstSize:         cfg.OpenAI.Burst,
	}
	if client != nil {
		if cfg.Embedding.Embedder == config.ProviderOpenAI {
			embedder = NewRateLimitedEmbedder(embedder, limits)
		}
		if cfg.Embedding.Generator == config.ProviderOpenAI {
			generator = NewRateLimitedGenerator(generator, limits)
		}
	}

	embedder = WithEmbedTimeout(embedder, cfg.Embedding.EmbedTimeout)
	generator = WithGenerateTimeout(generator, cfg.Embedding.GenerateTimeout)
	return embedder, generator, nil
}
