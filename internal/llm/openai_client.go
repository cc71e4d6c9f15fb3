// ABOUTME: OpenAI client for embeddings and grounded answer generation
// ABOUTME: Uses text-embedding-3-small for embeddings, gpt-4o-mini for answers (configurable)
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/docqa/internal/models"
	"github.com/harper/docqa/internal/util"
)

const (
	// DefaultChatModel is the default model for chat completions
	DefaultChatModel = "gpt-4o-mini"
	// DefaultEmbeddingModel is the default model for embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultDimensions is the native width of text-embedding-3-small
	DefaultDimensions = 1536
)

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel openai.EmbeddingModel
	Dimensions     int
	Temperature    float32
	MaxRetries     int
	RetryDelay     time.Duration
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:         apiKey,
		ChatModel:      DefaultChatModel,
		EmbeddingModel: DefaultEmbeddingModel,
		Dimensions:     DefaultDimensions,
		Temperature:    0.2,
		MaxRetries:     3,
		RetryDelay:     time.Second * 2,
	}
}

// OpenAIClient wraps the OpenAI API client with retry logic.
// It implements both Embedder and Generator.
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel openai.EmbeddingModel
	dimensions     int
	temperature    float32
	maxRetries     int
	retryDelay     time.Duration
}

// NewOpenAIClient creates a new OpenAI client with the given API key using default configuration
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	return NewOpenAIClientWithConfig(DefaultConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom configuration
func NewOpenAIClientWithConfig(config *ClientConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	apiConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		apiConfig.BaseURL = config.BaseURL
	}

	dims := config.Dimensions
	if dims <= 0 {
		dims = DefaultDimensions
	}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(apiConfig),
		chatModel:      config.ChatModel,
		embeddingModel: config.EmbeddingModel,
		dimensions:     dims,
		temperature:    config.Temperature,
		maxRetries:     config.MaxRetries,
		retryDelay:     config.RetryDelay,
	}, nil
}

// Name identifies the provider
func (c *OpenAIClient) Name() string {
	return "openai"
}

// Dimensions returns the configured embedding width
func (c *OpenAIClient) Dimensions() int {
	return c.dimensions
}

// Embed generates one embedding vector
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float64, error) {
	vecs, err := c.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedMany embeds all texts in one request, returning vectors in input order
func (c *OpenAIClient) EmbedMany(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := openai.EmbeddingRequestStrings{
		Input: texts,
		Model: c.embeddingModel,
	}
	// Only the v3 models accept a requested width
	if strings.HasPrefix(string(c.embeddingModel), "text-embedding-3") {
		req.Dimensions = c.dimensions
	}

	var out [][]float64
	err := util.Retry(ctx, c.maxRetries, c.retryDelay, isRetryable, func(ctx context.Context) error {
		resp, err := c.client.CreateEmbeddings(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
		}

		// Place by index; the API does not promise response order
		vecs := make([][]float64, len(texts))
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= len(texts) {
				return fmt.Errorf("embedding index %d out of range", d.Index)
			}
			// Convert []float32 to []float64
			vec := make([]float64, len(d.Embedding))
			for i, v := range d.Embedding {
				vec[i] = float64(v)
			}
			vecs[d.Index] = vec
		}
		for i, v := range vecs {
			if v == nil {
				return fmt.Errorf("missing embedding for input %d", i)
			}
		}
		out = vecs
		return nil
	})
	if err != nil {
		return nil, classify(models.KindEmbeddingFailure, "openai embed", err)
	}

	for _, v := range out {
		if err := models.ValidateDimension(v, c.dimensions); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Generate answers the query grounded in req.Context
func (c *OpenAIClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	system, user := BuildPrompt(req)

	var answer string
	err := util.Retry(ctx, c.maxRetries, c.retryDelay, isRetryable, func(ctx context.Context) error {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.chatModel,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: system,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: user,
				},
			},
			Temperature: c.temperature,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("no completion choices returned")
		}
		answer = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	})
	if err != nil {
		return "", classify(models.KindGenerationFailure, "openai generate", err)
	}
	return answer, nil
}

// isRetryable treats rate limits, server errors, and transport failures as transient
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return transientStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 0 || transientStatus(reqErr.HTTPStatusCode)
	}
	return true
}

func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// classify maps context errors to their own kinds and everything else to kind
func classify(kind models.Kind, op string, err error) error {
	var classified *models.Error
	if errors.As(err, &classified) {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.WrapError(models.KindTimeout, op, err)
	case errors.Is(err, context.Canceled):
		return models.WrapError(models.KindCanceled, op, err)
	}
	return models.WrapError(kind, op, err)
}
