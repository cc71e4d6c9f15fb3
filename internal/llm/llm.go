// ABOUTME: Collaborator interfaces for embedding and answer generation
// ABOUTME: The core depends only on these, never on a specific model vendor
package llm

import "context"

// Embedder maps text to fixed-length vectors
type Embedder interface {
	// Embed returns one vector for text
	Embed(ctx context.Context, text string) ([]float64, error)
	// EmbedMany returns one vector per input, in input order
	EmbedMany(ctx context.Context, texts []string) ([][]float64, error)
	// Dimensions is the length of every vector this embedder returns
	Dimensions() int
	Name() string
}

// Generator produces an answer from a query and its retrieved context
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	Name() string
}

// GenerateRequest carries everything a generator may use
type GenerateRequest struct {
	Query string
	// Context holds retrieved chunk texts, most similar first
	Context []string
	// Instruction adjusts verbosity; empty means no extra instruction
	Instruction string
}
