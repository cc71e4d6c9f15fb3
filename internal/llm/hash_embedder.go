// ABOUTME: Deterministic feature-hashing embedder that needs no network access
// ABOUTME: Tokens are hashed into signed buckets and the vector is L2-normalized
package llm

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/harper/docqa/internal/models"
)

// HashEmbedder embeds text by hashing word tokens into a fixed number of buckets.
// Texts that share words score high under cosine similarity.
type HashEmbedder struct {
	dimension    int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewHashEmbedder creates an embedder producing vectors of the given width
func NewHashEmbedder(dimension int) (*HashEmbedder, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dimension)
	}
	return &HashEmbedder{
		dimension:    dimension,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`),
		stopwords:    defaultStopwords(),
	}, nil
}

// Name returns the identifier of this embedder implementation
func (e *HashEmbedder) Name() string { return "hash" }

// Dimensions returns the vector width
func (e *HashEmbedder) Dimensions() int { return e.dimension }

// Embed hashes the tokens of text into a normalized vector.
// Text made only of stopwords or symbols hashes as a single token; blank text fails.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify(models.KindEmbeddingFailure, "hash embed", err)
	}

	toks := e.tokens(text)
	if len(toks) == 0 {
		whole := strings.ToLower(strings.TrimSpace(text))
		if whole == "" {
			return nil, models.NewError(models.KindEmbeddingFailure, "hash embed", "text is blank")
		}
		toks = []string{whole}
	}

	vec, ok := e.vectorize(toks, true)
	if !ok {
		// Opposite signs in a shared bucket cancelled out; plain counts cannot
		vec, _ = e.vectorize(toks, false)
	}
	return vec, nil
}

// vectorize accumulates token buckets and L2-normalizes; ok is false for a zero vector
func (e *HashEmbedder) vectorize(toks []string, signed bool) ([]float64, bool) {
	vec := make([]float64, e.dimension)
	for _, tok := range toks {
		idx, sign := e.bucket(tok)
		if !signed {
			sign = 1
		}
		vec[idx] += sign
	}

	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec, false
	}
	for i := range vec {
		vec[i] /= norm
	}
	return vec, true
}

// EmbedMany embeds each text in order
func (e *HashEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (e *HashEmbedder) tokens(text string) []string {
	all := e.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := all[:0]
	for _, tok := range all {
		if _, isStop := e.stopwords[tok]; isStop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// bucket picks an index from the low bits and a sign from the top bit
func (e *HashEmbedder) bucket(tok string) (int, float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(tok))
	sum := h.Sum64()
	sign := 1.0
	if sum>>63 == 1 {
		sign = -1.0
	}
	return int(sum % uint64(e.dimension)), sign
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
