// ABOUTME: Similarity metrics for comparing embedding vectors
// ABOUTME: Higher scores always mean more similar, whatever the metric
package similarity

import (
	"fmt"
	"math"
	"strings"
)

// Metric scores two vectors of equal length
type Metric interface {
	Name() string
	Score(a, b []float64) float64
}

// Cosine is the dot product over the product of magnitudes, in [-1, 1].
// A zero-magnitude vector scores 0 against anything.
type Cosine struct{}

func (Cosine) Name() string { return "cosine" }

func (Cosine) Score(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Dot is the raw inner product; equals cosine for L2-normalized vectors
type Dot struct{}

func (Dot) Name() string { return "dot" }

func (Dot) Score(a, b []float64) float64 {
	n := min(len(a), len(b))
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// Euclidean scores by negated L2 distance so that nearer is higher
type Euclidean struct{}

func (Euclidean) Name() string { return "euclidean" }

func (Euclidean) Score(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.Inf(-1)
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return -math.Sqrt(sum)
}

// ParseMetric resolves a metric by name; empty selects cosine
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "cosine":
		return Cosine{}, nil
	case "dot", "dot_product":
		return Dot{}, nil
	case "euclidean", "l2":
		return Euclidean{}, nil
	default:
		return nil, fmt.Errorf("unknown similarity metric %q", name)
	}
}
