// ABOUTME: Bounded top-k selection over scored chunks
// ABOUTME: Ties go to the earlier-inserted chunk so results are deterministic
package similarity

import (
	"container/heap"
	"sort"

	"github.com/harper/docqa/internal/models"
)

// TopK keeps the k best results seen so far
type TopK struct {
	k int
	h resultHeap
}

// NewTopK creates a collector for at most k results; k < 1 is treated as 1
func NewTopK(k int) *TopK {
	if k < 1 {
		k = 1
	}
	return &TopK{k: k, h: make(resultHeap, 0, k)}
}

// Push offers a chunk with its score
func (t *TopK) Push(chunk models.Chunk, score float64) {
	r := models.RetrievalResult{Chunk: chunk, Score: score}
	if len(t.h) < t.k {
		heap.Push(&t.h, r)
		return
	}
	// h[0] is the worst kept result
	if better(r, t.h[0]) {
		t.h[0] = r
		heap.Fix(&t.h, 0)
	}
}

// Len returns how many results are held
func (t *TopK) Len() int {
	return len(t.h)
}

// Results returns kept results ordered best first
func (t *TopK) Results() []models.RetrievalResult {
	out := make([]models.RetrievalResult, len(t.h))
	copy(out, t.h)
	sort.Slice(out, func(i, j int) bool { return better(out[i], out[j]) })
	return out
}

// Rank scores every chunk against query and returns the k best
func Rank(metric Metric, query []float64, chunks []models.Chunk, k int) []models.RetrievalResult {
	top := NewTopK(k)
	for _, c := range chunks {
		top.Push(c, metric.Score(query, c.Embedding))
	}
	return top.Results()
}

// better orders by score descending, then insertion sequence ascending
func better(a, b models.RetrievalResult) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Chunk.Seq < b.Chunk.Seq
}

// resultHeap is a min-heap with the worst result at the root
type resultHeap []models.RetrievalResult

func (h resultHeap) Len() int           { return len(h) }
func (h resultHeap) Less(i, j int) bool { return better(h[j], h[i]) }
func (h resultHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *resultHeap) Push(x any) {
	*h = append(*h, x.(models.RetrievalResult))
}

func (h *resultHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
