// ABOUTME: ContextHydrator turns ranked retrieval results into generation context
// ABOUTME: Enforces a character budget; chunks that do not fit are dropped whole
package core

import (
	"unicode/utf8"

	"github.com/harper/docqa/internal/models"
)

// contextSeparator joins chunks in the prompt; it counts against the budget
const contextSeparator = "\n\n"

// ContextHydrator assembles the context handed to a generator
type ContextHydrator struct {
	maxChars int
}

// NewContextHydrator creates a hydrator; maxChars <= 0 means unlimited
func NewContextHydrator(maxChars int) *ContextHydrator {
	if maxChars < 0 {
		maxChars = 0
	}
	return &ContextHydrator{maxChars: maxChars}
}

// MaxChars returns the budget, 0 for unlimited
func (ch *ContextHydrator) MaxChars() int {
	return ch.maxChars
}

// Hydrate returns chunk texts in result order, skipping any that would overflow the budget.
// A skipped chunk does not stop later, shorter chunks from being used.
func (ch *ContextHydrator) Hydrate(results []models.RetrievalResult) []string {
	if len(results) == 0 {
		return nil
	}

	sepLen := utf8.RuneCountInString(contextSeparator)
	used := 0
	out := make([]string, 0, len(results))
	for _, r := range results {
		cost := utf8.RuneCountInString(r.Chunk.Text)
		if len(out) > 0 {
			cost += sepLen
		}
		if ch.maxChars > 0 && used+cost > ch.maxChars {
			continue
		}
		used += cost
		out = append(out, r.Chunk.Text)
	}
	return out
}
