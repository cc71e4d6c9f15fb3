// ABOUTME: Extractive answer generator that quotes the best-matching context sentences
// ABOUTME: Ranks sentences by query overlap and token frequency; needs no model
package llm

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/harper/docqa/internal/models"
)

// ExtractiveGenerator answers by selecting sentences from the retrieved context
type ExtractiveGenerator struct {
	maxSentences int
	tokenPattern *regexp.Regexp
	sentence     *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewExtractiveGenerator creates a generator returning at most maxSentences sentences
func NewExtractiveGenerator(maxSentences int) *ExtractiveGenerator {
	if maxSentences <= 0 {
		maxSentences = 3
	}
	return &ExtractiveGenerator{
		maxSentences: maxSentences,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`),
		sentence:     regexp.MustCompile(`[^.!?\n]+(?:[.!?]+|$)`),
		stopwords:    defaultStopwords(),
	}
}

// Name identifies the generator
func (g *ExtractiveGenerator) Name() string { return "extractive" }

// Generate returns the highest-scoring context sentences in their original order
func (g *ExtractiveGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", classify(models.KindGenerationFailure, "extractive generate", err)
	}
	if len(req.Context) == 0 {
		return NoContextMessage, nil
	}

	var sentences []string
	for _, block := range req.Context {
		for _, s := range g.sentence.FindAllString(block, -1) {
			if s = strings.TrimSpace(s); s != "" {
				sentences = append(sentences, s)
			}
		}
	}
	if len(sentences) == 0 {
		return NoContextMessage, nil
	}

	// Compute word frequencies across the context
	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range g.tokens(sent) {
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}

	query := map[string]struct{}{}
	for _, tok := range g.tokens(req.Query) {
		query[tok] = struct{}{}
	}

	// Score sentences: query overlap dominates, frequency breaks ties
	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(sentences))
	for i, sent := range sentences {
		toks := g.tokens(sent)
		score := 0.0
		for _, tok := range toks {
			if _, ok := query[tok]; ok {
				score += 2
			}
			score += freq[tok]
		}
		// Normalize by sentence length to avoid bias
		if l := float64(len(toks)); l > 0 {
			score /= math.Sqrt(l)
		}
		scores[i] = pair{i, score}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	n := min(g.maxSentences, len(scores))
	// Keep original order among selected
	selected := make([]int, n)
	for i := 0; i < n; i++ {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)

	out := make([]string, 0, n)
	for _, idx := range selected {
		out = append(out, sentences[idx])
	}
	return strings.Join(out, " "), nil
}

func (g *ExtractiveGenerator) tokens(text string) []string {
	all := g.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := all[:0]
	for _, tok := range all {
		if _, ok := g.stopwords[tok]; ok {
			continue
		}
		out = append(out, tok)
	}
	return out
}
