// ABOUTME: ChunkEngine splits document text into overlapping segments for embedding
// ABOUTME: Character, word, and sentence strategies with a merged short trailing remainder
package core

import (
	"fmt"
	"unicode"
)

// Strategy names the atomic unit a chunk boundary may not split
type Strategy string

const (
	// StrategyChar cuts at exact rune counts
	StrategyChar Strategy = "char"
	// StrategyWord never cuts inside a word
	StrategyWord Strategy = "word"
	// StrategySentence prefers sentence ends, then word boundaries
	StrategySentence Strategy = "sentence"
)

// ChunkConfig controls chunk sizes, all measured in runes
type ChunkConfig struct {
	Size        int
	Overlap     int
	MinTrailing int
	Strategy    Strategy
}

// Validate checks the size and overlap relationship
func (c ChunkConfig) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.Size)
	}
	if c.Overlap < 0 || c.Overlap >= c.Size {
		return fmt.Errorf("chunk overlap must be in [0, %d), got %d", c.Size, c.Overlap)
	}
	if c.MinTrailing < 0 {
		return fmt.Errorf("minimum trailing size must be >= 0, got %d", c.MinTrailing)
	}
	switch c.Strategy {
	case StrategyChar, StrategyWord, StrategySentence:
	default:
		return fmt.Errorf("unknown chunk strategy %q", c.Strategy)
	}
	return nil
}

// Span is one chunk with its rune offsets into the source text
type Span struct {
	Start int
	End   int
	Text  string
}

// ChunkEngine handles deterministic text chunking
type ChunkEngine struct {
	config ChunkConfig
}

// NewChunkEngine creates a new ChunkEngine instance
func NewChunkEngine(config ChunkConfig) (*ChunkEngine, error) {
	if config.Strategy == "" {
		config.Strategy = StrategyWord
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ChunkEngine{config: config}, nil
}

// Config returns the engine configuration
func (ce *ChunkEngine) Config() ChunkConfig {
	return ce.config
}

// Chunk splits text into ordered chunk strings
func (ce *ChunkEngine) Chunk(text string) []string {
	spans := ce.Split(text)
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = s.Text
	}
	return out
}

// Split returns chunk spans covering text from first rune to last.
// Consecutive spans overlap by at most Overlap runes; empty text yields no spans.
func (ce *ChunkEngine) Split(text string) []Span {
	r := []rune(text)
	n := len(r)
	if n == 0 {
		return nil
	}

	cfg := ce.config
	if n <= cfg.Size {
		return []Span{{Start: 0, End: n, Text: text}}
	}

	var spans []Span
	start := 0
	for {
		end := start + cfg.Size
		if end >= n {
			end = n
		} else {
			end = ce.cutPoint(r, start, end)
			// A short remainder joins this chunk instead of standing alone
			if n-end < cfg.MinTrailing {
				end = n
			}
		}

		spans = append(spans, Span{Start: start, End: end, Text: string(r[start:end])})
		if end == n {
			return spans
		}

		next := ce.nextStart(r, end-cfg.Overlap, end)
		if next <= start {
			next = end
		}
		start = next
	}
}

// cutPoint picks the end of a chunk starting at start with a hard limit of limit
func (ce *ChunkEngine) cutPoint(r []rune, start, limit int) int {
	if ce.config.Strategy == StrategyChar {
		return limit
	}

	floor := start + ce.config.Size/2
	if floor <= start {
		floor = start + 1
	}

	if ce.config.Strategy == StrategySentence {
		for p := limit; p >= floor; p-- {
			if isSentenceBoundary(r, p) {
				return p
			}
		}
	}
	for p := limit; p >= floor; p-- {
		if isWordBoundary(r, p) {
			return p
		}
	}

	// A word longer than the window: keep it whole by running past the limit
	for p := limit + 1; p < len(r); p++ {
		if isWordBoundary(r, p) {
			return p
		}
	}
	return len(r)
}

// nextStart moves the overlap start forward to the next word start
func (ce *ChunkEngine) nextStart(r []rune, from, end int) int {
	if from < 0 {
		from = 0
	}
	if ce.config.Strategy == StrategyChar || from >= end {
		return from
	}
	for p := from; p < end; p++ {
		if isWordStart(r, p) {
			return p
		}
	}
	return end
}

// isWordBoundary reports whether cutting before r[p] keeps every word whole
func isWordBoundary(r []rune, p int) bool {
	if p <= 0 || p >= len(r) {
		return true
	}
	return unicode.IsSpace(r[p-1]) || unicode.IsSpace(r[p])
}

func isWordStart(r []rune, p int) bool {
	if p >= len(r) || unicode.IsSpace(r[p]) {
		return false
	}
	return p == 0 || unicode.IsSpace(r[p-1])
}

// isSentenceBoundary is true after the whitespace that follows terminal punctuation or a newline
func isSentenceBoundary(r []rune, p int) bool {
	if p <= 0 || p >= len(r) {
		return true
	}
	if !unicode.IsSpace(r[p-1]) || unicode.IsSpace(r[p]) {
		return false
	}
	for i := p - 1; i >= 0; i-- {
		switch {
		case r[i] == '\n':
			return true
		case unicode.IsSpace(r[i]):
			continue
		case r[i] == '.' || r[i] == '!' || r[i] == '?':
			return true
		default:
			return false
		}
	}
	return false
}
