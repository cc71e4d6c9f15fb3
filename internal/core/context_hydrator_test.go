// ABOUTME: Tests for context assembly under a character budget
// ABOUTME: Oversized chunks are skipped without blocking later ones
package core

import (
	"strings"
	"testing"

	"github.com/harper/docqa/internal/models"
)

func results(texts ...string) []models.RetrievalResult {
	out := make([]models.RetrievalResult, len(texts))
	for i, t := range texts {
		out[i] = models.RetrievalResult{Chunk: models.Chunk{Text: t}, Score: float64(len(texts) - i)}
	}
	return out
}

func TestContextHydrator_Hydrate(t *testing.T) {
	tests := []struct {
		name     string
		maxChars int
		in       []models.RetrievalResult
		want     []string
	}{
		{"nothing retrieved", 100, nil, nil},
		{"unlimited", 0, results("aaaa", "bbbb", "cccc"), []string{"aaaa", "bbbb", "cccc"}},
		{"negative is unlimited", -5, results("aaaa", "bbbb"), []string{"aaaa", "bbbb"}},
		// 4 + 2 + 4 = 10 fits exactly
		{"separator counted", 10, results("aaaa", "bbbb", "cccc"), []string{"aaaa", "bbbb"}},
		{"oversized skipped", 10, results("aaaa", strings.Repeat("x", 20), "cc"), []string{"aaaa", "cc"}},
		{"first too big", 3, results("aaaa", "bb"), []string{"bb"}},
		{"runes not bytes", 5, results("ééééé"), []string{"ééééé"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewContextHydrator(tt.maxChars).Hydrate(tt.in)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("Hydrate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewContextHydrator_MaxChars(t *testing.T) {
	if got := NewContextHydrator(-1).MaxChars(); got != 0 {
		t.Errorf("MaxChars() = %d, want 0", got)
	}
	if got := NewContextHydrator(10000).MaxChars(); got != 10000 {
		t.Errorf("MaxChars() = %d, want 10000", got)
	}
}
