// ABOUTME: Tests for the extractive generator
// ABOUTME: Verifies sentence selection, ordering, and the empty-context answer
package llm

import (
	"context"
	"strings"
	"testing"
)

func TestExtractiveGenerator_NoContext(t *testing.T) {
	g := NewExtractiveGenerator(2)
	answer, err := g.Generate(context.Background(), GenerateRequest{Query: "anything"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if answer != NoContextMessage {
		t.Errorf("Generate() = %q, want %q", answer, NoContextMessage)
	}
}

func TestExtractiveGenerator_PicksMatchingSentence(t *testing.T) {
	g := NewExtractiveGenerator(1)
	answer, err := g.Generate(context.Background(), GenerateRequest{
		Query: "What color is the sky?",
		Context: []string{
			"Grass is green. The sky is blue.",
			"Stocks rose 2% today.",
		},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if answer != "The sky is blue." {
		t.Errorf("Generate() = %q, want %q", answer, "The sky is blue.")
	}
}

func TestExtractiveGenerator_KeepsOriginalOrder(t *testing.T) {
	g := NewExtractiveGenerator(2)
	answer, err := g.Generate(context.Background(), GenerateRequest{
		Query:   "rust compiler borrow checker",
		Context: []string{"The borrow checker rejects aliasing. Lunch was late. The compiler is written in Rust."},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	first := strings.Index(answer, "borrow checker")
	second := strings.Index(answer, "compiler is written")
	if first < 0 || second < 0 {
		t.Fatalf("Generate() = %q, want both matching sentences", answer)
	}
	if first > second {
		t.Errorf("sentences out of source order: %q", answer)
	}
	if strings.Contains(answer, "Lunch") {
		t.Errorf("Generate() = %q, should drop the unrelated sentence", answer)
	}
}

func TestExtractiveGenerator_TrailingFragment(t *testing.T) {
	g := NewExtractiveGenerator(3)
	answer, err := g.Generate(context.Background(), GenerateRequest{
		Query:   "deploy",
		Context: []string{"deploy on fridays"},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if answer != "deploy on fridays" {
		t.Errorf("Generate() = %q, want unterminated text kept", answer)
	}
}
