// ABOUTME: Tests for document export
// ABOUTME: Verifies YAML, JSON, and Markdown output and format detection
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harper/docqa/internal/models"
)

type staticLister []models.Document

func (s staticLister) ListAll(ctx context.Context) ([]models.Document, error) {
	return s, nil
}

func sample() staticLister {
	return staticLister{{
		ID:         "doc-1",
		RawText:    "The capital of France is Paris.",
		Metadata:   map[string]any{"filename": "france.txt", "pages": float64(1)},
		CreatedAt:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		ChunkCount: 1,
	}}
}

func TestCollect(t *testing.T) {
	data, err := Collect(context.Background(), sample())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if data.Tool != "docqa" || len(data.Documents) != 1 {
		t.Fatalf("Collect() = %+v", data)
	}
	if data.Documents[0].ChunkCount != 1 || data.Documents[0].CreatedAt != "2026-03-01T09:00:00Z" {
		t.Errorf("document = %+v", data.Documents[0])
	}
}

func TestWriteFormats(t *testing.T) {
	data, _ := Collect(context.Background(), sample())

	var buf bytes.Buffer
	if err := Write(&buf, data, FormatYAML); err != nil {
		t.Fatalf("Write(yaml) error = %v", err)
	}
	var fromYAML Data
	if err := yaml.Unmarshal(buf.Bytes(), &fromYAML); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if fromYAML.Documents[0].RawText != "The capital of France is Paris." {
		t.Errorf("YAML raw_text = %q", fromYAML.Documents[0].RawText)
	}

	buf.Reset()
	if err := Write(&buf, data, FormatJSON); err != nil {
		t.Fatalf("Write(json) error = %v", err)
	}
	var fromJSON Data
	if err := json.Unmarshal(buf.Bytes(), &fromJSON); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if fromJSON.Documents[0].ID != "doc-1" {
		t.Errorf("JSON id = %q", fromJSON.Documents[0].ID)
	}

	buf.Reset()
	if err := Write(&buf, data, FormatMarkdown); err != nil {
		t.Fatalf("Write(markdown) error = %v", err)
	}
	md := buf.String()
	for _, want := range []string{"## france.txt", "- **Chunks:** 1", "filename=france.txt, pages=1", "Paris."} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name, path string
		want       Format
		wantErr    bool
	}{
		{"", "out.yaml", FormatYAML, false},
		{"", "out.json", FormatJSON, false},
		{"", "notes.md", FormatMarkdown, false},
		{"yml", "", FormatYAML, false},
		{"markdown", "x.json", FormatMarkdown, false},
		{"csv", "", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.name, tt.path)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q, %q) = %q, %v", tt.name, tt.path, got, err)
		}
	}
}

func TestToFileCreatesDirectories(t *testing.T) {
	data, _ := Collect(context.Background(), staticLister{})
	path := filepath.Join(t.TempDir(), "nested", "export.md")
	if err := ToFile(path, data, FormatMarkdown); err != nil {
		t.Fatalf("ToFile() error = %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(content), "No documents stored") {
		t.Errorf("empty export = %q", content)
	}
}
