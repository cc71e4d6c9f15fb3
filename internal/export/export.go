// ABOUTME: Export of stored documents for backup and inspection
// ABOUTME: Supports YAML, JSON, and Markdown export formats
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harper/docqa/internal/models"
)

// Lister is the part of the store export needs
type Lister interface {
	ListAll(ctx context.Context) ([]models.Document, error)
}

// Data represents the complete exportable data structure
type Data struct {
	Version    string     `yaml:"version" json:"version"`
	ExportedAt string     `yaml:"exported_at" json:"exported_at"`
	Tool       string     `yaml:"tool" json:"tool"`
	Documents  []Document `yaml:"documents" json:"documents"`
}

// Document represents one stored document for export
type Document struct {
	ID         string         `yaml:"id" json:"id"`
	CreatedAt  string         `yaml:"created_at" json:"created_at"`
	ChunkCount int            `yaml:"chunk_count" json:"chunk_count"`
	Metadata   map[string]any `yaml:"metadata,omitempty" json:"metadata,omitempty"`
	RawText    string         `yaml:"raw_text" json:"raw_text"`
}

// Collect reads every document from the store
func Collect(ctx context.Context, store Lister) (*Data, error) {
	docs, err := store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	data := &Data{
		Version:    "1.0",
		ExportedAt: time.Now().Format(time.RFC3339),
		Tool:       "docqa",
		Documents:  make([]Document, 0, len(docs)),
	}
	for _, d := range docs {
		data.Documents = append(data.Documents, Document{
			ID:         d.ID,
			CreatedAt:  d.CreatedAt.Format(time.RFC3339),
			ChunkCount: d.NumChunks(),
			Metadata:   d.Metadata,
			RawText:    d.RawText,
		})
	}
	return data, nil
}

// Format names an output encoding
type Format string

const (
	FormatYAML     Format = "yaml"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts a format name or infers one from a file extension
func ParseFormat(name, path string) (Format, error) {
	if name == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			return FormatJSON, nil
		case ".md", ".markdown":
			return FormatMarkdown, nil
		default:
			return FormatYAML, nil
		}
	}
	switch strings.ToLower(name) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown export format %q (use yaml, json, or markdown)", name)
}

// Write encodes data to w in the given format
func Write(w io.Writer, data *Data, format Format) error {
	switch format {
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return encoder.Close()
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	case FormatMarkdown:
		return writeMarkdown(w, data)
	}
	return fmt.Errorf("unknown export format %q", format)
}

// ToFile writes data to outputPath, creating parent directories
func ToFile(outputPath string, data *Data, format Format) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(outputPath) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return Write(file, data, format)
}

func writeMarkdown(w io.Writer, data *Data) error {
	_, _ = fmt.Fprintf(w, "# Document Export - %s\n\n", time.Now().Format("2006-01-02"))
	_, _ = fmt.Fprintf(w, "Generated: %s\n\n", data.ExportedAt)

	if len(data.Documents) == 0 {
		_, err := fmt.Fprintln(w, "*No documents stored.*")
		return err
	}

	for _, doc := range data.Documents {
		_, _ = fmt.Fprintf(w, "## %s\n\n", title(doc))
		_, _ = fmt.Fprintf(w, "- **ID:** %s\n", doc.ID)
		_, _ = fmt.Fprintf(w, "- **Created:** %s\n", doc.CreatedAt)
		_, _ = fmt.Fprintf(w, "- **Chunks:** %d\n", doc.ChunkCount)
		if len(doc.Metadata) > 0 {
			_, _ = fmt.Fprintf(w, "- **Metadata:** %s\n", formatMetadata(doc.Metadata))
		}
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, doc.RawText)
		_, _ = fmt.Fprintln(w)
		if _, err := fmt.Fprintln(w, "---"); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(w)
	}
	return nil
}

// title prefers a filename from metadata over the id
func title(doc Document) string {
	for _, key := range []string{"filename", "source", "title"} {
		if v, ok := doc.Metadata[key].(string); ok && v != "" {
			return v
		}
	}
	return doc.ID
}

func formatMetadata(meta map[string]any) string {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, meta[k])
	}
	return strings.Join(parts, ", ")
}
