// ABOUTME: CLI command to ingest documents
// ABOUTME: Accepts files by path, text as an argument, or text on stdin
package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/docqa/internal/core"
	"github.com/harper/docqa/internal/extract"
)

var (
	ingestFiles []string
	ingestMeta  map[string]string
	ingestID    string
)

// ingestSummary is what ingest prints per document
type ingestSummary struct {
	DocumentID string `json:"document_id"`
	Source     string `json:"source"`
	Chunks     int    `json:"chunks"`
	Characters int    `json:"characters"`
}

// NewIngestCmd creates ingest command
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [text]",
		Short: "Ingest documents or raw text",
		Long: `Ingest documents or raw text into the store.

Files are extracted by extension (` + strings.Join(extract.Supported(), ", ") + `).
Each file becomes one document; a failure stops at that file and
leaves earlier files stored.

Examples:
  docqa ingest "The sky is blue."
  docqa ingest --file report.pdf --file notes.md
  docqa ingest --meta source=wiki --meta author=ann < article.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().StringSliceVarP(&ingestFiles, "file", "f", nil, "File to ingest (repeatable)")
	cmd.Flags().StringToStringVar(&ingestMeta, "meta", nil, "Metadata key=value pairs")
	cmd.Flags().StringVar(&ingestID, "id", "", "Explicit document id (text input only)")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	if len(ingestFiles) > 0 && len(args) > 0 {
		return fmt.Errorf("use either --file or a text argument, not both")
	}
	if ingestID != "" && len(ingestFiles) > 1 {
		return fmt.Errorf("--id applies to a single document")
	}

	var requests []core.IngestRequest
	if len(ingestFiles) > 0 {
		for _, path := range ingestFiles {
			data, err := os.ReadFile(path) // #nosec G304
			if err != nil {
				return fmt.Errorf("reading file: %w", err)
			}
			requests = append(requests, core.IngestRequest{
				Filename: filepath.Base(path),
				Data:     data,
				Metadata: metadataFlags(),
				ID:       ingestID,
			})
		}
	} else {
		var text string
		if len(args) > 0 {
			text = args[0]
		} else {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			text = string(data)
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("no text provided")
		}
		requests = append(requests, core.IngestRequest{
			Text:     text,
			Metadata: metadataFlags(),
			ID:       ingestID,
		})
	}

	ctx := cmd.Context()
	svc, _, err := openService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close(ctx) }()

	summaries := make([]ingestSummary, 0, len(requests))
	for _, req := range requests {
		result, err := svc.Ingest(ctx, req)
		if err != nil {
			source := req.Filename
			if source == "" {
				source = "text"
			}
			return fmt.Errorf("ingesting %s: %w", source, err)
		}

		summary := ingestSummary{
			DocumentID: result.DocumentID,
			Source:     result.Filename,
			Chunks:     len(result.ChunkData),
			Characters: len([]rune(result.ExtractedText)),
		}
		if summary.Source == "" {
			summary.Source = "text"
		}
		summaries = append(summaries, summary)

		if !wantJSON() && !quiet {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Ingested %s as %s (%d chunks, %d chars)\n",
				summary.Source, summary.DocumentID, summary.Chunks, summary.Characters)
		}
	}

	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), summaries)
	}
	return nil
}

func metadataFlags() map[string]any {
	if len(ingestMeta) == 0 {
		return nil
	}
	meta := make(map[string]any, len(ingestMeta))
	for k, v := range ingestMeta {
		meta[k] = v
	}
	return meta
}
