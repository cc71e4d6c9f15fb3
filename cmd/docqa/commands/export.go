// ABOUTME: CLI command to export stored documents
// ABOUTME: Writes YAML, JSON, or Markdown to stdout or a file
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/docqa/internal/export"
)

// NewExportCmd creates export command
func NewExportCmd() *cobra.Command {
	var (
		output string
		as     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored documents",
		Long: `Export every stored document with its metadata and full text.

Embeddings are not exported; re-ingesting an export rebuilds them.
The format is taken from --as, else from the output file extension,
else YAML.

Examples:
  docqa export
  docqa export -o backup.json
  docqa export --as markdown -o docs.md`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(as, output)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, _, err := openService(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close(ctx) }()

			data, err := export.Collect(ctx, svc.Store())
			if err != nil {
				return err
			}

			if output == "" {
				return export.Write(cmd.OutOrStdout(), data, format)
			}
			if err := export.ToFile(output, data, format); err != nil {
				return err
			}
			if !quiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "✓ Exported %d document(s) to %s\n", len(data.Documents), output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&as, "as", "", "Export format: yaml, json, or markdown")

	return cmd
}
