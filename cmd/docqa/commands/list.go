// ABOUTME: CLI command to list stored documents
// ABOUTME: Shows ids, chunk counts, ages, and a text preview
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewListCmd creates list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored documents",
		Long: `List stored documents, oldest first.

Examples:
  docqa list
  docqa list --format json`,
		Args: cobra.NoArgs,
		RunE: runList,
	}

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, _, err := openService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close(ctx) }()

	docs, err := svc.Documents(ctx)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), docs)
	}

	if len(docs) == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No documents found\n")
		}
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tSOURCE\tCHUNKS\tCREATED\tPREVIEW\n")
	fmt.Fprintf(w, "--\t------\t------\t-------\t-------\n")

	for _, doc := range docs {
		source, _ := doc.Metadata["filename"].(string)
		if source == "" {
			source = "(text)"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			doc.ID,
			truncate(source, 25),
			doc.NumChunks(),
			formatTime(doc.CreatedAt),
			truncate(oneLine(doc.RawText), 40))
	}
	w.Flush()

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\nTotal: %d document(s)\n", len(docs))
	}
	return nil
}
