// ABOUTME: CLI command to remove every stored document
// ABOUTME: Requires --confirm since the operation cannot be undone
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewResetCmd creates reset command
func NewResetCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Remove all stored documents",
		Long: `Remove every document and chunk from the store.

WARNING: This cannot be undone. Run 'docqa export' first to keep a copy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				fmt.Fprintln(cmd.OutOrStdout(), "This will remove ALL stored documents!")
				fmt.Fprintln(cmd.OutOrStdout(), "Run with --confirm to proceed")
				return nil
			}

			ctx := cmd.Context()
			svc, _, err := openService(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close(ctx) }()

			removed, err := svc.Reset(ctx)
			if err != nil {
				return fmt.Errorf("resetting store: %w", err)
			}

			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"message": "Database reset successfully.",
					"removed": removed,
				})
			}
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %d document(s)\n", removed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm the reset")

	return cmd
}
