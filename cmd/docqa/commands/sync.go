// ABOUTME: Sync commands for Charm cloud synchronization
// ABOUTME: Provides status, now, wipe, and keys management for the charm store backend
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/docqa/internal/charm"
	"github.com/harper/docqa/internal/config"
)

// NewSyncCmd creates the sync command group
func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Manage Charm cloud synchronization",
		Long: `Manage synchronization with Charm cloud.

With store.backend set to charm, documents live in a Charm KV database
and sync across devices linked to the same Charm account via SSH keys.`,
	}

	cmd.AddCommand(newSyncStatusCmd())
	cmd.AddCommand(newSyncNowCmd())
	cmd.AddCommand(newSyncWipeCmd())
	cmd.AddCommand(newSyncKeysCmd())

	return cmd
}

// openCharm opens the configured charm database without pulling on open
func openCharm() (*charm.Client, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	client, err := charm.NewClient(&charm.Config{
		Host:   cfg.Store.CharmHost,
		DBName: cfg.Store.CharmDBName,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Charm: %w", err)
	}
	return client, cfg, nil
}

func newSyncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync status and connection info",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := openCharm()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			out := cmd.OutOrStdout()
			id, err := client.ID()
			if err != nil {
				fmt.Fprintln(out, "Status: Not connected")
				fmt.Fprintln(out, "Run 'docqa sync keys' to check your SSH keys")
				return nil
			}

			keys, err := client.ListKeys(charm.DocumentPrefix)
			if err != nil {
				return fmt.Errorf("failed to list documents: %w", err)
			}

			fmt.Fprintln(out, "Status: Connected")
			fmt.Fprintf(out, "User ID: %s\n", id)
			fmt.Fprintf(out, "Host: %s\n", cfg.Store.CharmHost)
			fmt.Fprintf(out, "Database: %s\n", cfg.Store.CharmDBName)
			fmt.Fprintf(out, "Documents: %d\n", len(keys))
			if verbose {
				for _, k := range keys {
					fmt.Fprintf(out, "  %s\n", charm.DocumentID(k))
				}
			}
			if cfg.Store.Backend != config.BackendCharm {
				fmt.Fprintf(out, "Note: store.backend is %s, so ingest does not write here\n", cfg.Store.Backend)
			}
			return nil
		},
	}
}

func newSyncNowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Force immediate sync with Charm cloud",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := openCharm()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			fmt.Fprintln(cmd.OutOrStdout(), "Syncing...")
			if err := client.Sync(); err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Sync complete")
			return nil
		},
	}
}

func newSyncWipeCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Wipe all local data (nuclear option)",
		Long: `Completely wipe all local Charm data.

WARNING: This deletes all locally cached data. Your cloud data
remains intact and will be re-synced on next access.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				fmt.Fprintln(cmd.OutOrStdout(), "This will wipe ALL local data!")
				fmt.Fprintln(cmd.OutOrStdout(), "Run with --confirm to proceed")
				return nil
			}

			client, _, err := openCharm()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			if err := client.Reset(); err != nil {
				return fmt.Errorf("failed to wipe data: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Local data wiped successfully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm the wipe operation")

	return cmd
}

func newSyncKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List authorized SSH keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := openCharm()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			keys, err := client.GetAuthorizedKeys()
			if err != nil {
				return fmt.Errorf("failed to get authorized keys: %w", err)
			}

			if keys == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No authorized keys found")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Authorized SSH keys:")
			fmt.Fprintln(cmd.OutOrStdout(), keys)

			return nil
		},
	}
}
