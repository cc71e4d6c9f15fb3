// ABOUTME: Root command with global flags shared by every docqa subcommand
// ABOUTME: Loads .env and configuration once before a subcommand runs
package commands

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/harper/docqa/internal/config"
	"github.com/harper/docqa/internal/core"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
	configPath   string
)

const banner = `
 ██████╗  ██████╗  ██████╗ ██████╗  █████╗
 ██╔══██╗██╔═══██╗██╔════╝██╔═══██╗██╔══██╗
 ██║  ██║██║   ██║██║     ██║   ██║███████║
 ██║  ██║██║   ██║██║     ██║▄▄ ██║██╔══██║
 ██████╔╝╚██████╔╝╚██████╗╚██████╔╝██║  ██║
 ╚═════╝  ╚═════╝  ╚═════╝ ╚══▀▀═╝ ╚═╝  ╚═╝`

// NewRootCmd creates the root command and attaches every subcommand
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docqa",
		Short: "Ask questions about your documents",
		Long: banner + `

docqa ingests documents (text, Markdown, HTML, DOCX, PDF), splits them
into overlapping chunks, embeds each chunk, and answers questions from
the chunks most similar to the question.

Run 'docqa serve' for the HTTP API or 'docqa mcp' for LLM agents.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// A missing .env is normal outside development
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, json, or text")
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a config file (yaml, json, or toml)")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewIngestCmd())
	cmd.AddCommand(NewQueryCmd())
	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewResetCmd())
	cmd.AddCommand(NewSyncCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig reads --config plus the environment
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if !quiet {
		cfg.PrintWarnings()
	}
	return cfg, nil
}

// openService loads configuration and opens the store with its collaborators.
// Callers own the returned service and must Close it.
func openService(ctx context.Context) (*core.Service, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	svc, err := core.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing service: %w", err)
	}
	svc.SetVerbose(verbose)
	return svc, cfg, nil
}

// wantJSON reports whether output should be JSON
func wantJSON() bool {
	return outputFormat == "json"
}
