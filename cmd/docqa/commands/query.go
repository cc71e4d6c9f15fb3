// ABOUTME: CLI command to ask a question against stored documents
// ABOUTME: Prints the answer and, in verbose mode, the retrieved chunks with scores
package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/docqa/internal/core"
	"github.com/harper/docqa/internal/models"
)

var (
	queryK    int
	queryMode string
)

// queryOutput is the JSON form of a query result
type queryOutput struct {
	Query           string    `json:"query"`
	Response        string    `json:"response"`
	ResponseMode    string    `json:"response_mode"`
	ContextUsed     int       `json:"context_used"`
	RetrievedChunks []string  `json:"retrieved_chunk"`
	Scores          []float64 `json:"scores"`
	ProcessingTime  float64   `json:"processing_time"`
}

// NewQueryCmd creates query command
func NewQueryCmd() *cobra.Command {
	modes := make([]string, 0, len(models.Modes()))
	for _, m := range models.Modes() {
		modes = append(modes, string(m))
	}

	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Ask a question about stored documents",
		Long: `Ask a question about stored documents.

The question is embedded, the k most similar chunks are retrieved,
and an answer is produced according to the response mode
(` + strings.Join(modes, ", ") + `).

Examples:
  docqa query "What color is the sky?"
  docqa query -k 5 --mode db_only "quarterly revenue"
  docqa query --format json "Who wrote the report?"`,
		Args: cobra.ExactArgs(1),
		RunE: runQuery,
	}

	cmd.Flags().IntVarP(&queryK, "k", "k", 0, "Chunks to retrieve (0 uses the configured default)")
	cmd.Flags().StringVarP(&queryMode, "mode", "m", string(models.DefaultMode), "Response mode")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryK < 0 {
		return validatePositiveInt(queryK, "k")
	}

	ctx := cmd.Context()
	svc, _, err := openService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close(ctx) }()

	resp, err := svc.Query(ctx, core.QueryRequest{
		Query: args[0],
		K:     queryK,
		Mode:  queryMode,
	})
	if err != nil {
		return fmt.Errorf("querying: %w", err)
	}

	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), queryOutput{
			Query:           args[0],
			Response:        resp.Answer,
			ResponseMode:    string(resp.Mode),
			ContextUsed:     resp.ContextUsed,
			RetrievedChunks: resp.RetrievedChunks,
			Scores:          resp.Scores,
			ProcessingTime:  resp.Elapsed.Seconds(),
		})
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, resp.Answer)

	if verbose && len(resp.RetrievedChunks) > 0 {
		_, _ = fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "RANK\tSCORE\tCHUNK\n")
		_, _ = fmt.Fprintf(w, "----\t-----\t-----\n")
		for i, chunk := range resp.RetrievedChunks {
			_, _ = fmt.Fprintf(w, "%d\t%.3f\t%s\n", i+1, resp.Scores[i], truncate(oneLine(chunk), 70))
		}
		_ = w.Flush()
	}

	if !quiet {
		_, _ = fmt.Fprintf(out, "\n[%s] %d chunk(s) retrieved, %d used as context in %s\n",
			resp.Mode, len(resp.RetrievedChunks), resp.ContextUsed, resp.Elapsed.Round(time.Millisecond))
	}
	return nil
}
