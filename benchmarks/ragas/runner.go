// ABOUTME: Test runner for RAGAS benchmarks - executes scenarios and collects results
// ABOUTME: Each scenario gets a fresh in-memory store, ingests its documents, and asks its question

package ragas

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/harper/docqa/internal/config"
	"github.com/harper/docqa/internal/core"
)

// BenchmarkRunner executes RAGAS benchmark tests
type BenchmarkRunner struct {
	config  *config.Config
	metrics *MetricsCalculator
	verbose bool
}

// NewBenchmarkRunner creates a runner using the providers in cfg.
// The store backend is always replaced with a fresh memory store per scenario.
func NewBenchmarkRunner(cfg *config.Config, verbose bool) (*BenchmarkRunner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	runCfg := *cfg
	runCfg.Store.Backend = config.BackendMemory
	runCfg.Tracing.Endpoint = ""
	if err := runCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid benchmark config: %w", err)
	}

	return &BenchmarkRunner{
		config:  &runCfg,
		metrics: NewMetricsCalculator(),
		verbose: verbose,
	}, nil
}

// RunTest executes a single benchmark test
func (r *BenchmarkRunner) RunTest(ctx context.Context, scenario TestScenario) (TestResult, error) {
	if r.verbose {
		fmt.Printf("\n========================================\n")
		fmt.Printf("RUNNING: %s\n", scenario.Name)
		fmt.Printf("========================================\n")
		fmt.Printf("Description: %s\n\n", scenario.Description)
	}

	svc, err := core.Open(ctx, r.config)
	if err != nil {
		return TestResult{}, fmt.Errorf("failed to create test store: %w", err)
	}
	defer func() { _ = svc.Close(ctx) }()

	for i, doc := range scenario.Documents {
		req := core.IngestRequest{Text: doc.Content}
		if doc.Filename != "" {
			req = core.IngestRequest{Filename: doc.Filename, Data: []byte(doc.Content)}
		}
		result, err := svc.Ingest(ctx, req)
		if err != nil {
			return TestResult{}, fmt.Errorf("ingesting document %d: %w", i, err)
		}
		if r.verbose {
			fmt.Printf("[Ingest] %s -> %d chunk(s)\n", result.DocumentID, len(result.ChunkData))
		}
	}

	start := time.Now()
	resp, err := svc.Query(ctx, core.QueryRequest{
		Query: scenario.Question,
		K:     scenario.K,
		Mode:  scenario.Mode,
	})
	if err != nil {
		return TestResult{}, fmt.Errorf("query failed: %w", err)
	}

	if r.verbose {
		fmt.Printf("[Query] %s\n", scenario.Question)
		for i, chunk := range resp.RetrievedChunks {
			fmt.Printf("  %d. (%.3f) %s\n", i+1, resp.Scores[i], preview(chunk, 80))
		}
		fmt.Printf("[Answer] %s\n", preview(resp.Answer, 150))
	}

	result := r.metrics.EvaluateTest(scenario, resp.Answer, resp.RetrievedChunks)
	result.Details["latency_ms"] = time.Since(start).Milliseconds()
	result.Details["embedder"] = svc.Embedder().Name()
	result.Details["generator"] = svc.Generator().Name()
	return result, nil
}

// RunAllTests executes all benchmark tests
func (r *BenchmarkRunner) RunAllTests(ctx context.Context) ([]TestResult, error) {
	scenarios := GetAllTests()
	results := make([]TestResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		result, err := r.RunTest(ctx, scenario)
		if err != nil {
			return nil, fmt.Errorf("test %s failed: %w", scenario.ID, err)
		}
		results = append(results, result)
	}

	return results, nil
}

// Summary aggregates results for export
type Summary struct {
	Timestamp          string       `json:"timestamp"`
	TotalTests         int          `json:"total_tests"`
	Passed             int          `json:"passed"`
	Failed             int          `json:"failed"`
	MeanReciprocalRank float64      `json:"mean_reciprocal_rank"`
	Results            []TestResult `json:"results"`
}

// Summarize counts passes and averages reciprocal rank
func Summarize(results []TestResult) Summary {
	summary := Summary{
		Timestamp:  time.Now().Format(time.RFC3339),
		TotalTests: len(results),
		Results:    results,
	}
	for _, result := range results {
		if result.Status == "PASS" {
			summary.Passed++
		} else {
			summary.Failed++
		}
		summary.MeanReciprocalRank += result.ReciprocalRank
	}
	if len(results) > 0 {
		summary.MeanReciprocalRank /= float64(len(results))
	}
	return summary
}

// ExportResults exports test results to JSON
func (r *BenchmarkRunner) ExportResults(results []TestResult, outputPath string) error {
	jsonData, err := json.MarshalIndent(Summarize(results), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if err := os.WriteFile(outputPath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}

	fmt.Printf("✓ Results exported to: %s\n", outputPath)
	return nil
}
