// ABOUTME: Command-line benchmark runner for RAGAS tests
// ABOUTME: Executes retrieval and answer benchmarks and outputs JSON results

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/harper/docqa/benchmarks/ragas"
	"github.com/harper/docqa/internal/config"
)

func main() {
	testID := flag.String("test", "", "Run specific test (sky, capitals, html, report). If empty, runs all tests.")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	configPath := flag.String("config", "", "Path to a config file")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found (continuing anyway): %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fmt.Println("========================================")
	fmt.Println("docqa RAGAS Benchmarks")
	fmt.Printf("embedder=%s generator=%s\n", cfg.Embedding.Embedder, cfg.Embedding.Generator)
	fmt.Println("========================================")
	fmt.Println()

	runner, err := ragas.NewBenchmarkRunner(cfg, *verbose)
	if err != nil {
		log.Fatalf("Failed to create benchmark runner: %v", err)
	}

	ctx := context.Background()
	var results []ragas.TestResult

	if *testID == "" {
		fmt.Println("Running all RAGAS benchmark tests...")
		fmt.Println()

		results, err = runner.RunAllTests(ctx)
		if err != nil {
			log.Fatalf("Benchmark failed: %v", err)
		}
	} else {
		scenario, ok := ragas.GetTest(*testID)
		if !ok {
			log.Fatalf("Unknown test ID: %s (valid options: sky, capitals, html, report)", *testID)
		}

		fmt.Printf("Running test: %s\n\n", scenario.Name)

		result, err := runner.RunTest(ctx, scenario)
		if err != nil {
			log.Fatalf("Test failed: %v", err)
		}
		results = []ragas.TestResult{result}
	}

	fmt.Println("\n========================================")
	fmt.Println("BENCHMARK SUMMARY")
	fmt.Println("========================================")

	summary := ragas.Summarize(results)
	for _, result := range results {
		fmt.Printf("\n%s: %s\n", result.TestID, result.TestName)
		fmt.Printf("  Faithfulness: %.2f\n", result.FaithfulnessScore)
		fmt.Printf("  Context Recall: %.2f\n", result.ContextRecallScore)
		fmt.Printf("  Precision@k: %.2f\n", result.PrecisionAtK)
		fmt.Printf("  Reciprocal Rank: %.2f\n", result.ReciprocalRank)
		fmt.Printf("  Overall: %.2f\n", result.OverallScore)
		fmt.Printf("  Status: %s\n", result.Status)
	}

	fmt.Println("\n========================================")
	fmt.Printf("Total Tests: %d\n", summary.TotalTests)
	fmt.Printf("Passed: %d\n", summary.Passed)
	fmt.Printf("Failed: %d\n", summary.Failed)
	fmt.Printf("MRR: %.2f\n", summary.MeanReciprocalRank)
	fmt.Println("========================================")

	if err := runner.ExportResults(results, *outputPath); err != nil {
		log.Fatalf("Failed to export results: %v", err)
	}

	if summary.Failed > 0 {
		os.Exit(1)
	}
}
