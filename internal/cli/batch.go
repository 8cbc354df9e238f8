package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/chaincontext/chaincontext/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	batchUserID  string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Answer multiple queries from a file in parallel",
	Long: `Batch answers multiple queries concurrently:
- Read queries from input file (one per line, # for comments)
- Process queries in parallel with configurable worker count
- Write one JSON result per query to the output directory

Example:
  chaincontext batch queries.txt
  chaincontext batch queries.txt --concurrency 10 --output-dir ./answers
  chaincontext batch queries.txt --timeout 5m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./chaincontext-answers", "output directory for results")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&batchUserID, "user", "", "user identifier recorded with each query")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Input file:  %s\n", file)
	fmt.Fprintf(os.Stderr, "Workers:     %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "Output dir:  %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "Timeout:     %v\n\n", batchTimeout)

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, cleanup, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	processor := worker.NewBatchProcessor(p, concurrency)

	results, err := processor.ProcessFile(ctx, file, batchUserID)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	successCount := 0
	failureCount := 0

	for i, result := range results {
		if result.GetError() != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "FAIL %q: %v\n", result.Query, result.GetError())
		} else {
			successCount++
		}

		name := fmt.Sprintf("answer-%03d.json", i+1)
		if result.Result != nil && result.Result.QueryID != "" {
			name = "answer-" + result.Result.QueryID[:8] + ".json"
		}

		data, err := json.MarshalIndent(result.Result, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %q: encode result: %v\n", result.Query, err)
			continue
		}
		if err := os.WriteFile(filepath.Join(outputDir, name), data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %q: write result: %v\n", result.Query, err)
			continue
		}

		if result.GetError() == nil {
			fmt.Fprintf(os.Stderr, "OK   %q -> %s\n", result.Query, name)
		}
	}

	fmt.Fprintf(os.Stderr, "\nTotal:    %d queries\n", len(results))
	fmt.Fprintf(os.Stderr, "Success:  %d\n", successCount)
	fmt.Fprintf(os.Stderr, "Failures: %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "Output:   %s\n", outputDir)

	return nil
}
