package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"marketlens/internal/logging"
	"marketlens/internal/pipeline"
	"marketlens/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	// noFooter and the LLM flags are defined in analyze.go and shared here
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <manifest>",
	Short: "Analyze multiple dataset files in parallel",
	Long: `Batch analyzes multiple dataset files concurrently:
- Read dataset paths from a manifest file (one per line)
- CSV files are treated as Play Store exports, XLSX as funnel workbooks
- Each dataset gets its own validated insight bundle
- A failed dataset never affects the others

Example:
  marketlens batch datasets.txt
  marketlens batch datasets.txt --concurrency 8 --output-dir ./reports
  marketlens batch datasets.txt --llm openai`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "", "output directory for bundles (default from config)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable result cache")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// LLM flags
	batchCmd.Flags().StringVar(&llmProvider, "llm", "", "generation provider (openai, gemini; empty disables generation)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "", "generation model name (provider default if empty)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	manifest := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.BatchWorkers = concurrency
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Batch analysis: %s (%d workers, output %s)\n\n",
		manifest, cfg.Concurrency.BatchWorkers, cfg.Output.Dir)

	p := pipeline.NewPipeline(cfg, logging.New())
	processor := worker.NewBatchProcessor(p, cfg.Concurrency.BatchWorkers)

	results, err := processor.ProcessManifest(ctx, manifest)
	if err != nil {
		return fmt.Errorf("process manifest: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}

		slug := datasetSlug(result.Path)
		jsonPath := filepath.Join(cfg.Output.Dir, slug+".json")
		mdPath := filepath.Join(cfg.Output.Dir, slug+".md")

		if err := renderer.RenderJSON(result.Bundle, jsonPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Path, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Bundle, mdPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Path, err)
			continue
		}

		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s (confidence %.0f%%, %d records)\n",
			result.Path, result.Bundle.Confidence.OverallConfidence*100, result.Bundle.Records)
	}

	fmt.Fprintf(os.Stderr, "\nBatch complete: %d succeeded, %d failed, output in %s\n",
		successCount, failureCount, cfg.Output.Dir)

	if failureCount > 0 && successCount == 0 {
		return fmt.Errorf("all %d datasets failed", failureCount)
	}
	return nil
}

// datasetSlug derives a filesystem-safe output name from a dataset path.
func datasetSlug(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		default:
			return '_'
		}
	}, base)
	if len(base) > 100 {
		base = base[:100]
	}
	if base == "" {
		base = "dataset"
	}
	return base
}
