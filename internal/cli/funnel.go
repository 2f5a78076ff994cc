package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"marketlens/internal/ingest"
	"marketlens/internal/stats"
)

var funnelJSON string

// funnelCmd represents the funnel command
var funnelCmd = &cobra.Command{
	Use:   "funnel <workbook.xlsx>",
	Short: "Analyze a D2C conversion funnel workbook",
	Long: `Funnel reads a direct-to-consumer funnel workbook, derives per-stage
conversion rates, and reports the biggest leakage points with
optimization priorities.

Example:
  marketlens funnel funnel.xlsx
  marketlens funnel funnel.xlsx --json leakage.json`,
	Args: cobra.ExactArgs(1),
	RunE: runFunnel,
}

func init() {
	rootCmd.AddCommand(funnelCmd)

	funnelCmd.Flags().StringVar(&funnelJSON, "json", "", "output JSON path (optional)")
}

func runFunnel(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	result, err := ingest.NewNormalizer().Normalize(ctx, ingest.NewFunnelExcel(args[0]))
	if err != nil {
		return fmt.Errorf("read workbook: %w", err)
	}

	report := stats.AnalyzeFunnelLeakage(result.Records)

	fmt.Printf("\nFunnel analysis: %d records\n\n", len(result.Records))
	fmt.Println("Conversion rates:")
	stages := make([]string, 0, len(report.ConversionRates))
	for stage := range report.ConversionRates {
		stages = append(stages, stage)
	}
	sort.Strings(stages)
	for _, stage := range stages {
		fmt.Printf("  %-28s %6.2f%%\n", stage+":", report.ConversionRates[stage]*100)
	}

	if len(report.BiggestLeakagePoints) > 0 {
		fmt.Println("\nBiggest leakage points:")
		for _, point := range report.BiggestLeakagePoints {
			fmt.Printf("  ✗ %s\n", point)
		}
	}
	if len(report.OptimizationPriority) > 0 {
		fmt.Println("\nOptimization priority:")
		for i, item := range report.OptimizationPriority {
			fmt.Printf("  %d. %s\n", i+1, item)
		}
	}
	fmt.Println()

	if funnelJSON != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		if err := os.WriteFile(funnelJSON, data, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", funnelJSON)
		}
	}

	return nil
}
