package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"marketlens/internal/ingest"
	"marketlens/internal/logging"
	"marketlens/internal/model"
	"marketlens/internal/pipeline"
)

var (
	playstorePath string
	funnelPath    string
	appstoreApps  []string
	outJSON       string
	outMD         string
	timeout       time.Duration
	noCache       bool
	noFooter      bool
	llmProvider   string
	llmModel      string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze market datasets and generate a validated insight bundle",
	Long: `Analyze ingests one or more datasets, computes per-segment statistics,
generates insight sections, and validates every quantitative claim
against the data before scoring and rendering the bundle.

Sources can be combined; at least one is required:
- Google Play CSV export (--playstore)
- App Store live data via RapidAPI (--appstore, needs RAPIDAPI_KEY)
- D2C funnel Excel workbook (--funnel)

Example:
  marketlens analyze --playstore googleplaystore.csv
  marketlens analyze --playstore apps.csv --funnel funnel.xlsx --md report.md
  marketlens analyze --playstore apps.csv --llm openai --llm-model gpt-4o-mini`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Source flags
	analyzeCmd.Flags().StringVar(&playstorePath, "playstore", "", "Google Play CSV export path")
	analyzeCmd.Flags().StringVar(&funnelPath, "funnel", "", "D2C funnel Excel workbook path")
	analyzeCmd.Flags().StringSliceVar(&appstoreApps, "appstore", nil, "App Store bundle IDs to fetch via RapidAPI")

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")

	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall analysis timeout")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable result cache (force fresh analysis)")
	analyzeCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// LLM flags
	analyzeCmd.Flags().StringVar(&llmProvider, "llm", "", "generation provider (openai, gemini; empty disables generation)")
	analyzeCmd.Flags().StringVar(&llmModel, "llm-model", "", "generation model name (provider default if empty)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	sources, err := buildSources()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	p := pipeline.NewPipeline(cfg, logging.New())

	if verbose {
		names := make([]string, len(sources))
		for i, s := range sources {
			names[i] = s.Name()
		}
		fmt.Fprintf(os.Stderr, "Analyzing sources: %s\n", strings.Join(names, ", "))
	}

	bundle, err := p.Analyze(ctx, sources...)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Analyzed %d records across %d segments\n", bundle.Records, len(bundle.Summaries))
		fmt.Fprintf(os.Stderr, "✓ Overall confidence: %.0f%%\n", bundle.Confidence.OverallConfidence*100)
	}

	if err := p.Render(bundle, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}

// buildSources assembles ingestion sources from flags. At least one
// source must be configured.
func buildSources() ([]ingest.Source, error) {
	var sources []ingest.Source

	if playstorePath != "" {
		sources = append(sources, ingest.NewPlayStoreCSV(playstorePath))
	}
	if funnelPath != "" {
		sources = append(sources, ingest.NewFunnelExcel(funnelPath))
	}
	if len(appstoreApps) > 0 {
		cfg, err := buildConfig()
		if err != nil {
			return nil, err
		}
		if cfg.AppStore.APIKey == "" {
			return nil, fmt.Errorf("RAPIDAPI_KEY environment variable not set")
		}
		sources = append(sources, ingest.NewAppStoreAPI(cfg.AppStore, appstoreApps))
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no data sources configured (use --playstore, --funnel, or --appstore)")
	}
	return sources, nil
}

// buildConfig merges defaults, the config file, environment API keys,
// and CLI flags, in increasing priority.
func buildConfig() (model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.Cache.Enabled = cfg.Cache.Enabled && !noCache
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter
	cfg.AppStore.APIKey = os.Getenv("RAPIDAPI_KEY")

	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}

	switch cfg.LLM.Provider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return cfg, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "gemini", "google":
		cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return cfg, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	}

	return cfg, nil
}
