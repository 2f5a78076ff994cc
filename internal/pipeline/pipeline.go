package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"marketlens/internal/cache"
	"marketlens/internal/ingest"
	"marketlens/internal/insight"
	"marketlens/internal/llm"
	"marketlens/internal/logging"
	"marketlens/internal/model"
	"marketlens/internal/score"
	"marketlens/internal/stats"
	"marketlens/internal/validate"
)

// Pipeline orchestrates the complete analysis: normalize, summarize,
// generate, validate, score, assemble.
type Pipeline struct {
	normalizer *ingest.Normalizer
	summarizer *stats.Summarizer
	builder    *insight.Builder
	validator  *validate.Validator
	scorer     *score.Scorer
	provider   llm.Provider // nil when generation is disabled
	store      cache.Store  // nil when caching is disabled
	renderer   *Renderer
	log        *logging.Logger
	config     model.Config
}

// NewPipeline creates a pipeline with the given configuration.
func NewPipeline(cfg model.Config, log *logging.Logger) *Pipeline {
	if log == nil {
		log = logging.New()
	}

	provider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		log.WithStage("init").WithError(err).Warn("provider unavailable, bundles will degrade")
		provider = nil
	}

	var store cache.Store
	if cfg.Cache.Enabled {
		memory := cache.NewMemory(cfg.Cache.MemoryTTL)
		disk, err := cache.NewDisk(cfg.Cache.Dir)
		if err != nil {
			log.WithStage("init").WithError(err).Warn("disk cache unavailable, using memory only")
			store = memory
		} else {
			store = cache.NewLayered(memory, disk, cfg.Cache.MemoryTTL)
		}
	}

	return &Pipeline{
		normalizer: ingest.NewNormalizer(),
		summarizer: stats.NewSummarizer(cfg.Stats),
		builder:    insight.NewBuilder(cfg.Insight),
		validator:  validate.NewValidator(cfg.Validation),
		scorer:     score.NewScorer(cfg.Score),
		provider:   provider,
		store:      store,
		renderer:   NewRenderer(cfg.Output.IncludeFooter),
		log:        log,
		config:     cfg,
	}
}

// Analyze runs the full pipeline over the given sources and returns the
// assembled bundle.
func (p *Pipeline) Analyze(ctx context.Context, sources ...ingest.Source) (*model.InsightBundle, error) {
	result, err := p.normalizer.Normalize(ctx, sources...)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	for _, srcErr := range result.SourceErrors {
		p.log.WithStage("ingest").WithError(srcErr).Warn("source failed, continuing with remaining data")
	}
	if result.Dropped > 0 {
		p.log.WithStage("ingest").Warnf("dropped %d invalid rows", result.Dropped)
	}

	return p.GenerateBundle(ctx, result.Records)
}

// AnalyzeFile runs the pipeline over one local dataset file, picking
// the ingestion source by extension.
func (p *Pipeline) AnalyzeFile(ctx context.Context, path string) (*model.InsightBundle, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return p.Analyze(ctx, ingest.NewPlayStoreCSV(path))
	case ".xlsx", ".xlsm":
		return p.Analyze(ctx, ingest.NewFunnelExcel(path))
	default:
		return nil, fmt.Errorf("unsupported dataset format: %s", path)
	}
}

// GenerateBundle summarizes the normalized records, generates and
// validates each section, and assembles the final bundle. Provider
// failures never fail the run; affected sections carry fallback content
// and degraded confidence.
func (p *Pipeline) GenerateBundle(ctx context.Context, records []*model.NormalizedRecord) (*model.InsightBundle, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no records to analyze")
	}

	key := cache.DatasetKey(records, p.config)
	if p.store != nil {
		if data, ok := p.store.Get(key); ok {
			var cached model.InsightBundle
			if err := json.Unmarshal(data, &cached); err == nil {
				p.log.WithStage("cache").Debug("returning cached bundle")
				return &cached, nil
			}
		}
	}

	summaries := p.summarizer.Summarize(records, stats.GroupByCategory)

	sections := make(map[model.SectionKey]model.SectionInsight, len(model.AllSections()))
	var mu sync.Mutex

	workers := p.config.Concurrency.SectionWorkers
	if workers <= 0 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, section := range model.AllSections() {
		section := section
		g.Go(func() error {
			si := p.generateSection(gctx, section, summaries)
			mu.Lock()
			sections[section] = si
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; sections degrade in isolation.
	g.Wait()

	bundle := &model.InsightBundle{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		DatasetHash: key,
		Records:     len(records),
		Sections:    sections,
		Summaries:   summaries,
	}
	if p.provider != nil {
		bundle.Provider = p.provider.Name()
		bundle.Model = p.config.LLM.Model
	}

	var allClaims []model.ValidatedClaim
	anyGenerated := false
	for _, section := range model.AllSections() {
		si := sections[section]
		if si.Degraded {
			bundle.Degraded = true
			bundle.Warnings = append(bundle.Warnings, fmt.Sprintf("section %s used fallback content", section))
			continue
		}
		anyGenerated = true
		allClaims = append(allClaims, si.Claims...)
	}
	if anyGenerated {
		bundle.Confidence = p.scorer.Score(summaries, allClaims)
	} else {
		bundle.Confidence = p.scorer.Degraded(summaries)
	}
	bundle.Priorities = buildPriorities(sections[model.SectionRecommendations])

	// Degraded bundles are never cached: the summaries are reproducible
	// but the provider outage is not, and a retry on the same dataset
	// must re-attempt generation rather than replay the fallback.
	if p.store != nil && !bundle.Degraded {
		if data, err := json.Marshal(bundle); err == nil {
			if err := p.store.Set(key, data, p.config.Cache.DiskTTL); err != nil {
				p.log.WithStage("cache").WithError(err).Warn("failed to cache bundle")
			}
		}
	}

	return bundle, nil
}

// generateSection produces one validated section. Any provider or parse
// failure degrades this section only.
func (p *Pipeline) generateSection(ctx context.Context, section model.SectionKey, summaries map[string]model.StatisticalSummary) model.SectionInsight {
	if p.provider == nil {
		return p.fallbackSection(section, summaries, "generation disabled")
	}

	payload := p.builder.Build(summaries, section, p.config.LLM.MaxTokens)
	raw, err := p.provider.Generate(ctx, llm.GenerateRequest{
		Prompt:    payload.Prompt,
		Model:     p.config.LLM.Model,
		MaxTokens: payload.MaxTokens,
	})
	if err != nil {
		p.log.WithStage("generate").WithError(err).Warnf("section %s failed, using fallback", section)
		return p.fallbackSection(section, summaries, err.Error())
	}

	parsed := insight.Parse(*raw, section)
	if len(parsed.Items) == 0 {
		p.log.WithStage("generate").Warnf("section %s returned no parseable content, using fallback", section)
		return p.fallbackSection(section, summaries, "empty response")
	}

	claims := p.validator.ValidateItems(parsed.Items, summaries)
	return model.SectionInsight{
		Items:      parsed.Items,
		Claims:     claims,
		Confidence: p.scorer.Score(summaries, claims),
		Warnings:   parsed.Warnings,
	}
}

func (p *Pipeline) fallbackSection(section model.SectionKey, summaries map[string]model.StatisticalSummary, reason string) model.SectionInsight {
	items := insight.Fallback(section)
	return model.SectionInsight{
		Items:      items,
		Claims:     p.validator.ValidateItems(items, summaries),
		Confidence: p.scorer.Degraded(summaries),
		Degraded:   true,
		Warnings:   []string{reason},
	}
}

// Render writes the bundle to the requested outputs and prints the
// stdout summary.
func (p *Pipeline) Render(bundle *model.InsightBundle, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(bundle, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote JSON: %s\n", jsonPath)
		}
	}
	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(bundle, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote Markdown: %s\n", mdPath)
		}
	}
	p.renderer.RenderSummary(bundle)
	return nil
}

// buildPriorities ranks strategic items by their source field:
// developer opportunities first, investment priorities second, risks
// and timing as considerations.
func buildPriorities(strategic model.SectionInsight) model.RecommendationPriorities {
	var out model.RecommendationPriorities
	for _, item := range strategic.Items {
		switch item.Field {
		case "developer_opportunities":
			out.High = append(out.High, item.Text)
		case "investment_priorities":
			out.Medium = append(out.Medium, item.Text)
		default:
			out.Considerations = append(out.Considerations, item.Text)
		}
	}
	sort.Strings(out.Considerations)
	return out
}
