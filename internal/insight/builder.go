package insight

import (
	"fmt"
	"sort"
	"strings"

	"marketlens/internal/model"
)

// RequestPayload is the bounded prompt input for one section request.
// It carries summary statistics only, never raw records.
type RequestPayload struct {
	Section   model.SectionKey `json:"section"`
	Prompt    string           `json:"prompt"`
	Segments  []string         `json:"segments"` // Segment keys included, in serialization order
	MaxTokens int              `json:"max_tokens"`
}

// sectionFields is the required response schema per section, matching
// the documented insight schema consumers expect.
var sectionFields = map[model.SectionKey][]string{
	model.SectionMarketTrends: {
		"emerging_categories", "saturation_analysis", "growth_opportunities", "market_maturity",
	},
	model.SectionCompetitiveAnalysis: {
		"top_performers_analysis", "pricing_strategies", "quality_indicators", "competitive_intensity",
	},
	model.SectionConsumerInsights: {
		"preference_patterns", "rating_behavior", "adoption_factors", "retention_drivers",
	},
	model.SectionRecommendations: {
		"developer_opportunities", "investment_priorities", "risk_factors", "timing_recommendations",
	},
}

// Builder shapes statistical summaries into provider request payloads.
type Builder struct {
	cfg model.InsightConfig
}

// NewBuilder creates a request builder.
func NewBuilder(cfg model.InsightConfig) *Builder {
	return &Builder{cfg: cfg}
}

// Build selects the top-N segments by record count (ties broken by
// lexicographic key, for reproducibility) and serializes their summary
// statistics plus the section instruction into a bounded prompt. Pure
// function of its inputs.
func (b *Builder) Build(summaries map[string]model.StatisticalSummary, section model.SectionKey, maxTokens int) RequestPayload {
	selected := topSegments(summaries, b.cfg.TopSegments)

	var sb strings.Builder
	sb.WriteString("You are a senior market intelligence analyst. Analyze the dataset summary below and respond for the ")
	sb.WriteString(string(section))
	sb.WriteString(" section only.\n\nDATASET SUMMARY:\n")

	var included []string
	for _, key := range selected {
		block := segmentBlock(summaries[key])
		if b.cfg.MaxPayloadBytes > 0 && sb.Len()+len(block) > b.cfg.MaxPayloadBytes {
			break
		}
		sb.WriteString(block)
		included = append(included, key)
	}

	sb.WriteString("\nREQUIRED OUTPUT FORMAT: a single JSON object with exactly these keys: ")
	sb.WriteString(strings.Join(sectionFields[section], ", "))
	sb.WriteString(". Each value is a string or a list of strings.\n")
	sb.WriteString("GUIDELINES: be specific and data-driven; only cite categories from the dataset summary; ")
	sb.WriteString("include numbers only when the summary supports them.\n")

	return RequestPayload{
		Section:   section,
		Prompt:    sb.String(),
		Segments:  included,
		MaxTokens: maxTokens,
	}
}

// topSegments orders by count descending, then key ascending, and takes
// the first n.
func topSegments(summaries map[string]model.StatisticalSummary, n int) []string {
	keys := make([]string, 0, len(summaries))
	for k := range summaries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := summaries[keys[i]].Count, summaries[keys[j]].Count
		if ci != cj {
			return ci > cj
		}
		return keys[i] < keys[j]
	})
	if n > 0 && len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// segmentBlock renders one segment's statistics. Metric order is sorted
// so identical summaries always produce identical prompts.
func segmentBlock(s model.StatisticalSummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "- %s: %d records (quality %.2f, significance %.2f)\n", s.Segment, s.Count, s.DataQuality, s.Significance)

	metrics := make([]string, 0, len(s.Metrics))
	for name := range s.Metrics {
		metrics = append(metrics, name)
	}
	sort.Strings(metrics)

	for _, name := range metrics {
		m := s.Metrics[name]
		fmt.Fprintf(&sb, "    %s: mean %.3f, median %.3f, range %.3f-%.3f (n=%d)\n",
			name, m.Mean, m.Median, m.Min, m.Max, m.Count)
	}
	return sb.String()
}
