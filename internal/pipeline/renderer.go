package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"marketlens/internal/model"
)

// Renderer writes insight bundles to JSON and Markdown.
type Renderer struct {
	includeFooter bool
}

func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the full bundle as indented JSON.
func (r *Renderer) RenderJSON(bundle *model.InsightBundle, path string) error {
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// RenderMarkdown writes a human-readable report.
func (r *Renderer) RenderMarkdown(bundle *model.InsightBundle, path string) error {
	var b strings.Builder

	b.WriteString("# Market Intelligence Report\n\n")
	fmt.Fprintf(&b, "**Generated:** %s  \n", bundle.GeneratedAt.Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&b, "**Records analyzed:** %d  \n", bundle.Records)
	if bundle.Provider != "" {
		fmt.Fprintf(&b, "**Provider:** %s (%s)  \n", bundle.Provider, bundle.Model)
	}
	fmt.Fprintf(&b, "**Overall confidence:** %s %.0f%%\n\n", confidenceBadge(bundle.Confidence.OverallConfidence), bundle.Confidence.OverallConfidence*100)

	if bundle.Degraded {
		b.WriteString("> **Note:** one or more sections use statistics-derived fallback content.\n\n")
	}

	b.WriteString("## Confidence Breakdown\n\n")
	b.WriteString("| Component | Score |\n|---|---|\n")
	fmt.Fprintf(&b, "| Data quality | %.2f |\n", bundle.Confidence.DataQualityScore)
	if !bundle.Confidence.Degraded {
		fmt.Fprintf(&b, "| Statistical significance | %.2f |\n", bundle.Confidence.StatisticalSignificance)
		fmt.Fprintf(&b, "| Supported claim ratio | %.2f (%d checkable) |\n", bundle.Confidence.SupportedRatio, bundle.Confidence.CheckableClaims)
	}
	b.WriteString("\n")

	for _, section := range model.AllSections() {
		si, ok := bundle.Sections[section]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", sectionTitle(section))
		if si.Degraded {
			b.WriteString("_Fallback content (provider unavailable)._\n\n")
		}
		for _, item := range si.Items {
			fmt.Fprintf(&b, "- **%s:** %s\n", fieldTitle(item.Field), item.Text)
		}
		b.WriteString("\n")
		if supported, unsupported := claimCounts(si.Claims); supported+unsupported > 0 {
			fmt.Fprintf(&b, "_%d of %d checkable statements verified against the data._\n\n", supported, supported+unsupported)
		}
	}

	if len(bundle.Priorities.High)+len(bundle.Priorities.Medium)+len(bundle.Priorities.Considerations) > 0 {
		b.WriteString("## Priorities\n\n")
		writePriorityList(&b, "High priority", bundle.Priorities.High)
		writePriorityList(&b, "Medium priority", bundle.Priorities.Medium)
		writePriorityList(&b, "Considerations", bundle.Priorities.Considerations)
	}

	b.WriteString("## Statistical Backing\n\n")
	b.WriteString("| Segment | Records | Quality | Significance |\n|---|---|---|---|\n")
	for _, key := range sortedSummaryKeys(bundle.Summaries) {
		s := bundle.Summaries[key]
		fmt.Fprintf(&b, "| %s | %d | %.2f | %.2f |\n", key, s.Count, s.DataQuality, s.Significance)
	}
	b.WriteString("\n")

	if r.includeFooter {
		fmt.Fprintf(&b, "---\n\n_Run %s. Every insight above was checked against the statistical summaries; confidence reflects data quality, sample size, and verification outcomes._\n", bundle.RunID)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// RenderSummary prints a short result overview to stdout.
func (r *Renderer) RenderSummary(bundle *model.InsightBundle) {
	fmt.Printf("\n%s Analysis complete: %d records, %d segments\n",
		confidenceBadge(bundle.Confidence.OverallConfidence), bundle.Records, len(bundle.Summaries))
	fmt.Printf("  Overall confidence: %.0f%%", bundle.Confidence.OverallConfidence*100)
	if bundle.Confidence.Degraded {
		fmt.Printf(" (degraded: data quality only)")
	}
	fmt.Println()
	for _, section := range model.AllSections() {
		si, ok := bundle.Sections[section]
		if !ok {
			continue
		}
		status := "ok"
		if si.Degraded {
			status = "fallback"
		}
		fmt.Printf("  %-26s %d insights, confidence %.0f%% [%s]\n",
			sectionTitle(section)+":", len(si.Items), si.Confidence.OverallConfidence*100, status)
	}
}

func confidenceBadge(score float64) string {
	switch {
	case score >= 0.7:
		return "🟢"
	case score >= 0.4:
		return "🟡"
	default:
		return "🔴"
	}
}

func sectionTitle(section model.SectionKey) string {
	return fieldTitle(string(section))
}

func fieldTitle(field string) string {
	words := strings.Split(field, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func claimCounts(claims []model.ValidatedClaim) (supported, unsupported int) {
	for _, c := range claims {
		switch c.Outcome {
		case model.ClaimSupported:
			supported++
		case model.ClaimUnsupported:
			unsupported++
		}
	}
	return supported, unsupported
}

func writePriorityList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s**\n\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func sortedSummaryKeys(summaries map[string]model.StatisticalSummary) []string {
	keys := make([]string, 0, len(summaries))
	for k := range summaries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
