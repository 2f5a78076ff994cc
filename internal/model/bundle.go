package model

import "time"

// SectionKey identifies one top-level insight category.
type SectionKey string

const (
	SectionMarketTrends        SectionKey = "market_trends"
	SectionCompetitiveAnalysis SectionKey = "competitive_analysis"
	SectionConsumerInsights    SectionKey = "consumer_insights"
	SectionRecommendations     SectionKey = "strategic_recommendations"
)

// AllSections returns the fixed section order used for generation and
// rendering.
func AllSections() []SectionKey {
	return []SectionKey{
		SectionMarketTrends,
		SectionCompetitiveAnalysis,
		SectionConsumerInsights,
		SectionRecommendations,
	}
}

// InsightItem is one field of generated section content, flattened so
// every sentence can be validated and rendered independently.
type InsightItem struct {
	Field string `json:"field"` // Source field within the section (e.g. "emerging_categories")
	Text  string `json:"text"`
}

// ConfidenceMetrics is the composite confidence attached to a bundle or
// section. All scores are in [0,1]. OverallConfidence is a weighted
// combination of the other three and is monotonic non-decreasing in each.
type ConfidenceMetrics struct {
	OverallConfidence       float64 `json:"overall_confidence"`
	DataQualityScore        float64 `json:"data_quality_score"`
	StatisticalSignificance float64 `json:"statistical_significance"`
	SupportedRatio          float64 `json:"supported_ratio"`
	CheckableClaims         int     `json:"checkable_claims"`
	Degraded                bool    `json:"degraded"` // Significance and supported ratio unavailable; overall = data quality alone
}

// SectionInsight is the validated content of one top-level section.
type SectionInsight struct {
	Items      []InsightItem     `json:"items"`
	Claims     []ValidatedClaim  `json:"claims"`
	Confidence ConfidenceMetrics `json:"confidence"`
	Degraded   bool              `json:"degraded"` // Fallback content, not provider-generated
	Warnings   []string          `json:"warnings,omitempty"`
}

// RecommendationPriorities ranks strategic items for downstream
// consumers.
type RecommendationPriorities struct {
	High           []string `json:"high_priority,omitempty"`
	Medium         []string `json:"medium_priority,omitempty"`
	Considerations []string `json:"considerations,omitempty"`
}

// InsightBundle is the final artifact of one run. Constructed once by
// the assembler, immutable afterwards, and guaranteed JSON-serializable
// with no cyclic references.
type InsightBundle struct {
	RunID       string                        `json:"run_id"`
	GeneratedAt time.Time                     `json:"generated_at"`
	DatasetHash string                        `json:"dataset_hash"` // Content hash of normalized dataset + config
	Records     int                           `json:"records_analyzed"`
	Provider    string                        `json:"provider,omitempty"`
	Model       string                        `json:"model,omitempty"`
	Sections    map[SectionKey]SectionInsight `json:"sections"`
	Summaries   map[string]StatisticalSummary `json:"statistical_backing"`
	Confidence  ConfidenceMetrics             `json:"confidence"`
	Priorities  RecommendationPriorities      `json:"recommendation_priorities"`
	Degraded    bool                          `json:"degraded"` // True when any section fell back to unvalidated content
	Warnings    []string                      `json:"warnings,omitempty"`
}
