package insight

import "marketlens/internal/model"

// fallbackContent is the static content substituted when the generative
// provider is unavailable. Bundles built from it are always flagged
// degraded; it is never presented as validated.
var fallbackContent = map[model.SectionKey]map[string][]string{
	model.SectionMarketTrends: {
		"emerging_categories":  {"Health & Fitness", "Education Technology", "FinTech", "Mental Wellness"},
		"saturation_analysis":  {"Entertainment and Social categories show high saturation with intense competition, while niche productivity and health segments present white space opportunities"},
		"growth_opportunities": {"AI-powered personalization", "Cross-platform subscription models", "Niche community apps"},
		"market_maturity":      {"Market entering maturation phase with opportunities in specialization and verticalization"},
	},
	model.SectionCompetitiveAnalysis: {
		"top_performers_analysis": {"Leading apps combine frequent feature updates with strong community engagement and data-driven personalization"},
		"pricing_strategies":      {"Freemium dominates top grossing", "Tiered pricing outperforms one-time purchases"},
		"quality_indicators":      {"Update frequency above four releases yearly", "Review response rate", "Feature depth versus category peers"},
		"competitive_intensity":   {"High in social and gaming, moderate in productivity, low in specialized enterprise tools"},
	},
	model.SectionConsumerInsights: {
		"preference_patterns": {"Demand for personalized experiences", "Preference for free with premium options", "Growing privacy consciousness"},
		"rating_behavior":     {"Users rate based on recent experiences; major updates often trigger rating resets"},
		"adoption_factors":    {"Word-of-mouth referrals", "Feature completeness at launch", "Cross-device compatibility"},
		"retention_drivers":   {"Regular meaningful updates", "Community features", "Personalized content"},
	},
	model.SectionRecommendations: {
		"developer_opportunities": {"Focus on underserved professional niches", "Implement AI-driven features", "Build cross-platform presence early"},
		"investment_priorities":   {"User acquisition in emerging markets", "Platform-specific feature development", "Data analytics infrastructure"},
		"risk_factors":            {"Platform policy changes", "Privacy regulation impacts", "Market saturation in core categories"},
		"timing_recommendations":  {"Fourth quarter strongest for consumer app launches", "Enterprise tools perform better in the first quarter"},
	},
}

// Fallback returns the static items for one section.
func Fallback(section model.SectionKey) []model.InsightItem {
	var items []model.InsightItem
	for _, field := range sectionFields[section] {
		for _, text := range fallbackContent[section][field] {
			items = append(items, model.InsightItem{Field: field, Text: text})
		}
	}
	return items
}
