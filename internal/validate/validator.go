package validate

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"marketlens/internal/insight"
	"marketlens/internal/model"
)

// categoryPattern matches explicit category references such as
// "Finance apps" or "Health & Fitness category".
var categoryPattern = regexp.MustCompile(`([A-Z][A-Za-z0-9&' ]{0,40}?)\s+(?:apps|category|categories|segment)`)

// numberPattern matches asserted numeric values, including percentages.
var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?%?`)

// metricAliases maps claim vocabulary onto tracked metric names.
var metricAliases = map[string][]string{
	"rating":                  {"star", "stars", "rating", "rated"},
	"review_count":            {"review", "reviews"},
	"price":                   {"price", "priced", "dollar", "$", "cost"},
	"installs":                {"install", "installs", "download", "downloads"},
	"revenue":                 {"revenue"},
	"roas":                    {"roas", "return on ad spend"},
	"cac":                     {"cac", "acquisition cost"},
	"ctr":                     {"ctr", "click-through"},
	"ad_spend":                {"ad spend", "spend"},
	"overall_conversion_rate": {"conversion rate", "conversion"},
	"retention_rate":          {"retention"},
}

// Result is the validation outcome for one raw response. The validator
// never fails on malformed input; warnings carry what could not be
// interpreted.
type Result struct {
	Claims   []model.ValidatedClaim
	Warnings []string
}

// Validator checks generated insight content against statistical
// summaries.
type Validator struct {
	cfg model.ValidationConfig
}

// NewValidator creates a validator with the given tolerance settings.
func NewValidator(cfg model.ValidationConfig) *Validator {
	return &Validator{cfg: cfg}
}

// Validate parses the raw provider response for one section and checks
// every extracted claim against the summaries.
func (v *Validator) Validate(raw model.RawInsightResponse, section model.SectionKey, summaries map[string]model.StatisticalSummary) Result {
	parsed := insight.Parse(raw, section)

	result := Result{Warnings: parsed.Warnings}
	result.Claims = v.ValidateItems(parsed.Items, summaries)
	return result
}

// ValidateItems checks already-parsed insight items. Segments with zero
// records are excluded from validation entirely.
func (v *Validator) ValidateItems(items []model.InsightItem, summaries map[string]model.StatisticalSummary) []model.ValidatedClaim {
	index := buildSegmentIndex(summaries)

	claims := make([]model.ValidatedClaim, 0, len(items))
	for _, item := range items {
		claims = append(claims, v.validateClaim(item.Text, summaries, index))
	}
	return claims
}

// validateClaim applies the decision rules:
//   - a cited category absent from the data is unsupported;
//   - a cited category present in the data with a numeric assertion is
//     supported iff the value falls within the observed range plus
//     tolerance for the inferred metric;
//   - claims with no checkable reference are unverifiable.
func (v *Validator) validateClaim(text string, summaries map[string]model.StatisticalSummary, index map[string]string) model.ValidatedClaim {
	claim := model.ValidatedClaim{Text: text}
	lower := strings.ToLower(text)

	cited, segmentKey := findCategory(text, lower, index)
	if cited == "" {
		claim.Outcome = model.ClaimUnverifiable
		claim.Reason = "no checkable category reference"
		return claim
	}
	claim.Category = cited

	if segmentKey == "" {
		claim.Outcome = model.ClaimUnsupported
		claim.Reason = fmt.Sprintf("category %q not present in the data", cited)
		return claim
	}

	value, percent, hasValue := findNumber(lower)
	if !hasValue {
		claim.Outcome = model.ClaimSupported
		claim.Reason = "category present in the data"
		return claim
	}

	metric := inferMetric(lower)
	if metric == "" {
		claim.Outcome = model.ClaimUnverifiable
		claim.Reason = "numeric claim but metric not identifiable"
		return claim
	}
	stats, ok := summaries[segmentKey].Metrics[metric]
	if !ok {
		claim.Outcome = model.ClaimUnverifiable
		claim.Reason = fmt.Sprintf("metric %q not observed for segment %q", metric, segmentKey)
		return claim
	}

	// Percentages asserted against ratio-valued metrics are rescaled.
	if percent && stats.Max <= 1 {
		value /= 100
	}
	claim.Metric = metric
	claim.Value = &value

	lo, hi := toleranceBounds(stats, v.cfg.RangeTolerance)
	if value >= lo && value <= hi {
		claim.Outcome = model.ClaimSupported
		claim.Reason = fmt.Sprintf("%.3f within observed range %.3f-%.3f", value, stats.Min, stats.Max)
	} else {
		claim.Outcome = model.ClaimUnsupported
		claim.Reason = fmt.Sprintf("%.3f outside observed range %.3f-%.3f", value, stats.Min, stats.Max)
	}
	return claim
}

// toleranceBounds widens the observed range by the configured fraction.
// Degenerate ranges (single observed value) fall back to a fraction of
// the magnitude so exact-match is not required.
func toleranceBounds(stats model.MetricStats, tolerance float64) (float64, float64) {
	span := stats.Max - stats.Min
	tol := tolerance * span
	if span == 0 {
		tol = tolerance * math.Max(math.Abs(stats.Max), 1)
	}
	return stats.Min - tol, stats.Max + tol
}

// buildSegmentIndex maps lowercase segment keys to their actual keys,
// skipping zero-record segments.
func buildSegmentIndex(summaries map[string]model.StatisticalSummary) map[string]string {
	index := make(map[string]string, len(summaries))
	for key, s := range summaries {
		if s.Count == 0 {
			continue
		}
		index[strings.ToLower(key)] = key
	}
	return index
}

// findCategory returns the cited category text and, when it exists in
// the data, the matching segment key. Known segment names are matched
// first (longest wins); otherwise an explicit "<Name> apps/category"
// reference counts as a citation of an absent category.
func findCategory(text, lower string, index map[string]string) (cited, segmentKey string) {
	best := ""
	for lowerKey, key := range index {
		if !strings.Contains(lower, lowerKey) {
			continue
		}
		// Longest match wins; equal lengths tie-break lexicographically
		// so the result never depends on map order.
		if len(lowerKey) > len(best) || (len(lowerKey) == len(best) && lowerKey < best) {
			best = lowerKey
			cited = key
			segmentKey = key
		}
	}
	if cited != "" {
		return cited, segmentKey
	}

	if m := categoryPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), ""
	}
	return "", ""
}

// findNumber extracts the first asserted numeric value.
func findNumber(lower string) (value float64, percent, ok bool) {
	m := numberPattern.FindString(lower)
	if m == "" {
		return 0, false, false
	}
	if strings.HasSuffix(m, "%") {
		percent = true
		m = strings.TrimSuffix(m, "%")
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false, false
	}
	return v, percent, true
}

// inferMetric picks the tracked metric a claim talks about. The longest
// matching alias wins; text matching no alias yields no metric rather
// than a guess.
func inferMetric(lower string) string {
	best := ""
	bestLen := 0
	for metric, aliases := range metricAliases {
		for _, alias := range aliases {
			if !strings.Contains(lower, alias) {
				continue
			}
			// Equal-length aliases tie-break on metric name so the
			// result never depends on map order.
			if len(alias) > bestLen || (len(alias) == bestLen && metric < best) {
				best = metric
				bestLen = len(alias)
			}
		}
	}
	return best
}
