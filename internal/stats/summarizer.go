package stats

import (
	"math"
	"sort"

	"marketlens/internal/model"
)

// Group keys understood by the summarizer.
const (
	GroupByCategory = "category"
	GroupByPlatform = "platform"
	GroupBySource   = "source"
)

// Summarizer computes per-segment descriptive statistics and the data
// quality and significance scores confidence is built from. It holds no
// mutable state; every call is a pure function of its input.
type Summarizer struct {
	cfg model.StatsConfig
}

// NewSummarizer creates a summarizer with the given thresholds.
func NewSummarizer(cfg model.StatsConfig) *Summarizer {
	return &Summarizer{cfg: cfg}
}

// Summarize groups records by the given key and aggregates each segment.
// The computation is order-independent: metric samples are sorted before
// any accumulation, so permuting the input rows yields bit-identical
// summaries.
func (s *Summarizer) Summarize(records []*model.NormalizedRecord, groupBy string) map[string]model.StatisticalSummary {
	tracked := trackedMetrics(records)
	segments := Group(records, groupBy)

	out := make(map[string]model.StatisticalSummary, len(segments))
	for key, seg := range segments {
		out[key] = s.summarizeSegment(seg, tracked)
	}
	return out
}

// Group builds read-only segment views keyed by the group field.
func Group(records []*model.NormalizedRecord, groupBy string) map[string]*model.DataSegment {
	segments := map[string]*model.DataSegment{}
	for _, rec := range records {
		key := groupKey(rec, groupBy)
		if key == "" {
			continue
		}
		seg, ok := segments[key]
		if !ok {
			seg = &model.DataSegment{Key: key}
			segments[key] = seg
		}
		seg.Records = append(seg.Records, rec)
	}
	return segments
}

func groupKey(rec *model.NormalizedRecord, groupBy string) string {
	switch groupBy {
	case GroupByPlatform:
		return rec.Platform
	case GroupBySource:
		return rec.Source
	default:
		return rec.Category
	}
}

func (s *Summarizer) summarizeSegment(seg *model.DataSegment, tracked []string) model.StatisticalSummary {
	count := seg.Count()
	summary := model.StatisticalSummary{
		Segment: seg.Key,
		Count:   count,
		Metrics: map[string]model.MetricStats{},
	}
	if count == 0 {
		return summary // Quality 0; excluded from claim validation
	}

	present := 0
	for _, metric := range tracked {
		values := make([]float64, 0, count)
		for _, rec := range seg.Records {
			if v, ok := rec.Metric(metric); ok {
				values = append(values, v)
			}
		}
		present += len(values)
		if len(values) == 0 {
			continue // Metric omitted entirely; missing is never zero
		}
		summary.Metrics[metric] = aggregate(values)
	}

	if len(tracked) > 0 {
		summary.Completeness = float64(present) / float64(count*len(tracked))
	}

	sizeAdequacy := math.Min(1, float64(count)/float64(s.cfg.MinSample))
	summary.DataQuality = clamp01(summary.Completeness * sizeAdequacy)
	summary.Significance = s.significance(count, summary.Metrics)

	return summary
}

// aggregate computes stats over a non-empty sample. Sorting first makes
// the floating-point sums independent of input order.
func aggregate(values []float64) model.MetricStats {
	sort.Float64s(values)

	n := len(values)
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	variance := 0.0
	if n > 1 {
		ss := 0.0
		for _, v := range values {
			d := v - mean
			ss += d * d
		}
		variance = ss / float64(n)
	}

	median := values[n/2]
	if n%2 == 0 {
		median = (values[n/2-1] + values[n/2]) / 2
	}

	return model.MetricStats{
		Count:    n,
		Mean:     mean,
		Median:   median,
		Variance: variance,
		Min:      values[0],
		Max:      values[n-1],
	}
}

// significance grows monotonically with sample count, is capped below
// the minimum-sample threshold, and is penalized when dispersion across
// the segment's metrics is high.
func (s *Summarizer) significance(count int, metrics map[string]model.MetricStats) float64 {
	if count == 0 {
		return 0
	}

	sig := float64(count) / float64(count+s.cfg.MinSample)
	if count < s.cfg.MinSample && sig > s.cfg.SignificanceCeiling {
		sig = s.cfg.SignificanceCeiling
	}

	if cv, ok := meanCoefficientOfVariation(metrics); ok && cv > s.cfg.CVThreshold {
		sig *= s.cfg.DispersionPenalty
	}

	return clamp01(sig)
}

// meanCoefficientOfVariation averages std/|mean| over metrics with a
// nonzero mean. Iteration feeds a sorted slice, keeping the result
// independent of map order.
func meanCoefficientOfVariation(metrics map[string]model.MetricStats) (float64, bool) {
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sum := 0.0
	n := 0
	for _, k := range keys {
		m := metrics[k]
		if m.Mean == 0 {
			continue
		}
		sum += math.Sqrt(m.Variance) / math.Abs(m.Mean)
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// trackedMetrics is the sorted union of metric names across the input.
func trackedMetrics(records []*model.NormalizedRecord) []string {
	seen := map[string]bool{}
	for _, rec := range records {
		for name := range rec.Metrics {
			seen[name] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
