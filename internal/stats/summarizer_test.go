package stats

import (
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"marketlens/internal/model"
)

func testConfig() model.StatsConfig {
	return model.StatsConfig{
		MinSample:           30,
		SignificanceCeiling: 0.5,
		CVThreshold:         1.0,
		DispersionPenalty:   0.75,
	}
}

func record(id, category string, metrics map[string]float64) *model.NormalizedRecord {
	return &model.NormalizedRecord{
		ID:       id,
		Name:     id,
		Category: category,
		Source:   "test",
		Metrics:  metrics,
	}
}

func TestSummarizer_Summarize_GroupsByCategory(t *testing.T) {
	s := NewSummarizer(testConfig())

	records := []*model.NormalizedRecord{
		record("a", "Health", map[string]float64{"rating": 4.0}),
		record("b", "Health", map[string]float64{"rating": 4.5}),
		record("c", "Finance", map[string]float64{"rating": 3.0}),
	}

	summaries := s.Summarize(records, GroupByCategory)

	if len(summaries) != 2 {
		t.Fatalf("Expected 2 segments, got %d", len(summaries))
	}
	if summaries["Health"].Count != 2 {
		t.Errorf("Expected Health count 2, got %d", summaries["Health"].Count)
	}
	if summaries["Finance"].Count != 1 {
		t.Errorf("Expected Finance count 1, got %d", summaries["Finance"].Count)
	}

	health := summaries["Health"].Metrics["rating"]
	if math.Abs(health.Mean-4.25) > 1e-9 {
		t.Errorf("Expected Health rating mean 4.25, got %f", health.Mean)
	}
	if health.Min != 4.0 || health.Max != 4.5 {
		t.Errorf("Expected range 4.0-4.5, got %f-%f", health.Min, health.Max)
	}
}

func TestSummarizer_Summarize_OrderIndependent(t *testing.T) {
	s := NewSummarizer(testConfig())

	var records []*model.NormalizedRecord
	categories := []string{"Health", "Finance", "Games"}
	for i := 0; i < 90; i++ {
		records = append(records, record(
			fmt.Sprintf("r%d", i),
			categories[i%len(categories)],
			map[string]float64{
				"rating":       1.0 + float64(i)*0.037,
				"review_count": float64(i * i),
				"price":        0.99 * float64(i%7),
			},
		))
	}

	forward := s.Summarize(records, GroupByCategory)

	reversed := make([]*model.NormalizedRecord, len(records))
	for i, rec := range records {
		reversed[len(records)-1-i] = rec
	}
	backward := s.Summarize(reversed, GroupByCategory)

	if diff := cmp.Diff(forward, backward); diff != "" {
		t.Errorf("Summaries differ under permutation (-forward +backward):\n%s", diff)
	}
}

func TestSummarizer_Summarize_ScoresWithinRange(t *testing.T) {
	s := NewSummarizer(testConfig())

	var records []*model.NormalizedRecord
	for i := 0; i < 200; i++ {
		records = append(records, record(
			fmt.Sprintf("r%d", i), "Games",
			map[string]float64{"rating": float64(i % 5), "installs": float64(i * 1000)},
		))
	}

	for key, summary := range s.Summarize(records, GroupByCategory) {
		if summary.DataQuality < 0 || summary.DataQuality > 1 {
			t.Errorf("Segment %s: data quality %f out of [0,1]", key, summary.DataQuality)
		}
		if summary.Significance < 0 || summary.Significance > 1 {
			t.Errorf("Segment %s: significance %f out of [0,1]", key, summary.Significance)
		}
		if summary.Completeness < 0 || summary.Completeness > 1 {
			t.Errorf("Segment %s: completeness %f out of [0,1]", key, summary.Completeness)
		}
	}
}

func TestSummarizer_Significance_GrowsWithSampleSize(t *testing.T) {
	s := NewSummarizer(testConfig())

	build := func(n int) []*model.NormalizedRecord {
		var records []*model.NormalizedRecord
		for i := 0; i < n; i++ {
			records = append(records, record(
				fmt.Sprintf("r%d", i), "Health",
				map[string]float64{"rating": 4.0 + float64(i%10)*0.05},
			))
		}
		return records
	}

	small := s.Summarize(build(5), GroupByCategory)["Health"]
	large := s.Summarize(build(500), GroupByCategory)["Health"]

	if small.Significance >= large.Significance {
		t.Errorf("Expected significance to grow with sample size: 5 records %f, 500 records %f",
			small.Significance, large.Significance)
	}
	if small.Significance > testConfig().SignificanceCeiling {
		t.Errorf("Expected significance capped at %f below minimum sample, got %f",
			testConfig().SignificanceCeiling, small.Significance)
	}
}

func TestSummarizer_Significance_DispersionPenalty(t *testing.T) {
	s := NewSummarizer(testConfig())

	// 90 small values and 10 large outliers push the coefficient of
	// variation well past the threshold.
	var records []*model.NormalizedRecord
	for i := 0; i < 100; i++ {
		v := 1.0
		if i%10 == 0 {
			v = 10000.0
		}
		records = append(records, record(fmt.Sprintf("r%d", i), "Volatile", map[string]float64{"revenue": v}))
	}

	sig := s.Summarize(records, GroupByCategory)["Volatile"].Significance

	base := 100.0 / 130.0
	want := base * 0.75
	if math.Abs(sig-want) > 1e-9 {
		t.Errorf("Expected penalized significance %f, got %f", want, sig)
	}
}

func TestSummarizer_Summarize_MissingIsNotZero(t *testing.T) {
	s := NewSummarizer(testConfig())

	records := []*model.NormalizedRecord{
		record("a", "Health", map[string]float64{"rating": 4.0}),
		record("b", "Health", map[string]float64{"rating": model.Missing()}),
	}

	stats, ok := s.Summarize(records, GroupByCategory)["Health"].Metrics["rating"]
	if !ok {
		t.Fatal("Expected rating metric to be present")
	}
	if stats.Count != 1 {
		t.Errorf("Expected 1 non-missing sample, got %d", stats.Count)
	}
	if stats.Mean != 4.0 {
		t.Errorf("Expected mean 4.0 (missing excluded), got %f", stats.Mean)
	}
}

func TestSummarizer_Summarize_MetricWithNoSamplesOmitted(t *testing.T) {
	s := NewSummarizer(testConfig())

	records := []*model.NormalizedRecord{
		record("a", "Health", map[string]float64{"rating": model.Missing()}),
		record("b", "Health", map[string]float64{"rating": model.Missing()}),
	}

	summary := s.Summarize(records, GroupByCategory)["Health"]
	if _, ok := summary.Metrics["rating"]; ok {
		t.Error("Expected all-missing metric to be omitted from the summary")
	}
	if summary.Completeness != 0 {
		t.Errorf("Expected completeness 0, got %f", summary.Completeness)
	}
	if summary.DataQuality != 0 {
		t.Errorf("Expected data quality 0, got %f", summary.DataQuality)
	}
}

func TestAggregate_DegenerateSample(t *testing.T) {
	stats := aggregate([]float64{4.2})

	if stats.Count != 1 {
		t.Errorf("Expected count 1, got %d", stats.Count)
	}
	if stats.Mean != 4.2 || stats.Median != 4.2 {
		t.Errorf("Expected mean and median 4.2, got %f / %f", stats.Mean, stats.Median)
	}
	if stats.Variance != 0 {
		t.Errorf("Expected variance 0 for single sample, got %f", stats.Variance)
	}
	if stats.Min != 4.2 || stats.Max != 4.2 {
		t.Errorf("Expected degenerate range, got %f-%f", stats.Min, stats.Max)
	}
}

func TestAggregate_EvenSampleMedian(t *testing.T) {
	stats := aggregate([]float64{4.0, 1.0, 3.0, 2.0})

	if math.Abs(stats.Median-2.5) > 1e-9 {
		t.Errorf("Expected median 2.5, got %f", stats.Median)
	}
	if math.Abs(stats.Mean-2.5) > 1e-9 {
		t.Errorf("Expected mean 2.5, got %f", stats.Mean)
	}
}

func TestGroup_SkipsEmptyKeys(t *testing.T) {
	records := []*model.NormalizedRecord{
		record("a", "Health", nil),
		record("b", "", nil),
	}

	segments := Group(records, GroupByCategory)
	if len(segments) != 1 {
		t.Fatalf("Expected 1 segment, got %d", len(segments))
	}
	if segments["Health"].Count() != 1 {
		t.Errorf("Expected Health count 1, got %d", segments["Health"].Count())
	}
}
