package model

// MetricStats holds per-metric aggregates for one segment. Only
// non-missing samples contribute; a metric with zero samples is omitted
// from the summary entirely so summaries stay JSON-serializable.
type MetricStats struct {
	Count    int     `json:"count"` // Non-missing samples
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Variance float64 `json:"variance"` // Population variance; 0 for degenerate segments
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// StatisticalSummary is the per-segment aggregate produced by the
// summarizer. Score invariants: DataQuality and Significance are always
// in [0,1]; a segment with zero records has DataQuality 0 and is
// excluded from claim validation.
type StatisticalSummary struct {
	Segment      string                 `json:"segment"`
	Count        int                    `json:"count"` // Total records, including rows with missing metrics
	Metrics      map[string]MetricStats `json:"metrics"`
	Completeness float64                `json:"completeness"` // Fraction of non-missing values across tracked metrics
	DataQuality  float64                `json:"data_quality"` // completeness x size adequacy
	Significance float64                `json:"significance"` // Sample-size driven, dispersion-penalized
}
