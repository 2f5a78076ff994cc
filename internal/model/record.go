package model

import "math"

// NormalizedRecord is one row of the unified market schema. Records are
// immutable once produced by the normalizer.
type NormalizedRecord struct {
	ID       string             `json:"id"`                 // Stable identifier within the run
	Name     string             `json:"name"`               // App or campaign name
	Category string             `json:"category"`           // Never empty after normalization
	Platform string             `json:"platform,omitempty"` // android, ios, d2c
	Source   string             `json:"source"`             // Originating source tag (play_store, app_store, d2c_funnel)
	Metrics  map[string]float64 `json:"-"`                  // Metric name -> value; missing values stored as NaN
}

// Metric returns the named metric and whether it is present (non-missing).
func (r *NormalizedRecord) Metric(name string) (float64, bool) {
	v, ok := r.Metrics[name]
	if !ok || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Missing is the explicit marker for absent numeric fields. Downstream
// statistics must treat missing as distinct from zero.
func Missing() float64 {
	return math.NaN()
}

// IsMissing reports whether a metric value is the missing marker.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// DataSegment is a named subset of records grouped by category or cohort.
// It holds its members by reference and is a read-only view.
type DataSegment struct {
	Key     string              `json:"key"`
	Records []*NormalizedRecord `json:"-"`
}

// Count returns the number of records in the segment.
func (s *DataSegment) Count() int {
	return len(s.Records)
}
