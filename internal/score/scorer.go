package score

import (
	"sort"

	"marketlens/internal/model"
)

// Scorer combines data quality, statistical significance, and the
// validator's supported-claim ratio into composite confidence metrics.
// Pure and deterministic: identical summaries and claims always yield
// identical metrics.
type Scorer struct {
	cfg model.ScoreConfig
}

// NewScorer creates a scorer with the given weights.
func NewScorer(cfg model.ScoreConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes the composite confidence for one claim set against the
// contributing summaries.
func (s *Scorer) Score(summaries map[string]model.StatisticalSummary, claims []model.ValidatedClaim) model.ConfidenceMetrics {
	quality, significance := weightedSummaryScores(summaries)
	ratio, checkable := supportedRatio(claims, s.cfg.NeutralSupport)

	totalWeight := s.cfg.QualityWeight + s.cfg.SignificanceWeight + s.cfg.SupportWeight
	overall := 0.0
	if totalWeight > 0 {
		overall = (s.cfg.QualityWeight*quality +
			s.cfg.SignificanceWeight*significance +
			s.cfg.SupportWeight*ratio) / totalWeight
	}

	return model.ConfidenceMetrics{
		OverallConfidence:       clamp01(overall),
		DataQualityScore:        clamp01(quality),
		StatisticalSignificance: clamp01(significance),
		SupportedRatio:          clamp01(ratio),
		CheckableClaims:         checkable,
	}
}

// Degraded computes confidence for a bundle section whose provider call
// failed: confidence falls back to data quality alone, with significance
// and supported ratio treated as unavailable.
func (s *Scorer) Degraded(summaries map[string]model.StatisticalSummary) model.ConfidenceMetrics {
	quality, _ := weightedSummaryScores(summaries)
	return model.ConfidenceMetrics{
		OverallConfidence: clamp01(quality),
		DataQualityScore:  clamp01(quality),
		Degraded:          true,
	}
}

// weightedSummaryScores computes count-weighted means of data quality
// and significance across segments. Iteration runs over sorted keys so
// float accumulation is order-independent.
func weightedSummaryScores(summaries map[string]model.StatisticalSummary) (quality, significance float64) {
	keys := make([]string, 0, len(summaries))
	for k := range summaries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	total := 0
	for _, k := range keys {
		s := summaries[k]
		quality += float64(s.Count) * s.DataQuality
		significance += float64(s.Count) * s.Significance
		total += s.Count
	}
	if total == 0 {
		return 0, 0
	}
	return quality / float64(total), significance / float64(total)
}

// supportedRatio is supported / (supported + unsupported), with
// unverifiable claims excluded from the denominator. When nothing is
// checkable the ratio defaults to the configured neutral value, never
// 1.0: absence of evidence is not evidence of correctness.
func supportedRatio(claims []model.ValidatedClaim, neutral float64) (float64, int) {
	supported := 0
	unsupported := 0
	for _, c := range claims {
		switch c.Outcome {
		case model.ClaimSupported:
			supported++
		case model.ClaimUnsupported:
			unsupported++
		}
	}

	checkable := supported + unsupported
	if checkable == 0 {
		return neutral, 0
	}
	return float64(supported) / float64(checkable), checkable
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
