package stats

import (
	"math"
	"testing"

	"marketlens/internal/model"
)

func funnelRecord(id string, metrics map[string]float64) *model.NormalizedRecord {
	return &model.NormalizedRecord{
		ID:       id,
		Name:     id,
		Category: "D2C",
		Source:   "d2c_funnel",
		Metrics:  metrics,
	}
}

func TestAnalyzeFunnelLeakage_RanksWorstStages(t *testing.T) {
	records := []*model.NormalizedRecord{
		funnelRecord("c1", map[string]float64{
			"ctr":                     0.05,
			"overall_conversion_rate": 0.02,
			"install_to_signup_rate":  0.60,
			"signup_to_purchase_rate": 0.30,
			"retention_rate":          0.25,
		}),
		funnelRecord("c2", map[string]float64{
			"ctr":                     0.07,
			"overall_conversion_rate": 0.04,
			"install_to_signup_rate":  0.50,
			"signup_to_purchase_rate": 0.20,
			"retention_rate":          0.35,
		}),
	}

	report := AnalyzeFunnelLeakage(records)

	if len(report.ConversionRates) != 5 {
		t.Fatalf("Expected 5 stage rates, got %d", len(report.ConversionRates))
	}
	if math.Abs(report.ConversionRates["impression_to_click"]-0.06) > 1e-9 {
		t.Errorf("Expected impression_to_click 0.06, got %f", report.ConversionRates["impression_to_click"])
	}

	// Means: click_to_conversion 0.03, impression_to_click 0.06,
	// signup_to_purchase 0.25, first_to_repeat 0.30, install_to_signup 0.55.
	wantWorst := []string{"click_to_conversion", "impression_to_click"}
	if len(report.BiggestLeakagePoints) != 2 {
		t.Fatalf("Expected 2 leakage points, got %d", len(report.BiggestLeakagePoints))
	}
	for i, want := range wantWorst {
		if report.BiggestLeakagePoints[i] != want {
			t.Errorf("Leakage point %d: expected %s, got %s", i, want, report.BiggestLeakagePoints[i])
		}
	}

	if len(report.OptimizationPriority) != 3 {
		t.Fatalf("Expected 3 optimization priorities, got %d", len(report.OptimizationPriority))
	}
	if report.OptimizationPriority[2] != "signup_to_purchase" {
		t.Errorf("Expected third priority signup_to_purchase, got %s", report.OptimizationPriority[2])
	}
}

func TestAnalyzeFunnelLeakage_MissingMetricsExcluded(t *testing.T) {
	records := []*model.NormalizedRecord{
		funnelRecord("c1", map[string]float64{
			"ctr":            0.10,
			"retention_rate": model.Missing(),
		}),
	}

	report := AnalyzeFunnelLeakage(records)

	if len(report.ConversionRates) != 1 {
		t.Fatalf("Expected 1 stage rate, got %d", len(report.ConversionRates))
	}
	if _, ok := report.ConversionRates["first_to_repeat_purchase"]; ok {
		t.Error("Expected all-missing stage to be excluded")
	}
}

func TestAnalyzeFunnelLeakage_NoFunnelData(t *testing.T) {
	records := []*model.NormalizedRecord{
		funnelRecord("c1", map[string]float64{"rating": 4.5}),
	}

	report := AnalyzeFunnelLeakage(records)

	if len(report.ConversionRates) != 0 {
		t.Errorf("Expected no stage rates, got %d", len(report.ConversionRates))
	}
	if len(report.BiggestLeakagePoints) != 0 || len(report.OptimizationPriority) != 0 {
		t.Error("Expected no leakage ranking without funnel metrics")
	}
}
