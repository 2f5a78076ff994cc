package stats

import (
	"sort"

	"marketlens/internal/model"
)

// funnelStages in order from impression to repeat purchase.
var funnelStages = []struct {
	Name   string
	Metric string
}{
	{"impression_to_click", "ctr"},
	{"click_to_conversion", "overall_conversion_rate"},
	{"install_to_signup", "install_to_signup_rate"},
	{"signup_to_purchase", "signup_to_purchase_rate"},
	{"first_to_repeat_purchase", "retention_rate"},
}

// LeakageReport identifies where the acquisition funnel loses the most
// users.
type LeakageReport struct {
	ConversionRates      map[string]float64 `json:"conversion_rates"`
	BiggestLeakagePoints []string           `json:"biggest_leakage_points"` // Two worst stages
	OptimizationPriority []string           `json:"optimization_priority"`  // Three worst stages
}

// AnalyzeFunnelLeakage computes mean stage conversion rates across all
// records and ranks the drop-off points. Records without funnel metrics
// contribute nothing.
func AnalyzeFunnelLeakage(records []*model.NormalizedRecord) LeakageReport {
	report := LeakageReport{ConversionRates: map[string]float64{}}

	type stageRate struct {
		name string
		rate float64
	}
	var rates []stageRate

	for _, stage := range funnelStages {
		values := make([]float64, 0, len(records))
		for _, rec := range records {
			if v, ok := rec.Metric(stage.Metric); ok {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}
		mean := aggregate(values).Mean
		report.ConversionRates[stage.Name] = mean
		rates = append(rates, stageRate{stage.Name, mean})
	}

	sort.Slice(rates, func(i, j int) bool {
		if rates[i].rate != rates[j].rate {
			return rates[i].rate < rates[j].rate
		}
		return rates[i].name < rates[j].name
	})

	for i, r := range rates {
		if i < 2 {
			report.BiggestLeakagePoints = append(report.BiggestLeakagePoints, r.name)
		}
		if i < 3 {
			report.OptimizationPriority = append(report.OptimizationPriority, r.name)
		}
	}

	return report
}
