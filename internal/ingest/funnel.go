package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"

	"marketlens/internal/model"
)

// funnelBaseFields are read straight from the sheet.
var funnelBaseFields = []string{
	"ad_spend", "impressions", "clicks", "conversions", "revenue",
	"installs", "signups", "first_purchase", "repeat_purchase",
	"search_volume", "average_position", "conversion_rate",
}

// FunnelExcel loads a D2C eCommerce funnel workbook and derives the
// acquisition and retention metrics downstream analysis uses.
type FunnelExcel struct {
	path string
}

// NewFunnelExcel creates a funnel Excel source.
func NewFunnelExcel(path string) *FunnelExcel {
	return &FunnelExcel{path: path}
}

// Name returns the source tag.
func (s *FunnelExcel) Name() string {
	return "d2c_funnel"
}

// Fetch reads the first sheet. Derived rates use safe division: a zero
// or missing denominator yields a missing metric, never zero.
func (s *FunnelExcel) Fetch(ctx context.Context) ([]Row, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open funnel workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("funnel workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("funnel workbook has no data rows")
	}

	col := map[string]int{}
	for i, h := range rows[0] {
		col[canonicalField(h)] = i
	}

	var out []Row
	for _, rec := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row := Row{
			"campaign_id": cell(rec, col, "campaign_id"),
			"category":    cell(rec, col, "category"),
			"platform":    "d2c",
		}
		for _, field := range funnelBaseFields {
			row[field] = parseCell(cell(rec, col, field))
		}

		spend := row["ad_spend"].(float64)
		impressions := row["impressions"].(float64)
		clicks := row["clicks"].(float64)
		conversions := row["conversions"].(float64)
		revenue := row["revenue"].(float64)

		row["cac"] = safeDivide(spend, conversions)
		row["roas"] = safeDivide(revenue, spend)
		row["ctr"] = safeDivide(clicks, impressions)
		row["cpc"] = safeDivide(spend, clicks)
		row["install_to_signup_rate"] = safeDivide(row["signups"].(float64), row["installs"].(float64))
		row["signup_to_purchase_rate"] = safeDivide(row["first_purchase"].(float64), row["signups"].(float64))
		row["retention_rate"] = safeDivide(row["repeat_purchase"].(float64), row["first_purchase"].(float64))
		row["overall_conversion_rate"] = safeDivide(conversions, clicks)

		out = append(out, row)
	}

	return out, nil
}

func cell(rec []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseCell(s string) float64 {
	if s == "" {
		return model.Missing()
	}
	v, err := cast.ToFloat64E(strings.NewReplacer("$", "", ",", "", "%", "").Replace(s))
	if err != nil {
		return model.Missing()
	}
	return v
}

func safeDivide(num, den float64) float64 {
	if model.IsMissing(num) || model.IsMissing(den) || den == 0 {
		return model.Missing()
	}
	return num / den
}
