package ingest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"marketlens/internal/model"
)

// Aliases for the unified identity fields. Sources with their own column
// names map onto one schema here.
var (
	nameAliases     = []string{"name", "app", "campaign_id", "track_name"}
	categoryAliases = []string{"category", "genre", "primary_genre_name"}
	platformAliases = []string{"platform"}
)

// identityFields are excluded from metric extraction.
var identityFields = map[string]bool{
	"name": true, "app": true, "campaign_id": true, "track_name": true,
	"category": true, "genre": true, "primary_genre_name": true,
	"platform": true, "app_id": true, "developer": true, "version": true,
	"description": true, "type": true, "content_rating": true,
	"last_updated": true, "source": true,
}

// NormalizeResult is the outcome of normalizing one or more sources.
type NormalizeResult struct {
	Records      []*model.NormalizedRecord
	Dropped      int     // Rows dropped by source cleaning or for missing identity fields
	SourceErrors []error // Per-source failures, including SchemaError
}

// Normalizer maps heterogeneous source rows into the unified schema.
type Normalizer struct{}

// NewNormalizer creates a normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize fetches every source and produces the unified record set.
// A failing source is recorded in SourceErrors and skipped; the run only
// fails when no source yields any records.
func (n *Normalizer) Normalize(ctx context.Context, sources ...Source) (*NormalizeResult, error) {
	result := &NormalizeResult{}

	for _, src := range sources {
		rows, err := src.Fetch(ctx)
		if err != nil {
			result.SourceErrors = append(result.SourceErrors, &model.ProviderError{Provider: src.Name(), Err: err})
			continue
		}

		records, dropped, err := n.normalizeSource(src.Name(), rows)
		if err != nil {
			result.SourceErrors = append(result.SourceErrors, err)
			continue
		}

		result.Records = append(result.Records, records...)
		result.Dropped += dropped
		if cc, ok := src.(CleanedCounter); ok {
			result.Dropped += cc.Cleaned()
		}
	}

	if len(result.Records) == 0 {
		return result, fmt.Errorf("no records from any source (%d sources failed)", len(result.SourceErrors))
	}

	return result, nil
}

// normalizeSource maps one source's rows into NormalizedRecords. Rows
// missing both identity fields are dropped and counted; if no row in the
// source carries a category or name, the whole source fails with a
// SchemaError.
func (n *Normalizer) normalizeSource(source string, rows []Row) ([]*model.NormalizedRecord, int, error) {
	if len(rows) == 0 {
		return nil, 0, nil
	}

	sawCategory := false
	sawName := false
	dropped := 0
	var records []*model.NormalizedRecord

	// Union of metric keys across the source, so every record carries an
	// explicit missing marker for metrics other rows have.
	metricKeys := map[string]bool{}

	for i, row := range rows {
		canonical := canonicalizeRow(row)

		name := firstString(canonical, nameAliases)
		category := firstString(canonical, categoryAliases)
		if name != "" {
			sawName = true
		}
		if category != "" {
			sawCategory = true
		}
		if name == "" || category == "" {
			dropped++
			continue
		}

		metrics := map[string]float64{}
		for key, val := range canonical {
			if identityFields[key] {
				continue
			}
			f, err := coerceMetric(val)
			if err != nil {
				// Non-numeric scalar in a metric position: explicit missing, never zero.
				metrics[key] = model.Missing()
				metricKeys[key] = true
				continue
			}
			metrics[key] = f
			metricKeys[key] = true
		}

		records = append(records, &model.NormalizedRecord{
			ID:       recordID(source, name, i),
			Name:     name,
			Category: category,
			Platform: firstString(canonical, platformAliases),
			Source:   source,
			Metrics:  metrics,
		})
	}

	if !sawCategory {
		return nil, dropped, &model.SchemaError{Source: source, Field: "category"}
	}
	if !sawName {
		return nil, dropped, &model.SchemaError{Source: source, Field: "name"}
	}

	// Backfill missing markers for metrics the row never mentioned.
	keys := sortedKeys(metricKeys)
	for _, rec := range records {
		for _, k := range keys {
			if _, ok := rec.Metrics[k]; !ok {
				rec.Metrics[k] = model.Missing()
			}
		}
	}

	return records, dropped, nil
}

// canonicalizeRow lowercases and snake-cases field names so alias lookup
// works across source conventions ("Review Count", "reviewCount", ...).
func canonicalizeRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		out[canonicalField(k)] = v
	}
	return out
}

func canonicalField(name string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == ' ' || r == '-' || r == '.':
			b.WriteRune('_')
			prevLower = false
		case r >= 'A' && r <= 'Z':
			if prevLower {
				b.WriteRune('_')
			}
			b.WriteRune(r - 'A' + 'a')
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = r >= 'a' && r <= 'z' || r >= '0' && r <= '9'
		}
	}
	return b.String()
}

func firstString(row Row, aliases []string) string {
	for _, a := range aliases {
		if v, ok := row[a]; ok {
			s := strings.TrimSpace(cast.ToString(v))
			if s != "" {
				return s
			}
		}
	}
	return ""
}

// coerceMetric converts a scalar to float64, tolerating currency symbols
// and thousands separators.
func coerceMetric(v any) (float64, error) {
	switch s := v.(type) {
	case string:
		cleaned := strings.TrimSpace(strings.NewReplacer("$", "", ",", "", "+", "").Replace(s))
		if cleaned == "" {
			return 0, fmt.Errorf("empty value")
		}
		return cast.ToFloat64E(cleaned)
	default:
		return cast.ToFloat64E(v)
	}
}

func recordID(source, name string, idx int) string {
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
	return fmt.Sprintf("%s_%s_%d", source, slug, idx)
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
