package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"marketlens/internal/model"
)

// PlayStoreCSV loads a Google Play catalog export. The raw file carries
// formatted strings ("1,000,000+", "14M", "$4.99") that are parsed into
// numerics here, before normalization.
type PlayStoreCSV struct {
	path    string
	cleaned int
}

// NewPlayStoreCSV creates a Play Store CSV source.
func NewPlayStoreCSV(path string) *PlayStoreCSV {
	return &PlayStoreCSV{path: path}
}

// Name returns the source tag.
func (s *PlayStoreCSV) Name() string {
	return "play_store"
}

// Cleaned returns how many rows the last Fetch dropped during cleaning.
func (s *PlayStoreCSV) Cleaned() int {
	return s.cleaned
}

// Fetch reads and cleans the CSV. Duplicate app names keep the first
// occurrence; rows with impossible ratings or negative review counts are
// dropped and counted. Only unreadable files fail the source.
func (s *PlayStoreCSV) Fetch(ctx context.Context) ([]Row, error) {
	s.cleaned = 0

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open play store csv: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // The public dataset has ragged rows

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var rows []Row
	seen := map[string]bool{}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A single malformed row is skipped, not fatal.
			s.cleaned++
			continue
		}

		name := field(rec, col, "app")
		if name == "" || seen[strings.ToLower(name)] {
			s.cleaned++
			continue
		}

		rating := parseFloatOrMissing(field(rec, col, "rating"))
		reviews := parseFloatOrMissing(field(rec, col, "reviews"))
		if !model.IsMissing(rating) && rating > 5 {
			s.cleaned++ // Suspicious data, mirror-cleaned out
			continue
		}
		if !model.IsMissing(reviews) && reviews < 0 {
			s.cleaned++
			continue
		}
		seen[strings.ToLower(name)] = true

		rows = append(rows, Row{
			"name":         name,
			"category":     strings.ToUpper(field(rec, col, "category")),
			"platform":     "android",
			"rating":       rating,
			"review_count": reviews,
			"installs":     parseInstalls(field(rec, col, "installs")),
			"size_mb":      parseSizeMB(field(rec, col, "size")),
			"price":        parsePrice(field(rec, col, "price")),
			"type":         field(rec, col, "type"),
		})
	}

	return rows, nil
}

func field(rec []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseFloatOrMissing(s string) float64 {
	if s == "" || strings.EqualFold(s, "nan") {
		return model.Missing()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return model.Missing()
	}
	return v
}

// parseInstalls converts "1,000,000+" style install counts. "0+" means
// at least one install.
func parseInstalls(s string) float64 {
	if s == "" {
		return model.Missing()
	}
	if s == "0" {
		return 0
	}
	if s == "0+" {
		return 1
	}
	clean := strings.NewReplacer("+", "", ",", "").Replace(s)
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return model.Missing()
	}
	return v
}

// parseSizeMB converts "14M" / "900k" / "1.2G" to megabytes. "Varies
// with device" has no numeric value.
func parseSizeMB(s string) float64 {
	if s == "" || strings.EqualFold(s, "varies with device") {
		return model.Missing()
	}
	upper := strings.ToUpper(s)
	// Handle ranges like "1.2M - 5.6M" by taking the lower bound.
	if i := strings.Index(upper, " - "); i >= 0 {
		upper = upper[:i]
	}

	factor := 1.0
	switch {
	case strings.HasSuffix(upper, "M"):
		upper = strings.TrimSuffix(upper, "M")
	case strings.HasSuffix(upper, "K"):
		upper = strings.TrimSuffix(upper, "K")
		factor = 1.0 / 1024
	case strings.HasSuffix(upper, "G"):
		upper = strings.TrimSuffix(upper, "G")
		factor = 1024
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(upper), 64)
	if err != nil {
		return model.Missing()
	}
	return v * factor
}

func parsePrice(s string) float64 {
	if s == "" {
		return model.Missing()
	}
	if s == "0" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(s, "$", "")), 64)
	if err != nil {
		return model.Missing()
	}
	return v
}
