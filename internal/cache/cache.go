package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"marketlens/internal/model"
)

// Store is the result cache interface. The core stays stateless between
// runs; cached summaries and bundles are keyed by dataset content so
// identical inputs hit, changed inputs miss.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// DatasetKey derives the reproducibility cache key from the normalized
// dataset plus the configuration that shapes analysis. Records are
// folded in sorted-ID order so row order never changes the key.
func DatasetKey(records []*model.NormalizedRecord, cfg model.Config) string {
	h := sha256.New()

	ids := make([]string, 0, len(records))
	byID := make(map[string]*model.NormalizedRecord, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
		byID[rec.ID] = rec
	}
	sort.Strings(ids)

	for _, id := range ids {
		rec := byID[id]
		fmt.Fprintf(h, "%s|%s|%s|%s\n", rec.ID, rec.Category, rec.Platform, rec.Source)

		metrics := make([]string, 0, len(rec.Metrics))
		for name := range rec.Metrics {
			metrics = append(metrics, name)
		}
		sort.Strings(metrics)
		for _, name := range metrics {
			v := rec.Metrics[name]
			if math.IsNaN(v) {
				fmt.Fprintf(h, "%s=missing\n", name)
				continue
			}
			fmt.Fprintf(h, "%s=%x\n", name, math.Float64bits(v))
		}
	}

	// Field order of the marshal is fixed by the struct definition.
	if cfgJSON, err := json.Marshal(cfg); err == nil {
		h.Write(cfgJSON)
	}

	return "marketlens:v1:" + hex.EncodeToString(h.Sum(nil))
}
