package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cast"
	"golang.org/x/time/rate"

	"marketlens/internal/model"
)

const appStoreMaxBody = 1 << 20

// AppStoreAPI fetches per-app details from a RapidAPI-style endpoint.
// Requests are rate limited per provider terms and retried with
// exponential backoff on transient failures.
type AppStoreAPI struct {
	cfg       model.AppStoreConfig
	bundleIDs []string
	client    *http.Client
	limiter   *rate.Limiter
}

// defaultBundleIDs are queried when the caller supplies none.
var defaultBundleIDs = []string{
	"com.facebook.Facebook",
	"net.whatsapp.WhatsApp",
	"com.burbn.instagram",
	"com.zhiliaoapp.musically",
	"com.netflix.Netflix",
	"com.google.Gmail",
	"com.spotify.client",
}

// NewAppStoreAPI creates an App Store source for the given bundle IDs.
func NewAppStoreAPI(cfg model.AppStoreConfig, bundleIDs []string) *AppStoreAPI {
	if len(bundleIDs) == 0 {
		bundleIDs = defaultBundleIDs
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 0.5
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &AppStoreAPI{
		cfg:       cfg,
		bundleIDs: bundleIDs,
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Name returns the source tag.
func (s *AppStoreAPI) Name() string {
	return "app_store"
}

// Fetch queries app details one bundle ID at a time. Individual app
// failures are skipped; the source only fails when the key is missing or
// nothing could be fetched at all.
func (s *AppStoreAPI) Fetch(ctx context.Context) ([]Row, error) {
	if s.cfg.APIKey == "" {
		return nil, fmt.Errorf("app store api key not configured")
	}

	ids := s.bundleIDs
	if s.cfg.MaxApps > 0 && len(ids) > s.cfg.MaxApps {
		ids = ids[:s.cfg.MaxApps]
	}

	var rows []Row
	var lastErr error

	for _, id := range ids {
		if err := s.limiter.Wait(ctx); err != nil {
			return rows, err
		}

		row, err := s.fetchApp(ctx, id)
		if err != nil {
			lastErr = err
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("fetch app store data: %w", lastErr)
		}
		return nil, fmt.Errorf("no app store data fetched")
	}

	return rows, nil
}

func (s *AppStoreAPI) fetchApp(ctx context.Context, bundleID string) (Row, error) {
	var payload map[string]any

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		q := req.URL.Query()
		q.Set("bundle_id", bundleID)
		q.Set("country", "us")
		req.URL.RawQuery = q.Encode()
		req.Header.Set("X-RapidAPI-Key", s.cfg.APIKey)
		req.Header.Set("X-RapidAPI-Host", s.cfg.Host)

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(io.LimitReader(resp.Body, appStoreMaxBody))
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("app store api: HTTP %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("app store api: HTTP %d", resp.StatusCode))
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return backoff.Permanent(fmt.Errorf("decode app details: %w", err))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}

	// Field names vary across API revisions; try each known spelling.
	return Row{
		"app_id":       bundleID,
		"name":         pickString(payload, "name", "title", "trackName"),
		"category":     pickString(payload, "genre", "category", "primaryGenreName"),
		"platform":     "ios",
		"rating":       pickNumber(payload, "averageUserRating", "rating", "averageRating"),
		"review_count": pickNumber(payload, "userRatingCount", "reviewCount", "ratingCount"),
		"price":        pickNumber(payload, "price", "trackPrice"),
		"size_mb":      bytesToMB(pickNumber(payload, "fileSizeBytes", "size")),
		"developer":    pickString(payload, "artistName", "developer", "sellerName"),
	}, nil
}

func pickString(payload map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := payload[k]; ok {
			if s := cast.ToString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func pickNumber(payload map[string]any, keys ...string) float64 {
	for _, k := range keys {
		if v, ok := payload[k]; ok {
			if f, err := cast.ToFloat64E(v); err == nil {
				return f
			}
		}
	}
	return model.Missing()
}

func bytesToMB(v float64) float64 {
	if model.IsMissing(v) || v <= 0 {
		return model.Missing()
	}
	return v / (1024 * 1024)
}
