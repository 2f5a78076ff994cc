package ingest

import "context"

// Row is one raw record from a data source: field name to scalar,
// possibly with fields missing entirely.
type Row map[string]any

// Source supplies raw tabular records. A source failure surfaces as a
// source-level error; the normalizer proceeds with whatever sources
// succeeded.
type Source interface {
	// Name returns the source tag recorded on normalized records.
	Name() string

	// Fetch returns zero or more rows.
	Fetch(ctx context.Context) ([]Row, error)
}

// CleanedCounter is implemented by sources that drop rows during their
// own cleaning pass, before normalization. The count covers the most
// recent Fetch.
type CleanedCounter interface {
	Cleaned() int
}
